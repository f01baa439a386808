package meshcore

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractedMetadata is the best-effort page metadata pulled from an
// index.html document inside a web container.
type ExtractedMetadata struct {
	Title       string
	Description string
}

// ExtractMetadata walks htmlDoc and fills Title/Description by fallback:
// Title from <title>, else <meta property="og:title">, else the first <h1>;
// Description from <meta name="description">, else
// <meta property="og:description">, else the first <h1>. Malformed HTML
// yields a partial or empty result rather than an error — extraction is
// advisory.
func ExtractMetadata(htmlDoc string) ExtractedMetadata {
	node, err := html.Parse(strings.NewReader(htmlDoc))
	if err != nil {
		return ExtractedMetadata{}
	}

	var out ExtractedMetadata
	var ogDescription, ogTitle, firstH1 string
	var metaDescription string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if out.Title == "" {
					out.Title = textContent(n)
				}
			case "meta":
				name, property, content := metaAttrs(n)
				switch {
				case strings.EqualFold(name, "description") && metaDescription == "":
					metaDescription = content
				case strings.EqualFold(property, "og:description") && ogDescription == "":
					ogDescription = content
				case strings.EqualFold(property, "og:title") && ogTitle == "":
					ogTitle = content
				}
			case "h1":
				if firstH1 == "" {
					firstH1 = textContent(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)

	if out.Title == "" {
		out.Title = ogTitle
	}
	if out.Title == "" {
		out.Title = firstH1
	}

	out.Description = metaDescription
	if out.Description == "" {
		out.Description = ogDescription
	}
	if out.Description == "" {
		out.Description = firstH1
	}

	return out
}

func metaAttrs(n *html.Node) (name, property, content string) {
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "name":
			name = a.Val
		case "property":
			property = a.Val
		case "content":
			content = a.Val
		}
	}
	return
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
