package meshcore

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// stopWords is the enumerated set of English stop words dropped during
// tokenization (spec §6). Grounded on search-common/src/tokenization.rs.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {},
	"of": {}, "at": {}, "by": {}, "for": {}, "with": {}, "about": {},
	"against": {}, "between": {}, "into": {}, "through": {}, "during": {},
	"before": {}, "after": {}, "above": {}, "below": {}, "to": {}, "from": {},
	"up": {}, "down": {}, "in": {}, "out": {}, "on": {}, "off": {}, "over": {},
	"under": {}, "again": {}, "further": {}, "then": {}, "once": {}, "is": {},
	"are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "having": {}, "do": {}, "does": {},
	"did": {}, "doing": {}, "it": {}, "its": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "as": {}, "not": {}, "no": {}, "nor": {},
	"so": {}, "than": {}, "too": {}, "very": {}, "can": {}, "will": {},
	"just": {}, "should": {}, "now": {},
}

// IsStopWord reports whether word (already normalized) is in the dropped set.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// StripAccents removes Unicode combining marks by decomposing to NFD and
// dropping the Mn category, e.g. "café" -> "cafe". Uses
// golang.org/x/text/unicode/norm rather than a hand-rolled decomposition
// table.
func StripAccents(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeToken lowercases and strips accents from a single token.
func NormalizeToken(token string) string {
	return StripAccents(strings.ToLower(token))
}

// Tokenize splits text on non-alphanumeric boundaries, lowercases, strips
// combining marks, and drops stop words, per spec §6. The result is a
// multiset (repeats preserved) of terms used both to generate shard deltas
// and to route queries.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		norm := NormalizeToken(f)
		if norm == "" || IsStopWord(norm) {
			continue
		}
		terms = append(terms, norm)
	}
	return terms
}
