package meshcore

import "strings"

// Field byte-length bounds enforced on every catalog variant (spec §6, B1):
// title up to 256 bytes, description up to 1024 bytes. mini_snippet/snippet
// carry no independent bound beyond the metadata hash's own framing.
const (
	MaxTitleBytes       = 256
	MaxDescriptionBytes = 1024
)

// CanonicalTitle trims surrounding whitespace and collapses interior
// whitespace runs to a single space, producing the text form that feeds
// MetadataHash. Grounded on search-common/src/normalization.rs.
func CanonicalTitle(s string) string {
	return collapseWhitespace(s)
}

// CanonicalDescription applies the same whitespace canonicalization as
// CanonicalTitle; title and description share one canonical text form.
func CanonicalDescription(s string) string {
	return collapseWhitespace(s)
}

// CanonicalSnippet canonicalizes snippet/mini_snippet text the same way as
// title and description, since all three feed the same length-prefixed hash.
func CanonicalSnippet(s string) string {
	return collapseWhitespace(s)
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
