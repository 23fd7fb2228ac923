package dimension

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes to NFKD and drops combining marks, so "Delhí" and
// "Delhi" normalize to the same token.
var deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL-friendly slug: strip diacritics, case-fold, collapse
// every non-alphanumeric run to a single hyphen, trim hyphens at the ends.
func Slugify(value string) string {
	folded, _, err := transform.String(deaccent, value)
	if err != nil {
		folded = value
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// Token returns the comparison key for an alias. Two aliases are equivalent
// iff their tokens are identical. Falls back to a trimmed lower-cased form
// when slugification leaves nothing (e.g. an alias of pure punctuation).
func Token(alias string) string {
	if slug := Slugify(alias); slug != "" {
		return slug
	}
	return strings.ToLower(strings.TrimSpace(alias))
}
