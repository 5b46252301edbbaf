package venue

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks applies Unicode compatibility normalization and strips combining
// marks, so that full-width, ligature, and accented variants of the same name
// compare equal (e.g. ＷＷＷ -> WWW, café -> cafe).
var foldMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFKC)

// Normalize canonicalizes free text for comparison: Unicode compatibility
// normalization, lowercase, strip everything that is not a letter, digit or
// whitespace, then collapse whitespace runs. Idempotent; empty in, empty out.
func Normalize(s string) string {
	folded, _, _ := transform.String(foldMarks, s)
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens splits an already-normalized string into its whitespace-delimited
// token set.
func Tokens(s string) []string {
	return strings.Fields(s)
}
