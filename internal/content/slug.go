package content

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases s, folds accented letters to their base letter, collapses
// every run of other characters to a single hyphen and trims hyphens from both
// ends. Slugify(Slugify(s)) == Slugify(s).
func Slugify(s string) string {
	s = norm.NFKD.String(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	pendingHyphen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}
