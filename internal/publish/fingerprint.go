package publish

import (
	"strings"

	"github.com/inful/mdfp"
)

// Fingerprint hashes the published header and body. The header is
// canonicalised to LF newlines with a single trailing newline trimmed and any
// existing fingerprint line dropped, so a stored fingerprint never changes
// its own hash.
func Fingerprint(header []byte, body string) string {
	lines := strings.Split(strings.ReplaceAll(string(header), "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(l, mdfp.FingerprintField+":") {
			continue
		}
		kept = append(kept, l)
	}
	canonical := strings.TrimSuffix(strings.Join(kept, "\n"), "\n")
	return mdfp.CalculateFingerprintFromParts(canonical, strings.ReplaceAll(body, "\r\n", "\n"))
}
