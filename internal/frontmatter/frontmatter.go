package frontmatter

import (
	"bytes"
	"errors"
)

const delimiter = "---"

// Style records the newline convention of a document so Join can reproduce it.
type Style struct {
	Newline string
}

// ErrMissingClosingDelimiter indicates the document opens a header block that
// is never closed.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// Split separates the `---` delimited header from the Markdown body. The
// header excludes both delimiter lines. Trailing spaces on a delimiter line
// are tolerated, and the closing delimiter may be the last line of the file.
//
// A document that does not open with a delimiter line has no header: had is
// false and body is the full input.
func Split(content []byte) (header []byte, body []byte, had bool, style Style, err error) {
	style = Style{Newline: newlineOf(content)}

	first, rest, _ := cutLine(content)
	if !isDelimiter(first) {
		return nil, content, false, style, nil
	}

	offset := len(content) - len(rest)
	for remaining := rest; ; {
		line, next, more := cutLine(remaining)
		if isDelimiter(line) {
			end := len(content) - len(remaining)
			return content[offset:end], next, true, style, nil
		}
		if !more {
			return nil, nil, false, style, ErrMissingClosingDelimiter
		}
		remaining = next
	}
}

// Join reassembles a document from a raw header and body. When had is false
// the body is returned unchanged.
func Join(header []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}
	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	var buf bytes.Buffer
	buf.Grow(2*(len(delimiter)+len(nl)) + len(header) + len(body))
	buf.WriteString(delimiter + nl)
	buf.Write(header)
	buf.WriteString(delimiter + nl)
	buf.Write(body)
	return buf.Bytes()
}

// cutLine splits off the first line without its terminator. more reports
// whether a terminator was found.
func cutLine(b []byte) (line, rest []byte, more bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil, false
	}
	return bytes.TrimSuffix(b[:i], []byte("\r")), b[i+1:], true
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t")) == delimiter
}

func newlineOf(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
