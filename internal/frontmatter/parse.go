package frontmatter

import (
	"fmt"
	"strconv"
	"strings"
)

// Fields is a parsed header. Values are string, bool, int64, float64 or []any.
type Fields map[string]any

// ParseError reports the first line the header parser could not accept.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// ParseFields reads a flat key/value header. It understands quoted strings,
// true/false, integers, decimals, inline [a, b] arrays and block "- item"
// arrays. Dates such as 2025-06-15 stay strings. Nested maps, anchors and
// multi-line scalars are rejected.
func ParseFields(raw []byte) (Fields, error) {
	fields := Fields{}
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")

	var listKey string
	var list []any
	flush := func() {
		if listKey == "" {
			return
		}
		if list == nil {
			fields[listKey] = ""
		} else {
			fields[listKey] = list
		}
		listKey, list = "", nil
	}

	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if strings.HasPrefix(trimmed, "- ") || trimmed == "-" {
			if listKey == "" {
				return nil, &ParseError{Line: lineNo, Msg: "list item without a key"}
			}
			item, err := parseScalar(strings.TrimSpace(strings.TrimPrefix(trimmed, "-")))
			if err != nil {
				return nil, &ParseError{Line: lineNo, Msg: err.Error()}
			}
			list = append(list, item)
			continue
		}

		if line[0] == ' ' || line[0] == '\t' {
			return nil, &ParseError{Line: lineNo, Msg: "nested values are not supported"}
		}
		flush()

		key, value, ok := strings.Cut(trimmed, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("expected key: value, got %q", trimmed)}
		}
		value = strings.TrimSpace(value)

		switch {
		case value == "":
			listKey = key
		case strings.HasPrefix(value, "["):
			arr, err := parseInlineArray(value)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Msg: err.Error()}
			}
			fields[key] = arr
		case value == "|" || value == ">" || strings.HasPrefix(value, "&") || strings.HasPrefix(value, "*") || strings.HasPrefix(value, "{"):
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("unsupported value for %s", key)}
		default:
			v, err := parseScalar(value)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Msg: err.Error()}
			}
			fields[key] = v
		}
	}
	flush()
	return fields, nil
}

func parseInlineArray(value string) ([]any, error) {
	if !strings.HasSuffix(value, "]") {
		return nil, fmt.Errorf("unterminated array %q", value)
	}
	inner := strings.TrimSpace(value[1 : len(value)-1])
	out := []any{}
	if inner == "" {
		return out, nil
	}
	for _, part := range splitArrayItems(inner) {
		item, err := parseScalar(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// splitArrayItems splits on commas outside of quotes.
func splitArrayItems(s string) []string {
	var parts []string
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && quote == '"' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ',':
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func parseScalar(token string) (any, error) {
	if token == "" {
		return "", nil
	}
	if token[0] == '"' || token[0] == '\'' {
		token = stripQuotedComment(token)
	}
	switch token[0] {
	case '"':
		if len(token) < 2 || token[len(token)-1] != '"' {
			return nil, fmt.Errorf("unterminated string %s", token)
		}
		s, err := strconv.Unquote(token)
		if err != nil {
			return nil, fmt.Errorf("invalid quoted string %s", token)
		}
		return s, nil
	case '\'':
		if len(token) < 2 || token[len(token)-1] != '\'' {
			return nil, fmt.Errorf("unterminated string %s", token)
		}
		return strings.ReplaceAll(token[1:len(token)-1], "''", "'"), nil
	}

	switch token {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if isDateToken(token) {
		return token, nil
	}
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil && strings.ContainsAny(token, "0123456789") {
		return f, nil
	}
	// strip trailing comments from bare scalars
	if idx := strings.Index(token, " #"); idx >= 0 {
		return parseScalar(strings.TrimSpace(token[:idx]))
	}
	return token, nil
}

// stripQuotedComment drops a ` # comment` that follows the closing quote of
// a quoted scalar. Tokens without a closing quote are returned unchanged.
func stripQuotedComment(token string) string {
	q := token[0]
	for i := 1; i < len(token); i++ {
		switch {
		case q == '"' && token[i] == '\\':
			i++
		case token[i] != q:
		case q == '\'' && i+1 < len(token) && token[i+1] == '\'':
			i++
		default:
			rest := strings.TrimSpace(token[i+1:])
			if strings.HasPrefix(rest, "#") && token[i+1] != '#' {
				return token[:i+1]
			}
			return token
		}
	}
	return token
}

func isDateToken(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, c := range s {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// String returns the value of key when it is a non-empty string.
func (f Fields) String(key string) (string, bool) {
	s, ok := f[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Strings returns key as a list of strings. A bare string counts as a
// one-element list.
func (f Fields) Strings(key string) []string {
	switch v := f[key].(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}
