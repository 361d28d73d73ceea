package frontmatter

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Reserved field names for problems that are not about a single field.
const (
	FieldBlock  = "_frontmatter"
	FieldSyntax = "_yaml"
)

// FieldIssue is one validation error or warning.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of Validate. Valid is true iff Errors is
// empty; warnings never affect validity.
type ValidationResult struct {
	Valid       bool         `json:"valid"`
	Errors      []FieldIssue `json:"errors"`
	Warnings    []FieldIssue `json:"warnings"`
	Frontmatter Fields       `json:"frontmatter,omitempty"`
}

func (r *ValidationResult) addError(field, msg string) {
	r.Errors = append(r.Errors, FieldIssue{Field: field, Message: msg})
}

func (r *ValidationResult) addWarning(field, msg string) {
	r.Warnings = append(r.Warnings, FieldIssue{Field: field, Message: msg})
}

// Summary joins the error messages into one line.
func (r ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}

// Validate extracts the header of content and checks it against rules.
func Validate(content []byte, rules []Rule) ValidationResult {
	result := ValidationResult{Errors: []FieldIssue{}, Warnings: []FieldIssue{}}

	raw, _, had, _, err := Split(content)
	if err != nil || !had {
		msg := "document has no frontmatter block"
		if errors.Is(err, ErrMissingClosingDelimiter) {
			msg = "frontmatter block is not closed with ---"
		}
		result.addError(FieldBlock, msg)
		return result
	}

	fields, err := ParseFields(raw)
	if err != nil {
		result.addError(FieldSyntax, fmt.Sprintf("invalid frontmatter: %v", err))
		return result
	}
	result.Frontmatter = fields

	for _, rule := range rules {
		checkRule(&result, fields, rule)
	}
	result.Valid = len(result.Errors) == 0
	return result
}

func checkRule(result *ValidationResult, fields Fields, rule Rule) {
	value, present := fields[rule.Field]
	if !present || isEmpty(value) {
		if rule.Required {
			result.addError(rule.Field, fmt.Sprintf("%s is required", rule.Field))
		}
		return
	}

	if rule.Type != "" && !matchesType(value, rule.Type) {
		result.addError(rule.Field, fmt.Sprintf("%s must be of type %s", rule.Field, rule.Type))
		return
	}

	s, isString := value.(string)
	if !isString {
		return
	}
	if rule.MaxLength > 0 {
		if n := utf8.RuneCountInString(s); n > rule.MaxLength {
			result.addError(rule.Field, fmt.Sprintf("%s exceeds maximum length of %d characters (%d)", rule.Field, rule.MaxLength, n))
		}
	}
	if len(rule.Values) > 0 && !slices.Contains(rule.Values, s) {
		result.addWarning(rule.Field, fmt.Sprintf("%s should be one of: %s", rule.Field, strings.Join(rule.Values, ", ")))
	}
	if rule.Pattern != "" {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			result.addError(rule.Field, fmt.Sprintf("%s has an invalid pattern rule: %v", rule.Field, err))
		} else if !re.MatchString(s) {
			result.addError(rule.Field, fmt.Sprintf("%s does not match pattern %s", rule.Field, rule.Pattern))
		}
	}
}

func isEmpty(v any) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(vv) == ""
	case []any:
		return len(vv) == 0
	}
	return false
}

func matchesType(v any, t FieldType) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		switch v.(type) {
		case int64, float64:
			return true
		}
		return false
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeArray:
		_, ok := v.([]any)
		return ok
	case TypeList:
		switch v.(type) {
		case string, []any:
			return true
		}
		return false
	case TypeDate:
		s, ok := v.(string)
		if !ok {
			return false
		}
		_, err := ParseDate(s)
		return err == nil
	}
	return true
}

// ParseDate accepts YYYY-MM-DD, optionally followed by a time component.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return time.Parse(time.DateOnly, s[:10])
}
