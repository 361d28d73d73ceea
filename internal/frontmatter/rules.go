package frontmatter

// FieldType names the value shape a Rule expects.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
	TypeDate    FieldType = "date"
	// TypeList accepts a single string or an array, as categories and tags
	// are commonly written either way.
	TypeList FieldType = "list"
)

// Rule constrains one header field.
type Rule struct {
	Field     string    `yaml:"field"`
	Required  bool      `yaml:"required,omitempty"`
	Type      FieldType `yaml:"type,omitempty"`
	MaxLength int       `yaml:"max_length,omitempty"`
	Values    []string  `yaml:"values,omitempty"`
	Pattern   string    `yaml:"pattern,omitempty"`
}

// DefaultTitleMaxLength bounds the title field of the default rule set.
const DefaultTitleMaxLength = 200

// DefaultRules requires a title and describes the common Jekyll post fields.
func DefaultRules() []Rule {
	return []Rule{
		{Field: "title", Required: true, Type: TypeString, MaxLength: DefaultTitleMaxLength},
		{Field: "layout", Type: TypeString},
		{Field: "description", Type: TypeString},
		{Field: "categories", Type: TypeList},
		{Field: "tags", Type: TypeList},
		{Field: "date", Type: TypeDate},
		{Field: "published", Type: TypeBoolean},
		{Field: "draft", Type: TypeBoolean},
		{Field: "comments", Type: TypeBoolean},
		{Field: "image", Type: TypeString},
		{Field: "author", Type: TypeString},
	}
}
