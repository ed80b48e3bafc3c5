package parser

// Document is what the scanner keeps from one HTML page.
type Document struct {
	Title   string
	Links   []string // absolute, de-duplicated, in document order
	Forms   []Form
	Scripts []string // absolute script src URLs
	Meta    map[string]string
	// Comments holds HTML comment text; fingerprints sometimes key on it.
	Comments []string
}

// Form is an HTML form with its action resolved.
type Form struct {
	Action    string  `json:"action" yaml:"action"`
	Method    string  `json:"method" yaml:"method"` // "GET" or "POST"
	Enctype   string  `json:"enctype,omitempty" yaml:"enctype,omitempty"`
	Fields    []Field `json:"fields" yaml:"fields"`
	HasCSRF   bool    `json:"has_csrf" yaml:"has_csrf"`
	CSRFField string  `json:"csrf_field,omitempty" yaml:"csrf_field,omitempty"`
}

// Field is one named or unnamed form control.
type Field struct {
	Name         string `json:"name" yaml:"name"`
	Kind         string `json:"kind" yaml:"kind"` // input type, "textarea" or "select"
	DefaultValue string `json:"default_value,omitempty" yaml:"default_value,omitempty"`
}

// NamedFields returns the fields that would be submitted.
func (f Form) NamedFields() []Field {
	out := make([]Field, 0, len(f.Fields))
	for _, field := range f.Fields {
		if field.Name != "" {
			out = append(out, field)
		}
	}
	return out
}

// HasPassword reports whether the form asks for a password.
func (f Form) HasPassword() bool {
	for _, field := range f.Fields {
		if field.Kind == "password" {
			return true
		}
	}
	return false
}
