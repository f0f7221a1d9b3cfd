package content

import (
	"errors"
	"fmt"
	"strconv"
)

// Field type discriminators. They mirror the form controls the admin
// console renders and tell the validator how to check a value.
const (
	FieldText     = "text"
	FieldTextArea = "textarea"
	FieldDate     = "date"
	FieldNumber   = "number"
	FieldSelect   = "select"
	FieldFile     = "file"
	FieldBool     = "bool"
)

// Sentinel errors for collection and record lookups.
var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrRecordNotFound    = errors.New("record not found")
)

// Field describes one attribute of a collection's records.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Label    string   `json:"label"`
	Required bool     `json:"required,omitempty"`
	Options  []string `json:"options,omitempty"` // select fields only
}

// Collection describes one managed content section: its API path segment,
// field schema, and multipart convention.
type Collection struct {
	Name   string  `json:"name"`
	Path   string  `json:"path"` // URL segment with trailing slash, e.g. "news/"
	Fields []Field `json:"fields"`

	// AlwaysMultipart marks collections whose create/update requests are
	// always form-encoded, even when no file is staged (gallery, staff).
	AlwaysMultipart bool `json:"always_multipart,omitempty"`
}

// Field returns the named field descriptor.
func (c Collection) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FileFields returns the file-typed fields of the collection, in schema order.
func (c Collection) FileFields() []Field {
	var out []Field
	for _, f := range c.Fields {
		if f.Type == FieldFile {
			out = append(out, f)
		}
	}
	return out
}

// HasFile reports whether the collection carries at least one file field.
func (c Collection) HasFile() bool {
	return len(c.FileFields()) > 0
}

// ValidationError describes a single rejected field value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// Validate checks a proposed field map against the schema. File fields are
// exempt: uploads arrive out of band and existing records keep their
// attachment when none is staged. Partial is true for PATCH-style updates
// where absent required fields are acceptable.
func (c Collection) Validate(fields map[string]any, partial bool) error {
	for _, f := range c.Fields {
		val, present := fields[f.Name]

		if !present || val == nil || val == "" {
			if f.Required && f.Type != FieldFile && !partial {
				return &ValidationError{Field: f.Name, Reason: "required"}
			}
			continue
		}

		switch f.Type {
		case FieldSelect:
			s, ok := val.(string)
			if !ok {
				return &ValidationError{Field: f.Name, Reason: "must be a string"}
			}
			if !contains(f.Options, s) {
				return &ValidationError{Field: f.Name, Reason: fmt.Sprintf("%q is not an allowed option", s)}
			}
		case FieldNumber:
			if !isNumeric(val) {
				return &ValidationError{Field: f.Name, Reason: "must be numeric"}
			}
		case FieldBool:
			if !isBoolish(val) {
				return &ValidationError{Field: f.Name, Reason: "must be a boolean"}
			}
		}
	}

	// Reject fields outside the schema so typos surface instead of
	// silently persisting.
	for name := range fields {
		if _, ok := c.Field(name); !ok {
			return &ValidationError{Field: name, Reason: "not in schema"}
		}
	}

	return nil
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}

// isNumeric accepts JSON numbers (float64 after unmarshal), native ints,
// and numeric strings (multipart form values arrive as strings).
func isNumeric(v any) bool {
	switch n := v.(type) {
	case float64, int, int64:
		return true
	case string:
		_, err := strconv.ParseFloat(n, 64)
		return err == nil
	default:
		return false
	}
}

func isBoolish(v any) bool {
	switch b := v.(type) {
	case bool:
		return true
	case string:
		_, err := strconv.ParseBool(b)
		return err == nil
	default:
		return false
	}
}
