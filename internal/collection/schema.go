package collection

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/multierr"
)

// Kind is the primitive type a front matter field must hold.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
)

// Field is a single rule in a Schema.
type Field struct {
	Name        string
	Kind        Kind
	Optional    bool
	NonEmpty    bool
	Description string
}

// String declares a required string field.
func String(name string) Field {
	return Field{Name: name, Kind: KindString}
}

// Number declares a required numeric field.
func Number(name string) Field {
	return Field{Name: name, Kind: KindNumber}
}

// AsOptional allows the field to be absent. An explicit null is still invalid.
func (f Field) AsOptional() Field {
	f.Optional = true
	return f
}

// AsNonEmpty rejects the empty string. Only meaningful for string fields.
func (f Field) AsNonEmpty() Field {
	f.NonEmpty = true
	return f
}

// Describe attaches a human readable description, used in generated JSON Schemas.
func (f Field) Describe(text string) Field {
	f.Description = text
	return f
}

// Schema is an ordered set of field rules applied to an entry's front matter.
type Schema struct {
	fields []Field
}

// Object builds a Schema from fields, in declaration order.
func Object(fields ...Field) Schema {
	return Schema{fields: append([]Field(nil), fields...)}
}

// Fields returns a copy of the schema's rules.
func (s Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Validate checks frontMatter against every rule and returns the typed values.
// Each offending field contributes one *SchemaValidationError to the returned
// error; use multierr.Errors to split them.
func (s Schema) Validate(collection, document string, frontMatter map[string]any) (Values, error) {
	values := make(Values, len(frontMatter))
	for k, v := range frontMatter {
		values[k] = v
	}

	var errs error
	for _, f := range s.fields {
		raw, present := frontMatter[f.Name]
		if !present {
			if !f.Optional {
				errs = multierr.Append(errs, fieldError(collection, document, f.Name, "required"))
			}
			continue
		}

		v, reason := f.check(raw)
		if reason != "" {
			errs = multierr.Append(errs, fieldError(collection, document, f.Name, reason))
			continue
		}
		values[f.Name] = v
	}
	if errs != nil {
		return nil, errs
	}
	return values, nil
}

func (f Field) check(raw any) (any, string) {
	switch f.Kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Sprintf("expected string, received %s", typeName(raw))
		}
		if f.NonEmpty && s == "" {
			return nil, "must not be empty"
		}
		return s, ""
	case KindNumber:
		n, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Sprintf("expected number, received %s", typeName(raw))
		}
		if math.IsNaN(n) {
			return nil, "expected number, received nan"
		}
		return n, ""
	default:
		return nil, fmt.Sprintf("unsupported field kind %q", f.Kind)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// typeName names a decoded front matter value the way error messages report it.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case time.Time:
		return "date"
	case []any:
		return "array"
	case map[string]any, map[any]any:
		return "object"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

// Values holds a validated entry's front matter. Declared numeric fields are
// normalized to float64.
type Values map[string]any

// String returns the string stored under name, or "" if absent.
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Number returns the number stored under name. ok is false when the field was
// not set, which is distinct from a zero value.
func (v Values) Number(name string) (n float64, ok bool) {
	return toFloat(v[name])
}
