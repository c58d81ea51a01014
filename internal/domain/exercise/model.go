package exercise

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind tags a template field with the type of value it records.
type Kind string

// Field kinds
const (
	KindInteger  Kind = "integer"
	KindFloat    Kind = "float"
	KindText     Kind = "text"
	KindDuration Kind = "duration"
)

// Domain errors
var (
	ErrEmptyName       = errors.New("exercise template name cannot be empty")
	ErrEmptyDiscipline = errors.New("discipline type cannot be empty")
	ErrUnknownKind     = errors.New("unknown field kind")
	ErrEmptyFieldName  = errors.New("field name cannot be empty")
	ErrDuplicateField  = errors.New("duplicate field name")
	ErrMissingValue    = errors.New("value is required")
)

// legacyKinds maps the loose type tags stored by older templates onto kinds.
var legacyKinds = map[string]Kind{
	"int":      KindInteger,
	"integer":  KindInteger,
	"float":    KindFloat,
	"number":   KindFloat,
	"text":     KindText,
	"string":   KindText,
	"duration": KindDuration,
	"time":     KindDuration,
}

// FieldDescriptor describes one value recorded per exercise, e.g. "series" or "weight".
type FieldDescriptor struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// Template is a reusable exercise definition for a discipline.
// PRE: Name and DisciplineType are non-empty.
// INVARIANT: field names are unique.
type Template struct {
	ID             int64
	AppID          int64
	Name           string
	DisciplineType string // e.g. "physio", "bmx"
	Fields         []FieldDescriptor
	UsageCount     int
}

// Validate checks the template's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(t.DisciplineType) == "" {
		return ErrEmptyDiscipline
	}
	seen := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if err := f.Validate(); err != nil {
			return err
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateField, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// Validate checks a single descriptor.
func (f FieldDescriptor) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyFieldName
	}
	if !f.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, f.Kind)
	}
	return nil
}

// Valid reports whether k is one of the four known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInteger, KindFloat, KindText, KindDuration:
		return true
	}
	return false
}

// ParseLegacySchema converts a {"name": "int"} schema into descriptors sorted by name.
// Labels default to the field name with underscores replaced; nothing is required.
// PRE: none
// POST: returns ErrUnknownKind for an unrecognised type tag
func ParseLegacySchema(schema map[string]string) ([]FieldDescriptor, error) {
	fields := make([]FieldDescriptor, 0, len(schema))
	for name, tag := range schema {
		kind, ok := legacyKinds[strings.ToLower(strings.TrimSpace(tag))]
		if !ok {
			return nil, fmt.Errorf("%w: %s=%q", ErrUnknownKind, name, tag)
		}
		fields = append(fields, FieldDescriptor{
			Name:  name,
			Kind:  kind,
			Label: strings.ReplaceAll(name, "_", " "),
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields, nil
}

// LegacySchema is the inverse of ParseLegacySchema, used when talking to the backend.
func LegacySchema(fields []FieldDescriptor) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		switch f.Kind {
		case KindInteger:
			out[f.Name] = "int"
		default:
			out[f.Name] = string(f.Kind)
		}
	}
	return out
}

// Value is a parsed field value; exactly one member is meaningful, chosen by Kind.
type Value struct {
	Kind     Kind
	Int      int64
	Float    float64
	Text     string
	Duration time.Duration
}

// Parse converts raw form input according to the descriptor's kind.
// Empty input yields ok=false, and ErrMissingValue when the field is required.
func (f FieldDescriptor) Parse(raw string) (Value, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if f.Required {
			return Value{}, false, fmt.Errorf("%s: %w", f.Name, ErrMissingValue)
		}
		return Value{}, false, nil
	}
	v := Value{Kind: f.Kind}
	var err error
	switch f.Kind {
	case KindInteger:
		v.Int, err = strconv.ParseInt(raw, 10, 64)
	case KindFloat:
		v.Float, err = strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	case KindText:
		v.Text = raw
	case KindDuration:
		v.Duration, err = parseDuration(raw)
	default:
		return Value{}, false, fmt.Errorf("%w: %q", ErrUnknownKind, f.Kind)
	}
	if err != nil {
		return Value{}, false, fmt.Errorf("%s: %w", f.Name, err)
	}
	return v, true, nil
}

// parseDuration accepts "mm:ss", "hh:mm:ss" or Go syntax such as "1m30s".
func parseDuration(raw string) (time.Duration, error) {
	if !strings.Contains(raw, ":") {
		return time.ParseDuration(raw)
	}
	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	var total time.Duration
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		total = total*60 + time.Duration(n)
	}
	return total * time.Second, nil
}

// ValidateValues parses a submitted set of values against the template's fields.
// Unknown keys are ignored.
// PRE: t has been validated
// POST: returns parsed values keyed by field name, or the first field error
func (t *Template) ValidateValues(values map[string]string) (map[string]Value, error) {
	out := make(map[string]Value, len(t.Fields))
	for _, f := range t.Fields {
		v, ok, err := f.Parse(values[f.Name])
		if err != nil {
			return nil, err
		}
		if ok {
			out[f.Name] = v
		}
	}
	return out, nil
}

// Input describes how a form renders a field.
type Input struct {
	Type    string // HTML input type
	Step    string
	Pattern string
}

// InputFor dispatches on Kind to the form control used to capture it.
func InputFor(f FieldDescriptor) Input {
	switch f.Kind {
	case KindInteger:
		return Input{Type: "number", Step: "1"}
	case KindFloat:
		return Input{Type: "number", Step: "any"}
	case KindDuration:
		return Input{Type: "text", Pattern: `\d{1,2}:\d{2}(:\d{2})?`}
	default:
		return Input{Type: "text"}
	}
}
