package exercise

import (
	"errors"
	"testing"
	"time"
)

// TestParseLegacySchema tests the mapping of loose type tags to kinds.
func TestParseLegacySchema(t *testing.T) {
	fields, err := ParseLegacySchema(map[string]string{
		"repeticiones": "int",
		"weight":       "float",
		"variations":   "text",
		"lap_time":     "duration",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []FieldDescriptor{
		{Name: "lap_time", Kind: KindDuration, Label: "lap time"},
		{Name: "repeticiones", Kind: KindInteger, Label: "repeticiones"},
		{Name: "variations", Kind: KindText, Label: "variations"},
		{Name: "weight", Kind: KindFloat, Label: "weight"},
	}
	if len(fields) != len(want) {
		t.Fatalf("got %d fields, want %d", len(fields), len(want))
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field %d: got %+v, want %+v", i, fields[i], want[i])
		}
	}
}

// TestParseLegacySchema_UnknownTag tests rejection of an unrecognised type tag.
func TestParseLegacySchema_UnknownTag(t *testing.T) {
	if _, err := ParseLegacySchema(map[string]string{"x": "blob"}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

// TestLegacySchema_RoundTrip tests that descriptors survive a trip through the legacy form.
func TestLegacySchema_RoundTrip(t *testing.T) {
	in := map[string]string{"runs": "int", "jump_height": "float", "track_style": "text"}
	fields, _ := ParseLegacySchema(in)
	out := LegacySchema(fields)
	for k, v := range in {
		if out[k] != v {
			t.Errorf("%s: got %q, want %q", k, out[k], v)
		}
	}
}

// TestTemplate_Validate tests template invariants.
func TestTemplate_Validate(t *testing.T) {
	valid := Template{Name: "Sentadilla", DisciplineType: "physio", Fields: []FieldDescriptor{{Name: "series", Kind: KindInteger}}}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		tpl  Template
		want error
	}{
		{"empty name", Template{DisciplineType: "bmx"}, ErrEmptyName},
		{"empty discipline", Template{Name: "Runs"}, ErrEmptyDiscipline},
		{"bad kind", Template{Name: "Runs", DisciplineType: "bmx", Fields: []FieldDescriptor{{Name: "x", Kind: "blob"}}}, ErrUnknownKind},
		{"empty field name", Template{Name: "Runs", DisciplineType: "bmx", Fields: []FieldDescriptor{{Kind: KindText}}}, ErrEmptyFieldName},
		{"duplicate", Template{Name: "Runs", DisciplineType: "bmx", Fields: []FieldDescriptor{{Name: "a", Kind: KindText}, {Name: "a", Kind: KindFloat}}}, ErrDuplicateField},
	}
	for _, tt := range tests {
		if err := tt.tpl.Validate(); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
}

// TestTemplate_ValidateValues tests per-kind parsing of submitted values.
func TestTemplate_ValidateValues(t *testing.T) {
	tpl := Template{
		Name:           "Circuito",
		DisciplineType: "physio",
		Fields: []FieldDescriptor{
			{Name: "series", Kind: KindInteger, Required: true},
			{Name: "weight", Kind: KindFloat},
			{Name: "notes", Kind: KindText},
			{Name: "rest", Kind: KindDuration},
		},
	}
	got, err := tpl.ValidateValues(map[string]string{
		"series": "4",
		"weight": "12,5",
		"notes":  " slow ",
		"rest":   "1:30",
		"extra":  "ignored",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["series"].Int != 4 || got["weight"].Float != 12.5 || got["notes"].Text != "slow" || got["rest"].Duration != 90*time.Second {
		t.Errorf("unexpected values: %+v", got)
	}
	if _, ok := got["extra"]; ok {
		t.Error("unknown keys must be dropped")
	}

	if _, err := tpl.ValidateValues(map[string]string{"weight": "3"}); !errors.Is(err, ErrMissingValue) {
		t.Errorf("expected ErrMissingValue, got %v", err)
	}
	if _, err := tpl.ValidateValues(map[string]string{"series": "four"}); err == nil {
		t.Error("expected error for non-numeric integer")
	}
}

// TestParseDuration tests the accepted duration spellings.
func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"0:45", 45 * time.Second},
		{"2:05", 125 * time.Second},
		{"1:00:00", time.Hour},
		{"1m30s", 90 * time.Second},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("%q: got %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	for _, bad := range []string{"1:2:3:4", "a:10", "-1:00", "ten"} {
		if _, err := parseDuration(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

// TestInputFor tests the rendering dispatch keyed on kind.
func TestInputFor(t *testing.T) {
	if in := InputFor(FieldDescriptor{Kind: KindInteger}); in.Type != "number" || in.Step != "1" {
		t.Errorf("integer: %+v", in)
	}
	if in := InputFor(FieldDescriptor{Kind: KindFloat}); in.Step != "any" {
		t.Errorf("float: %+v", in)
	}
	if in := InputFor(FieldDescriptor{Kind: KindDuration}); in.Pattern == "" {
		t.Errorf("duration: %+v", in)
	}
	if in := InputFor(FieldDescriptor{Kind: KindText}); in.Type != "text" {
		t.Errorf("text: %+v", in)
	}
}
