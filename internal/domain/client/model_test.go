package client

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// TestClient_Validate_Valid tests that a minimal client passes validation.
func TestClient_Validate_Valid(t *testing.T) {
	c := Client{Name: "Laura Gómez", Phone: "+57 300 123 4567"}
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestClient_Validate tests each field rule.
func TestClient_Validate(t *testing.T) {
	tests := []struct {
		name string
		c    Client
		want error
	}{
		{"empty name", Client{Name: "  ", Phone: "1"}, ErrEmptyName},
		{"long name", Client{Name: strings.Repeat("a", 256), Phone: "1"}, ErrNameTooLong},
		{"empty phone", Client{Name: "Ana"}, ErrEmptyPhone},
		{"bad email", Client{Name: "Ana", Phone: "1", Email: "ana.example.com"}, ErrInvalidEmail},
		{"bad gender", Client{Name: "Ana", Phone: "1", Gender: "X"}, ErrInvalidGender},
		{"negative height", Client{Name: "Ana", Phone: "1", HeightCM: -1}, ErrInvalidHeight},
		{"negative weight", Client{Name: "Ana", Phone: "1", WeightKG: -0.5}, ErrInvalidWeight},
		{"tall", Client{Name: "Ana", Phone: "1", HeightCM: 301}, ErrInvalidHeight},
		{"light", Client{Name: "Ana", Phone: "1", WeightKG: 9.9}, ErrInvalidWeight},
	}
	for _, tt := range tests {
		if err := tt.c.Validate(); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
}

// TestClient_Age tests whole-year age calculation.
func TestClient_Age(t *testing.T) {
	c := Client{BirthDate: time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)}
	if got := c.Age(time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)); got != 33 {
		t.Errorf("day before birthday: got %d, want 33", got)
	}
	if got := c.Age(time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)); got != 34 {
		t.Errorf("after birthday: got %d, want 34", got)
	}
	if got := (&Client{}).Age(time.Now()); got != 0 {
		t.Errorf("unknown birth date: got %d", got)
	}
}

// TestClient_MatchesSearch tests case-insensitive search across fields.
func TestClient_MatchesSearch(t *testing.T) {
	c := Client{Name: "Laura Gómez", Phone: "3001234567", Email: "laura@example.com"}
	for _, q := range []string{"laura", "GÓMEZ", "300123", "example", ""} {
		if !c.MatchesSearch(q) {
			t.Errorf("expected match for %q", q)
		}
	}
	if c.MatchesSearch("pedro") {
		t.Error("unexpected match for pedro")
	}
}
