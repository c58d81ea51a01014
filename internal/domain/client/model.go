package client

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength  = 255
	MaxPhoneLength = 50
)

// Gender values accepted by the backend.
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderOther  = "Otro"
)

// Domain errors
var (
	ErrEmptyName     = errors.New("client name cannot be empty")
	ErrNameTooLong   = errors.New("client name cannot exceed 255 characters")
	ErrEmptyPhone    = errors.New("client phone cannot be empty")
	ErrPhoneTooLong  = errors.New("client phone cannot exceed 50 characters")
	ErrInvalidEmail  = errors.New("client email must be valid")
	ErrInvalidGender = errors.New("gender must be 'M', 'F' or 'Otro'")
	ErrInvalidHeight = errors.New("height must be between 50 and 300 cm")
	ErrInvalidWeight = errors.New("weight must be between 10 and 500 kg")
)

// Client is a person trained by the trainer.
type Client struct {
	ID                int64
	Name              string
	Phone             string
	Email             string
	Notes             string // markdown
	DefaultLocationID int64
	PhotoURL          string
	BirthDate         time.Time
	Gender            string
	HeightCM          int
	WeightKG          float64
}

// Validate checks if the Client has valid data.
// PRE: Client struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (c *Client) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	phone := strings.TrimSpace(c.Phone)
	if phone == "" {
		return ErrEmptyPhone
	}
	if len(phone) > MaxPhoneLength {
		return ErrPhoneTooLong
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return ErrInvalidEmail
	}
	switch c.Gender {
	case "", GenderMale, GenderFemale, GenderOther:
	default:
		return ErrInvalidGender
	}
	if c.HeightCM != 0 && (c.HeightCM < 50 || c.HeightCM > 300) {
		return ErrInvalidHeight
	}
	if c.WeightKG != 0 && (c.WeightKG < 10 || c.WeightKG > 500) {
		return ErrInvalidWeight
	}
	return nil
}

// Age returns the client's age in whole years at now, or 0 when the birth date is unknown.
func (c *Client) Age(now time.Time) int {
	if c.BirthDate.IsZero() {
		return 0
	}
	years := now.Year() - c.BirthDate.Year()
	if now.Month() < c.BirthDate.Month() ||
		(now.Month() == c.BirthDate.Month() && now.Day() < c.BirthDate.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// MatchesSearch reports whether the query appears in the name, phone or email.
func (c *Client) MatchesSearch(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(c.Phone, q) ||
		strings.Contains(strings.ToLower(c.Email), q)
}
