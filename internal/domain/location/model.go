package location

import (
	"errors"
	"strings"
)

// Type values.
const (
	TypeTrainerBase = "trainer_base"
	TypeClientHome  = "client_home"
	TypeGym         = "gym"
	TypeTrack       = "track"
	TypeOther       = "other"
)

// Domain errors
var (
	ErrEmptyName     = errors.New("location name cannot be empty")
	ErrNameTooLong   = errors.New("location name cannot exceed 255 characters")
	ErrInvalidType   = errors.New("location type must be trainer_base, client_home, gym, track or other")
	ErrInvalidLatLng = errors.New("latitude must be within ±90 and longitude within ±180")
	ErrPartialLatLng = errors.New("latitude and longitude must be set together")
)

// Location is a place where sessions happen.
type Location struct {
	ID            int64
	Name          string
	Type          string
	AddressLine1  string
	AddressLine2  string
	City          string
	Region        string
	PostalCode    string
	Country       string
	Latitude      *float64
	Longitude     *float64
	GooglePlaceID string
}

// Validate checks if the Location has valid data.
// PRE: Location struct is initialized
// POST: Returns error if validation fails, nil otherwise; an empty Type is treated as "other"
func (l *Location) Validate() error {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 255 {
		return ErrNameTooLong
	}
	if l.Type != "" && !ValidType(l.Type) {
		return ErrInvalidType
	}
	if (l.Latitude == nil) != (l.Longitude == nil) {
		return ErrPartialLatLng
	}
	if l.Latitude != nil {
		if *l.Latitude < -90 || *l.Latitude > 90 || *l.Longitude < -180 || *l.Longitude > 180 {
			return ErrInvalidLatLng
		}
	}
	return nil
}

// ValidType reports whether t is a known location type.
func ValidType(t string) bool {
	switch t {
	case TypeTrainerBase, TypeClientHome, TypeGym, TypeTrack, TypeOther:
		return true
	}
	return false
}

// HasCoordinates reports whether the location can be shown on a map.
func (l *Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Address joins the non-empty address parts with commas.
func (l *Location) Address() string {
	var parts []string
	for _, p := range []string{l.AddressLine1, l.AddressLine2, l.City, l.Region, l.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
