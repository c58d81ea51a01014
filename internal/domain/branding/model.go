package branding

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"trainerapp/internal/domain/theme"
)

// Domain errors
var (
	ErrMissingApp       = errors.New("branding needs a trainer app")
	ErrMissingTheme     = errors.New("branding needs a theme id")
	ErrDarkFlagMismatch = errors.New("dark flag does not match the background colour")
	ErrInvalidThemeID   = errors.New("theme id must be 1-50 lowercase letters, digits, '-' or '_'")
)

// themeIDPattern accepts built-in and backend catalog ids alike.
var themeIDPattern = regexp.MustCompile(`^[a-z0-9_-]{1,50}$`)

// Preference is the branding a trainer app has chosen: a catalog preset or a custom palette.
// INVARIANT: IsDark equals theme.IsDarkTheme(Palette.Background).
type Preference struct {
	ID        string
	AppID     int64
	ThemeID   string // catalog id or theme.CustomThemeID
	Palette   theme.Palette
	IsDark    bool
	LogoURL   string
	UpdatedAt time.Time
}

// FromPreset builds a preference for a catalog theme.
func FromPreset(appID int64, p theme.Preset, now time.Time) Preference {
	return Preference{
		AppID:     appID,
		ThemeID:   p.ID,
		Palette:   p.Palette,
		IsDark:    theme.IsDarkTheme(p.Palette.Background),
		UpdatedAt: now.UTC(),
	}
}

// Default is the preference shown before an app has chosen anything.
func Default(appID int64) Preference {
	p, _ := theme.Lookup(theme.DefaultThemeID)
	return FromPreset(appID, p, time.Time{})
}

// FromPalette builds a custom preference from a derived palette.
func FromPalette(appID int64, p theme.Palette, logoURL string, now time.Time) Preference {
	return Preference{
		AppID:     appID,
		ThemeID:   theme.CustomThemeID,
		Palette:   p,
		IsDark:    theme.IsDarkTheme(p.Background),
		LogoURL:   logoURL,
		UpdatedAt: now.UTC(),
	}
}

// Validate checks the preference's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (p *Preference) Validate() error {
	if p.AppID <= 0 {
		return ErrMissingApp
	}
	if p.ThemeID == "" {
		return ErrMissingTheme
	}
	if !themeIDPattern.MatchString(p.ThemeID) {
		return ErrInvalidThemeID
	}
	for name, hex := range map[string]string{
		"primary":    p.Palette.Primary,
		"secondary":  p.Palette.Secondary,
		"background": p.Palette.Background,
		"text":       p.Palette.Text,
	} {
		if _, err := theme.ParseHex(hex); err != nil {
			return fmt.Errorf("%s colour: %w", name, err)
		}
	}
	if p.IsDark != theme.IsDarkTheme(p.Palette.Background) {
		return ErrDarkFlagMismatch
	}
	return nil
}

// IsCustom reports whether the palette was derived from a logo rather than picked from the catalog.
func (p *Preference) IsCustom() bool {
	return p.ThemeID == theme.CustomThemeID
}
