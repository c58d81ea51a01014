package backend

import (
	"encoding/json"
	"strings"
	"time"

	"trainerapp/internal/domain/branding"
	"trainerapp/internal/domain/client"
	"trainerapp/internal/domain/exercise"
	"trainerapp/internal/domain/location"
	"trainerapp/internal/domain/payment"
	"trainerapp/internal/domain/session"
	"trainerapp/internal/domain/theme"
)

// naiveLayouts are accepted when the backend omits the offset. Such values are UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time is a backend datetime. Missing offsets are read as UTC; null is the zero time.
type Time struct{ time.Time }

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v.UTC()
		return nil
	}
	var lastErr error
	for _, layout := range naiveLayouts {
		v, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			t.Time = v
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON writes UTC RFC 3339, or null for the zero time.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

func optInt(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func optString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

type clientWire struct {
	ID                int64    `json:"id,omitempty"`
	TrainerID         int64    `json:"trainer_id,omitempty"`
	Name              string   `json:"name"`
	Phone             string   `json:"phone"`
	Email             *string  `json:"email"`
	Notes             *string  `json:"notes"`
	DefaultLocationID *int64   `json:"default_location_id"`
	PhotoURL          *string  `json:"photo_url"`
	BirthDate         Time     `json:"birth_date"`
	Gender            *string  `json:"gender"`
	HeightCM          *int64   `json:"height_cm"`
	WeightKG          *float64 `json:"weight_kg"`
}

func clientToWire(c client.Client, trainerID int64) clientWire {
	w := clientWire{
		TrainerID:         trainerID,
		Name:              strings.TrimSpace(c.Name),
		Phone:             strings.TrimSpace(c.Phone),
		Email:             optString(c.Email),
		Notes:             optString(c.Notes),
		DefaultLocationID: optInt(c.DefaultLocationID),
		PhotoURL:          optString(c.PhotoURL),
		BirthDate:         Time{c.BirthDate},
		Gender:            optString(c.Gender),
		HeightCM:          optInt(int64(c.HeightCM)),
	}
	if c.WeightKG != 0 {
		kg := c.WeightKG
		w.WeightKG = &kg
	}
	return w
}

func (w clientWire) domain() client.Client {
	return client.Client{
		ID:                w.ID,
		Name:              w.Name,
		Phone:             w.Phone,
		Email:             deref(w.Email),
		Notes:             deref(w.Notes),
		DefaultLocationID: deref(w.DefaultLocationID),
		PhotoURL:          deref(w.PhotoURL),
		BirthDate:         w.BirthDate.Time,
		Gender:            deref(w.Gender),
		HeightCM:          int(deref(w.HeightCM)),
		WeightKG:          deref(w.WeightKG),
	}
}

type sessionWire struct {
	ID              int64   `json:"id,omitempty"`
	ClientID        int64   `json:"client_id"`
	LocationID      *int64  `json:"location_id"`
	SessionGroupID  *int64  `json:"session_group_id,omitempty"`
	ScheduledAt     Time    `json:"scheduled_at"`
	StartedAt       Time    `json:"started_at"`
	DurationMinutes int     `json:"duration_minutes"`
	Status          string  `json:"status"`
	Notes           *string `json:"notes"`
	IsPaid          bool    `json:"is_paid,omitempty"`
	PaidAt          Time    `json:"paid_at,omitempty"`
}

func sessionToWire(s session.Session) sessionWire {
	return sessionWire{
		ClientID:        s.ClientID,
		LocationID:      optInt(s.LocationID),
		ScheduledAt:     Time{s.ScheduledAt},
		StartedAt:       Time{s.StartedAt},
		DurationMinutes: s.DurationMinutes,
		Status:          s.Status,
		Notes:           optString(s.Notes),
	}
}

func (w sessionWire) domain() session.Session {
	return session.Session{
		ID:              w.ID,
		ClientID:        w.ClientID,
		LocationID:      deref(w.LocationID),
		SessionGroupID:  deref(w.SessionGroupID),
		ScheduledAt:     w.ScheduledAt.Time,
		StartedAt:       w.StartedAt.Time,
		DurationMinutes: w.DurationMinutes,
		Status:          w.Status,
		Notes:           deref(w.Notes),
		IsPaid:          w.IsPaid,
		PaidAt:          w.PaidAt.Time,
	}
}

type statsWire struct {
	TotalSessions     int `json:"total_sessions"`
	CompletedSessions int `json:"completed_sessions"`
	ScheduledSessions int `json:"scheduled_sessions"`
	CancelledSessions int `json:"cancelled_sessions"`
	TotalClients      int `json:"total_clients"`
}

func (w statsWire) domain() session.Stats {
	return session.Stats(w)
}

type templateWire struct {
	ID             int64             `json:"id,omitempty"`
	TrainerAppID   int64             `json:"trainer_app_id"`
	Name           string            `json:"name"`
	DisciplineType string            `json:"discipline_type"`
	FieldSchema    map[string]string `json:"field_schema"`
	UsageCount     int               `json:"usage_count,omitempty"`
}

func templateToWire(t exercise.Template) templateWire {
	return templateWire{
		TrainerAppID:   t.AppID,
		Name:           strings.TrimSpace(t.Name),
		DisciplineType: strings.TrimSpace(t.DisciplineType),
		FieldSchema:    exercise.LegacySchema(t.Fields),
	}
}

func (w templateWire) domain() (exercise.Template, error) {
	fields, err := exercise.ParseLegacySchema(w.FieldSchema)
	if err != nil {
		return exercise.Template{}, err
	}
	return exercise.Template{
		ID:             w.ID,
		AppID:          w.TrainerAppID,
		Name:           w.Name,
		DisciplineType: w.DisciplineType,
		Fields:         fields,
		UsageCount:     w.UsageCount,
	}, nil
}

type paymentWire struct {
	ID           int64   `json:"id,omitempty"`
	ClientID     int64   `json:"client_id,omitempty"`
	SessionsPaid int     `json:"sessions_paid"`
	AmountCOP    int64   `json:"amount_cop"`
	PaymentDate  Time    `json:"payment_date"`
	Notes        *string `json:"notes"`
}

func paymentToWire(p payment.Payment) paymentWire {
	return paymentWire{
		SessionsPaid: p.SessionsPaid,
		AmountCOP:    p.AmountCOP,
		PaymentDate:  Time{p.PaymentDate},
		Notes:        optString(p.Notes),
	}
}

func (w paymentWire) domain() payment.Payment {
	return payment.Payment{
		ID:           w.ID,
		ClientID:     w.ClientID,
		SessionsPaid: w.SessionsPaid,
		AmountCOP:    w.AmountCOP,
		PaymentDate:  w.PaymentDate.Time,
		Notes:        deref(w.Notes),
	}
}

type locationWire struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	AddressLine1  *string  `json:"address_line1"`
	AddressLine2  *string  `json:"address_line2"`
	City          *string  `json:"city"`
	Region        *string  `json:"region"`
	PostalCode    *string  `json:"postal_code"`
	Country       *string  `json:"country"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	GooglePlaceID *string  `json:"google_place_id"`
}

func (w locationWire) domain() location.Location {
	return location.Location{
		ID:            w.ID,
		Name:          w.Name,
		Type:          w.Type,
		AddressLine1:  deref(w.AddressLine1),
		AddressLine2:  deref(w.AddressLine2),
		City:          deref(w.City),
		Region:        deref(w.Region),
		PostalCode:    deref(w.PostalCode),
		Country:       deref(w.Country),
		Latitude:      w.Latitude,
		Longitude:     w.Longitude,
		GooglePlaceID: deref(w.GooglePlaceID),
	}
}

type themeConfigWire struct {
	Colors map[string]string `json:"colors"`
	Fonts  map[string]string `json:"fonts"`
}

type appWire struct {
	ID          int64           `json:"id"`
	TrainerID   int64           `json:"trainer_id"`
	Name        string          `json:"name"`
	ThemeID     string          `json:"theme_id"`
	ThemeConfig themeConfigWire `json:"theme_config"`
}

// App is a trainer's white-labelled app as the backend reports it.
type App struct {
	ID        int64
	TrainerID int64
	Name      string
	ThemeID   string
	Palette   theme.Palette
	Fonts     map[string]string
}

func (w appWire) domain() App {
	c := w.ThemeConfig.Colors
	return App{
		ID:        w.ID,
		TrainerID: w.TrainerID,
		Name:      w.Name,
		ThemeID:   w.ThemeID,
		Palette: theme.Palette{
			Primary:    c["primary"],
			Secondary:  c["secondary"],
			Background: c["background"],
			Text:       c["text"],
		},
		Fonts: w.ThemeConfig.Fonts,
	}
}

// Preference returns the app's branding as a preference. Apps without a usable palette get the default.
func (a App) Preference() branding.Preference {
	if a.Palette.Primary == "" {
		if p, err := theme.Lookup(a.ThemeID); err == nil {
			return branding.FromPreset(a.ID, p, time.Time{})
		}
		return branding.Default(a.ID)
	}
	return branding.Preference{
		AppID:   a.ID,
		ThemeID: a.ThemeID,
		Palette: a.Palette,
		IsDark:  theme.IsDarkTheme(a.Palette.Background),
	}
}

func themeConfigFor(p branding.Preference, fonts map[string]string) themeConfigWire {
	if fonts == nil {
		fonts = map[string]string{}
	}
	return themeConfigWire{
		Colors: map[string]string{
			"primary":    p.Palette.Primary,
			"secondary":  p.Palette.Secondary,
			"background": p.Palette.Background,
			"text":       p.Palette.Text,
		},
		Fonts: fonts,
	}
}

type presetWire struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Colors map[string]string `json:"colors"`
}

func (w presetWire) domain() theme.Preset {
	return theme.Preset{
		ID:   w.ID,
		Name: w.Name,
		Palette: theme.Palette{
			Primary:    w.Colors["primary"],
			Secondary:  w.Colors["secondary"],
			Background: w.Colors["background"],
			Text:       w.Colors["text"],
		},
	}
}
