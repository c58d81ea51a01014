package web

import (
	"context"
	"image"
	"net/http"
	"time"

	"trainerapp/internal/adapters/backend"
	"trainerapp/internal/adapters/blob"
	"trainerapp/internal/adapters/email"
	"trainerapp/internal/adapters/http/middleware"
	"trainerapp/internal/adapters/http/perf"
	brandingStore "trainerapp/internal/adapters/storage/branding"
	reminderStore "trainerapp/internal/adapters/storage/reminder"
	"trainerapp/internal/application/debounce"
	"trainerapp/internal/application/loader"
	"trainerapp/internal/application/orchestrators"
	"trainerapp/internal/application/projections"
	"trainerapp/internal/domain/exercise"
	"trainerapp/internal/domain/location"
	"trainerapp/internal/domain/theme"
)

// Backend is everything the handlers ask of the trainer backend. *backend.Client implements it.
type Backend interface {
	orchestrators.SessionBackend
	orchestrators.ThemePusher
	orchestrators.ReminderBackend
	orchestrators.PaymentBackend
	projections.StatsSource
	projections.ClientLister

	GetTemplate(ctx context.Context, id int64) (exercise.Template, error)
	ListLocations(ctx context.Context, trainerID int64) ([]location.Location, error)
	DevLogin(ctx context.Context) (backend.SignIn, error)
	ExchangeGoogleCode(ctx context.Context, code string) (backend.SignIn, error)
	Ping(ctx context.Context) error
}

var _ Backend = (*backend.Client)(nil)

// LogoLoader resolves logo references for sampling and previews. *imagedecode.Decoder implements it.
type LogoLoader interface {
	orchestrators.LogoSource
	Load(ctx context.Context, ref string) (image.Image, error)
}

// MapsConfig is what the location picker needs to load the Google Maps script.
type MapsConfig struct {
	APIKey    string `json:"api_key"`
	ScriptURL string `json:"script_url"`
}

// Deps holds everything NewMux wires into the handlers.
type Deps struct {
	Backend   Backend
	Branding  brandingStore.Store
	Reminders reminderStore.Store
	Uploads   blob.Store
	Logos     LogoLoader

	Sender       email.Sender
	EmailFrom    string
	EmailReplyTo string
	ReminderLead time.Duration

	Catalog *loader.Loader[[]theme.Preset]
	Maps    *loader.Loader[MapsConfig]
	Search  *debounce.Debouncer
	Perf    *perf.Collector

	CSRF        middleware.CSRFOptions
	RateLimit   int           // requests per minute per IP
	SlowRequest time.Duration // zero means middleware.DefaultSlowRequest
	DevLogin    bool
}

// Global dependencies (set by NewMux)
var app *Deps

// Global session store instance
var sessions *middleware.SessionStore

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// NewMux wires HTTP handlers for the app.
func NewMux(d *Deps) http.Handler {
	app = d
	perfCollector = d.Perf
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = d.CSRF.Secure

	mux := http.NewServeMux()
	registerRoutes(mux)

	// Apply middleware: Timing -> Auth -> CSRF -> SecurityHeaders -> RateLimit -> Mux
	return middleware.Chain(mux,
		middleware.RateLimit(d.RateLimit),
		middleware.SecurityHeaders,
		middleware.CSRF(d.CSRF),
		middleware.Auth(sessions),
		middleware.Timing(d.Perf, d.SlowRequest),
	)
}
