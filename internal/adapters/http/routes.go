package web

import (
	"net/http"

	"trainerapp/internal/adapters/http/middleware"
)

// registerRoutes maps every path the front end serves.
func registerRoutes(mux *http.ServeMux) {
	authed := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }

	// Public
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /login", handleLoginPage)
	mux.HandleFunc("POST /api/session", handleSignIn)
	mux.HandleFunc("POST /logout", handleLogout)
	mux.HandleFunc("GET /uploads/{key...}", handleUpload)

	// Conversions the booking forms call while the trainer types
	mux.HandleFunc("GET /api/time/to-utc", handleTimeToUTC)
	mux.HandleFunc("GET /api/time/to-local", handleTimeToLocal)
	mux.HandleFunc("GET /api/time/format", handleTimeFormat)
	mux.HandleFunc("GET /api/theme/derive", handleThemeDerive)
	mux.HandleFunc("GET /api/theme/is-dark", handleThemeIsDark)
	mux.Handle("GET /api/theme/catalog", authed(handleThemeCatalog))

	// Pages
	mux.Handle("GET /{$}", authed(handleDashboardPage))
	mux.Handle("GET /schedule", authed(handleSchedulePage))
	mux.Handle("GET /branding", authed(handleBrandingPage))
	mux.Handle("GET /clients", authed(handleClientsPage))

	// Branding
	mux.Handle("GET /api/branding", authed(handleGetBranding))
	mux.Handle("POST /api/branding", authed(handlePostBranding))
	mux.Handle("POST /api/branding/logo", authed(handleLogoUpload))
	mux.Handle("GET /api/branding/preview", authed(handleLogoPreview))

	// Sessions and calendar
	mux.Handle("POST /api/sessions", authed(handleScheduleSession))
	mux.Handle("PATCH /api/sessions/{id}", authed(handleRescheduleSession))
	mux.Handle("GET /api/calendar", authed(handleCalendar))
	mux.Handle("POST /api/reminders", authed(handleSendReminders))

	// Clients
	mux.Handle("GET /api/clients", authed(handleClientRoster))
	mux.Handle("GET /api/clients/search", authed(handleClientSearch))
	mux.Handle("POST /api/payments", authed(handleRecordPayment))
	mux.Handle("GET /api/templates/{id}/fields", authed(handleTemplateFields))
	mux.Handle("GET /api/locations", authed(handleLocations))

	// Dashboard and operations
	mux.Handle("GET /api/dashboard", authed(handleDashboardStats))
	mux.Handle("GET /api/perf", authed(handlePerf))
}
