package web

import (
	"log/slog"
	"net/http"

	"trainerapp/internal/domain/theme"
)

// handleDashboardPage handles GET /
func handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	res, err := dashboardStats(r)
	if err != nil {
		writeError(w, err)
		return
	}
	renderTemplate(w, r, "dashboard.html", map[string]any{
		"Stats":    res.Stats,
		"Upcoming": res.Upcoming,
		"Computed": res.Computed,
	})
}

// handleSchedulePage handles GET /schedule?date=YYYY-MM-DD
func handleSchedulePage(w http.ResponseWriter, r *http.Request) {
	week, err := calendarWeek(r)
	if err != nil {
		writeError(w, err)
		return
	}
	clients, err := app.Backend.ListClients(r.Context(), "")
	if err != nil {
		writeError(w, err)
		return
	}
	renderTemplate(w, r, "schedule.html", map[string]any{
		"Week":    week,
		"Clients": clients,
	})
}

// handleBrandingPage handles GET /branding
func handleBrandingPage(w http.ResponseWriter, r *http.Request) {
	presets, err := loadCatalog(r)
	if err != nil {
		// The picker still works from a logo or a typed colour.
		slog.Warn("branding_event", "event", "catalog_unavailable", "error", err)
		presets = theme.Catalog
	}
	renderTemplate(w, r, "branding.html", map[string]any{
		"Preference": currentPreference(r),
		"Presets":    presets,
	})
}

// handleClientsPage handles GET /clients
func handleClientsPage(w http.ResponseWriter, r *http.Request) {
	params, res, err := clientRoster(r)
	if err != nil {
		writeError(w, err)
		return
	}
	renderTemplate(w, r, "clients.html", map[string]any{
		"Rows":     res.Rows,
		"PageInfo": res.PageInfo,
		"Params":   params,
	})
}
