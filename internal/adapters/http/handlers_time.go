package web

import (
	"net/http"

	"trainerapp/internal/domain/civiltime"
	"trainerapp/internal/domain/theme"
)

// handleTimeToUTC handles GET /api/time/to-utc?date=YYYY-MM-DD&time=HH:mm
func handleTimeToUTC(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	iso, err := civiltime.ToUTCISOString(q.Get("date"), q.Get("time"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"utc": iso})
}

// handleTimeToLocal handles GET /api/time/to-local?iso=...
func handleTimeToLocal(w http.ResponseWriter, r *http.Request) {
	t, err := civiltime.ParseUTC(r.URL.Query().Get("iso"))
	if err != nil {
		writeError(w, err)
		return
	}
	label, _ := civiltime.FormatColombianTime(civiltime.FormatISO(t))
	writeJSON(w, http.StatusOK, map[string]string{
		"date":  civiltime.ToColombianDateString(t),
		"time":  civiltime.ToColombianTimeString(t),
		"label": label,
	})
}

// handleTimeFormat handles GET /api/time/format?iso=...
func handleTimeFormat(w http.ResponseWriter, r *http.Request) {
	iso := r.URL.Query().Get("iso")
	long, err := civiltime.FormatDate(iso)
	if err != nil {
		writeError(w, err)
		return
	}
	short, _ := civiltime.FormatColombianTime(iso)
	writeJSON(w, http.StatusOK, map[string]string{"date": long, "time": short})
}

type paletteResponse struct {
	theme.Palette
	IsDark bool `json:"is_dark"`
}

// handleThemeDerive handles GET /api/theme/derive?hex=#rrggbb, hex being the primary colour.
func handleThemeDerive(w http.ResponseWriter, r *http.Request) {
	p, err := theme.GenerateCompleteTheme(r.URL.Query().Get("hex"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paletteResponse{Palette: p, IsDark: theme.IsDarkTheme(p.Background)})
}

// handleThemeIsDark handles GET /api/theme/is-dark?hex=#rrggbb, hex being a background.
// Unparseable colours are reported as light, matching how the app renders them.
func handleThemeIsDark(w http.ResponseWriter, r *http.Request) {
	bg := r.URL.Query().Get("hex")
	writeJSON(w, http.StatusOK, map[string]any{
		"hex":       bg,
		"is_dark":   theme.IsDarkTheme(bg),
		"luminance": theme.RelativeLuminance(bg),
	})
}

type presetResponse struct {
	theme.Preset
	IsDark bool `json:"is_dark"`
}

// handleThemeCatalog handles GET /api/theme/catalog
func handleThemeCatalog(w http.ResponseWriter, r *http.Request) {
	presets, err := loadCatalog(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]presetResponse, len(presets))
	for i, p := range presets {
		out[i] = presetResponse{Preset: p, IsDark: theme.IsDarkTheme(p.Palette.Background)}
	}
	writeJSON(w, http.StatusOK, out)
}

// loadCatalog returns the memoised preset list, or the built-in one when no loader is wired.
func loadCatalog(r *http.Request) ([]theme.Preset, error) {
	if app.Catalog == nil {
		return theme.Catalog, nil
	}
	return app.Catalog.EnsureLoaded(r.Context())
}
