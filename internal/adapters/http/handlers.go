package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"trainerapp/internal/adapters/backend"
	"trainerapp/internal/adapters/blob"
	"trainerapp/internal/adapters/http/middleware"
	"trainerapp/internal/application/orchestrators"
	"trainerapp/internal/application/projections"
	"trainerapp/internal/domain/branding"
	"trainerapp/internal/domain/civiltime"
	domainClient "trainerapp/internal/domain/client"
	"trainerapp/internal/domain/exercise"
	"trainerapp/internal/domain/payment"
	"trainerapp/internal/domain/session"
	"trainerapp/internal/domain/theme"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

//go:embed templates/*.html
var templateFS embed.FS

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error under a reference the trainer can quote.
func internalError(w http.ResponseWriter, err error) {
	ref := generateID()
	slog.Error("internal_error", "ref", ref, "error", err.Error())
	http.Error(w, "error interno del servidor (ref "+ref+")", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode_failed", "error", err)
	}
}

// badRequestErrors are validation failures reported to the trainer as 400 with the error text.
var badRequestErrors = []error{
	session.ErrMissingClient, session.ErrMissingSchedule, session.ErrInvalidDuration,
	session.ErrInvalidStatus, session.ErrScheduledNotInUTC,
	payment.ErrMissingClient, payment.ErrInvalidSessionsPaid, payment.ErrNegativeAmount,
	branding.ErrMissingApp, branding.ErrMissingTheme, branding.ErrInvalidThemeID,
	theme.ErrInvalidHex, theme.ErrUnknownTheme,
	orchestrators.ErrPickOutsideLogo, orchestrators.ErrNoLogo,
	projections.ErrUnknownPeriod,
	blob.ErrInvalidKey,
}

// conflictErrors are requests that are well formed but clash with the current state.
var conflictErrors = []error{
	orchestrators.ErrSessionClosed, orchestrators.ErrReminderClosed, orchestrators.ErrReminderPast,
	orchestrators.ErrAlreadyReminded, orchestrators.ErrNoClientEmail,
	session.ErrAlreadyCancelled, session.ErrAlreadyCompleted, session.ErrAlreadyStarted,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// writeError maps err to a status and a message the trainer can act on.
func writeError(w http.ResponseWriter, err error) {
	var (
		formatErr   *civiltime.FormatError
		loadErr     *theme.ImageLoadError
		tooSmallErr *theme.ImageTooSmallError
		apiErr      *backend.APIError
	)
	switch {
	case errors.As(err, &formatErr):
		http.Error(w, "Formato inválido para "+fieldLabel(formatErr.Field)+": "+strconv.Quote(formatErr.Input), http.StatusBadRequest)
	case errors.As(err, &tooSmallErr):
		http.Error(w, "El logo es muy pequeño: se necesitan al menos 50x50 píxeles", http.StatusUnprocessableEntity)
	case errors.As(err, &loadErr):
		http.Error(w, "No se pudo cargar el logo", http.StatusUnprocessableEntity)
	case errors.Is(err, blob.ErrTooLarge):
		http.Error(w, "La imagen supera 5 MB", http.StatusRequestEntityTooLarge)
	case errors.Is(err, blob.ErrUnsupportedType):
		http.Error(w, "Solo se aceptan imágenes PNG, JPEG, GIF o WebP", http.StatusUnsupportedMediaType)
	case errors.Is(err, backend.ErrNoToken):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case isAny(err, badRequestErrors):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case isAny(err, conflictErrors):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &apiErr):
		writeBackendError(w, apiErr)
	case errors.Is(err, backend.ErrNotFound):
		http.Error(w, "No encontrado", http.StatusNotFound)
	default:
		internalError(w, err)
	}
}

// writeBackendError passes client errors through and reports backend failures as 502.
func writeBackendError(w http.ResponseWriter, e *backend.APIError) {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		http.Error(w, "La sesión expiró, vuelve a iniciar sesión", e.Status)
	case e.Status >= 400 && e.Status < 500:
		msg := e.Detail
		if msg == "" {
			msg = http.StatusText(e.Status)
		}
		http.Error(w, msg, e.Status)
	default:
		slog.Error("backend_error", "status", e.Status, "detail", e.Detail)
		http.Error(w, "El servidor de datos no respondió, intenta de nuevo", http.StatusBadGateway)
	}
}

func fieldLabel(field string) string {
	switch field {
	case "date":
		return "la fecha"
	case "time":
		return "la hora"
	default:
		return "el instante"
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

func queryInt64(r *http.Request, name string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return v
}

func currentSession(r *http.Request) middleware.Session {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return sess
}

// currentPreference is the trainer's stored branding, or the default preset.
func currentPreference(r *http.Request) branding.Preference {
	sess := currentSession(r)
	if sess.AppID == 0 || app.Branding == nil {
		return branding.Default(sess.AppID)
	}
	p, err := app.Branding.GetByApp(r.Context(), sess.AppID)
	if err != nil {
		return branding.Default(sess.AppID)
	}
	return p
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())
	pref := currentPreference(r)

	funcMap := template.FuncMap{
		"csrfToken":   func() string { return csrf.Token(r) },
		"isLoggedIn":  func() bool { return loggedIn },
		"trainerName": func() string { return sess.Name },
		"palette":     func() theme.Palette { return pref.Palette },
		"isDark":      func() bool { return pref.IsDark },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"formatCOP": payment.FormatCOP,
		"localTime": civiltime.ToColombianTimeString,
		"localDate": civiltime.ToColombianDateString,
		"inputFor":  exercise.InputFor,
		"clientAge": func(c domainClient.Client) int { return c.Age(timeNow()) },
		"hasPrefix": strings.HasPrefix,
		"add":       func(a, b int) int { return a + b },
		"sub":       func(a, b int) int { return a - b },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		http.Error(w, "Render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// searchKey scopes debounced searches to one signed-in trainer.
func searchKey(r *http.Request, kind string) string {
	sess := currentSession(r)
	return kind + ":" + strconv.FormatInt(sess.TrainerID, 10) + ":" + middleware.SessionCookieToken(r)
}
