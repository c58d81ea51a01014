package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trainerapp/internal/adapters/backend"
	"trainerapp/internal/adapters/blob"
	"trainerapp/internal/adapters/http/middleware"
)

// handleLoginPage handles GET /login
func handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "login.html", map[string]any{
		"DevLogin": app.DevLogin,
	})
}

type signInRequest struct {
	Code string `json:"code"` // Google authorization code
	Dev  bool   `json:"dev"`
}

type signInResponse struct {
	TrainerID int64  `json:"trainer_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AppID     int64  `json:"app_id"`
	IsNewUser bool   `json:"is_new_user"`
}

// handleSignIn handles POST /api/session: exchanges a Google code, or uses the backend's
// dev login when enabled, and opens a local session holding the backend token.
func handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	var (
		in  backend.SignIn
		err error
	)
	switch {
	case req.Dev:
		if !app.DevLogin {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		in, err = app.Backend.DevLogin(r.Context())
	case strings.TrimSpace(req.Code) != "":
		in, err = app.Backend.ExchangeGoogleCode(r.Context(), req.Code)
	default:
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Warn("auth_event", "event", "sign_in_failed", "dev", req.Dev, "error", err)
		writeError(w, err)
		return
	}

	token, err := sessions.Create(middleware.Session{
		TrainerID: in.TrainerID,
		AppID:     in.AppID,
		Name:      in.Name,
		Email:     in.Email,
		Token:     in.Token,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	slog.Info("auth_event", "event", "signed_in", "trainer_id", in.TrainerID, "app_id", in.AppID, "new_user", in.IsNewUser)
	writeJSON(w, http.StatusOK, signInResponse{
		TrainerID: in.TrainerID,
		Name:      in.Name,
		Email:     in.Email,
		AppID:     in.AppID,
		IsNewUser: in.IsNewUser,
	})
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionCookieToken(r); token != "" {
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleHealthz handles GET /healthz. The backend is probed with a short timeout; a failing
// backend degrades the report but the front end itself stays up.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status := map[string]string{"status": "ok", "backend": "ok"}
	if err := app.Backend.Ping(ctx); err != nil {
		status["backend"] = "unreachable"
		slog.Warn("health_event", "event", "backend_unreachable", "error", err)
	}
	writeJSON(w, http.StatusOK, status)
}

// handleUpload handles GET /uploads/{key...}: serves an uploaded logo from the blob store.
func handleUpload(w http.ResponseWriter, r *http.Request) {
	if app.Uploads == nil {
		http.NotFound(w, r)
		return
	}
	rc, obj, err := app.Uploads.Open(r.Context(), r.PathValue("key"))
	if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrInvalidKey) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	// Keys are content hashes, so an object never changes.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("upload_event", "event", "serve_interrupted", "key", obj.Key, "error", err)
	}
}

// handlePerf handles GET /api/perf?minutes=N
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	minutes, err := strconv.Atoi(r.URL.Query().Get("minutes"))
	if err != nil || minutes <= 0 {
		minutes = 15
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(since, 10))
}
