//go:build browser

package web_test

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	_ "modernc.org/sqlite"

	"trainerapp/internal/adapters/backend"
	"trainerapp/internal/adapters/blob"
	"trainerapp/internal/adapters/email"
	web "trainerapp/internal/adapters/http"
	"trainerapp/internal/adapters/http/middleware"
	"trainerapp/internal/adapters/imagedecode"
	"trainerapp/internal/adapters/storage"
	brandingStore "trainerapp/internal/adapters/storage/branding"
	reminderStore "trainerapp/internal/adapters/storage/reminder"
)

// fakeBackend answers the handful of backend routes the pages need.
type fakeBackend struct {
	mu        sync.Mutex
	themeBody map[string]any // last PUT /apps/7 body
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.Method + " " + r.URL.Path {
	case "GET /health":
		io.WriteString(w, `{"status":"ok"}`)
	case "POST /auth/dev/login":
		http.SetCookie(w, &http.Cookie{Name: backend.SessionCookie, Value: "jwt-dev", Path: "/"})
		io.WriteString(w, `{"trainer_id":1,"email":"laura@example.com","name":"Laura","is_new_user":false,"has_app":true,"app_id":7,"app_name":"Laura Fit"}`)
	case "GET /sessions/stats":
		io.WriteString(w, `{"total_sessions":3,"completed_sessions":1,"scheduled_sessions":2,"total_clients":2}`)
	case "GET /sessions", "GET /clients":
		io.WriteString(w, `[]`)
	case "GET /apps/themes":
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Not Found"}`)
	case "GET /apps/7":
		io.WriteString(w, `{"id":7,"trainer_id":1,"name":"Laura Fit","theme_id":"clasico","theme_config":{"colors":{},"fonts":{"heading":"Inter"}}}`)
	case "PUT /apps/7":
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.themeBody = body
		f.mu.Unlock()
		io.WriteString(w, `{"id":7,"trainer_id":1,"name":"Laura Fit","theme_id":"medianoche","theme_config":{"colors":{},"fonts":{}}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Not Found"}`)
	}
}

func (f *fakeBackend) pushedTheme() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.themeBody == nil {
		return nil
	}
	return f.themeBody["theme_id"]
}

// testApp holds the running server and Playwright handles.
type testApp struct {
	BaseURL string
	Backend *fakeBackend
	Browser playwright.Browser
}

// newTestApp wires the app against a fake backend with a temp SQLite DB and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := sql.Open("sqlite", t.TempDir()+"/test.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.InitDB(t.Context(), db); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	fake := &fakeBackend{}
	api := httptest.NewServer(fake)
	uploads, err := blob.NewDirStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatal(err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	baseURL := fmt.Sprintf("http://%s", listener.Addr())

	mux := web.NewMux(&web.Deps{
		Backend:   backend.New(api.URL, nil, nil),
		Branding:  brandingStore.NewSQLiteStore(db),
		Reminders: reminderStore.NewSQLiteStore(db),
		Uploads:   uploads,
		Logos:     imagedecode.New(nil, uploads, "/uploads"),
		Sender:    email.NewNoopSender(),
		CSRF: middleware.CSRFOptions{
			Key:            []byte("0123456789abcdef0123456789abcdef"),
			TrustedOrigins: []string{listener.Addr().String()},
		},
		RateLimit: 1000,
		DevLogin:  true,
	})
	srv := &http.Server{Handler: mux}
	go srv.Serve(listener)

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		api.Close()
		db.Close()
	})
	return &testApp{BaseURL: baseURL, Backend: fake, Browser: browser}
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// login signs in through the dev button and waits for the dashboard.
func (a *testApp) login(t *testing.T, page playwright.Page) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("[data-testid=dev-login]").Click(); err != nil {
		t.Fatalf("failed to click dev login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+"/", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to dashboard: %v", err)
	}
}

// TestBrowser_DevLoginDashboard tests the dev sign-in lands on a dashboard fed by the backend stats.
func TestBrowser_DevLoginDashboard(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)
	app.login(t, page)

	if err := page.Locator("h1 >> text=Hola, Laura").WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatal("greeting not shown")
	}
	total, err := page.Locator("[data-testid=total-sessions]").TextContent()
	if err != nil || strings.TrimSpace(total) != "3" {
		t.Errorf("total sessions = %q, %v", total, err)
	}
}

// TestBrowser_UnauthenticatedRedirect tests pages send signed-out visitors to login.
func TestBrowser_UnauthenticatedRedirect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)
	if _, err := page.Goto(app.BaseURL + "/branding"); err != nil {
		t.Fatal(err)
	}
	if err := page.WaitForURL(app.BaseURL+"/login", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Errorf("expected redirect to login, at %s", page.URL())
	}
}

// TestBrowser_SelectPreset tests picking a dark preset pushes it and re-renders the page dark.
func TestBrowser_SelectPreset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	app := newTestApp(t)
	page := app.newPage(t)
	app.login(t, page)

	if _, err := page.Goto(app.BaseURL + "/branding"); err != nil {
		t.Fatal(err)
	}
	if err := page.Locator("[data-testid=preset-medianoche]").Click(); err != nil {
		t.Fatalf("failed to click preset: %v", err)
	}
	if err := page.Locator("[data-testid=branding-result] >> text=medianoche aplicado").WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatal("branding result not shown")
	}
	if got := app.Backend.pushedTheme(); got != "medianoche" {
		t.Errorf("backend theme = %v", got)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if text, _ := page.Locator("[data-testid=current-theme] small").TextContent(); text == "Oscuro" {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Error("page did not re-render with the dark theme")
}
