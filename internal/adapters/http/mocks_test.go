package web

import (
	"context"
	"database/sql"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"trainerapp/internal/adapters/backend"
	"trainerapp/internal/adapters/blob"
	"trainerapp/internal/adapters/email"
	"trainerapp/internal/adapters/http/middleware"
	"trainerapp/internal/adapters/imagedecode"
	"trainerapp/internal/adapters/storage"
	brandingStore "trainerapp/internal/adapters/storage/branding"
	reminderStore "trainerapp/internal/adapters/storage/reminder"
	"trainerapp/internal/domain/branding"
	domainClient "trainerapp/internal/domain/client"
	"trainerapp/internal/domain/exercise"
	"trainerapp/internal/domain/location"
	"trainerapp/internal/domain/payment"
	"trainerapp/internal/domain/session"
)

// fixedTime is Thursday 2023-10-26 09:00 in Colombia.
var fixedTime = time.Date(2023, 10, 26, 14, 0, 0, 0, time.UTC)

// trainerSession is a signed-in trainer owning app 7.
var trainerSession = middleware.Session{TrainerID: 1, AppID: 7, Name: "Laura", Email: "laura@example.com", Token: "jwt-laura"}

// mockBackend is an in-memory trainer backend.
type mockBackend struct {
	mu        sync.Mutex
	sessions  map[int64]session.Session
	clients   map[int64]domainClient.Client
	payments  map[int64][]payment.Payment
	apps      map[int64]backend.App
	templates map[int64]exercise.Template
	locations []location.Location
	stats     *session.Stats
	nextID    int64

	failApps  error
	pingErr   error
	devSignIn *backend.SignIn
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		sessions:  make(map[int64]session.Session),
		clients:   make(map[int64]domainClient.Client),
		payments:  make(map[int64][]payment.Payment),
		apps:      map[int64]backend.App{7: {ID: 7, TrainerID: 1, Name: "Laura Fit", Fonts: map[string]string{"heading": "Inter"}}},
		templates: make(map[int64]exercise.Template),
		nextID:    100,
	}
}

// GetSession implements Backend.
// PRE: id > 0
// POST: returns the session or backend.ErrNotFound
func (m *mockBackend) GetSession(_ context.Context, id int64) (session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return session.Session{}, backend.ErrNotFound
	}
	return s, nil
}

// ListSessions implements Backend.
// PRE: none
// POST: returns sessions in [From, To) matching the filter, oldest first
func (m *mockBackend) ListSessions(_ context.Context, f backend.SessionFilter) ([]session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []session.Session
	for _, s := range m.sessions {
		if !f.From.IsZero() && s.ScheduledAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !s.ScheduledAt.Before(f.To) {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.ClientID != 0 && s.ClientID != f.ClientID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

// CreateSession implements Backend.
// PRE: s is valid
// POST: s stored with a new id
func (m *mockBackend) CreateSession(_ context.Context, s session.Session) (session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	m.sessions[s.ID] = s
	return s, nil
}

// UpdateSession implements Backend.
// PRE: s.ID exists
// POST: s replaces the stored session
func (m *mockBackend) UpdateSession(_ context.Context, s session.Session) (session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return session.Session{}, backend.ErrNotFound
	}
	m.sessions[s.ID] = s
	return s, nil
}

// GetApp implements Backend.
// PRE: id > 0
// POST: returns the app, backend.ErrNotFound, or failApps when set
func (m *mockBackend) GetApp(_ context.Context, id int64) (backend.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failApps != nil {
		return backend.App{}, m.failApps
	}
	a, ok := m.apps[id]
	if !ok {
		return backend.App{}, backend.ErrNotFound
	}
	return a, nil
}

// UpdateAppTheme implements Backend.
// PRE: p is valid
// POST: app carries p's theme and the given fonts
func (m *mockBackend) UpdateAppTheme(_ context.Context, p branding.Preference, fonts map[string]string) (backend.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failApps != nil {
		return backend.App{}, m.failApps
	}
	a := m.apps[p.AppID]
	a.ThemeID, a.Palette, a.Fonts = p.ThemeID, p.Palette, fonts
	m.apps[p.AppID] = a
	return a, nil
}

// GetClient implements Backend.
// PRE: id > 0
// POST: returns the client or backend.ErrNotFound
func (m *mockBackend) GetClient(_ context.Context, id int64) (domainClient.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return domainClient.Client{}, backend.ErrNotFound
	}
	return c, nil
}

// ListClients implements Backend.
// PRE: none
// POST: returns clients matching query, by id
func (m *mockBackend) ListClients(_ context.Context, query string) ([]domainClient.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domainClient.Client
	for _, c := range m.clients {
		if c.MatchesSearch(query) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreatePayment implements Backend, settling the oldest unpaid sessions.
// PRE: p is valid
// POST: payment stored; sessions marked paid
func (m *mockBackend) CreatePayment(_ context.Context, p payment.Payment) (payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	sessions := m.clientSessionsLocked(p.ClientID)
	p.Apply(sessions, p.PaymentDate)
	for _, s := range sessions {
		m.sessions[s.ID] = s
	}
	m.payments[p.ClientID] = append(m.payments[p.ClientID], p)
	return p, nil
}

// PaymentBalance implements Backend.
// PRE: none
// POST: returns the balance computed from stored sessions and payments
func (m *mockBackend) PaymentBalance(_ context.Context, clientID int64) (payment.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return payment.ComputeBalance(m.clientSessionsLocked(clientID), m.payments[clientID]), nil
}

func (m *mockBackend) clientSessionsLocked(clientID int64) []session.Session {
	var out []session.Session
	for _, s := range m.sessions {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	return out
}

// SessionStats implements Backend.
// PRE: none
// POST: returns the seeded stats, or backend.ErrNotFound when none were seeded
func (m *mockBackend) SessionStats(context.Context, time.Time, time.Time) (session.Stats, error) {
	if m.stats == nil {
		return session.Stats{}, backend.ErrNotFound
	}
	return *m.stats, nil
}

// GetTemplate implements Backend.
// PRE: id > 0
// POST: returns the template or backend.ErrNotFound
func (m *mockBackend) GetTemplate(_ context.Context, id int64) (exercise.Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return exercise.Template{}, &backend.APIError{Status: http.StatusNotFound, Detail: "Template not found"}
	}
	return t, nil
}

// ListLocations implements Backend.
// PRE: none
// POST: returns the seeded locations
func (m *mockBackend) ListLocations(context.Context, int64) ([]location.Location, error) {
	return m.locations, nil
}

// DevLogin implements Backend.
// PRE: none
// POST: returns devSignIn, or a 404 like a backend without the dev bypass
func (m *mockBackend) DevLogin(context.Context) (backend.SignIn, error) {
	if m.devSignIn == nil {
		return backend.SignIn{}, &backend.APIError{Status: http.StatusNotFound}
	}
	return *m.devSignIn, nil
}

// ExchangeGoogleCode implements Backend.
// PRE: code is non-empty
// POST: "good" signs in trainer 2; anything else is rejected with 401
func (m *mockBackend) ExchangeGoogleCode(_ context.Context, code string) (backend.SignIn, error) {
	if code != "good" {
		return backend.SignIn{}, &backend.APIError{Status: http.StatusUnauthorized, Detail: "invalid code"}
	}
	return backend.SignIn{TrainerID: 2, Name: "Pedro", Email: "pedro@example.com", IsNewUser: true, Token: "jwt-pedro"}, nil
}

// Ping implements Backend.
func (m *mockBackend) Ping(context.Context) error {
	return m.pingErr
}

// testEnv holds what a handler test inspects after the call.
type testEnv struct {
	backend  *mockBackend
	branding brandingStore.Store
	sender   *email.NoopSender
	uploads  *blob.DirStore
}

// setupApp wires the package globals to in-memory fakes and a fresh sqlite database.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(context.Background(), db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	uploads, err := blob.NewDirStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		backend:  newMockBackend(),
		branding: brandingStore.NewSQLiteStore(db),
		sender:   email.NewNoopSender(),
		uploads:  uploads,
	}
	app = &Deps{
		Backend:   env.backend,
		Branding:  env.branding,
		Reminders: reminderStore.NewSQLiteStore(db),
		Uploads:   uploads,
		Logos:     imagedecode.New(nil, uploads, "/uploads"),
		Sender:    env.sender,
		EmailFrom: "agenda@example.com",
	}
	sessions = middleware.NewSessionStore()
	perfCollector = nil
	timeNow = func() time.Time { return fixedTime }
	t.Cleanup(func() { timeNow = time.Now })
	return env
}

// asTrainer returns r carrying the signed-in trainer session.
func asTrainer(r *http.Request) *http.Request {
	return r.WithContext(middleware.ContextWithSession(r.Context(), trainerSession))
}
