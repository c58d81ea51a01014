package orchestrators

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"trainerapp/internal/adapters/backend"
	emailAdapter "trainerapp/internal/adapters/email"
	brandingStore "trainerapp/internal/adapters/storage/branding"
	reminderStore "trainerapp/internal/adapters/storage/reminder"
	"trainerapp/internal/domain/branding"
	"trainerapp/internal/domain/client"
	"trainerapp/internal/domain/payment"
	"trainerapp/internal/domain/session"
)

// fixedTime is Thursday 2023-10-26 09:00 in Colombia.
var fixedTime = time.Date(2023, 10, 26, 14, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// mockBackend is an in-memory trainer backend.
type mockBackend struct {
	mu       sync.Mutex
	sessions map[int64]session.Session
	clients  map[int64]client.Client
	payments map[int64][]payment.Payment
	apps     map[int64]backend.App
	nextID   int64

	failUpdateApp error
	pushed        []branding.Preference
	pushTokens    []string
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		sessions: make(map[int64]session.Session),
		clients:  make(map[int64]client.Client),
		payments: make(map[int64][]payment.Payment),
		apps:     make(map[int64]backend.App),
		nextID:   100,
	}
}

// GetSession implements SessionBackend.
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

// ListSessions implements SessionBackend.
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

// CreateSession implements SessionBackend.
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

// UpdateSession implements SessionBackend.
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

// GetClient implements ReminderBackend.
// PRE: id > 0
// POST: returns the client or backend.ErrNotFound
func (m *mockBackend) GetClient(_ context.Context, id int64) (client.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return client.Client{}, backend.ErrNotFound
	}
	return c, nil
}

// CreatePayment implements PaymentBackend, settling the oldest unpaid sessions.
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

// PaymentBalance implements PaymentBackend.
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

func (m *mockBackend) pushedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pushed)
}

// GetApp implements ThemePusher.
// PRE: id > 0
// POST: returns the app or backend.ErrNotFound
func (m *mockBackend) GetApp(_ context.Context, id int64) (backend.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return backend.App{}, backend.ErrNotFound
	}
	return a, nil
}

// UpdateAppTheme implements ThemePusher.
// PRE: p is valid
// POST: app carries p's theme; fonts are preserved
func (m *mockBackend) UpdateAppTheme(ctx context.Context, p branding.Preference, fonts map[string]string) (backend.App, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, _ := backend.TokenFrom(ctx)
	m.pushTokens = append(m.pushTokens, token)
	if m.failUpdateApp != nil {
		return backend.App{}, m.failUpdateApp
	}
	a := m.apps[p.AppID]
	a.ThemeID = p.ThemeID
	a.Palette = p.Palette
	a.Fonts = fonts
	m.apps[p.AppID] = a
	m.pushed = append(m.pushed, p)
	return a, nil
}

// mockBrandingStore implements brandingStore.Store for testing.
type mockBrandingStore struct {
	prefs  map[int64]branding.Preference
	pushed map[int64]time.Time
}

func newMockBrandingStore() *mockBrandingStore {
	return &mockBrandingStore{prefs: make(map[int64]branding.Preference), pushed: make(map[int64]time.Time)}
}

// GetByApp implements brandingStore.Store.
// PRE: appID > 0
// POST: returns the preference or brandingStore.ErrNotFound
func (m *mockBrandingStore) GetByApp(_ context.Context, appID int64) (branding.Preference, error) {
	p, ok := m.prefs[appID]
	if !ok {
		return branding.Preference{}, brandingStore.ErrNotFound
	}
	return p, nil
}

// Save implements brandingStore.Store.
// PRE: p is valid
// POST: p stored and pending push
func (m *mockBrandingStore) Save(_ context.Context, p branding.Preference) error {
	m.prefs[p.AppID] = p
	delete(m.pushed, p.AppID)
	return nil
}

// MarkPushed implements brandingStore.Store.
// PRE: appID has a preference
// POST: preference no longer pending
func (m *mockBrandingStore) MarkPushed(_ context.Context, appID int64, at time.Time) error {
	if _, ok := m.prefs[appID]; !ok {
		return brandingStore.ErrNotFound
	}
	m.pushed[appID] = at
	return nil
}

// ListUnpushed implements brandingStore.Store.
// PRE: none
// POST: returns preferences not yet pushed, by app id
func (m *mockBrandingStore) ListUnpushed(_ context.Context) ([]branding.Preference, error) {
	var out []branding.Preference
	for id, p := range m.prefs {
		if _, ok := m.pushed[id]; !ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppID < out[j].AppID })
	return out, nil
}

// Delete implements brandingStore.Store.
// PRE: none
// POST: appID has no preference
func (m *mockBrandingStore) Delete(_ context.Context, appID int64) error {
	delete(m.prefs, appID)
	delete(m.pushed, appID)
	return nil
}

// mockReminderStore implements reminderStore.Store for testing.
type mockReminderStore struct {
	mu      sync.Mutex
	entries map[string]reminderStore.Entry
}

func newMockReminderStore() *mockReminderStore {
	return &mockReminderStore{entries: make(map[string]reminderStore.Entry)}
}

func reminderKey(sessionID int64, recipient string) string {
	return strings.ToLower(recipient) + "#" + strconv.FormatInt(sessionID, 10)
}

// WasSent implements reminderStore.Store.
// PRE: none
// POST: reports whether the pair was recorded
func (m *mockReminderStore) WasSent(_ context.Context, sessionID int64, recipient string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[reminderKey(sessionID, recipient)]
	return ok, nil
}

// Record implements reminderStore.Store.
// PRE: e is complete
// POST: e stored, or reminderStore.ErrAlreadySent for a duplicate
func (m *mockReminderStore) Record(_ context.Context, e reminderStore.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := reminderKey(e.SessionID, e.Recipient)
	if _, ok := m.entries[k]; ok {
		return reminderStore.ErrAlreadySent
	}
	m.entries[k] = e
	return nil
}

// ListBySession implements reminderStore.Store.
// PRE: none
// POST: returns entries for the session
func (m *mockReminderStore) ListBySession(_ context.Context, sessionID int64) ([]reminderStore.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []reminderStore.Entry
	for _, e := range m.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

// failingSender rejects every message.
type failingSender struct{}

// Send implements emailAdapter.Sender.
func (failingSender) Send(context.Context, emailAdapter.Message) (emailAdapter.Receipt, error) {
	return emailAdapter.Receipt{}, errors.New("provider down")
}
