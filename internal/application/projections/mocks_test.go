package projections

import (
	"context"
	"sync"
	"time"

	"trainerapp/internal/adapters/backend"
	domainClient "trainerapp/internal/domain/client"
	"trainerapp/internal/domain/payment"
	"trainerapp/internal/domain/session"
)

// fixedTime is Thursday 2023-10-26 09:00 in Colombia.
var fixedTime = time.Date(2023, 10, 26, 14, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func at(id, clientID int64, t time.Time) session.Session {
	s := session.New(clientID, t)
	s.ID = id
	return s
}

// mockReadBackend serves seeded sessions, clients and balances.
type mockReadBackend struct {
	mu       sync.Mutex
	sessions []session.Session
	clients  []domainClient.Client
	balances map[int64]payment.Balance
	stats    *session.Stats
	filters  []backend.SessionFilter
	calls    int
}

// ListSessions returns seeded sessions in [From, To) matching the filter.
// PRE: none
// POST: the filter is recorded
func (m *mockReadBackend) ListSessions(_ context.Context, f backend.SessionFilter) ([]session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
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
	return out, nil
}

// SessionStats returns the seeded stats, or ErrNotFound when none are seeded.
// PRE: none
// POST: returns stats or backend.ErrNotFound
func (m *mockReadBackend) SessionStats(_ context.Context, _, _ time.Time) (session.Stats, error) {
	if m.stats == nil {
		return session.Stats{}, backend.ErrNotFound
	}
	return *m.stats, nil
}

// ListClients returns the seeded clients matching query.
// PRE: none
// POST: returns clients in seed order
func (m *mockReadBackend) ListClients(_ context.Context, query string) ([]domainClient.Client, error) {
	var out []domainClient.Client
	for _, c := range m.clients {
		if c.MatchesSearch(query) {
			out = append(out, c)
		}
	}
	return out, nil
}

// PaymentBalance returns the seeded balance for a client.
// PRE: clientID > 0
// POST: unseeded clients get backend.ErrNotFound; each call is counted
func (m *mockReadBackend) PaymentBalance(_ context.Context, clientID int64) (payment.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	b, ok := m.balances[clientID]
	if !ok {
		return payment.Balance{}, backend.ErrNotFound
	}
	return b, nil
}

type sessionSeed struct {
	id, clientID int64
	at           time.Time
}

type sessionSeeds []sessionSeed

func (seeds sessionSeeds) sessions() []session.Session {
	out := make([]session.Session, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, at(s.id, s.clientID, s.at))
	}
	return out
}
