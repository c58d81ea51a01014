package projections

import (
	"context"
	"time"

	"trainerapp/internal/adapters/backend"
	domainClient "trainerapp/internal/domain/client"
	"trainerapp/internal/domain/payment"
	"trainerapp/internal/domain/session"
)

// SessionLister lists sessions from the trainer backend.
type SessionLister interface {
	ListSessions(ctx context.Context, f backend.SessionFilter) ([]session.Session, error)
}

// StatsSource returns the backend's precomputed dashboard counters.
type StatsSource interface {
	SessionStats(ctx context.Context, from, to time.Time) (session.Stats, error)
}

// ClientLister lists the trainer's clients, optionally narrowed by a search query.
type ClientLister interface {
	ListClients(ctx context.Context, query string) ([]domainClient.Client, error)
}

// BalanceSource returns a client's payment balance.
type BalanceSource interface {
	PaymentBalance(ctx context.Context, clientID int64) (payment.Balance, error)
}
