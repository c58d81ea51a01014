package reminder

import (
	"context"
	"time"
)

// Entry records one reminder email sent for a session.
type Entry struct {
	ID        string
	SessionID int64
	Recipient string
	MessageID string // provider id, empty for the noop sender
	SentAt    time.Time
}

// Store remembers which reminders have gone out so a session is never reminded twice.
type Store interface {
	WasSent(ctx context.Context, sessionID int64, recipient string) (bool, error)
	Record(ctx context.Context, e Entry) error
	ListBySession(ctx context.Context, sessionID int64) ([]Entry, error)
}
