package reminder

import (
	"context"
	"errors"
	"strings"
	"time"

	"trainerapp/internal/adapters/storage"
)

// ErrAlreadySent is returned by Record when the (session, recipient) pair exists.
var ErrAlreadySent = errors.New("reminder already sent")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
// PRE: db is migrated
// POST: store is ready for use
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// WasSent reports whether recipient already got a reminder for the session.
func (s *SQLiteStore) WasSent(ctx context.Context, sessionID int64, recipient string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reminder_log WHERE session_id = ? AND recipient = ?`,
		sessionID, strings.ToLower(recipient)).Scan(&n)
	return n > 0, err
}

// Record stores a sent reminder.
// PRE: e.ID is non-empty
// POST: returns ErrAlreadySent on a duplicate (session, recipient)
func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminder_log (id, session_id, recipient, message_id, sent_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, strings.ToLower(e.Recipient), e.MessageID, e.SentAt.UTC().Format(time.RFC3339Nano))
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrAlreadySent
	}
	return err
}

// ListBySession returns reminders for a session, oldest first.
func (s *SQLiteStore) ListBySession(ctx context.Context, sessionID int64) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, recipient, message_id, sent_at FROM reminder_log WHERE session_id = ? ORDER BY sent_at`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Entry
	for rows.Next() {
		var (
			e    Entry
			sent string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Recipient, &e.MessageID, &sent); err != nil {
			return nil, err
		}
		if e.SentAt, err = time.Parse(time.RFC3339Nano, sent); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
