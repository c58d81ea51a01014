package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"trainerapp/internal/adapters/http/perf"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQuery is used when TRAINER_SLOW_QUERY_MS is unset or invalid.
const DefaultSlowQuery = 50 * time.Millisecond

var (
	slowQueryOnce      sync.Once
	slowQueryThreshold time.Duration
)

// SlowQueryThreshold reads TRAINER_SLOW_QUERY_MS once per process.
func SlowQueryThreshold() time.Duration {
	slowQueryOnce.Do(func() {
		slowQueryThreshold = DefaultSlowQuery
		if v := os.Getenv("TRAINER_SLOW_QUERY_MS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				slowQueryThreshold = time.Duration(n) * time.Millisecond
			}
		}
	})
	return slowQueryThreshold
}

// TimedDB wraps a *sql.DB, warning about slow queries and feeding a perf recorder.
type TimedDB struct {
	db        *sql.DB
	recorder  perf.Recorder
	threshold time.Duration
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db. recorder may be nil.
// PRE: db is a valid database connection
// POST: returned TimedDB forwards every call to db
func NewTimedDB(db *sql.DB, recorder perf.Recorder) *TimedDB {
	return &TimedDB{db: db, recorder: recorder, threshold: SlowQueryThreshold()}
}

// RawDB returns the underlying *sql.DB for migrations and pool tuning.
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

// statement returns the leading SQL keyword, e.g. "SELECT".
func statement(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

func (t *TimedDB) observe(method, query string, start time.Time) {
	elapsed := time.Since(start)
	op := method
	if kw := statement(query); kw != "" {
		op += " " + kw
	}
	ms := float64(elapsed.Microseconds()) / 1000.0

	if elapsed >= t.threshold {
		slog.Warn("slow_query", "op", op, "duration_ms", ms)
	} else {
		slog.Debug("query", "op", op, "duration_ms", ms)
	}
	if t.recorder != nil {
		t.recorder.Record(perf.Entry{Kind: perf.KindQuery, Op: op, DurationMs: ms, At: start})
	}
}

// ExecContext runs a statement that returns no rows.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	defer t.observe("ExecContext", query, start)
	return t.db.ExecContext(ctx, query, args...)
}

// QueryContext runs a query returning rows.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	defer t.observe("QueryContext", query, start)
	return t.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a query returning at most one row.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	defer t.observe("QueryRowContext", query, start)
	return t.db.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction. Statements inside the tx are not timed.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	defer t.observe("BeginTx", "", start)
	return t.db.BeginTx(ctx, opts)
}

// PingContext verifies the connection; used by /healthz.
func (t *TimedDB) PingContext(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// Close closes the underlying database.
func (t *TimedDB) Close() error {
	return t.db.Close()
}
