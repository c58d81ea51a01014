package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// migrations are applied in order; migrations[i] moves the schema to version i+1.
// Never edit a shipped entry, append a new one.
var migrations = []string{
	// 1: local branding preference and reminder log
	`CREATE TABLE IF NOT EXISTS branding_preference (
		id TEXT PRIMARY KEY,
		app_id INTEGER NOT NULL UNIQUE,
		theme_id TEXT NOT NULL,
		primary_hex TEXT NOT NULL,
		secondary_hex TEXT NOT NULL,
		background_hex TEXT NOT NULL,
		text_hex TEXT NOT NULL,
		is_dark INTEGER NOT NULL DEFAULT 0,
		logo_url TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS reminder_log (
		id TEXT PRIMARY KEY,
		session_id INTEGER NOT NULL,
		recipient TEXT NOT NULL,
		message_id TEXT NOT NULL DEFAULT '',
		sent_at TEXT NOT NULL,
		UNIQUE (session_id, recipient)
	);`,
	// 2: track whether the preference reached the backend
	`ALTER TABLE branding_preference ADD COLUMN pushed_at TEXT;`,
	// 3: reminder lookups by session
	`CREATE INDEX IF NOT EXISTS idx_reminder_log_session ON reminder_log(session_id);`,
}

// LatestSchemaVersion is the version InitDB migrates to.
func LatestSchemaVersion() int {
	return len(migrations)
}

// SchemaVersion returns the applied version, 0 for a fresh database.
// PRE: db is open
// POST: returns the recorded version or an error if the table cannot be read
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}
	var v sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// InitDB sets connection pragmas and applies pending migrations, one transaction each.
// PRE: db is a valid database connection
// POST: schema is at LatestSchemaVersion, WAL and foreign keys enabled
func InitDB(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	if current > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this binary (%d)", current, len(migrations))
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		if err := applyMigration(ctx, db, version, migrations[i]); err != nil {
			return err
		}
		slog.Info("migration_event", "event", "applied", "version", version)
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, version int, stmt string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("migration %d: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
		return fmt.Errorf("migration %d: record version: %w", version, err)
	}
	return tx.Commit()
}
