package branding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trainerapp/internal/adapters/storage"
	domain "trainerapp/internal/domain/branding"
)

const selectColumns = `id, app_id, theme_id, primary_hex, secondary_hex, background_hex, text_hex, is_dark, logo_url, updated_at`

// SQLiteStore implements Store using SQLite.
// The branding_preference table is created by storage.InitDB.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
// PRE: db is migrated
// POST: store is ready for use
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreference(row scanner) (domain.Preference, error) {
	var (
		p       domain.Preference
		isDark  int
		updated string
	)
	err := row.Scan(&p.ID, &p.AppID, &p.ThemeID,
		&p.Palette.Primary, &p.Palette.Secondary, &p.Palette.Background, &p.Palette.Text,
		&isDark, &p.LogoURL, &updated)
	if err != nil {
		return domain.Preference{}, err
	}
	p.IsDark = isDark != 0
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return domain.Preference{}, fmt.Errorf("parse updated_at %q: %w", updated, err)
	}
	return p, nil
}

// GetByApp returns the stored preference for an app.
// PRE: appID > 0
// POST: returns ErrNotFound if the app has none
func (s *SQLiteStore) GetByApp(ctx context.Context, appID int64) (domain.Preference, error) {
	p, err := scanPreference(s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM branding_preference WHERE app_id = ?`, appID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Preference{}, ErrNotFound
	}
	return p, err
}

// Save inserts or replaces the preference for value.AppID and clears its pushed marker.
// PRE: value is valid and has a non-empty ID
// POST: the app's preference is value
func (s *SQLiteStore) Save(ctx context.Context, value domain.Preference) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO branding_preference (`+selectColumns+`, pushed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		 ON CONFLICT(app_id) DO UPDATE SET theme_id=excluded.theme_id,
		 primary_hex=excluded.primary_hex, secondary_hex=excluded.secondary_hex,
		 background_hex=excluded.background_hex, text_hex=excluded.text_hex,
		 is_dark=excluded.is_dark, logo_url=excluded.logo_url, updated_at=excluded.updated_at,
		 pushed_at=NULL`,
		value.ID, value.AppID, value.ThemeID,
		value.Palette.Primary, value.Palette.Secondary, value.Palette.Background, value.Palette.Text,
		boolToInt(value.IsDark), value.LogoURL, value.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// MarkPushed records that the backend accepted the app's current preference.
// PRE: a preference exists for appID
// POST: the preference no longer appears in ListUnpushed
func (s *SQLiteStore) MarkPushed(ctx context.Context, appID int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE branding_preference SET pushed_at = ? WHERE app_id = ?`,
		at.UTC().Format(time.RFC3339Nano), appID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUnpushed returns preferences saved locally that the backend has not confirmed.
// PRE: none
// POST: returns preferences ordered by updated_at, oldest first
func (s *SQLiteStore) ListUnpushed(ctx context.Context) ([]domain.Preference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM branding_preference WHERE pushed_at IS NULL ORDER BY updated_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []domain.Preference
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Delete drops the app's preference. Deleting a missing preference is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, appID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM branding_preference WHERE app_id = ?`, appID)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
