package branding

import (
	"context"
	"errors"
	"time"

	domain "trainerapp/internal/domain/branding"
)

// ErrNotFound is returned when an app has no stored preference.
var ErrNotFound = errors.New("branding preference not found")

// Store persists the branding preference chosen for each trainer app.
type Store interface {
	GetByApp(ctx context.Context, appID int64) (domain.Preference, error)
	Save(ctx context.Context, value domain.Preference) error
	MarkPushed(ctx context.Context, appID int64, at time.Time) error
	ListUnpushed(ctx context.Context) ([]domain.Preference, error)
	Delete(ctx context.Context, appID int64) error
}
