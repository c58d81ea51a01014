package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"trainerapp/internal/adapters/backend"
	"trainerapp/internal/adapters/blob"
	"trainerapp/internal/adapters/imagedecode"
	brandingStore "trainerapp/internal/adapters/storage/branding"
	"trainerapp/internal/domain/branding"
	"trainerapp/internal/domain/theme"
)

// ThemePusher is the slice of the backend client that applies branding to an app.
type ThemePusher interface {
	GetApp(ctx context.Context, id int64) (backend.App, error)
	UpdateAppTheme(ctx context.Context, p branding.Preference, fonts map[string]string) (backend.App, error)
}

// LogoSource resolves a logo reference to a decode function.
type LogoSource interface {
	Func(ref string) theme.DecodeFunc
}

// ErrPickOutsideLogo is returned when the clicked point does not land on the logo.
var ErrPickOutsideLogo = errors.New("picked point is outside the logo")

// ErrNoLogo is returned when neither a logo URL, an upload nor a colour was given.
var ErrNoLogo = errors.New("a logo or a primary colour is required")

// BrandingResult is the saved preference and whether the backend accepted it.
type BrandingResult struct {
	Preference branding.Preference
	Pushed     bool
}

// pushPreference applies p to the backend app, keeping the app's fonts, and marks it pushed locally.
func pushPreference(ctx context.Context, store brandingStore.Store, pusher ThemePusher, p branding.Preference, now time.Time) error {
	app, err := pusher.GetApp(ctx, p.AppID)
	if err != nil {
		return fmt.Errorf("get app %d: %w", p.AppID, err)
	}
	if _, err := pusher.UpdateAppTheme(ctx, p, app.Fonts); err != nil {
		return fmt.Errorf("update app %d theme: %w", p.AppID, err)
	}
	return store.MarkPushed(ctx, p.AppID, now)
}

// rejectedPush reports whether the backend refused the preference itself, so a retry
// would fail the same way. Auth failures, timeouts and rate limits are not rejections.
func rejectedPush(err error) bool {
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return apiErr.Status >= 400 && apiErr.Status < 500
}

// dropRejected removes a preference the backend will never accept.
func dropRejected(ctx context.Context, store brandingStore.Store, p branding.Preference, err error) {
	slog.Warn("branding_event", "event", "push_rejected", "app_id", p.AppID, "theme_id", p.ThemeID, "error", err)
	if derr := store.Delete(ctx, p.AppID); derr != nil {
		slog.Error("branding_event", "event", "drop_rejected_failed", "app_id", p.AppID, "error", derr)
	}
}

// saveAndPush stores p and then tries the backend. A transient failure leaves p pending
// for retry; a rejection drops p and is returned.
func saveAndPush(ctx context.Context, store brandingStore.Store, pusher ThemePusher, p branding.Preference, now time.Time) (BrandingResult, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := p.Validate(); err != nil {
		return BrandingResult{}, err
	}
	if err := store.Save(ctx, p); err != nil {
		return BrandingResult{}, err
	}
	if err := pushPreference(ctx, store, pusher, p, now); err != nil {
		if rejectedPush(err) {
			dropRejected(ctx, store, p, err)
			return BrandingResult{}, err
		}
		slog.Warn("branding_event", "event", "push_deferred", "app_id", p.AppID, "theme_id", p.ThemeID, "error", err)
		return BrandingResult{Preference: p}, nil
	}
	return BrandingResult{Preference: p, Pushed: true}, nil
}

// --- Derive Branding ---

// DeriveBrandingInput carries one click on a logo preview, or a colour typed by hand.
type DeriveBrandingInput struct {
	AppID int64

	LogoURL string // remote or previously uploaded logo
	Upload  []byte // freshly uploaded logo; stored before sampling

	// Click position on the displayed preview and the preview's size.
	DisplayX, DisplayY float64
	DisplayW, DisplayH float64

	// PrimaryHex skips sampling when set.
	PrimaryHex string
}

// DeriveBrandingDeps holds dependencies for DeriveBranding.
type DeriveBrandingDeps struct {
	Uploads blob.Store
	Logos   LogoSource
	Store   brandingStore.Store
	Backend ThemePusher
	Now     func() time.Time
}

// ExecuteDeriveBranding samples the clicked logo pixel, derives a palette from it and applies it.
// PRE: AppID > 0; one of Upload, LogoURL or PrimaryHex is set
// POST: custom preference saved locally; pushed to the backend when reachable
func ExecuteDeriveBranding(ctx context.Context, input DeriveBrandingInput, deps DeriveBrandingDeps) (BrandingResult, error) {
	if input.AppID <= 0 {
		return BrandingResult{}, branding.ErrMissingApp
	}

	logoURL := input.LogoURL
	seed := input.PrimaryHex
	if seed == "" {
		var decode theme.DecodeFunc
		switch {
		case len(input.Upload) > 0:
			if deps.Uploads == nil {
				return BrandingResult{}, errors.New("logo uploads are not configured")
			}
			_, url, err := deps.Uploads.Put(ctx, input.Upload)
			if err != nil {
				return BrandingResult{}, err
			}
			logoURL = url
			decode = imagedecode.BytesFunc("upload", input.Upload)
		case logoURL != "":
			decode = deps.Logos.Func(logoURL)
		default:
			return BrandingResult{}, ErrNoLogo
		}

		picked, err := sampleLogo(ctx, decode, input)
		if err != nil {
			return BrandingResult{}, err
		}
		seed = picked.Hex()
	}

	palette, err := theme.GenerateCompleteTheme(seed)
	if err != nil {
		return BrandingResult{}, err
	}
	p := branding.FromPalette(input.AppID, palette, logoURL, deps.Now())

	res, err := saveAndPush(ctx, deps.Store, deps.Backend, p, deps.Now())
	if err != nil {
		return BrandingResult{}, err
	}
	slog.Info("branding_event", "event", "branding_derived", "app_id", p.AppID, "primary", palette.Primary,
		"is_dark", p.IsDark, "pushed", res.Pushed)
	return res, nil
}

func sampleLogo(ctx context.Context, decode theme.DecodeFunc, input DeriveBrandingInput) (theme.RGB, error) {
	if input.DisplayW <= 0 || input.DisplayH <= 0 ||
		input.DisplayX < 0 || input.DisplayY < 0 || input.DisplayX > input.DisplayW || input.DisplayY > input.DisplayH {
		return theme.RGB{}, ErrPickOutsideLogo
	}
	sampler := theme.NewLogoSampler(ctx, decode)
	defer sampler.Close()
	if err := sampler.Wait(ctx); err != nil {
		return theme.RGB{}, err
	}
	c, ok, err := sampler.Pick(input.DisplayX, input.DisplayY, input.DisplayW, input.DisplayH)
	if err != nil {
		return theme.RGB{}, err
	}
	if !ok {
		return theme.RGB{}, ErrPickOutsideLogo
	}
	return c, nil
}

// --- Select Catalog Theme ---

// SelectCatalogThemeInput carries the chosen preset.
type SelectCatalogThemeInput struct {
	AppID   int64
	ThemeID string
}

// SelectCatalogThemeDeps holds dependencies for SelectCatalogTheme.
type SelectCatalogThemeDeps struct {
	Catalog func(ctx context.Context) ([]theme.Preset, error)
	Store   brandingStore.Store
	Backend ThemePusher
	Now     func() time.Time
}

// ExecuteSelectCatalogTheme applies a preset from the catalog.
// PRE: AppID > 0; ThemeID names a catalog preset
// POST: preset preference saved locally; pushed to the backend when reachable
func ExecuteSelectCatalogTheme(ctx context.Context, input SelectCatalogThemeInput, deps SelectCatalogThemeDeps) (BrandingResult, error) {
	if input.AppID <= 0 {
		return BrandingResult{}, branding.ErrMissingApp
	}
	presets, err := deps.Catalog(ctx)
	if err != nil {
		return BrandingResult{}, err
	}
	var chosen *theme.Preset
	for i := range presets {
		if presets[i].ID == input.ThemeID {
			chosen = &presets[i]
			break
		}
	}
	if chosen == nil {
		return BrandingResult{}, fmt.Errorf("%w: %q", theme.ErrUnknownTheme, input.ThemeID)
	}

	p := branding.FromPreset(input.AppID, *chosen, deps.Now())
	res, err := saveAndPush(ctx, deps.Store, deps.Backend, p, deps.Now())
	if err != nil {
		return BrandingResult{}, err
	}
	slog.Info("branding_event", "event", "catalog_theme_selected", "app_id", p.AppID, "theme_id", p.ThemeID, "pushed", res.Pushed)
	return res, nil
}

// --- Push Pending Branding ---

// PushPendingBrandingDeps holds dependencies for PushPendingBranding.
type PushPendingBrandingDeps struct {
	Store   brandingStore.Store
	Backend ThemePusher
	Now     func() time.Time
}

// ExecutePushPendingBranding retries every preference the backend has not yet accepted.
// PRE: ctx carries a backend token allowed to update the apps
// POST: returns how many preferences were pushed; rejected ones are dropped, other failures stay pending
func ExecutePushPendingBranding(ctx context.Context, deps PushPendingBrandingDeps) (int, error) {
	pending, err := deps.Store.ListUnpushed(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unpushed branding: %w", err)
	}
	pushed := 0
	for _, p := range pending {
		if err := pushPreference(ctx, deps.Store, deps.Backend, p, deps.Now()); err != nil {
			if rejectedPush(err) {
				dropRejected(ctx, deps.Store, p, err)
				continue
			}
			slog.Warn("branding_event", "event", "push_retry_failed", "app_id", p.AppID, "error", err)
			continue
		}
		pushed++
	}
	if len(pending) > 0 {
		slog.Info("branding_event", "event", "pending_pushed", "pushed", pushed, "pending", len(pending))
	}
	return pushed, nil
}
