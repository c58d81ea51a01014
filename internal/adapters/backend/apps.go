package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"trainerapp/internal/domain/branding"
	"trainerapp/internal/domain/exercise"
	"trainerapp/internal/domain/location"
	"trainerapp/internal/domain/theme"
)

// DefaultAutocompleteLimit matches the backend's default page for autocomplete.
const DefaultAutocompleteLimit = 10

// ListTemplates returns an app's exercise templates, optionally for one discipline.
func (c *Client) ListTemplates(ctx context.Context, appID int64, discipline string) ([]exercise.Template, error) {
	q := url.Values{"trainer_app_id": {strconv.FormatInt(appID, 10)}}
	if discipline != "" {
		q.Set("discipline_type", discipline)
	}
	var wire []templateWire
	if err := c.do(ctx, http.MethodGet, "/exercise-templates", q, nil, &wire, true); err != nil {
		return nil, err
	}
	return templatesFromWire(wire)
}

// AutocompleteTemplates returns up to limit templates whose name matches prefix.
func (c *Client) AutocompleteTemplates(ctx context.Context, appID int64, prefix string, limit int) ([]exercise.Template, error) {
	if limit <= 0 {
		limit = DefaultAutocompleteLimit
	}
	q := url.Values{
		"trainer_app_id": {strconv.FormatInt(appID, 10)},
		"q":              {prefix},
		"limit":          {strconv.Itoa(limit)},
	}
	var wire []templateWire
	if err := c.do(ctx, http.MethodGet, "/exercise-templates/autocomplete", q, nil, &wire, true); err != nil {
		return nil, err
	}
	return templatesFromWire(wire)
}

// GetTemplate fetches one template and parses its field schema.
func (c *Client) GetTemplate(ctx context.Context, id int64) (exercise.Template, error) {
	var w templateWire
	if err := c.do(ctx, http.MethodGet, "/exercise-templates/"+strconv.FormatInt(id, 10), nil, nil, &w, true); err != nil {
		return exercise.Template{}, err
	}
	return w.domain()
}

// CreateTemplate stores t under t.AppID.
// PRE: t has been validated
func (c *Client) CreateTemplate(ctx context.Context, t exercise.Template) (exercise.Template, error) {
	var w templateWire
	if err := c.do(ctx, http.MethodPost, "/exercise-templates", nil, templateToWire(t), &w, true); err != nil {
		return exercise.Template{}, err
	}
	return w.domain()
}

func templatesFromWire(wire []templateWire) ([]exercise.Template, error) {
	out := make([]exercise.Template, 0, len(wire))
	for _, w := range wire {
		t, err := w.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ListLocations returns the trainer's locations.
func (c *Client) ListLocations(ctx context.Context, trainerID int64) ([]location.Location, error) {
	q := url.Values{"trainer_id": {strconv.FormatInt(trainerID, 10)}}
	var wire []locationWire
	if err := c.do(ctx, http.MethodGet, "/locations", q, nil, &wire, true); err != nil {
		return nil, err
	}
	out := make([]location.Location, len(wire))
	for i, w := range wire {
		out[i] = w.domain()
	}
	return out, nil
}

// ListApps returns the trainer's apps.
func (c *Client) ListApps(ctx context.Context, trainerID int64) ([]App, error) {
	q := url.Values{"trainer_id": {strconv.FormatInt(trainerID, 10)}}
	var wire []appWire
	if err := c.do(ctx, http.MethodGet, "/apps", q, nil, &wire, true); err != nil {
		return nil, err
	}
	out := make([]App, len(wire))
	for i, w := range wire {
		out[i] = w.domain()
	}
	return out, nil
}

// GetApp fetches one trainer app.
func (c *Client) GetApp(ctx context.Context, id int64) (App, error) {
	var w appWire
	if err := c.do(ctx, http.MethodGet, "/apps/"+strconv.FormatInt(id, 10), nil, nil, &w, true); err != nil {
		return App{}, err
	}
	return w.domain(), nil
}

// UpdateAppTheme pushes a branding preference to the app. Fonts already set on the app are kept.
// PRE: p has been validated
// POST: the backend app carries p.ThemeID and p.Palette
func (c *Client) UpdateAppTheme(ctx context.Context, p branding.Preference, fonts map[string]string) (App, error) {
	body := struct {
		ThemeID     string          `json:"theme_id"`
		ThemeConfig themeConfigWire `json:"theme_config"`
	}{p.ThemeID, themeConfigFor(p, fonts)}
	var w appWire
	if err := c.do(ctx, http.MethodPut, "/apps/"+strconv.FormatInt(p.AppID, 10), nil, body, &w, true); err != nil {
		return App{}, err
	}
	return w.domain(), nil
}

// ListThemes returns the backend's preset catalog.
// Backends without the endpoint answer 404, or 422 when /apps/{id} captures the path;
// both yield the built-in catalog.
// POST: every returned preset has a parseable palette
func (c *Client) ListThemes(ctx context.Context) ([]theme.Preset, error) {
	var wire []presetWire
	err := c.do(ctx, http.MethodGet, "/apps/themes", nil, nil, &wire, false)
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusUnprocessableEntity) {
		return theme.Catalog, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]theme.Preset, 0, len(wire))
	for _, w := range wire {
		p := w.domain()
		if _, err := theme.ParseHex(p.Palette.Background); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
