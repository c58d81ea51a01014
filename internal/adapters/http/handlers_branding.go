package web

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trainerapp/internal/adapters/blob"
	"trainerapp/internal/adapters/imagedecode"
	"trainerapp/internal/application/orchestrators"
	"trainerapp/internal/domain/branding"
	"trainerapp/internal/domain/theme"
)

type brandingResponse struct {
	AppID     int64         `json:"app_id"`
	ThemeID   string        `json:"theme_id"`
	Palette   theme.Palette `json:"palette"`
	IsDark    bool          `json:"is_dark"`
	LogoURL   string        `json:"logo_url,omitempty"`
	UpdatedAt *time.Time    `json:"updated_at,omitempty"`
	Pushed    *bool         `json:"pushed,omitempty"`
}

func toBrandingResponse(p branding.Preference) brandingResponse {
	res := brandingResponse{
		AppID:   p.AppID,
		ThemeID: p.ThemeID,
		Palette: p.Palette,
		IsDark:  p.IsDark,
		LogoURL: p.LogoURL,
	}
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		res.UpdatedAt = &t
	}
	return res
}

// handleGetBranding handles GET /api/branding
func handleGetBranding(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toBrandingResponse(currentPreference(r)))
}

type brandingRequest struct {
	ThemeID string `json:"theme_id"` // catalog preset; wins over everything else
	Primary string `json:"primary"`  // hand-typed colour
	LogoURL string `json:"logo_url"`

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// handlePostBranding handles POST /api/branding: select a preset, or derive a palette from
// a typed colour or a click on a logo.
func handlePostBranding(w http.ResponseWriter, r *http.Request) {
	var req brandingRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	appID := currentSession(r).AppID

	var (
		res orchestrators.BrandingResult
		err error
	)
	if req.ThemeID != "" {
		res, err = orchestrators.ExecuteSelectCatalogTheme(r.Context(), orchestrators.SelectCatalogThemeInput{
			AppID:   appID,
			ThemeID: req.ThemeID,
		}, orchestrators.SelectCatalogThemeDeps{
			Catalog: func(ctx context.Context) ([]theme.Preset, error) { return loadCatalog(r.WithContext(ctx)) },
			Store:   app.Branding,
			Backend: app.Backend,
			Now:     timeNow,
		})
	} else {
		res, err = orchestrators.ExecuteDeriveBranding(r.Context(), orchestrators.DeriveBrandingInput{
			AppID:      appID,
			LogoURL:    req.LogoURL,
			DisplayX:   req.X,
			DisplayY:   req.Y,
			DisplayW:   req.Width,
			DisplayH:   req.Height,
			PrimaryHex: req.Primary,
		}, deriveDeps())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeBrandingResult(w, res)
}

func deriveDeps() orchestrators.DeriveBrandingDeps {
	return orchestrators.DeriveBrandingDeps{
		Uploads: app.Uploads,
		Logos:   app.Logos,
		Store:   app.Branding,
		Backend: app.Backend,
		Now:     timeNow,
	}
}

func writeBrandingResult(w http.ResponseWriter, res orchestrators.BrandingResult) {
	body := toBrandingResponse(res.Preference)
	body.Pushed = &res.Pushed
	status := http.StatusOK
	if !res.Pushed {
		// Saved locally; the background worker pushes it once the backend answers.
		status = http.StatusAccepted
	}
	writeJSON(w, status, body)
}

type logoUploadResponse struct {
	URL        string `json:"url"`
	PreviewURL string `json:"preview_url"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// handleLogoUpload handles POST /api/branding/logo (multipart, field "logo").
// With x/y/width/height fields the click is sampled at once; otherwise the logo is
// stored and its URL returned for the preview.
func handleLogoUpload(w http.ResponseWriter, r *http.Request) {
	if app.Uploads == nil {
		http.Error(w, "logo uploads are not configured", http.StatusServiceUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, blob.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(blob.MaxUploadBytes); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("logo")
	if err != nil {
		http.Error(w, "logo file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, blob.MaxUploadBytes+1))
	if err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	if len(data) > blob.MaxUploadBytes {
		writeError(w, blob.ErrTooLarge)
		return
	}

	if r.FormValue("x") != "" {
		res, err := orchestrators.ExecuteDeriveBranding(r.Context(), orchestrators.DeriveBrandingInput{
			AppID:    currentSession(r).AppID,
			Upload:   data,
			DisplayX: formFloat(r, "x"),
			DisplayY: formFloat(r, "y"),
			DisplayW: formFloat(r, "width"),
			DisplayH: formFloat(r, "height"),
		}, deriveDeps())
		if err != nil {
			writeError(w, err)
			return
		}
		writeBrandingResult(w, res)
		return
	}

	img, _, err := imagedecode.DecodeBytes("upload", data)
	if err != nil {
		writeError(w, err)
		return
	}
	b := img.Bounds()
	if err := theme.ValidateDimensions(b.Dx(), b.Dy()); err != nil {
		writeError(w, err)
		return
	}
	_, logoURL, err := app.Uploads.Put(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, logoUploadResponse{
		URL:        logoURL,
		PreviewURL: "/api/branding/preview?src=" + url.QueryEscape(logoURL),
		Width:      b.Dx(),
		Height:     b.Dy(),
	})
}

func formFloat(r *http.Request, name string) float64 {
	v, _ := strconv.ParseFloat(r.FormValue(name), 64)
	return v
}

// handleLogoPreview handles GET /api/branding/preview?src=...: a downscaled PNG of the logo
// for the colour picker, so large uploads are not shipped to the browser.
func handleLogoPreview(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	if src == "" || app.Logos == nil {
		http.Error(w, "src is required", http.StatusBadRequest)
		return
	}
	img, err := app.Logos.Load(r.Context(), src)
	if err != nil {
		writeError(w, err)
		return
	}
	side, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || side <= 0 || side > 1024 {
		side = imagedecode.DefaultPreviewSide
	}
	png, err := imagedecode.EncodePNG(imagedecode.Preview(img, side))
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(png)
}
