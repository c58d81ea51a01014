package theme

import "errors"

// CustomThemeID marks a palette derived from the trainer's own logo.
const CustomThemeID = "custom"

// ErrUnknownTheme is returned for catalog ids that do not exist.
var ErrUnknownTheme = errors.New("unknown theme id")

// Preset is a ready-made theme a trainer can pick instead of sampling a logo.
type Preset struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Palette Palette `json:"palette"`
}

// Catalog is the built-in preset list, in display order.
// "pizarra" has a mid-tone background that reads as light under DarkThreshold.
var Catalog = []Preset{
	{ID: "clasico", Name: "Clásico", Palette: Palette{Primary: "#2563eb", Secondary: "#93c5fd", Background: "#ffffff", Text: NearBlack}},
	{ID: "oceano", Name: "Océano", Palette: Palette{Primary: "#0891b2", Secondary: "#67e8f9", Background: "#f0f9ff", Text: NearBlack}},
	{ID: "bosque", Name: "Bosque", Palette: Palette{Primary: "#15803d", Secondary: "#86efac", Background: NearWhite, Text: NearBlack}},
	{ID: "atardecer", Name: "Atardecer", Palette: Palette{Primary: "#ea580c", Secondary: "#fdba74", Background: "#fff7ed", Text: NearBlack}},
	{ID: "medianoche", Name: "Medianoche", Palette: Palette{Primary: "#818cf8", Secondary: "#c7d2fe", Background: NearBlack, Text: NearWhite}},
	{ID: "grafito", Name: "Grafito", Palette: Palette{Primary: "#f59e0b", Secondary: "#fcd34d", Background: "#111827", Text: NearWhite}},
	{ID: "pizarra", Name: "Pizarra", Palette: Palette{Primary: "#1e3a8a", Secondary: "#bfdbfe", Background: "#7c8a9e", Text: NearBlack}},
	{ID: "rosa", Name: "Rosa", Palette: Palette{Primary: "#db2777", Secondary: "#f9a8d4", Background: "#fdf2f8", Text: NearBlack}},
}

// DefaultThemeID is used when a trainer has not chosen anything yet.
const DefaultThemeID = "clasico"

// Lookup finds a preset by id.
func Lookup(id string) (Preset, error) {
	for _, p := range Catalog {
		if p.ID == id {
			return p, nil
		}
	}
	return Preset{}, ErrUnknownTheme
}
