package theme

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DarkThreshold is the relative luminance below which a background counts as dark.
// It sits well under the WCAG midpoint; catalog palettes with mid-tone backgrounds
// depend on being classified light.
const DarkThreshold = 0.18

// MinTextContrast is the WCAG AA contrast ratio for body text.
const MinTextContrast = 4.5

// Near-white and near-black anchors used for backgrounds and text.
const (
	NearWhite = "#f8fafc"
	NearBlack = "#0f172a"
)

// Palette is a complete four-colour UI theme.
// INVARIANT: ContrastRatio(Text, Background) >= MinTextContrast
type Palette struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// GenerateCompleteTheme derives a palette from one seed colour.
// PRE: primaryHex parses with ParseHex
// POST: the result depends on the seed alone; equal seeds give equal palettes
func GenerateCompleteTheme(primaryHex string) (Palette, error) {
	seed, err := ParseHex(primaryHex)
	if err != nil {
		return Palette{}, err
	}
	primary := seed.Hex()

	base := colorful.Color{R: float64(seed.R) / 255, G: float64(seed.G) / 255, B: float64(seed.B) / 255}
	h, s, l := base.Hsl()
	secondary := colorful.Hsl(h, s*0.6, l+(1-l)*0.35).Clamped().Hex()

	background := NearWhite
	text := NearBlack
	if ContrastRatio(primary, NearBlack) > ContrastRatio(primary, NearWhite) {
		background = NearBlack
		text = NearWhite
	}

	return Palette{
		Primary:    primary,
		Secondary:  secondary,
		Background: background,
		Text:       text,
	}, nil
}

// RelativeLuminance returns the WCAG relative luminance of a hex colour.
// Unparseable input reads as white.
func RelativeLuminance(hex string) float64 {
	c, err := ParseHex(hex)
	if err != nil {
		return 1
	}
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

func linearize(channel uint8) float64 {
	c := float64(channel) / 255
	if c < 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// ContrastRatio returns the WCAG contrast ratio between two colours (1 to 21).
func ContrastRatio(a, b string) float64 {
	la, lb := RelativeLuminance(a), RelativeLuminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// IsDarkTheme reports whether a background should get light-on-dark chrome.
// PRE: none
// POST: true iff luminance < DarkThreshold; invalid hex is never dark
func IsDarkTheme(backgroundHex string) bool {
	return isDarkLuminance(RelativeLuminance(backgroundHex))
}

func isDarkLuminance(l float64) bool {
	return l < DarkThreshold
}
