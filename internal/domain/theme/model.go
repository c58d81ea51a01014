// Package theme derives a trainer app's colour theme from a single logo pixel.
package theme

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Domain errors
var (
	ErrInvalidHex  = errors.New("colour must be #rgb or #rrggbb")
	ErrNotDecoded  = errors.New("logo has not finished decoding")
	ErrSamplerDone = errors.New("logo sampler closed")
)

// MinImageSide is the smallest logo width or height accepted for sampling.
const MinImageSide = 50

// RGB is a sampled colour; alpha is dropped at sampling time.
type RGB struct {
	R, G, B uint8
}

// Hex returns the colour as "#rrggbb".
func (c RGB) Hex() string {
	return RGBToHex(c.R, c.G, c.B)
}

// RGBToHex encodes three channels as a lowercase "#rrggbb" string.
// PRE: none
// POST: result is exactly 7 characters
func RGBToHex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// ParseHex decodes "#rrggbb" or the "#rgb" shorthand. The leading '#' is optional.
// PRE: none
// POST: returns ErrInvalidHex for anything else
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// ColorAtPixel reads the pixel at native image coordinates (x, y), measured from
// the image's top-left corner.
// PRE: coordinates are already scaled from display space to native space
// POST: ok is false (never a panic) when (x, y) lies outside the image
func ColorAtPixel(img image.Image, x, y int) (RGB, bool) {
	if img == nil {
		return RGB{}, false
	}
	b := img.Bounds()
	p := image.Pt(b.Min.X+x, b.Min.Y+y)
	if x < 0 || y < 0 || !p.In(b) {
		return RGB{}, false
	}
	// Non-premultiplied, matching what a canvas returns for translucent pixels.
	c := color.NRGBAModel.Convert(img.At(p.X, p.Y)).(color.NRGBA)
	return RGB{R: c.R, G: c.G, B: c.B}, true
}

// ScaleToNative maps a click on a rendered preview back to native pixel coordinates.
// PRE: displayW and displayH are positive
// POST: result is clamped to [0, native-1]
func ScaleToNative(displayX, displayY, displayW, displayH float64, nativeW, nativeH int) (int, int) {
	if displayW <= 0 || displayH <= 0 {
		return 0, 0
	}
	x := int(math.Floor(displayX * float64(nativeW) / displayW))
	y := int(math.Floor(displayY * float64(nativeH) / displayH))
	return clamp(x, 0, nativeW-1), clamp(y, 0, nativeH-1)
}

// ValidateDimensions rejects logos too small to sample meaningfully.
func ValidateDimensions(width, height int) error {
	if width < MinImageSide || height < MinImageSide {
		return &ImageTooSmallError{Width: width, Height: height}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ImageLoadError reports a logo that could not be fetched or decoded.
type ImageLoadError struct {
	Source string
	Err    error
}

// Error implements error.
func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("could not load image %s: %v", e.Source, e.Err)
}

// Unwrap exposes the fetch or decode failure.
func (e *ImageLoadError) Unwrap() error {
	return e.Err
}

// ImageTooSmallError reports a logo below MinImageSide in either dimension.
type ImageTooSmallError struct {
	Width, Height int
}

// Error implements error.
func (e *ImageTooSmallError) Error() string {
	return fmt.Sprintf("image is %dx%d, need at least %dx%d", e.Width, e.Height, MinImageSide, MinImageSide)
}
