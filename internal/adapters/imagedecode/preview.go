package imagedecode

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// DefaultPreviewSide is the longest side of the picker preview in pixels.
const DefaultPreviewSide = 320

// PreviewSize returns the display size that fits w×h inside maxSide, keeping the aspect ratio.
// Images already smaller are not enlarged.
func PreviewSize(w, h, maxSide int) (int, int) {
	if w <= maxSide && h <= maxSide {
		return w, h
	}
	if w >= h {
		return maxSide, max(1, h*maxSide/w)
	}
	return max(1, w*maxSide/h), maxSide
}

// Preview scales img to fit inside maxSide using approximate bilinear filtering.
// Picks on the preview map back with theme.ScaleToNative.
func Preview(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := PreviewSize(b.Dx(), b.Dy(), maxSide)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodePNG renders img as PNG bytes for the preview endpoint.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
