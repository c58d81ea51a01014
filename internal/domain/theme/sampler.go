package theme

import (
	"context"
	"errors"
	"image"
	"sync"
)

var errEmptyImage = errors.New("decoder returned no image")

// DecodeFunc produces the logo image; it runs exactly once per sampler.
type DecodeFunc func(ctx context.Context) (image.Image, error)

// LogoSampler owns one decode attempt for a logo and answers pixel picks once the
// decode has resolved. Picks made before then are inert.
type LogoSampler struct {
	done chan struct{}

	mu     sync.Mutex
	img    image.Image
	err    error
	closed bool
	cancel context.CancelFunc
}

// NewLogoSampler starts decoding in the background.
// PRE: decode is non-nil
// POST: the decode resolves or rejects exactly once; Close discards its result
func NewLogoSampler(ctx context.Context, decode DecodeFunc) *LogoSampler {
	ctx, cancel := context.WithCancel(ctx)
	s := &LogoSampler{done: make(chan struct{}), cancel: cancel}
	go func() {
		img, err := decode(ctx)
		if err == nil && img == nil {
			err = &ImageLoadError{Source: "logo", Err: errEmptyImage}
		}
		if err == nil {
			b := img.Bounds()
			err = ValidateDimensions(b.Dx(), b.Dy())
		}
		s.mu.Lock()
		if !s.closed {
			s.img, s.err = img, err
			if err != nil {
				s.img = nil
			}
		}
		s.mu.Unlock()
		close(s.done)
	}()
	return s
}

// Decoded reports whether the decode has resolved successfully.
func (s *LogoSampler) Decoded() bool {
	select {
	case <-s.done:
	default:
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img != nil
}

// Wait blocks until the decode resolves and returns its error.
func (s *LogoSampler) Wait(ctx context.Context) error {
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSamplerDone
	}
	return s.err
}

// Size returns the native dimensions of the decoded logo.
func (s *LogoSampler) Size() (int, int, error) {
	img, err := s.image()
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Pick samples the pixel under a click on a preview of the given display size.
// PRE: the caller gates on Decoded; earlier picks return ErrNotDecoded
// POST: ok is false when the scaled point misses the image
func (s *LogoSampler) Pick(displayX, displayY, displayW, displayH float64) (RGB, bool, error) {
	img, err := s.image()
	if err != nil {
		return RGB{}, false, err
	}
	b := img.Bounds()
	x, y := ScaleToNative(displayX, displayY, displayW, displayH, b.Dx(), b.Dy())
	c, ok := ColorAtPixel(img, x, y)
	return c, ok, nil
}

// Close abandons the sampler; an in-flight decode result is dropped.
func (s *LogoSampler) Close() {
	s.mu.Lock()
	s.closed = true
	s.img = nil
	s.mu.Unlock()
	s.cancel()
}

func (s *LogoSampler) image() (image.Image, error) {
	select {
	case <-s.done:
	default:
		return nil, ErrNotDecoded
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSamplerDone
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.img, nil
}
