package imagedecode

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"trainerapp/internal/adapters/blob"
	"trainerapp/internal/domain/theme"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

// TestDecodeBytes verifies decode success and ImageLoadError on garbage.
func TestDecodeBytes(t *testing.T) {
	img, format, err := DecodeBytes("upload", solidPNG(t, 80, 60, color.NRGBA{255, 102, 0, 255}))
	if err != nil || format != "png" || img.Bounds().Dx() != 80 {
		t.Fatalf("got %v %s %v", img, format, err)
	}

	var loadErr *theme.ImageLoadError
	if _, _, err := DecodeBytes("upload", []byte("not an image")); !errors.As(err, &loadErr) || loadErr.Source != "upload" {
		t.Errorf("expected ImageLoadError, got %v", err)
	}
	if _, _, err := DecodeBytes("upload", nil); !errors.As(err, &loadErr) {
		t.Errorf("expected ImageLoadError for empty data, got %v", err)
	}
}

// TestDecoder_LoadRemote verifies fetching over HTTP and status handling.
func TestDecoder_LoadRemote(t *testing.T) {
	data := solidPNG(t, 64, 64, color.NRGBA{0, 128, 255, 255})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/logo.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	d := New(srv.Client(), nil, "/uploads")
	img, err := d.Load(context.Background(), srv.URL+"/logo.png")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c, _ := theme.ColorAtPixel(img, 10, 10); c.Hex() != "#0080ff" {
		t.Errorf("pixel = %s", c.Hex())
	}

	var loadErr *theme.ImageLoadError
	if _, err := d.Load(context.Background(), srv.URL+"/missing.png"); !errors.As(err, &loadErr) {
		t.Errorf("expected ImageLoadError on 404, got %v", err)
	}
	if _, err := d.Load(context.Background(), "ftp://example.com/logo.png"); !errors.Is(err, errUnsupported) {
		t.Errorf("expected unsupported ref, got %v", err)
	}
}

// TestDecoder_LoadUpload verifies upload references resolve through the blob store.
func TestDecoder_LoadUpload(t *testing.T) {
	store, err := blob.NewDirStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	_, url, err := store.Put(context.Background(), solidPNG(t, 60, 60, color.NRGBA{20, 30, 40, 255}))
	if err != nil {
		t.Fatal(err)
	}
	d := New(nil, store, "/uploads/")
	if _, err := d.Load(context.Background(), url); err != nil {
		t.Errorf("Load(%s): %v", url, err)
	}
}

// TestDecoder_TooLarge verifies the byte limit.
func TestDecoder_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()
	d := New(srv.Client(), nil, "/uploads")
	d.maxBytes = 1024
	if _, err := d.Fetch(context.Background(), srv.URL); !errors.Is(err, errTooLarge) {
		t.Errorf("expected errTooLarge, got %v", err)
	}
}

// TestDecoder_RefusesPrivateHosts verifies the default client will not reach loopback or internal addresses.
func TestDecoder_RefusesPrivateHosts(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.Write(solidPNG(t, 64, 64, color.NRGBA{0, 0, 0, 255}))
	}))
	defer srv.Close()

	d := New(nil, nil, "/uploads")
	_, err := d.Fetch(context.Background(), srv.URL+"/logo.png")
	var loadErr *theme.ImageLoadError
	if !errors.As(err, &loadErr) || !errors.Is(err, ErrForbiddenHost) {
		t.Errorf("expected ImageLoadError wrapping ErrForbiddenHost, got %v", err)
	}
	if hit {
		t.Error("loopback server was reached")
	}
}

// TestPublicAddr verifies which addresses count as public.
func TestPublicAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:4700::1111", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.0.0.8", false},
		{"172.16.4.1", false},
		{"192.168.1.20", false},
		{"169.254.169.254", false},
		{"100.64.0.1", false},
		{"0.0.0.0", false},
		{"::ffff:127.0.0.1", false},
		{"fe80::1", false},
		{"fd00::1", false},
	}
	for _, tt := range tests {
		if got := PublicAddr(netip.MustParseAddr(tt.addr)); got != tt.want {
			t.Errorf("PublicAddr(%s) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

// TestSampler_WithDecoder verifies the decode func drives a LogoSampler end to end.
func TestSampler_WithDecoder(t *testing.T) {
	s := theme.NewLogoSampler(context.Background(), BytesFunc("upload", solidPNG(t, 100, 50, color.NRGBA{255, 0, 0, 255})))
	defer s.Close()
	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	c, ok, err := s.Pick(160, 40, 320, 160)
	if err != nil || !ok || c.Hex() != "#ff0000" {
		t.Errorf("Pick = %s %v %v", c.Hex(), ok, err)
	}
}

// TestPreview verifies aspect-preserving downscale and no upscale.
func TestPreview(t *testing.T) {
	if w, h := PreviewSize(1000, 500, 320); w != 320 || h != 160 {
		t.Errorf("wide: %dx%d", w, h)
	}
	if w, h := PreviewSize(300, 900, 320); w != 106 || h != 320 {
		t.Errorf("tall: %dx%d", w, h)
	}
	if w, h := PreviewSize(100, 80, 320); w != 100 || h != 80 {
		t.Errorf("small: %dx%d", w, h)
	}

	img, _, _ := DecodeBytes("x", solidPNG(t, 640, 320, color.NRGBA{0, 255, 0, 255}))
	p := Preview(img, 320)
	if p.Bounds().Dx() != 320 || p.Bounds().Dy() != 160 {
		t.Fatalf("preview bounds = %v", p.Bounds())
	}
	if c, _ := theme.ColorAtPixel(p, 100, 80); c.Hex() != "#00ff00" {
		t.Errorf("preview pixel = %s", c.Hex())
	}
	if _, err := EncodePNG(p); err != nil {
		t.Errorf("EncodePNG: %v", err)
	}
}
