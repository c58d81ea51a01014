// Package imagedecode turns a logo reference (remote URL, stored upload, or raw bytes)
// into a decoded image for colour sampling.
package imagedecode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"syscall"
	"time"

	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG

	_ "golang.org/x/image/webp" // register WebP

	"trainerapp/internal/adapters/blob"
	"trainerapp/internal/domain/theme"
)

// Defaults for remote fetches.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = blob.MaxUploadBytes
)

var (
	errEmpty       = errors.New("empty image data")
	errTooLarge    = errors.New("image exceeds size limit")
	errUnsupported = errors.New("unsupported logo reference")

	// ErrForbiddenHost is returned when a remote logo resolves to a loopback, private,
	// link-local or otherwise non-public address.
	ErrForbiddenHost = errors.New("logo host is not a public address")
)

// Decoder loads logos. The zero value is not usable; use New.
type Decoder struct {
	http         *http.Client
	uploads      blob.Store // optional; resolves UploadPrefix references
	uploadPrefix string
	maxBytes     int64
}

// New creates a Decoder. uploads may be nil when only remote URLs are used.
// A nil client gets PublicClient, so remote logos can only come from public hosts.
func New(client *http.Client, uploads blob.Store, uploadPrefix string) *Decoder {
	if client == nil {
		client = PublicClient(DefaultTimeout)
	}
	return &Decoder{
		http:         client,
		uploads:      uploads,
		uploadPrefix: strings.TrimSuffix(uploadPrefix, "/") + "/",
		maxBytes:     DefaultMaxBytes,
	}
}

// PublicClient returns an http.Client whose connections are refused unless the
// resolved address is public. The check runs after DNS resolution and on every
// redirect hop.
func PublicClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, Control: refusePrivate}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{Timeout: timeout, Transport: transport}
}

func refusePrivate(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, address)
	}
	if !PublicAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, ap.Addr())
	}
	return nil
}

// PublicAddr reports whether ip is routable on the public internet.
func PublicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	switch {
	case !ip.IsValid(),
		ip.IsUnspecified(),
		ip.IsLoopback(),
		ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(),
		ip.IsMulticast():
		return false
	}
	// carrier-grade NAT, 100.64.0.0/10
	if ip.Is4() && cgnat.Contains(ip) {
		return false
	}
	return true
}

var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// DecodeBytes decodes png, jpeg, gif or webp data.
// PRE: none
// POST: failures are *theme.ImageLoadError with the given source
func DecodeBytes(source string, data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", &theme.ImageLoadError{Source: source, Err: errEmpty}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &theme.ImageLoadError{Source: source, Err: err}
	}
	return img, format, nil
}

// Fetch returns the raw bytes behind ref: an http(s) URL or an upload path.
func (d *Decoder) Fetch(ctx context.Context, ref string) ([]byte, error) {
	var rc io.ReadCloser
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, &theme.ImageLoadError{Source: ref, Err: err}
		}
		resp, err := d.http.Do(req)
		if err != nil {
			return nil, &theme.ImageLoadError{Source: ref, Err: err}
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, &theme.ImageLoadError{Source: ref, Err: fmt.Errorf("status %s", resp.Status)}
		}
		rc = resp.Body
	case d.uploads != nil && strings.HasPrefix(ref, d.uploadPrefix):
		r, _, err := d.uploads.Open(ctx, strings.TrimPrefix(ref, d.uploadPrefix))
		if err != nil {
			return nil, &theme.ImageLoadError{Source: ref, Err: err}
		}
		rc = r
	default:
		return nil, &theme.ImageLoadError{Source: ref, Err: errUnsupported}
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, d.maxBytes+1))
	if err != nil {
		return nil, &theme.ImageLoadError{Source: ref, Err: err}
	}
	if int64(len(data)) > d.maxBytes {
		return nil, &theme.ImageLoadError{Source: ref, Err: errTooLarge}
	}
	return data, nil
}

// Load fetches and decodes ref.
func (d *Decoder) Load(ctx context.Context, ref string) (image.Image, error) {
	data, err := d.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, _, err := DecodeBytes(ref, data)
	return img, err
}

// Func adapts a reference to a theme.DecodeFunc for a LogoSampler.
func (d *Decoder) Func(ref string) theme.DecodeFunc {
	return func(ctx context.Context) (image.Image, error) {
		return d.Load(ctx, ref)
	}
}

// BytesFunc adapts uploaded bytes to a theme.DecodeFunc.
func BytesFunc(source string, data []byte) theme.DecodeFunc {
	return func(context.Context) (image.Image, error) {
		img, _, err := DecodeBytes(source, data)
		return img, err
	}
}
