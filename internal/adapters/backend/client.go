// Package backend is the JSON client for the trainer REST backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"trainerapp/internal/adapters/http/perf"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 15 * time.Second

// ErrNotFound is wrapped by APIError for 404 responses.
var ErrNotFound = errors.New("not found")

// ErrNoToken is returned when a call needs a bearer token and the context has none.
var ErrNoToken = errors.New("no backend token in context")

// APIError is a non-2xx backend response.
type APIError struct {
	Status int
	Detail string
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

// Unwrap maps 404 to ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

type tokenKey struct{}

// WithToken returns a context carrying the trainer's bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token stored by WithToken.
func TokenFrom(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey{}).(string)
	return t, ok && t != ""
}

// Client talks to the trainer backend.
type Client struct {
	base     string
	http     *http.Client
	recorder perf.Recorder
}

// New creates a Client for the backend at base. httpClient and recorder may be nil.
// PRE: base is an absolute http(s) URL
// POST: returns a ready client; no request is made
func New(base string, httpClient *http.Client, recorder perf.Recorder) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{base: strings.TrimSuffix(base, "/"), http: httpClient, recorder: recorder}
}

// Ping checks the backend health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil, false)
}

// opName replaces numeric path segments with {id} so ids do not explode the perf table.
func opName(method, path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = "{id}"
		}
	}
	return method + " " + strings.Join(parts, "/")
}

// SessionCookie is the cookie the backend reads the trainer's session token from.
const SessionCookie = "trainer_session"

// do sends one request. in is JSON-encoded when non-nil, out is decoded when non-nil.
// The context token is always forwarded; auth makes it mandatory.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, auth bool) error {
	_, err := c.exchange(ctx, method, path, query, in, out, auth)
	return err
}

// exchange is do that also returns the cookies the backend set.
func (c *Client) exchange(ctx context.Context, method, path string, query url.Values, in, out any, auth bool) ([]*http.Cookie, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, ok := TokenFrom(ctx)
	if auth && !ok {
		return nil, ErrNoToken
	}
	if ok {
		req.Header.Set("Authorization", "Bearer "+token)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.observe(method, path, status, start)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return resp.Cookies(), nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return resp.Cookies(), nil
}

func (c *Client) observe(method, path string, status int, start time.Time) {
	elapsed := time.Since(start)
	op := opName(method, path)
	slog.Debug("backend_call", "op", op, "status", status, "duration_ms", elapsed.Milliseconds())
	if c.recorder != nil {
		c.recorder.Record(perf.Entry{
			Kind:       perf.KindBackend,
			Op:         op,
			StatusCode: status,
			DurationMs: float64(elapsed.Microseconds()) / 1000.0,
			At:         start,
		})
	}
}

// decodeError reads the backend's {"detail": ...} body. Validation errors carry a list.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &payload) != nil || len(payload.Detail) == 0 {
		apiErr.Detail = strings.TrimSpace(string(raw))
		return apiErr
	}
	var s string
	if json.Unmarshal(payload.Detail, &s) == nil {
		apiErr.Detail = s
		return apiErr
	}
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if json.Unmarshal(payload.Detail, &items) == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			field := ""
			if n := len(it.Loc); n > 0 {
				field = fmt.Sprint(it.Loc[n-1]) + ": "
			}
			msgs = append(msgs, field+it.Msg)
		}
		apiErr.Detail = strings.Join(msgs, "; ")
		return apiErr
	}
	apiErr.Detail = string(payload.Detail)
	return apiErr
}
