package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trainerapp/internal/domain/session"
)

// SessionFilter narrows ListSessions. Zero fields are not sent.
type SessionFilter struct {
	From     time.Time
	To       time.Time
	Status   string
	ClientID int64
}

func (f SessionFilter) query() url.Values {
	q := url.Values{}
	setTime(q, "start_date", Time{f.From})
	setTime(q, "end_date", Time{f.To})
	if f.Status != "" {
		q.Set("status_filter", f.Status)
	}
	if f.ClientID > 0 {
		q.Set("client_id", strconv.FormatInt(f.ClientID, 10))
	}
	return q
}

func sessionPath(id int64, tail string) string {
	return "/sessions/" + strconv.FormatInt(id, 10) + tail
}

// ListSessions returns the trainer's sessions matching f.
func (c *Client) ListSessions(ctx context.Context, f SessionFilter) ([]session.Session, error) {
	var wire []sessionWire
	if err := c.do(ctx, http.MethodGet, "/sessions", f.query(), nil, &wire, true); err != nil {
		return nil, err
	}
	return sessionsFromWire(wire), nil
}

// SessionStats returns the dashboard counters for [from, to]. Zero bounds are open.
func (c *Client) SessionStats(ctx context.Context, from, to time.Time) (session.Stats, error) {
	var w statsWire
	q := SessionFilter{From: from, To: to}.query()
	if err := c.do(ctx, http.MethodGet, "/sessions/stats", q, nil, &w, true); err != nil {
		return session.Stats{}, err
	}
	return w.domain(), nil
}

// GetSession fetches one session.
func (c *Client) GetSession(ctx context.Context, id int64) (session.Session, error) {
	var w sessionWire
	if err := c.do(ctx, http.MethodGet, sessionPath(id, ""), nil, nil, &w, true); err != nil {
		return session.Session{}, err
	}
	return w.domain(), nil
}

// CreateSession books s.
// PRE: s has been validated; ScheduledAt is UTC
// POST: returns the stored session with its backend id
func (c *Client) CreateSession(ctx context.Context, s session.Session) (session.Session, error) {
	var w sessionWire
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, sessionToWire(s), &w, true); err != nil {
		return session.Session{}, err
	}
	return w.domain(), nil
}

// UpdateSession replaces the editable fields of s.ID.
func (c *Client) UpdateSession(ctx context.Context, s session.Session) (session.Session, error) {
	var w sessionWire
	if err := c.do(ctx, http.MethodPut, sessionPath(s.ID, ""), nil, sessionToWire(s), &w, true); err != nil {
		return session.Session{}, err
	}
	return w.domain(), nil
}

// DeleteSession removes a session.
func (c *Client) DeleteSession(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, sessionPath(id, ""), nil, nil, nil, true)
}

// ToggleSessionPayment flips the paid flag of one session.
func (c *Client) ToggleSessionPayment(ctx context.Context, id int64) (session.Session, error) {
	var w sessionWire
	if err := c.do(ctx, http.MethodPatch, sessionPath(id, "/payment"), nil, nil, &w, true); err != nil {
		return session.Session{}, err
	}
	return w.domain(), nil
}
