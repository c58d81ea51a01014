package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"trainerapp/internal/domain/client"
	"trainerapp/internal/domain/payment"
	"trainerapp/internal/domain/session"
)

func clientPath(id int64, tail string) string {
	return "/clients/" + strconv.FormatInt(id, 10) + tail
}

// ListClients returns the trainer's clients, filtered locally by query when non-empty.
func (c *Client) ListClients(ctx context.Context, query string) ([]client.Client, error) {
	var wire []clientWire
	if err := c.do(ctx, http.MethodGet, "/clients", nil, nil, &wire, true); err != nil {
		return nil, err
	}
	out := make([]client.Client, 0, len(wire))
	for _, w := range wire {
		cl := w.domain()
		if cl.MatchesSearch(query) {
			out = append(out, cl)
		}
	}
	return out, nil
}

// GetClient fetches one client.
func (c *Client) GetClient(ctx context.Context, id int64) (client.Client, error) {
	var w clientWire
	if err := c.do(ctx, http.MethodGet, clientPath(id, ""), nil, nil, &w, true); err != nil {
		return client.Client{}, err
	}
	return w.domain(), nil
}

// CreateClient creates cl for the trainer.
// PRE: cl has been validated
// POST: returns the stored client with its backend id
func (c *Client) CreateClient(ctx context.Context, trainerID int64, cl client.Client) (client.Client, error) {
	var w clientWire
	if err := c.do(ctx, http.MethodPost, "/clients", nil, clientToWire(cl, trainerID), &w, true); err != nil {
		return client.Client{}, err
	}
	return w.domain(), nil
}

// UpdateClient replaces the editable fields of cl.ID.
func (c *Client) UpdateClient(ctx context.Context, cl client.Client) (client.Client, error) {
	var w clientWire
	if err := c.do(ctx, http.MethodPut, clientPath(cl.ID, ""), nil, clientToWire(cl, 0), &w, true); err != nil {
		return client.Client{}, err
	}
	return w.domain(), nil
}

// DeleteClient soft-deletes a client.
func (c *Client) DeleteClient(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, clientPath(id, ""), nil, nil, nil, true)
}

// ClientSessions lists every session of a client.
func (c *Client) ClientSessions(ctx context.Context, id int64) ([]session.Session, error) {
	var wire []sessionWire
	if err := c.do(ctx, http.MethodGet, clientPath(id, "/sessions"), nil, nil, &wire, true); err != nil {
		return nil, err
	}
	return sessionsFromWire(wire), nil
}

// PaymentBalance fetches the backend's balance for a client.
func (c *Client) PaymentBalance(ctx context.Context, id int64) (payment.Balance, error) {
	var b payment.Balance
	err := c.do(ctx, http.MethodGet, clientPath(id, "/payment-balance"), nil, nil, &b, true)
	return b, err
}

// CreatePayment registers a bulk payment for p.ClientID.
// PRE: p has been validated
// POST: the backend marks the oldest unpaid sessions as paid
func (c *Client) CreatePayment(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	var w paymentWire
	if err := c.do(ctx, http.MethodPost, clientPath(p.ClientID, "/payments"), nil, paymentToWire(p), &w, true); err != nil {
		return payment.Payment{}, err
	}
	out := w.domain()
	if out.ClientID == 0 {
		out.ClientID = p.ClientID
	}
	return out, nil
}

func sessionsFromWire(wire []sessionWire) []session.Session {
	out := make([]session.Session, len(wire))
	for i, w := range wire {
		out[i] = w.domain()
	}
	return out
}

func setTime(q url.Values, key string, v Time) {
	if !v.IsZero() {
		q.Set(key, v.UTC().Format("2006-01-02T15:04:05Z"))
	}
}
