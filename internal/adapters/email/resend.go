package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"time"

	"github.com/resend/resend-go/v2"
)

// ErrNoRecipients is returned for a Message without To addresses.
var ErrNoRecipients = errors.New("email has no recipients")

// ResendSender sends email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	now    func() time.Time
}

// NewResendSender creates a sender with the given API key and default from address.
// PRE: apiKey is a Resend API key; from is a valid sender address
// POST: returns a ready-to-use sender
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from, now: time.Now}
}

// WithBaseURL points the sender at another Resend-compatible endpoint.
func (s *ResendSender) WithBaseURL(raw string) (*ResendSender, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("resend base url: %w", err)
	}
	if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
		u.Path += "/"
	}
	s.client.BaseURL = u
	return s, nil
}

func (s *ResendSender) request(msg Message) *resend.SendEmailRequest {
	from := msg.From
	if from == "" {
		from = s.from
	}
	req := &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	}
	if !msg.SendAt.IsZero() {
		req.ScheduledAt = msg.SendAt.UTC().Format(time.RFC3339)
	}
	if len(msg.Tags) > 0 {
		names := make([]string, 0, len(msg.Tags))
		for k := range msg.Tags {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			req.Tags = append(req.Tags, resend.Tag{Name: k, Value: msg.Tags[k]})
		}
	}
	return req
}

// Send submits msg to Resend.
// PRE: msg has at least one recipient
// POST: message is queued (or scheduled) for delivery; returns the Resend id
func (s *ResendSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if len(msg.To) == 0 {
		return Receipt{}, ErrNoRecipients
	}
	opts := &resend.SendEmailOptions{IdempotencyKey: msg.IdempotencyKey}
	sent, err := s.client.Emails.SendWithOptions(ctx, s.request(msg), opts)
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "to", msg.To, "subject", msg.Subject)
		return Receipt{}, fmt.Errorf("resend send failed: %w", err)
	}
	slog.Info("resend_sent", "message_id", sent.Id, "to", msg.To, "scheduled", !msg.SendAt.IsZero())
	return Receipt{MessageID: sent.Id, AcceptedAt: s.now()}, nil
}
