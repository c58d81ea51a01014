package email

import (
	"context"
	"time"
)

// Message is one outgoing email.
type Message struct {
	To      []string
	From    string // overrides the sender default when set
	ReplyTo string
	Subject string
	HTML    string
	Text    string // plain-text alternative

	// SendAt asks the provider to hold the message until this instant. Zero sends now.
	SendAt time.Time
	// IdempotencyKey lets a retried send be deduplicated by the provider.
	IdempotencyKey string
	Tags           map[string]string
}

// Receipt is the provider's acknowledgement of a Message.
type Receipt struct {
	MessageID  string
	AcceptedAt time.Time
}

// Sender delivers email through an external provider.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
