package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"trainerapp/internal/domain/civiltime"
	"trainerapp/internal/domain/payment"
)

// PaymentBackend is the slice of the backend client payments need.
type PaymentBackend interface {
	CreatePayment(ctx context.Context, p payment.Payment) (payment.Payment, error)
	PaymentBalance(ctx context.Context, clientID int64) (payment.Balance, error)
}

// RecordPaymentInput carries the payment form.
type RecordPaymentInput struct {
	ClientID     int64
	SessionsPaid int
	AmountCOP    int64
	Date         string // "YYYY-MM-DD" in Colombia; empty means today
	Notes        string
}

// RecordPaymentDeps holds dependencies for RecordPayment.
type RecordPaymentDeps struct {
	Payments PaymentBackend
	Now      func() time.Time
}

// RecordPaymentResult is the stored payment and the client's balance after it.
type RecordPaymentResult struct {
	Payment payment.Payment
	Balance payment.Balance
}

// ExecuteRecordPayment registers a bulk payment and returns the refreshed balance.
// PRE: ClientID > 0; SessionsPaid in 1..100; AmountCOP >= 0
// POST: payment created in the backend; the backend marks the oldest unpaid sessions paid
func ExecuteRecordPayment(ctx context.Context, input RecordPaymentInput, deps RecordPaymentDeps) (RecordPaymentResult, error) {
	p := payment.Payment{
		ClientID:     input.ClientID,
		SessionsPaid: input.SessionsPaid,
		AmountCOP:    input.AmountCOP,
		PaymentDate:  deps.Now().UTC(),
		Notes:        strings.TrimSpace(input.Notes),
	}
	if input.Date != "" {
		start, _, err := civiltime.DayBounds(input.Date)
		if err != nil {
			return RecordPaymentResult{}, err
		}
		p.PaymentDate = start
	}
	if err := p.Validate(); err != nil {
		return RecordPaymentResult{}, err
	}

	created, err := deps.Payments.CreatePayment(ctx, p)
	if err != nil {
		return RecordPaymentResult{}, err
	}
	balance, err := deps.Payments.PaymentBalance(ctx, p.ClientID)
	if err != nil {
		return RecordPaymentResult{}, err
	}

	slog.Info("payment_event", "event", "payment_recorded", "payment_id", created.ID, "client_id", p.ClientID,
		"sessions_paid", p.SessionsPaid, "amount", payment.FormatCOP(p.AmountCOP), "prepaid", balance.PrepaidSessions)
	return RecordPaymentResult{Payment: created, Balance: balance}, nil
}
