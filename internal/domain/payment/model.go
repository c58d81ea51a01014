package payment

import (
	"errors"
	"sort"
	"time"

	"github.com/go-playground/locales/es_CO"

	"trainerapp/internal/domain/session"
)

// Bounds on a single bulk payment.
const (
	MinSessionsPaid = 1
	MaxSessionsPaid = 100
)

// Domain errors
var (
	ErrMissingClient       = errors.New("payment needs a client")
	ErrInvalidSessionsPaid = errors.New("sessions paid must be between 1 and 100")
	ErrNegativeAmount      = errors.New("amount cannot be negative")
)

var spanish = es_CO.New()

// Payment is a bulk payment covering one or more sessions.
type Payment struct {
	ID           int64
	ClientID     int64
	SessionsPaid int
	AmountCOP    int64
	PaymentDate  time.Time
	Notes        string
}

// Validate checks the payment's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (p *Payment) Validate() error {
	if p.ClientID <= 0 {
		return ErrMissingClient
	}
	if p.SessionsPaid < MinSessionsPaid || p.SessionsPaid > MaxSessionsPaid {
		return ErrInvalidSessionsPaid
	}
	if p.AmountCOP < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Balance summarises what a client has paid against the sessions they hold.
type Balance struct {
	TotalSessions      int   `json:"total_sessions"`
	PaidSessions       int   `json:"paid_sessions"`
	UnpaidSessions     int   `json:"unpaid_sessions"`
	PrepaidSessions    int   `json:"prepaid_sessions"`
	HasPositiveBalance bool  `json:"has_positive_balance"`
	TotalAmountPaidCOP int64 `json:"total_amount_paid_cop"`
}

// billable reports whether a session counts toward the balance.
func billable(s session.Session) bool {
	return s.Status != session.StatusCancelled
}

// ComputeBalance derives a client's Balance from their sessions and payments.
// Cancelled sessions are ignored. Prepaid sessions are paid-for sessions not yet booked.
func ComputeBalance(sessions []session.Session, payments []Payment) Balance {
	var b Balance
	for _, s := range sessions {
		if !billable(s) {
			continue
		}
		b.TotalSessions++
		if s.IsPaid {
			b.PaidSessions++
		}
	}
	b.UnpaidSessions = b.TotalSessions - b.PaidSessions

	paidThroughPayments := 0
	for _, p := range payments {
		paidThroughPayments += p.SessionsPaid
		b.TotalAmountPaidCOP += p.AmountCOP
	}
	if prepaid := paidThroughPayments - b.TotalSessions; prepaid > 0 {
		b.PrepaidSessions = prepaid
	}
	b.HasPositiveBalance = b.PrepaidSessions > 0
	return b
}

// Apply marks the oldest unpaid billable sessions as paid, up to p.SessionsPaid.
// PRE: p is valid
// POST: returns the IDs of the sessions marked paid, oldest first
func (p *Payment) Apply(sessions []session.Session, now time.Time) []int64 {
	idx := make([]int, 0, len(sessions))
	for i, s := range sessions {
		if billable(s) && !s.IsPaid {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return sessions[idx[a]].ScheduledAt.Before(sessions[idx[b]].ScheduledAt)
	})
	if len(idx) > p.SessionsPaid {
		idx = idx[:p.SessionsPaid]
	}

	ids := make([]int64, 0, len(idx))
	for _, i := range idx {
		sessions[i].IsPaid = true
		sessions[i].PaidAt = now.UTC()
		ids = append(ids, sessions[i].ID)
	}
	return ids
}

// FormatCOP renders an amount of Colombian pesos with es-CO digit grouping, e.g. "$150.000".
func FormatCOP(amount int64) string {
	return "$" + spanish.FmtNumber(float64(amount), 0)
}
