package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"trainerapp/internal/adapters/backend"
	"trainerapp/internal/domain/civiltime"
	"trainerapp/internal/domain/session"
)

// SessionBackend is the slice of the backend client the session flows need.
type SessionBackend interface {
	GetSession(ctx context.Context, id int64) (session.Session, error)
	ListSessions(ctx context.Context, f backend.SessionFilter) ([]session.Session, error)
	CreateSession(ctx context.Context, s session.Session) (session.Session, error)
	UpdateSession(ctx context.Context, s session.Session) (session.Session, error)
}

// --- Schedule Session ---

// ScheduleSessionInput carries the booking form. Date and Time are Colombia wall clock.
type ScheduleSessionInput struct {
	ClientID        int64
	LocationID      int64
	Date            string // "YYYY-MM-DD"
	Time            string // "HH:mm"
	DurationMinutes int    // 0 means the default
	Notes           string
}

// ScheduleSessionDeps holds dependencies for ScheduleSession.
type ScheduleSessionDeps struct {
	Sessions SessionBackend
}

// ScheduleSessionResult is the booked session plus any existing sessions it overlaps.
type ScheduleSessionResult struct {
	Session   session.Session
	Conflicts []session.Session
}

// ExecuteScheduleSession converts the form's Colombia time to UTC and books the session.
// Overlapping sessions are reported in the result, not refused.
// PRE: Date is "YYYY-MM-DD", Time is "HH:mm"
// POST: session created in the backend with ScheduledAt in UTC
func ExecuteScheduleSession(ctx context.Context, input ScheduleSessionInput, deps ScheduleSessionDeps) (ScheduleSessionResult, error) {
	iso, err := civiltime.ToUTCISOString(input.Date, input.Time)
	if err != nil {
		return ScheduleSessionResult{}, err
	}
	at, err := civiltime.ParseUTC(iso)
	if err != nil {
		return ScheduleSessionResult{}, err
	}

	s := session.New(input.ClientID, at)
	s.LocationID = input.LocationID
	s.Notes = strings.TrimSpace(input.Notes)
	if input.DurationMinutes != 0 {
		s.DurationMinutes = input.DurationMinutes
	}
	if err := s.Validate(); err != nil {
		return ScheduleSessionResult{}, err
	}

	conflicts, err := findConflicts(ctx, deps.Sessions, s)
	if err != nil {
		return ScheduleSessionResult{}, err
	}

	created, err := deps.Sessions.CreateSession(ctx, s)
	if err != nil {
		return ScheduleSessionResult{}, err
	}

	slog.Info("session_event", "event", "session_scheduled", "session_id", created.ID, "client_id", created.ClientID,
		"scheduled_at", civiltime.FormatISO(created.ScheduledAt), "local", s.LocalDate()+" "+s.LocalTime(), "conflicts", len(conflicts))
	return ScheduleSessionResult{Session: created, Conflicts: conflicts}, nil
}

// findConflicts lists live sessions that overlap s. The window reaches back by the
// longest allowed session so bookings that started before midnight are still seen.
func findConflicts(ctx context.Context, sessions SessionBackend, s session.Session) ([]session.Session, error) {
	from := s.ScheduledAt.Add(-session.MaxDurationMinutes * time.Minute)
	nearby, err := sessions.ListSessions(ctx, backend.SessionFilter{From: from, To: s.EndsAt()})
	if err != nil {
		return nil, err
	}
	var out []session.Session
	for _, other := range nearby {
		if other.ID == s.ID || other.Status == session.StatusCancelled {
			continue
		}
		if s.Overlaps(other) {
			out = append(out, other)
		}
	}
	return out, nil
}

// --- Reschedule Session ---

// RescheduleSessionInput carries a calendar-picker value. Its wall-clock fields mean Colombia
// time whatever zone the picker attached.
type RescheduleSessionInput struct {
	SessionID       int64
	PickedAt        time.Time
	DurationMinutes int // 0 keeps the current duration
}

// RescheduleSessionDeps holds dependencies for RescheduleSession.
type RescheduleSessionDeps struct {
	Sessions SessionBackend
}

// ErrSessionClosed is returned when moving a session that is completed or cancelled.
var ErrSessionClosed = errors.New("only scheduled sessions can be rescheduled")

// ExecuteRescheduleSession moves a session to the picked Colombia wall-clock time.
// PRE: SessionID exists; session is scheduled
// POST: session updated in the backend with the new UTC ScheduledAt
func ExecuteRescheduleSession(ctx context.Context, input RescheduleSessionInput, deps RescheduleSessionDeps) (session.Session, error) {
	if input.SessionID <= 0 {
		return session.Session{}, errors.New("session ID is required")
	}
	if input.PickedAt.IsZero() {
		return session.Session{}, session.ErrMissingSchedule
	}

	s, err := deps.Sessions.GetSession(ctx, input.SessionID)
	if err != nil {
		return session.Session{}, err
	}
	if s.Status != session.StatusScheduled {
		return session.Session{}, ErrSessionClosed
	}

	at, err := civiltime.ParseUTC(civiltime.InterpretLocalAsColombian(input.PickedAt))
	if err != nil {
		return session.Session{}, err
	}
	previous := s.ScheduledAt
	s.ScheduledAt = at
	if input.DurationMinutes != 0 {
		s.DurationMinutes = input.DurationMinutes
	}
	if err := s.Validate(); err != nil {
		return session.Session{}, err
	}

	updated, err := deps.Sessions.UpdateSession(ctx, s)
	if err != nil {
		return session.Session{}, err
	}

	slog.Info("session_event", "event", "session_rescheduled", "session_id", s.ID,
		"from", civiltime.FormatISO(previous), "to", civiltime.FormatISO(at))
	return updated, nil
}
