package session

import (
	"errors"
	"time"

	"trainerapp/internal/domain/civiltime"
)

// Status values mirror the backend's session lifecycle.
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Duration bounds in minutes.
const (
	MinDurationMinutes     = 15
	MaxDurationMinutes     = 480
	DefaultDurationMinutes = 60
)

// Domain errors
var (
	ErrMissingClient     = errors.New("session needs a client")
	ErrMissingSchedule   = errors.New("session needs a scheduled time")
	ErrInvalidDuration   = errors.New("duration must be between 15 and 480 minutes")
	ErrInvalidStatus     = errors.New("status must be scheduled, in_progress, completed or cancelled")
	ErrAlreadyCancelled  = errors.New("session is already cancelled")
	ErrAlreadyCompleted  = errors.New("session is already completed")
	ErrNotInProgress     = errors.New("session is not in progress")
	ErrAlreadyStarted    = errors.New("session is already in progress")
	ErrScheduledNotInUTC = errors.New("scheduled time must be a UTC instant")
)

// Session is one training appointment with a client.
// INVARIANT: ScheduledAt is stored in UTC; Colombia time is derived for display only.
type Session struct {
	ID              int64
	ClientID        int64
	LocationID      int64 // 0 when unset
	SessionGroupID  int64 // 0 for individual sessions
	ScheduledAt     time.Time
	StartedAt       time.Time
	DurationMinutes int
	Status          string
	Notes           string
	IsPaid          bool
	PaidAt          time.Time
}

// New builds a scheduled session with the default duration.
func New(clientID int64, scheduledAt time.Time) Session {
	return Session{
		ClientID:        clientID,
		ScheduledAt:     scheduledAt.UTC(),
		DurationMinutes: DefaultDurationMinutes,
		Status:          StatusScheduled,
	}
}

// Validate checks the session's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (s *Session) Validate() error {
	if s.ClientID <= 0 {
		return ErrMissingClient
	}
	if s.ScheduledAt.IsZero() {
		return ErrMissingSchedule
	}
	if s.ScheduledAt.Location() != time.UTC {
		return ErrScheduledNotInUTC
	}
	if s.DurationMinutes < MinDurationMinutes || s.DurationMinutes > MaxDurationMinutes {
		return ErrInvalidDuration
	}
	if !ValidStatus(s.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// ValidStatus reports whether status is a known lifecycle value.
func ValidStatus(status string) bool {
	switch status {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// EndsAt returns the scheduled end instant.
func (s Session) EndsAt() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Overlaps reports whether two sessions share any time.
func (s Session) Overlaps(other Session) bool {
	return s.ScheduledAt.Before(other.EndsAt()) && other.ScheduledAt.Before(s.EndsAt())
}

// LocalDate returns the Colombia calendar date of the session.
func (s Session) LocalDate() string {
	return civiltime.ToColombianDateString(s.ScheduledAt)
}

// LocalTime returns the Colombia "HH:mm" start time of the session.
func (s Session) LocalTime() string {
	return civiltime.ToColombianTimeString(s.ScheduledAt)
}

// Start moves a scheduled session into progress.
// PRE: Status is scheduled
// POST: Status is in_progress, StartedAt is now
func (s *Session) Start(now time.Time) error {
	switch s.Status {
	case StatusScheduled:
	case StatusInProgress:
		return ErrAlreadyStarted
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrAlreadyCompleted
	default:
		return ErrInvalidStatus
	}
	s.Status = StatusInProgress
	s.StartedAt = now.UTC()
	return nil
}

// Complete closes an in-progress session.
func (s *Session) Complete() error {
	if s.Status != StatusInProgress {
		return ErrNotInProgress
	}
	s.Status = StatusCompleted
	return nil
}

// Cancel cancels a session that has not finished.
func (s *Session) Cancel() error {
	switch s.Status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrAlreadyCompleted
	}
	s.Status = StatusCancelled
	return nil
}

// Stats summarises a trainer's sessions for the dashboard.
type Stats struct {
	TotalSessions     int
	CompletedSessions int
	ScheduledSessions int
	CancelledSessions int
	TotalClients      int
}

// Summarize computes Stats over a slice of sessions.
func Summarize(sessions []Session) Stats {
	clients := make(map[int64]bool)
	var st Stats
	for _, s := range sessions {
		st.TotalSessions++
		switch s.Status {
		case StatusCompleted:
			st.CompletedSessions++
		case StatusScheduled:
			st.ScheduledSessions++
		case StatusCancelled:
			st.CancelledSessions++
		}
		clients[s.ClientID] = true
	}
	st.TotalClients = len(clients)
	return st
}
