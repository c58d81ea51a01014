package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/sync/semaphore"

	"trainerapp/internal/adapters/backend"
	emailAdapter "trainerapp/internal/adapters/email"
	reminderStore "trainerapp/internal/adapters/storage/reminder"
	"trainerapp/internal/domain/civiltime"
	"trainerapp/internal/domain/client"
	"trainerapp/internal/domain/session"
)

// DefaultReminderLead is how long before a session its reminder is delivered.
const DefaultReminderLead = 24 * time.Hour

// DefaultReminderConcurrency bounds parallel sends for a day's reminders.
const DefaultReminderConcurrency = 4

// Reminder errors
var (
	ErrNoClientEmail   = errors.New("client has no email address")
	ErrReminderClosed  = errors.New("reminders are only sent for scheduled sessions")
	ErrReminderPast    = errors.New("session has already started")
	ErrAlreadyReminded = errors.New("reminder already sent for this session")
)

// ReminderBackend is the slice of the backend client reminders need.
type ReminderBackend interface {
	GetSession(ctx context.Context, id int64) (session.Session, error)
	GetClient(ctx context.Context, id int64) (client.Client, error)
}

var reminderMarkdown = goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()))

var reminderBody = template.Must(template.New("reminder").Parse(`Hola **{{.Name}}**,

Te recordamos tu sesión de entrenamiento:

- **Fecha:** {{.When}}
- **Duración:** {{.Duration}} minutos
{{- if .Notes}}
- **Notas:** {{.Notes}}
{{- end}}

Si necesitas reprogramar, responde a este correo.
`))

type reminderView struct {
	Name     string
	When     string
	Duration int
	Notes    string
}

// renderReminder returns the subject, markdown text and HTML for a session reminder.
func renderReminder(c client.Client, s session.Session) (string, string, string, error) {
	when, err := civiltime.FormatDate(civiltime.FormatISO(s.ScheduledAt))
	if err != nil {
		return "", "", "", err
	}
	var text bytes.Buffer
	view := reminderView{Name: strings.TrimSpace(c.Name), When: when, Duration: s.DurationMinutes, Notes: s.Notes}
	if err := reminderBody.Execute(&text, view); err != nil {
		return "", "", "", err
	}
	var html bytes.Buffer
	if err := reminderMarkdown.Convert(text.Bytes(), &html); err != nil {
		return "", "", "", err
	}
	subject := "Recordatorio: sesión el " + when
	return subject, text.String(), html.String(), nil
}

// --- Send Session Reminder ---

// SendSessionReminderInput carries the session to remind.
type SendSessionReminderInput struct {
	SessionID int64
	Lead      time.Duration // 0 means DefaultReminderLead
}

// SendSessionReminderDeps holds dependencies for SendSessionReminder.
type SendSessionReminderDeps struct {
	Backend   ReminderBackend
	Reminders reminderStore.Store
	Sender    emailAdapter.Sender
	From      string
	ReplyTo   string
	Now       func() time.Time
}

// ExecuteSendSessionReminder emails the client the session time in Colombia, once per session.
// Delivery is scheduled Lead before the session; when that is already past it goes out now.
// PRE: session is scheduled and in the future; client has an email
// POST: reminder accepted by the provider and recorded locally
func ExecuteSendSessionReminder(ctx context.Context, input SendSessionReminderInput, deps SendSessionReminderDeps) (reminderStore.Entry, error) {
	if input.SessionID <= 0 {
		return reminderStore.Entry{}, errors.New("session ID is required")
	}
	lead := input.Lead
	if lead <= 0 {
		lead = DefaultReminderLead
	}

	s, err := deps.Backend.GetSession(ctx, input.SessionID)
	if err != nil {
		return reminderStore.Entry{}, err
	}
	return sendReminder(ctx, s, lead, deps)
}

func sendReminder(ctx context.Context, s session.Session, lead time.Duration, deps SendSessionReminderDeps) (reminderStore.Entry, error) {
	now := deps.Now()
	if s.Status != session.StatusScheduled {
		return reminderStore.Entry{}, ErrReminderClosed
	}
	if !s.ScheduledAt.After(now) {
		return reminderStore.Entry{}, ErrReminderPast
	}

	c, err := deps.Backend.GetClient(ctx, s.ClientID)
	if err != nil {
		return reminderStore.Entry{}, err
	}
	recipient := strings.ToLower(strings.TrimSpace(c.Email))
	if recipient == "" {
		return reminderStore.Entry{}, ErrNoClientEmail
	}

	sent, err := deps.Reminders.WasSent(ctx, s.ID, recipient)
	if err != nil {
		return reminderStore.Entry{}, err
	}
	if sent {
		return reminderStore.Entry{}, ErrAlreadyReminded
	}

	subject, text, html, err := renderReminder(c, s)
	if err != nil {
		return reminderStore.Entry{}, fmt.Errorf("render reminder: %w", err)
	}
	var sendAt time.Time
	if at := s.ScheduledAt.Add(-lead); at.After(now) {
		sendAt = at
	}

	receipt, err := deps.Sender.Send(ctx, emailAdapter.Message{
		To:             []string{recipient},
		From:           deps.From,
		ReplyTo:        deps.ReplyTo,
		Subject:        subject,
		HTML:           html,
		Text:           text,
		SendAt:         sendAt,
		IdempotencyKey: "session-reminder/" + strconv.FormatInt(s.ID, 10) + "/" + recipient,
		Tags:           map[string]string{"kind": "session_reminder", "session_id": strconv.FormatInt(s.ID, 10)},
	})
	if err != nil {
		return reminderStore.Entry{}, err
	}

	entry := reminderStore.Entry{
		ID:        uuid.NewString(),
		SessionID: s.ID,
		Recipient: recipient,
		MessageID: receipt.MessageID,
		SentAt:    now,
	}
	if err := deps.Reminders.Record(ctx, entry); err != nil {
		if errors.Is(err, reminderStore.ErrAlreadySent) {
			return reminderStore.Entry{}, ErrAlreadyReminded
		}
		return reminderStore.Entry{}, err
	}

	slog.Info("reminder_event", "event", "reminder_sent", "session_id", s.ID, "client_id", c.ID,
		"message_id", receipt.MessageID, "scheduled", !sendAt.IsZero())
	return entry, nil
}

// --- Send Day Reminders ---

// SendDayRemindersInput names the Colombia calendar day whose sessions get reminders.
type SendDayRemindersInput struct {
	Date        string // "YYYY-MM-DD"
	Lead        time.Duration
	Concurrency int64 // 0 means DefaultReminderConcurrency
}

// SendDayRemindersDeps holds dependencies for SendDayReminders.
type SendDayRemindersDeps struct {
	SendSessionReminderDeps
	Sessions interface {
		ListSessions(ctx context.Context, f backend.SessionFilter) ([]session.Session, error)
	}
}

// DayReminderSummary counts the outcome of a day's reminders.
type DayReminderSummary struct {
	Sent    int
	Skipped int // not remindable or already reminded
	Failed  int
}

// ExecuteSendDayReminders sends reminders for every scheduled session on a Colombia day.
// PRE: Date is "YYYY-MM-DD"
// POST: every remindable session has exactly one reminder recorded; per-session failures are counted, not returned
func ExecuteSendDayReminders(ctx context.Context, input SendDayRemindersInput, deps SendDayRemindersDeps) (DayReminderSummary, error) {
	from, to, err := civiltime.DayBounds(input.Date)
	if err != nil {
		return DayReminderSummary{}, err
	}
	sessions, err := deps.Sessions.ListSessions(ctx, backend.SessionFilter{From: from, To: to, Status: session.StatusScheduled})
	if err != nil {
		return DayReminderSummary{}, err
	}
	lead := input.Lead
	if lead <= 0 {
		lead = DefaultReminderLead
	}
	limit := input.Concurrency
	if limit <= 0 {
		limit = DefaultReminderConcurrency
	}

	sem := semaphore.NewWeighted(limit)
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		summary DayReminderSummary
	)
	for _, s := range sessions {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(s session.Session) {
			defer wg.Done()
			defer sem.Release(1)
			_, err := sendReminder(ctx, s, lead, deps.SendSessionReminderDeps)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				summary.Sent++
			case errors.Is(err, ErrAlreadyReminded), errors.Is(err, ErrNoClientEmail),
				errors.Is(err, ErrReminderClosed), errors.Is(err, ErrReminderPast):
				summary.Skipped++
			default:
				summary.Failed++
				slog.Warn("reminder_event", "event", "reminder_failed", "session_id", s.ID, "error", err)
			}
		}(s)
	}
	wg.Wait()

	slog.Info("reminder_event", "event", "day_reminders_sent", "date", input.Date,
		"sent", summary.Sent, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, ctx.Err()
}
