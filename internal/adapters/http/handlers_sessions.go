package web

import (
	"net/http"
	"strings"
	"time"

	"trainerapp/internal/application/orchestrators"
	"trainerapp/internal/application/projections"
	"trainerapp/internal/domain/civiltime"
	"trainerapp/internal/domain/session"
)

// sessionResponse is a session as the front end sees it: the UTC instant plus its Colombia rendering.
type sessionResponse struct {
	ID              int64  `json:"id"`
	ClientID        int64  `json:"client_id"`
	LocationID      int64  `json:"location_id,omitempty"`
	ScheduledAt     string `json:"scheduled_at"`
	LocalDate       string `json:"local_date"`
	LocalTime       string `json:"local_time"`
	Label           string `json:"label"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	Notes           string `json:"notes,omitempty"`
	IsPaid          bool   `json:"is_paid"`
}

func toSessionResponse(s session.Session) sessionResponse {
	iso := civiltime.FormatISO(s.ScheduledAt)
	label, _ := civiltime.FormatDate(iso)
	return sessionResponse{
		ID:              s.ID,
		ClientID:        s.ClientID,
		LocationID:      s.LocationID,
		ScheduledAt:     iso,
		LocalDate:       s.LocalDate(),
		LocalTime:       s.LocalTime(),
		Label:           label,
		DurationMinutes: s.DurationMinutes,
		Status:          s.Status,
		Notes:           s.Notes,
		IsPaid:          s.IsPaid,
	}
}

func toSessionResponses(list []session.Session) []sessionResponse {
	out := make([]sessionResponse, len(list))
	for i, s := range list {
		out[i] = toSessionResponse(s)
	}
	return out
}

type scheduleRequest struct {
	ClientID        int64  `json:"client_id"`
	LocationID      int64  `json:"location_id"`
	Date            string `json:"date"` // Colombia "YYYY-MM-DD"
	Time            string `json:"time"` // Colombia "HH:mm"
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

// handleScheduleSession handles POST /api/sessions
func handleScheduleSession(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	res, err := orchestrators.ExecuteScheduleSession(r.Context(), orchestrators.ScheduleSessionInput{
		ClientID:        req.ClientID,
		LocationID:      req.LocationID,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	}, orchestrators.ScheduleSessionDeps{Sessions: app.Backend})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session":   toSessionResponse(res.Session),
		"conflicts": toSessionResponses(res.Conflicts),
	})
}

type rescheduleRequest struct {
	PickedAt        string `json:"picked_at"` // picker value; its wall clock is read as Colombia time
	DurationMinutes int    `json:"duration_minutes"`
}

// pickerLayouts are the shapes calendar pickers send: datetime-local inputs carry no zone.
var pickerLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", time.RFC3339}

func parsePicked(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	var lastErr error
	for _, layout := range pickerLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &civiltime.FormatError{Field: "instant", Input: v, Err: lastErr}
}

// handleRescheduleSession handles PATCH /api/sessions/{id}
func handleRescheduleSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}
	var req rescheduleRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	picked, err := parsePicked(req.PickedAt)
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := orchestrators.ExecuteRescheduleSession(r.Context(), orchestrators.RescheduleSessionInput{
		SessionID:       id,
		PickedAt:        picked,
		DurationMinutes: req.DurationMinutes,
	}, orchestrators.RescheduleSessionDeps{Sessions: app.Backend})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(updated))
}

type calendarEntryResponse struct {
	Session    sessionResponse `json:"session"`
	ClientName string          `json:"client_name"`
	Start      string          `json:"start"`
	End        string          `json:"end"`
	StartLabel string          `json:"start_label"`
}

type calendarDayResponse struct {
	Date    string                  `json:"date"`
	Label   string                  `json:"label"`
	IsToday bool                    `json:"is_today"`
	Entries []calendarEntryResponse `json:"entries"`
}

type calendarResponse struct {
	WeekStart string                 `json:"week_start"`
	PrevWeek  string                 `json:"prev_week"`
	NextWeek  string                 `json:"next_week"`
	Total     int                    `json:"total"`
	Days      [7]calendarDayResponse `json:"days"`
}

func calendarWeek(r *http.Request) (projections.GetCalendarWeekResult, error) {
	return projections.QueryGetCalendarWeek(r.Context(), projections.GetCalendarWeekQuery{
		Date:     r.URL.Query().Get("date"),
		ClientID: queryInt64(r, "client_id"),
	}, projections.GetCalendarWeekDeps{
		Sessions: app.Backend,
		Clients:  app.Backend,
		Now:      timeNow,
	})
}

// handleCalendar handles GET /api/calendar?date=YYYY-MM-DD&client_id=N
func handleCalendar(w http.ResponseWriter, r *http.Request) {
	week, err := calendarWeek(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res := calendarResponse{
		WeekStart: civiltime.ToColombianDateString(week.WeekStart),
		PrevWeek:  week.PrevWeek,
		NextWeek:  week.NextWeek,
		Total:     week.Total,
	}
	for i, d := range week.Days {
		entries := make([]calendarEntryResponse, len(d.Entries))
		for j, e := range d.Entries {
			entries[j] = calendarEntryResponse{
				Session:    toSessionResponse(e.Session),
				ClientName: e.ClientName,
				Start:      e.Start,
				End:        e.End,
				StartLabel: e.StartLabel,
			}
		}
		res.Days[i] = calendarDayResponse{Date: d.Date, Label: d.Label, IsToday: d.IsToday, Entries: entries}
	}
	writeJSON(w, http.StatusOK, res)
}

type reminderRequest struct {
	SessionID int64  `json:"session_id"`
	Date      string `json:"date"` // every scheduled session on this Colombia day
}

// handleSendReminders handles POST /api/reminders for one session or a whole day.
func handleSendReminders(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	deps := orchestrators.SendSessionReminderDeps{
		Backend:   app.Backend,
		Reminders: app.Reminders,
		Sender:    app.Sender,
		From:      app.EmailFrom,
		ReplyTo:   app.EmailReplyTo,
		Now:       timeNow,
	}

	if req.SessionID > 0 {
		entry, err := orchestrators.ExecuteSendSessionReminder(r.Context(), orchestrators.SendSessionReminderInput{
			SessionID: req.SessionID,
			Lead:      app.ReminderLead,
		}, deps)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"session_id": entry.SessionID,
			"recipient":  entry.Recipient,
			"message_id": entry.MessageID,
			"sent_at":    entry.SentAt,
		})
		return
	}
	if req.Date == "" {
		http.Error(w, "session_id or date is required", http.StatusBadRequest)
		return
	}
	summary, err := orchestrators.ExecuteSendDayReminders(r.Context(), orchestrators.SendDayRemindersInput{
		Date: req.Date,
		Lead: app.ReminderLead,
	}, orchestrators.SendDayRemindersDeps{SendSessionReminderDeps: deps, Sessions: app.Backend})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"sent":    summary.Sent,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
	})
}
