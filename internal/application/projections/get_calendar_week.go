package projections

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"trainerapp/internal/adapters/backend"
	"trainerapp/internal/domain/civiltime"
	"trainerapp/internal/domain/session"
)

// GetCalendarWeekQuery carries query parameters.
type GetCalendarWeekQuery struct {
	Date     string // any Colombia day inside the wanted week; empty means this week
	ClientID int64  // 0 for every client
}

// CalendarEntry is one session placed on the calendar.
type CalendarEntry struct {
	Session    session.Session
	ClientName string
	Start      string // "HH:mm" Colombia
	End        string // "HH:mm" Colombia
	StartLabel string // es-CO 12h clock
}

// CalendarDay is one Colombia calendar day column.
type CalendarDay struct {
	Date    string // "YYYY-MM-DD"
	Label   string
	IsToday bool
	Entries []CalendarEntry
}

// GetCalendarWeekResult carries the query result.
type GetCalendarWeekResult struct {
	WeekStart time.Time // Monday 00:00 Colombia, as a UTC instant
	Days      [7]CalendarDay
	PrevWeek  string
	NextWeek  string
	Total     int
}

// GetCalendarWeekDeps holds dependencies for GetCalendarWeek.
type GetCalendarWeekDeps struct {
	Sessions SessionLister
	Clients  ClientLister // optional; entries carry no names when nil
	Now      func() time.Time
}

// QueryGetCalendarWeek groups a week's sessions into Colombia day columns.
// PRE: Date is empty or "YYYY-MM-DD"
// POST: Days[0] is Monday; each entry sits on the day its start falls on in Colombia
// INVARIANT: a 20:00 Colombia session lands on its Colombia day even though it starts the next UTC day
func QueryGetCalendarWeek(ctx context.Context, query GetCalendarWeekQuery, deps GetCalendarWeekDeps) (GetCalendarWeekResult, error) {
	now := deps.Now()
	anchor := now
	if strings.TrimSpace(query.Date) != "" {
		start, _, err := civiltime.DayBounds(query.Date)
		if err != nil {
			return GetCalendarWeekResult{}, err
		}
		anchor = start
	}
	weekStart := civiltime.WeekStart(anchor)
	weekEnd := weekStart.AddDate(0, 0, 7)

	sessions, err := deps.Sessions.ListSessions(ctx, backend.SessionFilter{
		From:     weekStart,
		To:       weekEnd,
		ClientID: query.ClientID,
	})
	if err != nil {
		return GetCalendarWeekResult{}, fmt.Errorf("list week sessions: %w", err)
	}

	names := map[int64]string{}
	if deps.Clients != nil && len(sessions) > 0 {
		clients, err := deps.Clients.ListClients(ctx, "")
		if err != nil {
			return GetCalendarWeekResult{}, fmt.Errorf("list clients: %w", err)
		}
		for _, c := range clients {
			names[c.ID] = c.Name
		}
	}

	res := GetCalendarWeekResult{
		WeekStart: weekStart,
		PrevWeek:  civiltime.ToColombianDateString(weekStart.AddDate(0, 0, -7)),
		NextWeek:  civiltime.ToColombianDateString(weekEnd),
	}
	today := civiltime.ToColombianDateString(now)
	index := make(map[string]int, 7)
	for i := range res.Days {
		day := weekStart.AddDate(0, 0, i)
		date := civiltime.ToColombianDateString(day)
		res.Days[i] = CalendarDay{Date: date, Label: civiltime.DayLabel(day), IsToday: date == today}
		index[date] = i
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ScheduledAt.Before(sessions[j].ScheduledAt) })
	for _, s := range sessions {
		i, ok := index[civiltime.ToColombianDate(s.ScheduledAt).Format(civiltime.DateLayout)]
		if !ok {
			// The backend filter is inclusive at both ends.
			continue
		}
		label, _ := civiltime.FormatColombianTime(civiltime.FormatISO(s.ScheduledAt))
		res.Days[i].Entries = append(res.Days[i].Entries, CalendarEntry{
			Session:    s,
			ClientName: names[s.ClientID],
			Start:      s.LocalTime(),
			End:        civiltime.ToColombianTimeString(s.EndsAt()),
			StartLabel: label,
		})
		res.Total++
	}
	return res, nil
}
