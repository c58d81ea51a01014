package projections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"trainerapp/internal/adapters/backend"
	"trainerapp/internal/domain/civiltime"
	"trainerapp/internal/domain/session"
)

// Dashboard periods.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodAll   = "all"
)

// UpcomingLimit caps the upcoming sessions shown on the dashboard.
const UpcomingLimit = 5

// GetDashboardStatsQuery carries query parameters.
type GetDashboardStatsQuery struct {
	Period string // week, month or all; empty means week
}

// GetDashboardStatsResult carries the query result.
type GetDashboardStatsResult struct {
	Stats    session.Stats
	From, To time.Time // zero when open
	Upcoming []session.Session
	Computed bool // stats were summarised locally because the backend had none
}

// GetDashboardStatsDeps holds dependencies for GetDashboardStats.
type GetDashboardStatsDeps struct {
	Stats    StatsSource
	Sessions SessionLister
	Now      func() time.Time
}

// ErrUnknownPeriod is returned for a period other than week, month or all.
var ErrUnknownPeriod = errors.New("period must be week, month or all")

// QueryGetDashboardStats returns the session counters for a period plus the next sessions.
// PRE: Period is empty, week, month or all
// POST: Stats come from the backend; if its stats endpoint is missing they are summarised locally
func QueryGetDashboardStats(ctx context.Context, query GetDashboardStatsQuery, deps GetDashboardStatsDeps) (GetDashboardStatsResult, error) {
	now := deps.Now()
	from, to, err := periodBounds(query.Period, now)
	if err != nil {
		return GetDashboardStatsResult{}, err
	}
	res := GetDashboardStatsResult{From: from, To: to}

	res.Stats, err = deps.Stats.SessionStats(ctx, from, to)
	if errors.Is(err, backend.ErrNotFound) {
		sessions, lerr := deps.Sessions.ListSessions(ctx, backend.SessionFilter{From: from, To: to})
		if lerr != nil {
			return GetDashboardStatsResult{}, fmt.Errorf("list sessions: %w", lerr)
		}
		slog.Debug("dashboard_event", "event", "stats_summarised_locally", "sessions", len(sessions))
		res.Stats = session.Summarize(sessions)
		res.Computed = true
	} else if err != nil {
		return GetDashboardStatsResult{}, fmt.Errorf("session stats: %w", err)
	}

	upcoming, err := deps.Sessions.ListSessions(ctx, backend.SessionFilter{
		From:   now,
		To:     now.AddDate(0, 0, 7),
		Status: session.StatusScheduled,
	})
	if err != nil {
		return GetDashboardStatsResult{}, fmt.Errorf("list upcoming sessions: %w", err)
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].ScheduledAt.Before(upcoming[j].ScheduledAt) })
	if len(upcoming) > UpcomingLimit {
		upcoming = upcoming[:UpcomingLimit]
	}
	res.Upcoming = upcoming
	return res, nil
}

// periodBounds returns the Colombia week or month holding now, as UTC instants.
func periodBounds(period string, now time.Time) (time.Time, time.Time, error) {
	switch period {
	case "", PeriodWeek:
		start := civiltime.WeekStart(now)
		return start, start.AddDate(0, 0, 7), nil
	case PeriodMonth:
		local := now.In(civiltime.Location)
		start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, civiltime.Location)
		return start.UTC(), start.AddDate(0, 1, 0).UTC(), nil
	case PeriodAll:
		return time.Time{}, time.Time{}, nil
	default:
		return time.Time{}, time.Time{}, ErrUnknownPeriod
	}
}
