// Package civiltime converts between Colombia wall-clock time and UTC instants.
//
// Colombia observes a fixed UTC-05:00 offset all year, so every conversion is
// "add or subtract five hours and re-derive the calendar fields". No timezone
// database is consulted.
package civiltime

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/locales/es_CO"
)

// Offset is Colombia's fixed distance from UTC.
const Offset = -5 * time.Hour

// ISOLayout is the canonical UTC instant format: millisecond precision, Z suffix.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// DateLayout and ClockLayout are the form-field formats for civil date and time.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Location is the fixed Colombia zone (COT, UTC-05:00, no DST).
var Location = time.FixedZone("COT", int(Offset/time.Second))

// spanish formats dates and times the way the es-CO locale does.
var spanish = es_CO.New()

// CivilDateTime is a Colombia wall-clock reading with minute precision.
// INVARIANT: fields describe a real calendar date and a 24h clock time.
type CivilDateTime struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
}

// ParseCivil builds a CivilDateTime from a "YYYY-MM-DD" date and an "HH:mm" time.
// PRE: none
// POST: returns a *FormatError naming the offending field on malformed input
func ParseCivil(dateStr, timeStr string) (CivilDateTime, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(dateStr))
	if err != nil {
		return CivilDateTime{}, &FormatError{Field: "date", Input: dateStr, Err: err}
	}
	c, err := time.Parse(ClockLayout, strings.TrimSpace(timeStr))
	if err != nil {
		return CivilDateTime{}, &FormatError{Field: "time", Input: timeStr, Err: err}
	}
	return CivilDateTime{
		Year:   d.Year(),
		Month:  d.Month(),
		Day:    d.Day(),
		Hour:   c.Hour(),
		Minute: c.Minute(),
	}, nil
}

// FromInstant reads Colombia's wall clock at the given instant.
func FromInstant(t time.Time) CivilDateTime {
	local := t.In(Location)
	return CivilDateTime{
		Year:   local.Year(),
		Month:  local.Month(),
		Day:    local.Day(),
		Hour:   local.Hour(),
		Minute: local.Minute(),
	}
}

// UTC returns the absolute instant this wall-clock reading denotes.
// time.Date normalises day, month and year rollover after the offset is applied.
func (c CivilDateTime) UTC() time.Time {
	return time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, 0, 0, Location).UTC()
}

// DateString returns the civil date as "YYYY-MM-DD".
func (c CivilDateTime) DateString() string {
	return fmt.Sprintf("%04d-%02d-%02d", c.Year, int(c.Month), c.Day)
}

// TimeString returns the civil clock time as "HH:mm".
func (c CivilDateTime) TimeString() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ToUTCISOString converts Colombia form input to a canonical UTC instant string.
// PRE: dateStr is "YYYY-MM-DD", timeStr is "HH:mm" (24h)
// POST: returns "YYYY-MM-DDTHH:mm:ss.000Z" equal to the wall clock plus five hours
func ToUTCISOString(dateStr, timeStr string) (string, error) {
	c, err := ParseCivil(dateStr, timeStr)
	if err != nil {
		return "", err
	}
	return FormatISO(c.UTC()), nil
}

// InterpretLocalAsColombian reinterprets the wall-clock fields of t as Colombia time.
// Calendar pickers hand back values in the host zone whose displayed fields mean
// Colombia time, so only year/month/day/hour/minute are kept; t's own offset is dropped.
// PRE: none
// POST: result is independent of t.Location()
func InterpretLocalAsColombian(t time.Time) string {
	year, month, day := t.Date()
	hour, minute, _ := t.Clock()
	c := CivilDateTime{Year: year, Month: month, Day: day, Hour: hour, Minute: minute}
	return FormatISO(c.UTC())
}

// ToColombianDate shifts t by the Colombia offset and labels the result UTC, so
// reading its UTC fields yields Colombia wall-clock values. Display helper only:
// the returned value is not the same instant as t.
func ToColombianDate(t time.Time) time.Time {
	return t.UTC().Add(Offset)
}

// ToColombianDateString returns the Colombia calendar date at instant t.
func ToColombianDateString(t time.Time) string {
	return t.In(Location).Format(DateLayout)
}

// ToColombianTimeString returns the Colombia 24h clock time at instant t.
func ToColombianTimeString(t time.Time) string {
	return t.In(Location).Format(ClockLayout)
}

// FormatISO renders an instant in the canonical UTC form.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// ParseUTC parses an RFC 3339 instant, with or without fractional seconds.
// PRE: none
// POST: returns the instant in UTC, or a *FormatError
func ParseUTC(iso string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(iso))
	if err != nil {
		return time.Time{}, &FormatError{Field: "instant", Input: iso, Err: err}
	}
	return t.UTC(), nil
}

// FormatColombianTime renders the Colombia 12-hour time of a UTC instant in Spanish,
// e.g. "10:00 a. m.".
func FormatColombianTime(iso string) (string, error) {
	t, err := ParseUTC(iso)
	if err != nil {
		return "", err
	}
	return clock12(t.In(Location)), nil
}

// FormatDate renders a UTC instant as a long Spanish date plus 12-hour time in
// Colombia, e.g. "27 de octubre de 2023, 10:00 a. m.".
func FormatDate(iso string) (string, error) {
	t, err := ParseUTC(iso)
	if err != nil {
		return "", err
	}
	local := t.In(Location)
	return spanish.FmtDateLong(local) + ", " + clock12(local), nil
}

// clock12 formats a local time with the es-CO short time pattern.
// The locale data prints hour 0 as "0"; a 12-hour clock reads it as 12.
func clock12(local time.Time) string {
	s := spanish.FmtTimeShort(local)
	if local.Hour() == 0 {
		s = "12" + strings.TrimPrefix(s, "0")
	}
	return s
}

// WeekStart returns the UTC instant of Monday 00:00 Colombia time for the week holding t.
func WeekStart(t time.Time) time.Time {
	local := t.In(Location)
	back := (int(local.Weekday()) + 6) % 7
	return time.Date(local.Year(), local.Month(), local.Day()-back, 0, 0, 0, 0, Location).UTC()
}

// DayBounds returns the UTC half-open interval [start, end) covering a Colombia calendar day.
// PRE: dateStr is "YYYY-MM-DD"
// POST: end - start is exactly 24h
func DayBounds(dateStr string) (time.Time, time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(dateStr), Location)
	if err != nil {
		return time.Time{}, time.Time{}, &FormatError{Field: "date", Input: dateStr, Err: err}
	}
	return d.UTC(), d.Add(24 * time.Hour).UTC(), nil
}

// DayLabel renders the Colombia weekday and day of month of t for calendar headers,
// using the es-CO abbreviated weekday names.
func DayLabel(t time.Time) string {
	local := t.In(Location)
	return fmt.Sprintf("%s %d", spanish.WeekdayAbbreviated(local.Weekday()), local.Day())
}
