package availability

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates throughout the service.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format for wall-clock slot times.
const TimeLayout = "15:04"

// Weekday enumerates the seven recurring weekdays a slot template can target.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

var weekdayNames = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf returns the weekday enumerator for a concrete date.
func WeekdayOf(t time.Time) Weekday {
	return weekdayNames[t.Weekday()]
}

// StartOfWeek returns the Monday of the week containing t, normalized to
// midnight in t's location. Sunday belongs to the previous week.
func StartOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	// In Go Monday == 1 and Sunday == 0, so Sunday offsets by -6.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// AddDays offsets t by n calendar days, carrying across month and year
// boundaries without shifting the wall clock.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// ParseDate parses an ISO calendar date such as "2026-01-23".
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

// FormatDate renders t as an ISO calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseClock parses a wall-clock slot time such as "19:00".
func ParseClock(value string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", value, err)
	}
	return t, nil
}

// FormatLongDate renders an ISO date as a human calendar label, e.g.
// "Friday 23 January 2026". The label is presentation only; it always
// round-trips the same calendar date that ParseDate would produce.
func FormatLongDate(isoDate string) (string, error) {
	t, err := ParseDate(isoDate)
	if err != nil {
		return "", err
	}
	return t.Format("Monday 2 January 2006"), nil
}
