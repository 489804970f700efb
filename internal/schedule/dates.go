package schedule

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates throughout the app.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Weekday returns the weekday of the date, numbered Monday=0 .. Sunday=6.
// This is the only place the stdlib's Sunday=0 numbering is converted;
// every other call site uses this helper.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsToday reports whether date falls on the same calendar day as now,
// in now's location.
func IsToday(date, now time.Time) bool {
	y1, m1, d1 := date.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekWindow returns the seven dates of the Monday-first week containing
// reference, ascending.
func WeekWindow(reference time.Time) []string {
	monday := startOfDay(reference).AddDate(0, 0, -Weekday(reference))
	dates := make([]string, 7)
	for i := range dates {
		dates[i] = FormatDate(monday.AddDate(0, 0, i))
	}
	return dates
}

// RollingWindow returns the dates from `before` days before reference
// through `after` days after it, inclusive of reference, ascending.
// Negative spans are treated as zero.
func RollingWindow(reference time.Time, before, after int) []string {
	if before < 0 {
		before = 0
	}
	if after < 0 {
		after = 0
	}
	start := startOfDay(reference).AddDate(0, 0, -before)
	dates := make([]string, 0, before+after+1)
	for i := 0; i <= before+after; i++ {
		dates = append(dates, FormatDate(start.AddDate(0, 0, i)))
	}
	return dates
}

// MonthWindow returns every date of the calendar month containing
// reference, ascending.
func MonthWindow(reference time.Time) []string {
	first := time.Date(reference.Year(), reference.Month(), 1, 0, 0, 0, 0, reference.Location())
	next := first.AddDate(0, 1, 0)
	var dates []string
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		dates = append(dates, FormatDate(d))
	}
	return dates
}

// DayClass is the visual grouping of a date.
type DayClass string

const (
	ClassWeekday  DayClass = "weekday"
	ClassSaturday DayClass = "saturday"
	ClassRestDay  DayClass = "rest_day" // Sundays and holidays share one class
)

// Classify maps a date onto its visual class. Holidays take precedence
// over the weekday; holiday membership is a set lookup over ISO dates
// supplied by the holiday collaborator.
func Classify(date time.Time, holidays map[string]bool) DayClass {
	if holidays[FormatDate(date)] {
		return ClassRestDay
	}
	switch Weekday(date) {
	case 5:
		return ClassSaturday
	case 6:
		return ClassRestDay
	default:
		return ClassWeekday
	}
}
