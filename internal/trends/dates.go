package trends

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var germanMonths = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// ISOWeek returns the ISO-8601 week number of the UTC calendar day of t.
// time.Time.ISOWeek shifts to the Thursday of the week (Sunday counts as day 7),
// so 2024-12-31 is week 1 and 2026-01-01 is week 1 as well.
func ISOWeek(t time.Time) int {
	_, week := t.UTC().ISOWeek()
	return week
}

// LocalISOWeek returns the ISO week of t's calendar day in loc, so the week always agrees
// with DayKey and MonthKey. The day is rebuilt at UTC midnight before the week arithmetic.
func LocalISOWeek(t time.Time, loc *time.Location) int {
	y, m, d := t.In(location(loc)).Date()
	return ISOWeek(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// DayKey returns YYYY-MM-DD for t in the given calendar.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(location(loc)).Format(dayKeyLayout)
}

// MonthKey returns YYYY-MM for t in the given calendar.
func MonthKey(t time.Time, loc *time.Location) string {
	return t.In(location(loc)).Format(monthKeyLayout)
}

// ParseDate parses an upstream date string. Blank or unparsable input reports false;
// it never returns an error so a bad date only makes the field absent.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	t, err := dateparse.ParseAny(s)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}

	return t, true
}

// FormatDayLabel renders a day key as a German numeric date (10.02.2026).
func FormatDayLabel(key string) string {
	t, err := time.Parse(dayKeyLayout, key)
	if err != nil {
		return key
	}

	return t.Format(dayLabelLayout)
}

// FormatMonthLabel renders a month key as German month and year (Februar 2026).
func FormatMonthLabel(key string) string {
	t, err := time.Parse(monthKeyLayout, key)
	if err != nil {
		return key
	}

	return germanMonths[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}

	return loc
}
