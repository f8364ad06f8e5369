// Package calendar maps civil dates to weekdays and Monday-to-Sunday weeks.
//
// Dates are represented as time.Time values at midnight UTC. Weekdays follow
// time.Weekday: 0=Sunday through 6=Saturday.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage representation of a civil date.
const DateLayout = "2006-01-02"

// ErrInvalidDate indicates a date string that is not formatted as YYYY-MM-DD.
var ErrInvalidDate = errors.New("calendar: date must be formatted as YYYY-MM-DD")

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}
	parsed, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return parsed, nil
}

// MustParseDate is ParseDate for constants and tests; it panics on malformed input.
func MustParseDate(value string) time.Time {
	date, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return date
}

// FormatDate renders the civil date portion of t.
func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}

// DateOf truncates t to the civil date it names, keeping the wall clock date
// of t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Weekday returns the day of week for date with 0=Sunday..6=Saturday.
func Weekday(date time.Time) int {
	return int(DateOf(date).Weekday())
}

// WeekStart returns the Monday of the week containing date. Sunday is the last
// day of its week, so it maps back six days.
func WeekStart(date time.Time) time.Time {
	day := DateOf(date)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekBounds returns the inclusive Monday and Sunday of the week containing date.
func WeekBounds(date time.Time) (monday, sunday time.Time) {
	monday = WeekStart(date)
	return monday, monday.AddDate(0, 0, 6)
}

// InRange reports whether date falls within [from, to], inclusive at both ends.
func InRange(date, from, to time.Time) bool {
	day := DateOf(date)
	return !day.Before(DateOf(from)) && !day.After(DateOf(to))
}

// Days lists each civil date from from through to inclusive.
func Days(from, to time.Time) []time.Time {
	start, end := DateOf(from), DateOf(to)
	if end.Before(start) {
		return nil
	}
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}
