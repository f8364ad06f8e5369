// Package recurrence resolves blackout rules onto the concrete dates of a
// bounded window so callers can render availability for a week.
package recurrence

import (
	"errors"
	"sort"
	"time"

	"github.com/example/campus-reservation/internal/calendar"
	"github.com/example/campus-reservation/internal/scheduler"
)

// DefaultMaxDays bounds the generation window when no explicit limit is configured.
const DefaultMaxDays = 62

// Occurrence is a blackout rule applied to one date.
type Occurrence struct {
	RuleID   string
	CampusID int64
	Mode     scheduler.BlackoutMode
	Date     time.Time
	Interval scheduler.Interval
	Reason   string
}

// Engine expands blackout rules into dated occurrences.
type Engine struct {
	maxDays int
}

// NewEngine constructs an Engine that refuses windows longer than maxDays.
// If maxDays is not positive, DefaultMaxDays is used.
func NewEngine(maxDays int) *Engine {
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}
	return &Engine{maxDays: maxDays}
}

// ErrInvalidWindow indicates the window end precedes its start.
var ErrInvalidWindow = errors.New("recurrence: window end precedes start")

// ErrWindowTooLarge indicates the window exceeds the engine's day limit.
var ErrWindowTooLarge = errors.New("recurrence: window exceeds maximum length")

// Expand produces one occurrence per (rule, date) pair where the rule applies,
// for every date in [from, to] inclusive.
//
// Occurrences are ordered by date, then start hour, then rule ID:
//   - exact_date rules yield at most one occurrence.
//   - weekday rules yield one occurrence per matching weekday in the window.
//   - global rules yield one occurrence for every date in the window.
func (e *Engine) Expand(rules []scheduler.BlackoutRule, from, to time.Time) ([]Occurrence, error) {
	maxDays := DefaultMaxDays
	if e != nil && e.maxDays > 0 {
		maxDays = e.maxDays
	}

	start, end := calendar.DateOf(from), calendar.DateOf(to)
	if end.Before(start) {
		return nil, ErrInvalidWindow
	}
	days := calendar.Days(start, end)
	if len(days) > maxDays {
		return nil, ErrWindowTooLarge
	}

	occurrences := make([]Occurrence, 0)
	for _, day := range days {
		for _, rule := range rules {
			if !rule.AppliesOn(day) {
				continue
			}
			occurrences = append(occurrences, Occurrence{
				RuleID:   rule.ID,
				CampusID: rule.CampusID,
				Mode:     rule.Mode(),
				Date:     day,
				Interval: rule.Interval,
				Reason:   scheduler.BlockedReason(rule),
			})
		}
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		a, b := occurrences[i], occurrences[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Interval.Start != b.Interval.Start {
			return a.Interval.Start < b.Interval.Start
		}
		return a.RuleID < b.RuleID
	})

	return occurrences, nil
}
