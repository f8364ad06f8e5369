package scheduler

import (
	"strings"
	"time"

	"github.com/example/campus-reservation/internal/calendar"
)

// DefaultBlockedReason is reported when a matching rule carries no reason.
const DefaultBlockedReason = "Time slot unavailable"

// BlackoutMode identifies which dates a rule applies to.
type BlackoutMode string

const (
	// BlackoutExactDate applies to a single calendar date.
	BlackoutExactDate BlackoutMode = "exact_date"
	// BlackoutWeekday applies to every date falling on one weekday.
	BlackoutWeekday BlackoutMode = "weekday"
	// BlackoutGlobal applies to every date.
	BlackoutGlobal BlackoutMode = "global"
)

// BlackoutRule marks an hour range unavailable on a campus. At most one of
// Date and Weekday is set; neither set means the rule is global.
type BlackoutRule struct {
	ID       string
	CampusID int64
	Date     *time.Time
	Weekday  *int
	Interval Interval
	Reason   string
}

// Mode reports how the rule selects dates.
func (r BlackoutRule) Mode() BlackoutMode {
	switch {
	case r.Date != nil:
		return BlackoutExactDate
	case r.Weekday != nil:
		return BlackoutWeekday
	default:
		return BlackoutGlobal
	}
}

// AppliesOn reports whether the rule selects date.
func (r BlackoutRule) AppliesOn(date time.Time) bool {
	switch r.Mode() {
	case BlackoutExactDate:
		return calendar.DateOf(*r.Date).Equal(calendar.DateOf(date))
	case BlackoutWeekday:
		return *r.Weekday == calendar.Weekday(date)
	default:
		return true
	}
}

// Blocks reports whether the rule applies on date and overlaps the interval.
func (r BlackoutRule) Blocks(date time.Time, interval Interval) bool {
	return r.AppliesOn(date) && r.Interval.Overlaps(interval)
}

// MatchBlackout returns the first rule in rules that blocks interval on date.
func MatchBlackout(rules []BlackoutRule, date time.Time, interval Interval) (BlackoutRule, bool) {
	for _, rule := range rules {
		if rule.Blocks(date, interval) {
			return rule, true
		}
	}
	return BlackoutRule{}, false
}

// BlockedReason is the rejection message for a matched rule.
func BlockedReason(rule BlackoutRule) string {
	if reason := strings.TrimSpace(rule.Reason); reason != "" {
		return reason
	}
	return DefaultBlockedReason
}
