package scheduler

import (
	"fmt"
	"time"

	"github.com/example/campus-reservation/internal/calendar"
)

// WeeklyHourCap is the number of reserved hours a user may hold per
// Monday-to-Sunday week.
const WeeklyHourCap = 6

// QuotaUsage describes a quota evaluation for one candidate reservation.
type QuotaUsage struct {
	Used      int
	Requested int
	Limit     int
	WeekStart time.Time
	WeekEnd   time.Time
}

// Exceeded reports whether granting the request would pass the limit. Landing
// exactly on the limit is allowed.
func (q QuotaUsage) Exceeded() bool {
	return q.Used+q.Requested > q.Limit
}

// Remaining returns the hours still available in the week.
func (q QuotaUsage) Remaining() int {
	if left := q.Limit - q.Used; left > 0 {
		return left
	}
	return 0
}

// Message renders the rejection reason for an exceeded quota.
func (q QuotaUsage) Message() string {
	return fmt.Sprintf("Weekly limit exceeded. Used: %d, New: %d, Limit: %d", q.Used, q.Requested, q.Limit)
}

// Booking is the subset of a reservation relevant to quota accounting.
type Booking struct {
	Date     time.Time
	Interval Interval
}

// HoursInWeek sums the hours of bookings dated within the week containing date.
// Callers pass only the user's active reservations.
func HoursInWeek(bookings []Booking, date time.Time) int {
	monday, sunday := calendar.WeekBounds(date)
	total := 0
	for _, booking := range bookings {
		if calendar.InRange(booking.Date, monday, sunday) {
			total += booking.Interval.Hours()
		}
	}
	return total
}

// EvaluateQuota combines the hours already used in the week containing date
// with the candidate's hours against WeeklyHourCap.
func EvaluateQuota(used int, candidate Interval, date time.Time) QuotaUsage {
	monday, sunday := calendar.WeekBounds(date)
	return QuotaUsage{
		Used:      used,
		Requested: candidate.Hours(),
		Limit:     WeeklyHourCap,
		WeekStart: monday,
		WeekEnd:   sunday,
	}
}
