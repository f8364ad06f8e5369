package application

import (
	"context"
	"fmt"
	"time"

	"github.com/example/campus-reservation/internal/calendar"
	"github.com/example/campus-reservation/internal/persistence"
	"github.com/example/campus-reservation/internal/scheduler"
)

// BlackoutMatcher decides whether admin rules block a requested slot.
type BlackoutMatcher struct {
	rules persistence.BlackoutRuleRepository
}

// NewBlackoutMatcher constructs a matcher reading rules from repo.
func NewBlackoutMatcher(repo persistence.BlackoutRuleRepository) *BlackoutMatcher {
	return &BlackoutMatcher{rules: repo}
}

// IsBlocked reports whether any rule of the campus that applies on date
// overlaps [start, end). The reason is the first matching rule's reason, or
// scheduler.DefaultBlockedReason when that rule has none.
func (m *BlackoutMatcher) IsBlocked(ctx context.Context, campusID int64, date time.Time, start, end int) (bool, string, error) {
	if m == nil || m.rules == nil {
		return false, "", nil
	}
	models, err := m.rules.ListBlackoutRules(ctx, campusID)
	if err != nil {
		return false, "", fmt.Errorf("%w: find blackout rules: %v", ErrPersistence, err)
	}
	rule, blocked := scheduler.MatchBlackout(toSchedulerRules(models), date, scheduler.Interval{Start: start, End: end})
	if !blocked {
		return false, "", nil
	}
	return true, scheduler.BlockedReason(rule), nil
}

// OverlapDetector decides whether a slot collides with an active reservation.
type OverlapDetector struct {
	reservations persistence.ReservationRepository
}

// NewOverlapDetector constructs a detector over repo.
func NewOverlapDetector(repo persistence.ReservationRepository) *OverlapDetector {
	return &OverlapDetector{reservations: repo}
}

// HasConflict reports whether an active reservation on the campus and date
// overlaps [start, end). Cancelled reservations never conflict.
func (d *OverlapDetector) HasConflict(ctx context.Context, campusID int64, date time.Time, start, end int) (bool, error) {
	if d == nil || d.reservations == nil {
		return false, nil
	}
	count, err := d.reservations.CountOverlappingActiveReservations(ctx, campusID, date, start, end)
	if err != nil {
		return false, fmt.Errorf("%w: count overlapping reservations: %v", ErrPersistence, err)
	}
	return count > 0, nil
}

// QuotaAccountant tracks reserved hours per user and week.
type QuotaAccountant struct {
	reservations persistence.ReservationRepository
}

// NewQuotaAccountant constructs an accountant over repo.
func NewQuotaAccountant(repo persistence.ReservationRepository) *QuotaAccountant {
	return &QuotaAccountant{reservations: repo}
}

// WeeklyHoursUsed sums the hours of the user's active reservations in the
// Monday-to-Sunday week containing anyDateInWeek.
func (q *QuotaAccountant) WeeklyHoursUsed(ctx context.Context, userID string, anyDateInWeek time.Time) (int, error) {
	if q == nil || q.reservations == nil {
		return 0, nil
	}
	monday, sunday := calendar.WeekBounds(anyDateInWeek)
	models, err := q.reservations.ListActiveReservationsForUser(ctx, userID, monday, sunday)
	if err != nil {
		return 0, fmt.Errorf("%w: list weekly reservations: %v", ErrPersistence, err)
	}

	bookings := make([]scheduler.Booking, 0, len(models))
	for _, model := range models {
		if model.Status != persistence.StatusActive {
			continue
		}
		bookings = append(bookings, scheduler.Booking{
			Date:     model.Date,
			Interval: scheduler.Interval{Start: model.StartHour, End: model.EndHour},
		})
	}
	return scheduler.HoursInWeek(bookings, anyDateInWeek), nil
}

// WouldExceed evaluates candidateHours on date against scheduler.WeeklyHourCap.
// Reaching the cap exactly is allowed.
func (q *QuotaAccountant) WouldExceed(ctx context.Context, userID string, candidateHours int, date time.Time) (scheduler.QuotaUsage, bool, error) {
	used, err := q.WeeklyHoursUsed(ctx, userID, date)
	if err != nil {
		return scheduler.QuotaUsage{}, false, err
	}
	usage := scheduler.EvaluateQuota(used, scheduler.Interval{Start: 0, End: candidateHours}, date)
	return usage, usage.Exceeded(), nil
}
