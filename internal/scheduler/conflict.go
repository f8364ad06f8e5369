// Package scheduler holds the pure decision logic for hour-slot reservations:
// half-open interval arithmetic, blackout rule matching, overlap detection and
// weekly quota accounting. Nothing in this package performs I/O.
package scheduler

import (
	"fmt"
	"time"

	"github.com/example/campus-reservation/internal/calendar"
)

// Interval is a half-open hour range [Start, End) within one day.
type Interval struct {
	Start int
	End   int
}

// Hours returns the length of the interval.
func (i Interval) Hours() int {
	if i.End <= i.Start {
		return 0
	}
	return i.End - i.Start
}

// Valid reports whether the interval is non-empty and lies within a day.
func (i Interval) Valid() bool {
	return i.Start >= 0 && i.End <= 24 && i.Start < i.End
}

// Overlaps reports whether two half-open intervals share at least one hour.
// Touching intervals such as [8,10) and [10,12) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d,%d)", i.Start, i.End)
}

// Slot is a reservation footprint on one campus and date.
type Slot struct {
	ID       string
	CampusID int64
	Date     time.Time
	Interval Interval
}

// Conflict pairs a candidate with an existing slot that overlaps it.
type Conflict struct {
	WithSlotID string
	Interval   Interval
}

// DetectConflicts returns every existing slot on the candidate's campus and
// date whose interval overlaps the candidate. Callers pass only active
// reservations; cancelled ones never conflict.
func DetectConflicts(existing []Slot, candidate Slot) []Conflict {
	var conflicts []Conflict
	day := calendar.DateOf(candidate.Date)
	for _, slot := range existing {
		if slot.ID != "" && slot.ID == candidate.ID {
			continue
		}
		if slot.CampusID != candidate.CampusID || !calendar.DateOf(slot.Date).Equal(day) {
			continue
		}
		if slot.Interval.Overlaps(candidate.Interval) {
			conflicts = append(conflicts, Conflict{WithSlotID: slot.ID, Interval: slot.Interval})
		}
	}
	return conflicts
}
