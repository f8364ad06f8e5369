package scheduler

import (
	"testing"

	"github.com/example/campus-reservation/internal/calendar"
)

func TestIntervalOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{name: "identical", a: Interval{9, 10}, b: Interval{9, 10}, want: true},
		{name: "partial overlap", a: Interval{8, 10}, b: Interval{9, 11}, want: true},
		{name: "contained", a: Interval{8, 12}, b: Interval{9, 10}, want: true},
		{name: "touching at end", a: Interval{8, 10}, b: Interval{10, 12}, want: false},
		{name: "touching at start", a: Interval{10, 12}, b: Interval{8, 10}, want: false},
		{name: "disjoint", a: Interval{8, 9}, b: Interval{13, 15}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("%s.Overlaps(%s) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("overlap must be symmetric for %s and %s", tc.a, tc.b)
			}
		})
	}
}

func TestIntervalValid(t *testing.T) {
	if !(Interval{0, 24}).Valid() {
		t.Fatalf("expected full day to be valid")
	}
	for _, interval := range []Interval{{10, 10}, {11, 10}, {-1, 3}, {20, 25}} {
		if interval.Valid() {
			t.Fatalf("expected %s to be invalid", interval)
		}
		if interval.Hours() < 0 {
			t.Fatalf("hours must never be negative")
		}
	}
}

func TestDetectConflicts(t *testing.T) {
	day := calendar.MustParseDate("2024-06-10")
	existing := []Slot{
		{ID: "a", CampusID: 1, Date: day, Interval: Interval{9, 10}},
		{ID: "b", CampusID: 1, Date: day, Interval: Interval{13, 15}},
		{ID: "c", CampusID: 2, Date: day, Interval: Interval{9, 12}},
		{ID: "d", CampusID: 1, Date: day.AddDate(0, 0, 1), Interval: Interval{9, 12}},
	}

	t.Run("overlap on same campus and date produces conflict", func(t *testing.T) {
		got := DetectConflicts(existing, Slot{CampusID: 1, Date: day, Interval: Interval{9, 14}})
		if len(got) != 2 || got[0].WithSlotID != "a" || got[1].WithSlotID != "b" {
			t.Fatalf("unexpected conflicts %+v", got)
		}
	})

	t.Run("other campuses and dates are ignored", func(t *testing.T) {
		got := DetectConflicts(existing, Slot{CampusID: 1, Date: day, Interval: Interval{10, 13}})
		if len(got) != 0 {
			t.Fatalf("expected no conflicts, got %+v", got)
		}
	})

	t.Run("a slot never conflicts with itself", func(t *testing.T) {
		got := DetectConflicts(existing, Slot{ID: "a", CampusID: 1, Date: day, Interval: Interval{9, 10}})
		if len(got) != 0 {
			t.Fatalf("expected no conflicts, got %+v", got)
		}
	})
}
