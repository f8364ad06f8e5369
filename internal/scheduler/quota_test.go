package scheduler

import (
	"testing"

	"github.com/example/campus-reservation/internal/calendar"
)

func TestEvaluateQuota(t *testing.T) {
	day := calendar.MustParseDate("2024-06-12")

	t.Run("landing exactly on the cap is allowed", func(t *testing.T) {
		usage := EvaluateQuota(5, Interval{9, 10}, day)
		if usage.Exceeded() {
			t.Fatalf("expected 5+1 to be allowed")
		}
		if usage.Remaining() != 1 {
			t.Fatalf("expected 1 hour remaining, got %d", usage.Remaining())
		}
	})

	t.Run("passing the cap is rejected with a usage report", func(t *testing.T) {
		usage := EvaluateQuota(5, Interval{9, 11}, day)
		if !usage.Exceeded() {
			t.Fatalf("expected 5+2 to exceed")
		}
		want := "Weekly limit exceeded. Used: 5, New: 2, Limit: 6"
		if usage.Message() != want {
			t.Fatalf("message = %q, want %q", usage.Message(), want)
		}
		if calendar.FormatDate(usage.WeekStart) != "2024-06-10" || calendar.FormatDate(usage.WeekEnd) != "2024-06-16" {
			t.Fatalf("unexpected week %v - %v", usage.WeekStart, usage.WeekEnd)
		}
	})
}

func TestHoursInWeek(t *testing.T) {
	bookings := []Booking{
		{Date: calendar.MustParseDate("2024-06-09"), Interval: Interval{9, 12}},  // previous week's sunday
		{Date: calendar.MustParseDate("2024-06-10"), Interval: Interval{9, 11}},  // monday
		{Date: calendar.MustParseDate("2024-06-15"), Interval: Interval{14, 15}}, // saturday
		{Date: calendar.MustParseDate("2024-06-16"), Interval: Interval{8, 10}},  // sunday
		{Date: calendar.MustParseDate("2024-06-17"), Interval: Interval{8, 12}},  // next monday
	}

	cases := []struct {
		date string
		want int
	}{
		{"2024-06-09", 3},
		{"2024-06-10", 5},
		{"2024-06-15", 5},
		{"2024-06-16", 5},
		{"2024-06-17", 4},
	}
	for _, tc := range cases {
		t.Run(tc.date, func(t *testing.T) {
			if got := HoursInWeek(bookings, calendar.MustParseDate(tc.date)); got != tc.want {
				t.Fatalf("HoursInWeek(%s) = %d, want %d", tc.date, got, tc.want)
			}
		})
	}
}
