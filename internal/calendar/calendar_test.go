package calendar

import (
	"errors"
	"testing"
	"time"
)

func TestWeekday(t *testing.T) {
	cases := []struct {
		date string
		want int
	}{
		{"2024-06-09", 0},
		{"2024-06-10", 1},
		{"2024-06-11", 2},
		{"2024-06-15", 6},
		{"2024-02-29", 4},
	}
	for _, tc := range cases {
		t.Run(tc.date, func(t *testing.T) {
			if got := Weekday(MustParseDate(tc.date)); got != tc.want {
				t.Fatalf("Weekday(%s) = %d, want %d", tc.date, got, tc.want)
			}
		})
	}
}

func TestWeekBounds(t *testing.T) {
	cases := []struct {
		name       string
		date       string
		wantMonday string
		wantSunday string
	}{
		{name: "monday starts its own week", date: "2024-06-10", wantMonday: "2024-06-10", wantSunday: "2024-06-16"},
		{name: "midweek", date: "2024-06-13", wantMonday: "2024-06-10", wantSunday: "2024-06-16"},
		{name: "saturday", date: "2024-06-15", wantMonday: "2024-06-10", wantSunday: "2024-06-16"},
		{name: "sunday belongs to the week that just ended", date: "2024-06-16", wantMonday: "2024-06-10", wantSunday: "2024-06-16"},
		{name: "following monday opens a new week", date: "2024-06-17", wantMonday: "2024-06-17", wantSunday: "2024-06-23"},
		{name: "crosses a month boundary", date: "2024-07-02", wantMonday: "2024-07-01", wantSunday: "2024-07-07"},
		{name: "crosses a year boundary", date: "2025-01-01", wantMonday: "2024-12-30", wantSunday: "2025-01-05"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			monday, sunday := WeekBounds(MustParseDate(tc.date))
			if got := FormatDate(monday); got != tc.wantMonday {
				t.Fatalf("monday = %s, want %s", got, tc.wantMonday)
			}
			if got := FormatDate(sunday); got != tc.wantSunday {
				t.Fatalf("sunday = %s, want %s", got, tc.wantSunday)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Run("accepts ISO dates", func(t *testing.T) {
		got, err := ParseDate(" 2024-06-10 ")
		if err != nil {
			t.Fatalf("ParseDate returned error: %v", err)
		}
		if !got.Equal(time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("unexpected date %v", got)
		}
	})

	for _, input := range []string{"", "2024/06/10", "2024-13-01", "10-06-2024"} {
		t.Run("rejects "+input, func(t *testing.T) {
			if _, err := ParseDate(input); !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("expected ErrInvalidDate, got %v", err)
			}
		})
	}
}

func TestDateOfKeepsWallClockDate(t *testing.T) {
	cst := time.FixedZone("CST", 8*60*60)
	late := time.Date(2024, time.June, 10, 23, 30, 0, 0, cst)
	if got := FormatDate(late); got != "2024-06-10" {
		t.Fatalf("expected wall clock date, got %s", got)
	}
}

func TestInRangeAndDays(t *testing.T) {
	from, to := WeekBounds(MustParseDate("2024-06-12"))
	if !InRange(MustParseDate("2024-06-10"), from, to) || !InRange(MustParseDate("2024-06-16"), from, to) {
		t.Fatalf("expected both week ends to be in range")
	}
	if InRange(MustParseDate("2024-06-17"), from, to) || InRange(MustParseDate("2024-06-09"), from, to) {
		t.Fatalf("expected neighbouring days to be out of range")
	}

	days := Days(from, to)
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	if FormatDate(days[6]) != "2024-06-16" {
		t.Fatalf("unexpected last day %s", FormatDate(days[6]))
	}
	if Days(to, from) != nil {
		t.Fatalf("expected nil for inverted range")
	}
}
