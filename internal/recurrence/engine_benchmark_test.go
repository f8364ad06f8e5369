package recurrence

import (
	"fmt"
	"testing"

	"github.com/example/campus-reservation/internal/calendar"
	"github.com/example/campus-reservation/internal/scheduler"
)

func BenchmarkEngineExpand(b *testing.B) {
	engine := NewEngine(0)
	from := calendar.MustParseDate("2024-05-06")
	to := from.AddDate(0, 0, 55)

	rules := make([]scheduler.BlackoutRule, 0, 21)
	for weekday := 0; weekday < 7; weekday++ {
		day := weekday
		for slot := 0; slot < 3; slot++ {
			rules = append(rules, scheduler.BlackoutRule{
				ID:       fmt.Sprintf("rule-%d-%d", weekday, slot),
				CampusID: 1,
				Weekday:  &day,
				Interval: scheduler.Interval{Start: 8 + slot*4, End: 10 + slot*4},
			})
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		occurrences, err := engine.Expand(rules, from, to)
		if err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
		if len(occurrences) == 0 {
			b.Fatal("expected occurrences to be generated")
		}
	}
}
