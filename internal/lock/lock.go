// Package lock provides keyed mutual exclusion for the reservation write path.
//
// A caller acquires every key its decision depends on before reading and
// releases them after writing. Keys are acquired in sorted order so that two
// callers sharing several keys cannot deadlock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNotAcquired is returned when a key could not be obtained before the
// context ended.
var ErrNotAcquired = errors.New("lock: not acquired")

// Locker acquires a set of keys as one unit.
type Locker interface {
	// Acquire blocks until every key is held or ctx is done. The returned
	// release function is safe to call more than once.
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// CampusDateKey names the lock guarding one campus on one civil date.
func CampusDateKey(campusID int64, date time.Time) string {
	return fmt.Sprintf("campus/%d/%s", campusID, date.Format("2006-01-02"))
}

// UserWeekKey names the lock guarding one user's quota for the week starting
// on monday.
func UserWeekKey(userID string, monday time.Time) string {
	return fmt.Sprintf("user/%s/%s", userID, monday.Format("2006-01-02"))
}

// normalizeKeys returns the distinct non-empty keys in ascending order.
func normalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	result := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, key)
	}
	sort.Strings(result)
	return result
}
