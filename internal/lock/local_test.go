package lock

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestLocal(t *testing.T) {
	t.Run("serializes holders of the same key", func(t *testing.T) {
		locker := NewLocal()
		var (
			inside  int32
			maxSeen int32
		)

		var g errgroup.Group
		for i := 0; i < 16; i++ {
			g.Go(func() error {
				release, err := locker.Acquire(context.Background(), "campus/1/2024-06-10")
				if err != nil {
					return err
				}
				defer release()

				n := atomic.AddInt32(&inside, 1)
				for {
					seen := atomic.LoadInt32(&maxSeen)
					if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("Acquire returned error: %v", err)
		}
		if maxSeen != 1 {
			t.Fatalf("expected at most one holder, saw %d", maxSeen)
		}
		if locker.held() != 0 {
			t.Fatalf("expected no remaining slots, got %d", locker.held())
		}
	})

	t.Run("distinct keys do not block each other", func(t *testing.T) {
		locker := NewLocal()
		release, err := locker.Acquire(context.Background(), "a")
		if err != nil {
			t.Fatalf("Acquire returned error: %v", err)
		}
		defer release()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		other, err := locker.Acquire(ctx, "b")
		if err != nil {
			t.Fatalf("expected independent key to be acquired, got %v", err)
		}
		other()
	})

	t.Run("context cancellation releases partially held keys", func(t *testing.T) {
		locker := NewLocal()
		release, err := locker.Acquire(context.Background(), "b")
		if err != nil {
			t.Fatalf("Acquire returned error: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := locker.Acquire(ctx, "b", "a"); !errors.Is(err, ErrNotAcquired) {
			t.Fatalf("expected ErrNotAcquired, got %v", err)
		}

		// "a" sorts first and must have been released by the failed attempt
		quick, cancelQuick := context.WithTimeout(context.Background(), time.Second)
		defer cancelQuick()
		releaseA, err := locker.Acquire(quick, "a")
		if err != nil {
			t.Fatalf("expected key a to be free, got %v", err)
		}
		releaseA()
		release()

		if locker.held() != 0 {
			t.Fatalf("expected no remaining slots, got %d", locker.held())
		}
	})

	t.Run("release is idempotent and duplicate keys are collapsed", func(t *testing.T) {
		locker := NewLocal()
		release, err := locker.Acquire(context.Background(), "k", "k", "")
		if err != nil {
			t.Fatalf("Acquire returned error: %v", err)
		}
		release()
		release()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		again, err := locker.Acquire(ctx, "k")
		if err != nil {
			t.Fatalf("expected key to be free after double release, got %v", err)
		}
		again()
		if locker.held() != 0 {
			t.Fatalf("expected no remaining slots, got %d", locker.held())
		}
	})
}

func TestKeys(t *testing.T) {
	monday := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	if got := CampusDateKey(2, monday); got != "campus/2/2024-06-10" {
		t.Fatalf("unexpected campus key %q", got)
	}
	if got := UserWeekKey("u1", monday); got != "user/u1/2024-06-10" {
		t.Fatalf("unexpected user key %q", got)
	}
	if got := normalizeKeys([]string{"user/x", "campus/1", "user/x", ""}); len(got) != 2 || got[0] != "campus/1" {
		t.Fatalf("unexpected normalized keys %v", got)
	}
}
