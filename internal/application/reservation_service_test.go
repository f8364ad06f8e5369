package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/campus-reservation/internal/calendar"
	"github.com/example/campus-reservation/internal/lock"
	"github.com/example/campus-reservation/internal/persistence"
	"github.com/example/campus-reservation/internal/persistence/memory"
	"github.com/example/campus-reservation/internal/persistence/sqlite"
	"github.com/example/campus-reservation/internal/persistence/sqlite/migration"
)

var referenceNow = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

func intp(v int) *int { return &v }

func sequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

func newTestReservationService(t *testing.T, store ReservationStore, locker lock.Locker) *ReservationService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReservationServiceWithLogger(store, locker, sequentialIDs("res"), func() time.Time { return referenceNow }, logger)
}

func request(userID, date string, start, end int) CreateReservationParams {
	return CreateReservationParams{
		UserID: userID,
		Input: ReservationInput{
			CampusID:  1,
			Date:      date,
			StartHour: intp(start),
			EndHour:   intp(end),
		},
	}
}

func mustAdmit(t *testing.T, svc *ReservationService, params CreateReservationParams) Reservation {
	t.Helper()
	admission, err := svc.CreateReservation(context.Background(), params)
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if !admission.Accepted() {
		t.Fatalf("expected accepted admission, got %s (%s) %v", admission.Outcome, admission.Reason, admission.FieldErrors)
	}
	return *admission.Reservation
}

func mustCreateRule(t *testing.T, store persistence.BlackoutRuleRepository, rule persistence.BlackoutRule) {
	t.Helper()
	if rule.CampusID == 0 {
		rule.CampusID = 1
	}
	rule.CreatedAt = referenceNow
	if err := store.CreateBlackoutRule(context.Background(), rule); err != nil {
		t.Fatalf("CreateBlackoutRule returned error: %v", err)
	}
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, ...string) (func(), error) {
	return func() {}, nil
}

type failingStore struct {
	*memory.Store
	rulesErr  error
	insertErr error
}

func (f *failingStore) ListBlackoutRules(ctx context.Context, campusID int64) ([]persistence.BlackoutRule, error) {
	if f.rulesErr != nil {
		return nil, f.rulesErr
	}
	return f.Store.ListBlackoutRules(ctx, campusID)
}

func (f *failingStore) InsertReservation(ctx context.Context, reservation persistence.Reservation) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.Store.InsertReservation(ctx, reservation)
}

func TestReservationService_CreateReservation_AppliesDefaults(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc := newTestReservationService(t, store, nil)

	reservation := mustAdmit(t, svc, request("user-1", "2024-06-10", 9, 11))
	if reservation.ID != "res-1" {
		t.Fatalf("expected generated id res-1, got %q", reservation.ID)
	}
	if reservation.StudentID != DefaultStudentID || reservation.UserName != DefaultUserName {
		t.Fatalf("expected defaults, got student %q name %q", reservation.StudentID, reservation.UserName)
	}
	if reservation.Status != StatusActive {
		t.Fatalf("expected active status, got %s", reservation.Status)
	}
	if !reservation.CreatedAt.Equal(referenceNow) {
		t.Fatalf("expected created_at %v, got %v", referenceNow, reservation.CreatedAt)
	}

	stored, err := store.GetReservation(context.Background(), reservation.ID)
	if err != nil {
		t.Fatalf("GetReservation returned error: %v", err)
	}
	if stored.UserID != "user-1" || stored.StartHour != 9 || stored.EndHour != 11 {
		t.Fatalf("unexpected stored reservation: %+v", stored)
	}
}

func TestReservationService_CreateReservation_KeepsProvidedContactFields(t *testing.T) {
	t.Parallel()

	svc := newTestReservationService(t, memory.New(), nil)
	params := request("user-1", "2024-06-10", 9, 10)
	params.Input.StudentID = " 2021001 "
	params.Input.Name = "Li Lei"
	params.Input.Contact = "13800000000"

	reservation := mustAdmit(t, svc, params)
	if reservation.StudentID != "2021001" || reservation.UserName != "Li Lei" || reservation.Contact != "13800000000" {
		t.Fatalf("unexpected contact fields: %+v", reservation)
	}
}

func TestReservationService_CreateReservation_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		params CreateReservationParams
		field  string
	}{
		{name: "missing user", params: request(" ", "2024-06-10", 9, 10), field: "user_id"},
		{name: "bad date", params: request("user-1", "2024/06/10", 9, 10), field: "date"},
		{name: "end before start", params: request("user-1", "2024-06-10", 10, 9), field: "end_hour"},
		{name: "empty interval", params: request("user-1", "2024-06-10", 10, 10), field: "end_hour"},
		{name: "hour out of range", params: request("user-1", "2024-06-10", 9, 25), field: "end_hour"},
		{
			name: "missing start hour",
			params: CreateReservationParams{UserID: "user-1", Input: ReservationInput{
				CampusID: 1, Date: "2024-06-10", EndHour: intp(10),
			}},
			field: "start_hour",
		},
		{
			name: "missing campus",
			params: CreateReservationParams{UserID: "user-1", Input: ReservationInput{
				Date: "2024-06-10", StartHour: intp(9), EndHour: intp(10),
			}},
			field: "campus_id",
		},
		{
			name: "unknown campus",
			params: CreateReservationParams{UserID: "user-1", Input: ReservationInput{
				CampusID: 99, Date: "2024-06-10", StartHour: intp(9), EndHour: intp(10),
			}},
			field: "campus_id",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := memory.New()
			svc := newTestReservationService(t, store, nil)
			admission, err := svc.CreateReservation(context.Background(), tc.params)
			if err != nil {
				t.Fatalf("CreateReservation returned error: %v", err)
			}
			if admission.Outcome != OutcomeInvalid {
				t.Fatalf("expected invalid outcome, got %s", admission.Outcome)
			}
			msg, ok := admission.FieldErrors[tc.field]
			if !ok {
				t.Fatalf("expected field error for %s, got %v", tc.field, admission.FieldErrors)
			}
			if len(admission.FieldErrors) == 1 && admission.Reason != msg {
				t.Fatalf("expected reason %q, got %q", msg, admission.Reason)
			}
			if admission.Reason == "" || admission.Reason == "validation failed" {
				t.Fatalf("expected a field specific reason, got %q", admission.Reason)
			}
			_, total, err := store.ListReservations(context.Background(), persistence.ReservationFilter{})
			if err != nil {
				t.Fatalf("ListReservations returned error: %v", err)
			}
			if total != 0 {
				t.Fatalf("expected no persisted reservation, got %d", total)
			}
		})
	}
}

func TestReservationService_CreateReservation_ExactDateBlackout(t *testing.T) {
	t.Parallel()

	store := memory.New()
	date := calendar.MustParseDate("2024-06-10")
	mustCreateRule(t, store, persistence.BlackoutRule{ID: "rule-1", Date: &date, StartHour: 8, EndHour: 10, Reason: "Maintenance"})
	svc := newTestReservationService(t, store, nil)

	admission, err := svc.CreateReservation(context.Background(), request("user-1", "2024-06-10", 9, 11))
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if admission.Outcome != OutcomeBlocked || admission.Reason != "Maintenance" {
		t.Fatalf("expected blocked with rule reason, got %s %q", admission.Outcome, admission.Reason)
	}

	mustAdmit(t, svc, request("user-1", "2024-06-10", 10, 12))
	mustAdmit(t, svc, request("user-2", "2024-06-11", 8, 10))
}

func TestReservationService_CreateReservation_WeekdayBlackout(t *testing.T) {
	t.Parallel()

	store := memory.New()
	mustCreateRule(t, store, persistence.BlackoutRule{ID: "rule-1", DayOfWeek: intp(1), StartHour: 14, EndHour: 16})
	svc := newTestReservationService(t, store, nil)

	for _, monday := range []string{"2024-06-10", "2024-06-17", "2025-01-06"} {
		admission, err := svc.CreateReservation(context.Background(), request("user-1", monday, 15, 16))
		if err != nil {
			t.Fatalf("CreateReservation returned error: %v", err)
		}
		if admission.Outcome != OutcomeBlocked {
			t.Fatalf("expected %s to be blocked, got %s", monday, admission.Outcome)
		}
		if admission.Reason != "Time slot unavailable" {
			t.Fatalf("expected default blocked reason, got %q", admission.Reason)
		}
	}

	mustAdmit(t, svc, request("user-1", "2024-06-11", 15, 16))
}

func TestReservationService_CreateReservation_GlobalBlackout(t *testing.T) {
	t.Parallel()

	store := memory.New()
	mustCreateRule(t, store, persistence.BlackoutRule{ID: "rule-1", StartHour: 0, EndHour: 8, Reason: "Closed"})
	mustCreateRule(t, store, persistence.BlackoutRule{ID: "rule-2", CampusID: 2, StartHour: 8, EndHour: 24, Reason: "Other campus"})
	svc := newTestReservationService(t, store, nil)

	admission, err := svc.CreateReservation(context.Background(), request("user-1", "2024-06-12", 7, 9))
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if admission.Outcome != OutcomeBlocked || admission.Reason != "Closed" {
		t.Fatalf("expected global rule to block, got %s %q", admission.Outcome, admission.Reason)
	}
	mustAdmit(t, svc, request("user-1", "2024-06-12", 8, 9))
}

func TestReservationService_CreateReservation_Conflicts(t *testing.T) {
	t.Parallel()

	svc := newTestReservationService(t, memory.New(), nil)
	mustAdmit(t, svc, request("user-1", "2024-06-10", 9, 11))

	admission, err := svc.CreateReservation(context.Background(), request("user-2", "2024-06-10", 10, 12))
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if admission.Outcome != OutcomeConflicted || admission.Reason != ReasonSlotReserved {
		t.Fatalf("expected conflict, got %s %q", admission.Outcome, admission.Reason)
	}

	mustAdmit(t, svc, request("user-2", "2024-06-10", 11, 12))
	mustAdmit(t, svc, request("user-2", "2024-06-10", 8, 9))

	other := request("user-2", "2024-06-10", 9, 11)
	other.Input.CampusID = 2
	mustAdmit(t, svc, other)
}

func TestReservationService_CreateReservation_CheckOrder(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc := newTestReservationService(t, store, nil)
	mustAdmit(t, svc, request("user-1", "2024-06-10", 9, 15))
	date := calendar.MustParseDate("2024-06-10")
	mustCreateRule(t, store, persistence.BlackoutRule{ID: "rule-1", Date: &date, StartHour: 9, EndHour: 10, Reason: "Inspection"})

	cases := []struct {
		name    string
		params  CreateReservationParams
		outcome Outcome
	}{
		{name: "validation before blackout", params: request("user-2", "2024-06-10", 10, 9), outcome: OutcomeInvalid},
		{name: "blackout before overlap", params: request("user-2", "2024-06-10", 9, 10), outcome: OutcomeBlocked},
		{name: "overlap before quota", params: request("user-1", "2024-06-10", 14, 16), outcome: OutcomeConflicted},
		{name: "quota", params: request("user-1", "2024-06-10", 15, 16), outcome: OutcomeQuotaExceeded},
	}
	for _, tc := range cases {
		admission, err := svc.CreateReservation(context.Background(), tc.params)
		if err != nil {
			t.Fatalf("%s: CreateReservation returned error: %v", tc.name, err)
		}
		if admission.Outcome != tc.outcome {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.outcome, admission.Outcome)
		}
		if tc.outcome == OutcomeInvalid && admission.Reason != "end_hour must be after start_hour" {
			t.Fatalf("%s: unexpected reason %q", tc.name, admission.Reason)
		}
	}
}

func TestReservationService_CreateReservation_WeeklyQuota(t *testing.T) {
	t.Parallel()

	svc := newTestReservationService(t, memory.New(), nil)
	mustAdmit(t, svc, request("user-1", "2024-06-10", 8, 11))
	mustAdmit(t, svc, request("user-1", "2024-06-12", 8, 10))

	admission, err := svc.CreateReservation(context.Background(), request("user-1", "2024-06-14", 8, 10))
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if admission.Outcome != OutcomeQuotaExceeded {
		t.Fatalf("expected quota rejection, got %s", admission.Outcome)
	}
	if want := "Weekly limit exceeded. Used: 5, New: 2, Limit: 6"; admission.Reason != want {
		t.Fatalf("expected reason %q, got %q", want, admission.Reason)
	}
	if admission.Quota == nil || admission.Quota.Used != 5 || admission.Quota.Requested != 2 {
		t.Fatalf("unexpected quota usage: %+v", admission.Quota)
	}

	mustAdmit(t, svc, request("user-1", "2024-06-14", 8, 9))

	admission, err = svc.CreateReservation(context.Background(), request("user-1", "2024-06-15", 8, 9))
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if admission.Outcome != OutcomeQuotaExceeded {
		t.Fatalf("expected quota rejection once the cap is reached, got %s", admission.Outcome)
	}

	mustAdmit(t, svc, request("user-2", "2024-06-15", 8, 14))
}

func TestReservationService_CreateReservation_WeekBoundaries(t *testing.T) {
	t.Parallel()

	svc := newTestReservationService(t, memory.New(), nil)
	// 2024-06-16 is a Sunday and closes the week starting 2024-06-10.
	mustAdmit(t, svc, request("user-1", "2024-06-16", 8, 13))

	saturday, err := svc.CreateReservation(context.Background(), request("user-1", "2024-06-15", 8, 10))
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if saturday.Outcome != OutcomeQuotaExceeded || saturday.Quota.Used != 5 {
		t.Fatalf("expected Saturday to share the week with Sunday, got %s %+v", saturday.Outcome, saturday.Quota)
	}

	mustAdmit(t, svc, request("user-1", "2024-06-17", 8, 14))

	lastMonday, err := svc.CreateReservation(context.Background(), request("user-1", "2024-06-10", 8, 10))
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if lastMonday.Outcome != OutcomeQuotaExceeded {
		t.Fatalf("expected the Monday opening the Sunday's week to count it, got %s", lastMonday.Outcome)
	}
	if !lastMonday.Quota.WeekEnd.Equal(calendar.MustParseDate("2024-06-16")) {
		t.Fatalf("expected week to end on Sunday, got %v", lastMonday.Quota.WeekEnd)
	}
}

func TestReservationService_CancelFreesSlotAndQuota(t *testing.T) {
	t.Parallel()

	svc := newTestReservationService(t, memory.New(), nil)
	first := mustAdmit(t, svc, request("user-1", "2024-06-10", 9, 10))
	mustAdmit(t, svc, request("user-1", "2024-06-11", 9, 14))

	cancelled, err := svc.CancelReservation(context.Background(), "user-1", first.ID)
	if err != nil {
		t.Fatalf("CancelReservation returned error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}

	again, err := svc.CancelReservation(context.Background(), "user-1", first.ID)
	if err != nil {
		t.Fatalf("repeated CancelReservation returned error: %v", err)
	}
	if again.Status != StatusCancelled {
		t.Fatalf("expected repeated cancel to keep status, got %s", again.Status)
	}

	mustAdmit(t, svc, request("user-2", "2024-06-10", 9, 10))
	mustAdmit(t, svc, request("user-1", "2024-06-12", 9, 10))
}

func TestReservationService_CancelReservation_Errors(t *testing.T) {
	t.Parallel()

	svc := newTestReservationService(t, memory.New(), nil)
	reservation := mustAdmit(t, svc, request("user-1", "2024-06-10", 9, 10))

	if _, err := svc.CancelReservation(context.Background(), "user-2", reservation.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.CancelReservation(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReservationService_RejectionIsIdempotent(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc := newTestReservationService(t, store, nil)
	mustAdmit(t, svc, request("user-1", "2024-06-10", 9, 11))

	var reasons []string
	for i := 0; i < 3; i++ {
		admission, err := svc.CreateReservation(context.Background(), request("user-2", "2024-06-10", 10, 11))
		if err != nil {
			t.Fatalf("CreateReservation returned error: %v", err)
		}
		reasons = append(reasons, admission.Reason)
	}
	for _, reason := range reasons {
		if reason != ReasonSlotReserved {
			t.Fatalf("expected stable rejection reason, got %v", reasons)
		}
	}

	_, total, err := store.ListReservations(context.Background(), persistence.ReservationFilter{})
	if err != nil {
		t.Fatalf("ListReservations returned error: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected one stored reservation, got %d", total)
	}
}

func TestReservationService_CreateReservation_PersistenceFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk gone")

	rulesFail := newTestReservationService(t, &failingStore{Store: memory.New(), rulesErr: boom}, nil)
	if _, err := rulesFail.CreateReservation(context.Background(), request("user-1", "2024-06-10", 9, 10)); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence from rule lookup, got %v", err)
	}

	insertFail := newTestReservationService(t, &failingStore{Store: memory.New(), insertErr: boom}, nil)
	if _, err := insertFail.CreateReservation(context.Background(), request("user-1", "2024-06-10", 9, 10)); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence from insert, got %v", err)
	}

	lateConflict := newTestReservationService(t, &failingStore{Store: memory.New(), insertErr: persistence.ErrOverlap}, nil)
	admission, err := lateConflict.CreateReservation(context.Background(), request("user-1", "2024-06-10", 9, 10))
	if err != nil {
		t.Fatalf("expected storage overlap to map to a rejection, got %v", err)
	}
	if admission.Outcome != OutcomeConflicted {
		t.Fatalf("expected conflicted outcome, got %s", admission.Outcome)
	}
}

func openSQLiteStore(t *testing.T) *sqlite.Store {
	t.Helper()
	cfg := migration.TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "reservations.db"))
	store, err := sqlite.Open(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestReservationService_ConcurrentOverlapsAdmitOne(t *testing.T) {
	t.Parallel()

	stores := map[string]func(t *testing.T) ReservationStore{
		"memory": func(*testing.T) ReservationStore { return memory.New() },
		"sqlite": func(t *testing.T) ReservationStore { return openSQLiteStore(t) },
	}
	lockers := map[string]lock.Locker{
		"local":   lock.NewLocal(),
		"no lock": noopLocker{},
	}

	for storeName, open := range stores {
		for lockerName, locker := range lockers {
			storeName, open, lockerName, locker := storeName, open, lockerName, locker
			t.Run(storeName+"/"+lockerName, func(t *testing.T) {
				t.Parallel()

				store := open(t)
				svc := newTestReservationService(t, store, locker)

				const callers = 12
				var accepted atomic.Int32
				var group errgroup.Group
				for i := 0; i < callers; i++ {
					i := i
					group.Go(func() error {
						start := 9 + i%3
						admission, err := svc.CreateReservation(context.Background(), request(fmt.Sprintf("user-%d", i), "2024-06-10", start, start+2))
						if err != nil {
							return err
						}
						switch admission.Outcome {
						case OutcomeAccepted:
							accepted.Add(1)
						case OutcomeConflicted:
						default:
							return fmt.Errorf("unexpected outcome %s", admission.Outcome)
						}
						return nil
					})
				}
				if err := group.Wait(); err != nil {
					t.Fatalf("concurrent CreateReservation failed: %v", err)
				}

				active, _, err := store.ListReservations(context.Background(), persistence.ReservationFilter{
					CampusID: 1,
					Status:   persistence.StatusActive,
					Order:    persistence.OrderSlotAsc,
				})
				if err != nil {
					t.Fatalf("ListReservations returned error: %v", err)
				}
				if int(accepted.Load()) != len(active) {
					t.Fatalf("accepted %d but stored %d", accepted.Load(), len(active))
				}
				for i := 1; i < len(active); i++ {
					if active[i-1].EndHour > active[i].StartHour {
						t.Fatalf("overlapping active reservations stored: %+v and %+v", active[i-1], active[i])
					}
				}
			})
		}
	}
}

func TestReservationService_ConcurrentQuotaNeverExceeded(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc := newTestReservationService(t, store, lock.NewLocal())

	var (
		mu       sync.Mutex
		outcomes = map[Outcome]int{}
	)
	var group errgroup.Group
	for i := 0; i < 6; i++ {
		i := i
		group.Go(func() error {
			admission, err := svc.CreateReservation(context.Background(), request("user-1", "2024-06-10", 8+2*i, 10+2*i))
			if err != nil {
				return err
			}
			mu.Lock()
			outcomes[admission.Outcome]++
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatalf("concurrent CreateReservation failed: %v", err)
	}
	if outcomes[OutcomeAccepted] != 3 || outcomes[OutcomeQuotaExceeded] != 3 {
		t.Fatalf("expected three accepted and three quota rejections, got %v", outcomes)
	}

	used, err := NewQuotaAccountant(store).WeeklyHoursUsed(context.Background(), "user-1", calendar.MustParseDate("2024-06-13"))
	if err != nil {
		t.Fatalf("WeeklyHoursUsed returned error: %v", err)
	}
	if used != 6 {
		t.Fatalf("expected 6 hours used, got %d", used)
	}
}

func TestReservationService_Listings(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc := newTestReservationService(t, store, nil)
	a := mustAdmit(t, svc, request("user-1", "2024-06-10", 13, 14))
	b := mustAdmit(t, svc, request("user-1", "2024-06-10", 9, 10))
	c := mustAdmit(t, svc, request("user-1", "2024-06-11", 9, 10))
	d := mustAdmit(t, svc, request("user-2", "2024-06-10", 10, 11))
	if _, err := svc.CancelReservation(context.Background(), "user-1", c.ID); err != nil {
		t.Fatalf("CancelReservation returned error: %v", err)
	}

	t.Run("mine", func(t *testing.T) {
		mine, err := svc.ListMyReservations(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("ListMyReservations returned error: %v", err)
		}
		if len(mine) != 2 || mine[0].ID != a.ID || mine[1].ID != b.ID {
			t.Fatalf("unexpected own reservations: %+v", mine)
		}
	})

	t.Run("by date", func(t *testing.T) {
		day, err := svc.ListReservationsByDate(context.Background(), 1, "2024-06-10")
		if err != nil {
			t.Fatalf("ListReservationsByDate returned error: %v", err)
		}
		want := []string{b.ID, d.ID, a.ID}
		if len(day) != len(want) {
			t.Fatalf("expected %d reservations, got %+v", len(want), day)
		}
		for i, id := range want {
			if day[i].ID != id {
				t.Fatalf("position %d: expected %s, got %s", i, id, day[i].ID)
			}
		}

		var vErr *ValidationError
		if _, err := svc.ListReservationsByDate(context.Background(), 0, "06/10"); !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(vErr.FieldErrors) != 2 {
			t.Fatalf("expected campus and date errors, got %v", vErr.FieldErrors)
		}
	})

	t.Run("history", func(t *testing.T) {
		page, err := svc.ListHistory(context.Background(), HistoryParams{CampusID: 1, PageSize: 500})
		if err != nil {
			t.Fatalf("ListHistory returned error: %v", err)
		}
		if page.Total != 4 || len(page.Reservations) != 4 {
			t.Fatalf("expected all four reservations, got total %d len %d", page.Total, len(page.Reservations))
		}
		if page.Page != 1 || page.PageSize != MaxHistoryPageSize {
			t.Fatalf("expected clamped paging, got page %d size %d", page.Page, page.PageSize)
		}

		second, err := svc.ListHistory(context.Background(), HistoryParams{Page: 2, PageSize: 3, StartDate: "2024-06-10", EndDate: "2024-06-11"})
		if err != nil {
			t.Fatalf("ListHistory returned error: %v", err)
		}
		if second.Total != 4 || len(second.Reservations) != 1 {
			t.Fatalf("expected one reservation on page two, got total %d len %d", second.Total, len(second.Reservations))
		}

		var vErr *ValidationError
		if _, err := svc.ListHistory(context.Background(), HistoryParams{StartDate: "2024-06-12", EndDate: "2024-06-10"}); !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError for inverted range, got %v", err)
		}
	})
}

func TestReservationService_WeeklyView(t *testing.T) {
	t.Parallel()

	store := memory.New()
	date := calendar.MustParseDate("2024-06-12")
	mustCreateRule(t, store, persistence.BlackoutRule{ID: "rule-date", Date: &date, StartHour: 8, EndHour: 10, Reason: "Exam"})
	mustCreateRule(t, store, persistence.BlackoutRule{ID: "rule-weekday", DayOfWeek: intp(0), StartHour: 0, EndHour: 24, Reason: "Closed"})
	svc := newTestReservationService(t, store, nil)
	inWeek := mustAdmit(t, svc, request("user-1", "2024-06-14", 9, 10))
	mustAdmit(t, svc, request("user-1", "2024-06-17", 9, 10))

	view, err := svc.WeeklyView(context.Background(), 1, "2024-06-16")
	if err != nil {
		t.Fatalf("WeeklyView returned error: %v", err)
	}
	if calendar.FormatDate(view.WeekStart) != "2024-06-10" || calendar.FormatDate(view.WeekEnd) != "2024-06-16" {
		t.Fatalf("unexpected week bounds %v - %v", view.WeekStart, view.WeekEnd)
	}
	if len(view.Reservations) != 1 || view.Reservations[0].ID != inWeek.ID {
		t.Fatalf("unexpected reservations in view: %+v", view.Reservations)
	}
	if len(view.Blackouts) != 2 {
		t.Fatalf("expected two blackout occurrences, got %+v", view.Blackouts)
	}
	if view.Blackouts[0].RuleID != "rule-date" || view.Blackouts[1].RuleID != "rule-weekday" {
		t.Fatalf("unexpected blackout order: %+v", view.Blackouts)
	}
	if calendar.FormatDate(view.Blackouts[1].Date) != "2024-06-16" {
		t.Fatalf("expected Sunday occurrence, got %v", view.Blackouts[1].Date)
	}
}

func TestReservationService_KeyCustody(t *testing.T) {
	t.Parallel()

	svc := newTestReservationService(t, memory.New(), nil)
	reservation := mustAdmit(t, svc, request("user-1", "2024-06-10", 9, 10))
	ctx := context.Background()

	if _, err := svc.ReturnKey(ctx, "user-1", reservation.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState returning before pickup, got %v", err)
	}
	if _, err := svc.PickUpKey(ctx, "user-2", reservation.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for other user, got %v", err)
	}

	picked, err := svc.PickUpKey(ctx, "user-1", reservation.ID)
	if err != nil {
		t.Fatalf("PickUpKey returned error: %v", err)
	}
	if !picked.KeyPickedUp || picked.KeyPickupTime == nil {
		t.Fatalf("expected pickup recorded, got %+v", picked)
	}
	if _, err := svc.PickUpKey(ctx, "user-1", reservation.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second pickup, got %v", err)
	}

	pickups, err := svc.ListKeyPickups(ctx, 1)
	if err != nil {
		t.Fatalf("ListKeyPickups returned error: %v", err)
	}
	if len(pickups) != 1 || pickups[0].ID != reservation.ID {
		t.Fatalf("unexpected key pickups: %+v", pickups)
	}

	returned, err := svc.ReturnKey(ctx, "user-1", reservation.ID)
	if err != nil {
		t.Fatalf("ReturnKey returned error: %v", err)
	}
	if !returned.KeyReturned || returned.KeyReturnTime == nil {
		t.Fatalf("expected return recorded, got %+v", returned)
	}
	if _, err := svc.ReturnKey(ctx, "user-1", reservation.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second return, got %v", err)
	}

	other := mustAdmit(t, svc, request("user-1", "2024-06-11", 9, 10))
	if _, err := svc.CancelReservation(ctx, "user-1", other.ID); err != nil {
		t.Fatalf("CancelReservation returned error: %v", err)
	}
	if _, err := svc.PickUpKey(ctx, "user-1", other.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for cancelled reservation, got %v", err)
	}
}
