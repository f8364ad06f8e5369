package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/campus-reservation/internal/persistence/memory"
)

func TestServiceFactoryNewReservationService(t *testing.T) {
	factory := NewServiceFactory()
	store := memory.New()

	svc := factory.NewReservationService(store, nil)
	fixture := NewReservationFixture(WithReservationUser("user-1"), WithReservationHours(10, 12))

	admission, err := svc.CreateReservation(context.Background(), fixture.Input())
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if !admission.Accepted() {
		t.Fatalf("expected accepted admission, got %s (%s)", admission.Outcome, admission.Reason)
	}
	if admission.Reservation.ID != "id-1" || factory.IDGenerator.Issued() != 1 {
		t.Fatalf("expected generated ID id-1, got %q", admission.Reservation.ID)
	}
	if !admission.Reservation.CreatedAt.Equal(ReferenceTime()) {
		t.Fatalf("expected timestamp %v, got %v", ReferenceTime(), admission.Reservation.CreatedAt)
	}
	if _, err := store.GetReservation(context.Background(), "id-1"); err != nil {
		t.Fatalf("reservation not persisted: %v", err)
	}
}

func TestServiceFactorySharesClockAndSequence(t *testing.T) {
	clock := NewSteppingClock(time.Time{}, time.Minute)
	factory := NewServiceFactory(WithClock(clock), WithIDGenerator(NewIDGenerator("obj")))
	store := memory.New()

	rule, err := factory.NewBlackoutService(store).CreateBlackoutRule(context.Background(), NewBlackoutRuleFixture(WithRuleWeekday(3)).Input())
	if err != nil {
		t.Fatalf("CreateBlackoutRule returned error: %v", err)
	}
	manager, err := factory.NewKeyManagerService(store).CreateKeyManager(context.Background(), NewKeyManagerFixture().Input())
	if err != nil {
		t.Fatalf("CreateKeyManager returned error: %v", err)
	}

	if rule.ID != "obj-1" || manager.ID != "obj-2" {
		t.Fatalf("expected one shared sequence, got %q and %q", rule.ID, manager.ID)
	}
	if !manager.CreatedAt.After(rule.CreatedAt) {
		t.Fatalf("expected stepped timestamps, got %v then %v", rule.CreatedAt, manager.CreatedAt)
	}
	if manager.CampusName != "学院路校区" {
		t.Fatalf("expected campus name, got %q", manager.CampusName)
	}

	campuses, err := factory.NewCampusService(store, time.Minute).ListCampuses(context.Background())
	if err != nil || len(campuses) != 2 {
		t.Fatalf("ListCampuses returned %v, %v", campuses, err)
	}
}
