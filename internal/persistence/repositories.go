package persistence

import (
	"context"
	"time"
)

// CampusRepository reads campus reference data.
type CampusRepository interface {
	ListCampuses(ctx context.Context) ([]Campus, error)
	GetCampus(ctx context.Context, id int64) (Campus, error)
}

// BlackoutRuleRepository stores admin-defined unavailability rules.
type BlackoutRuleRepository interface {
	CreateBlackoutRule(ctx context.Context, rule BlackoutRule) error
	GetBlackoutRule(ctx context.Context, id string) (BlackoutRule, error)
	// ListBlackoutRules returns the rules of one campus, or of every campus when
	// campusID is zero, ordered by date desc (nulls last), day of week, start hour.
	ListBlackoutRules(ctx context.Context, campusID int64) ([]BlackoutRule, error)
	DeleteBlackoutRule(ctx context.Context, id string) error
}

// ReservationFilter narrows reservation listings. Zero values are ignored.
type ReservationFilter struct {
	CampusID    int64
	UserID      string
	DateFrom    *time.Time
	DateTo      *time.Time
	Status      ReservationStatus
	KeyPickedUp *bool
	Order       ReservationOrder
	Limit       int
	Offset      int
}

// ReservationOrder selects the sort applied by ListReservations.
type ReservationOrder int

const (
	// OrderCreatedDesc sorts newest first.
	OrderCreatedDesc ReservationOrder = iota
	// OrderSlotAsc sorts by date then start hour.
	OrderSlotAsc
	// OrderSlotDesc sorts by date desc then start hour desc.
	OrderSlotDesc
	// OrderPickupDesc sorts by key pickup time, latest first.
	OrderPickupDesc
)

// ReservationRepository stores reservations. InsertReservation must reject,
// atomically with the write, a reservation whose hours overlap an active
// reservation on the same campus and date by returning ErrOverlap.
type ReservationRepository interface {
	InsertReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	CountOverlappingActiveReservations(ctx context.Context, campusID int64, date time.Time, startHour, endHour int) (int, error)
	// ListActiveReservationsForUser returns active reservations dated within
	// [from, to] inclusive.
	ListActiveReservationsForUser(ctx context.Context, userID string, from, to time.Time) ([]Reservation, error)
	// ListReservations returns one page of matches and the total match count.
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, int, error)
	UpdateReservationStatus(ctx context.Context, id string, status ReservationStatus, updatedAt time.Time) error
	UpdateKeyCustody(ctx context.Context, reservation Reservation) error
}

// KeyManagerFilter narrows key manager listings. A zero CampusID matches every
// campus.
type KeyManagerFilter struct {
	CampusID        int64
	IncludeInactive bool
}

// KeyManagerRepository stores the key holders of each campus.
type KeyManagerRepository interface {
	CreateKeyManager(ctx context.Context, manager KeyManager) error
	GetKeyManager(ctx context.Context, id string) (KeyManager, error)
	// ListKeyManagers returns matches ordered by campus, name and id.
	ListKeyManagers(ctx context.Context, filter KeyManagerFilter) ([]KeyManager, error)
	// UpdateKeyManager overwrites name, contact, active flag and updated_at.
	UpdateKeyManager(ctx context.Context, manager KeyManager) error
	DeleteKeyManager(ctx context.Context, id string) error
}
