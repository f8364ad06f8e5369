package application

import (
	"time"

	"github.com/example/campus-reservation/internal/scheduler"
)

const (
	// DefaultStudentID is stored when a reservation carries no student ID.
	DefaultStudentID = "anonymous"
	// DefaultUserName is stored when a reservation carries no name.
	DefaultUserName = "Anonymous"
	// ReasonSlotReserved is the rejection reason for overlapping requests.
	ReasonSlotReserved = "Time slot already reserved"

	// KeyPickupListLimit caps the key pickup listing of a campus.
	KeyPickupListLimit = 50
	// DefaultHistoryPageSize is used when a history request names no page size.
	DefaultHistoryPageSize = 20
	// MaxHistoryPageSize caps the history page size.
	MaxHistoryPageSize = 100
)

// Campus is a site hosting one reservable space.
type Campus struct {
	ID   int64
	Name string
}

// BlackoutRule marks hours unavailable on a campus. DayOfWeek uses 0=Sunday.
type BlackoutRule struct {
	ID        string
	CampusID  int64
	Date      *time.Time
	DayOfWeek *int
	StartHour int
	EndHour   int
	Reason    string
	CreatedAt time.Time
}

// Mode reports whether the rule targets a date, a weekday or every day.
func (r BlackoutRule) Mode() scheduler.BlackoutMode {
	return toSchedulerRule(r).Mode()
}

// BlackoutRuleInput captures caller provided blackout rule fields.
type BlackoutRuleInput struct {
	CampusID  int64  `field:"campus_id" validate:"required,gt=0"`
	Date      string `field:"date" validate:"omitempty,civildate"`
	DayOfWeek *int   `field:"day_of_week" validate:"omitempty,min=0,max=6"`
	StartHour *int   `field:"start_hour" validate:"required,min=0,max=24"`
	EndHour   *int   `field:"end_hour" validate:"required,min=0,max=24"`
	Reason    string `field:"reason" validate:"max=200"`
}

// KeyManager is a contact who holds the key of a campus space.
type KeyManager struct {
	ID         string
	CampusID   int64
	CampusName string
	Name       string
	Contact    string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// KeyManagerInput captures the fields of a new key manager.
type KeyManagerInput struct {
	CampusID int64  `field:"campus_id" validate:"required,gt=0"`
	Name     string `field:"name" validate:"required,max=50"`
	Contact  string `field:"contact" validate:"required,max=100"`
}

// KeyManagerUpdate carries the fields to change on a key manager. Nil fields
// keep their stored value.
type KeyManagerUpdate struct {
	Name    *string `field:"name" validate:"omitempty,min=1,max=50"`
	Contact *string `field:"contact" validate:"omitempty,min=1,max=100"`
	Active  *bool   `field:"is_active"`
}

// KeyManagerQuery selects key managers. A zero CampusID lists every campus.
type KeyManagerQuery struct {
	CampusID        int64
	IncludeInactive bool
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	// StatusActive marks a reservation occupying its slot.
	StatusActive ReservationStatus = "active"
	// StatusCancelled marks a reservation released by its owner.
	StatusCancelled ReservationStatus = "cancelled"
)

// Reservation is a booked hour range on one campus and date.
type Reservation struct {
	ID            string
	CampusID      int64
	UserID        string
	StudentID     string
	UserName      string
	Contact       string
	Date          time.Time
	StartHour     int
	EndHour       int
	Status        ReservationStatus
	KeyPickedUp   bool
	KeyPickupTime *time.Time
	KeyReturned   bool
	KeyReturnTime *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Hours returns the reserved duration in hours.
func (r Reservation) Hours() int {
	return r.EndHour - r.StartHour
}

// ReservationInput captures caller provided reservation fields. Hours are
// pointers so that a missing value is distinguishable from hour zero.
type ReservationInput struct {
	CampusID  int64  `field:"campus_id" validate:"required,gt=0"`
	Date      string `field:"date" validate:"required,civildate"`
	StartHour *int   `field:"start_hour" validate:"required,min=0,max=24"`
	EndHour   *int   `field:"end_hour" validate:"required,min=0,max=24"`
	StudentID string `field:"student_id" validate:"max=64"`
	Name      string `field:"name" validate:"max=100"`
	Contact   string `field:"contact" validate:"max=100"`
}

// CreateReservationParams wraps the data required to request a reservation.
type CreateReservationParams struct {
	UserID string
	Input  ReservationInput
}

// Outcome tags the result of an admissibility decision.
type Outcome string

const (
	// OutcomeAccepted means the reservation was persisted.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeInvalid means the request failed validation.
	OutcomeInvalid Outcome = "invalid"
	// OutcomeBlocked means a blackout rule covers the requested hours.
	OutcomeBlocked Outcome = "blocked"
	// OutcomeConflicted means an active reservation overlaps the requested hours.
	OutcomeConflicted Outcome = "conflicted"
	// OutcomeQuotaExceeded means the user's weekly hours would pass the cap.
	OutcomeQuotaExceeded Outcome = "quota_exceeded"
)

// Admission is the result of CreateReservation. Exactly one of the payload
// fields is meaningful, selected by Outcome.
type Admission struct {
	Outcome     Outcome
	Reservation *Reservation
	Reason      string
	FieldErrors map[string]string
	Quota       *scheduler.QuotaUsage
}

// Accepted reports whether the reservation was persisted.
func (a Admission) Accepted() bool {
	return a.Outcome == OutcomeAccepted
}

// BlackoutOccurrence is a blackout rule resolved onto one date.
type BlackoutOccurrence struct {
	RuleID    string
	Mode      scheduler.BlackoutMode
	Date      time.Time
	StartHour int
	EndHour   int
	Reason    string
}

// WeeklyView is the availability of a campus for one Monday-to-Sunday week.
type WeeklyView struct {
	CampusID     int64
	WeekStart    time.Time
	WeekEnd      time.Time
	Reservations []Reservation
	Blackouts    []BlackoutOccurrence
}

// HistoryParams selects a page of the reservation history.
type HistoryParams struct {
	CampusID  int64
	StartDate string
	EndDate   string
	Page      int
	PageSize  int
}

// HistoryPage is one page of the reservation history.
type HistoryPage struct {
	Reservations []Reservation
	Total        int
	Page         int
	PageSize     int
}
