package persistence

import "time"

// Campus is a site hosting one reservable space.
type Campus struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// BlackoutRule marks an hour range unavailable on a campus. Date and DayOfWeek
// are mutually exclusive; both nil means the rule applies to every date.
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

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	// StatusActive marks a reservation that occupies its slot.
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

// KeyManager is a contact who holds the key of a campus space. CampusName is
// filled from the campus on reads and ignored on writes.
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
