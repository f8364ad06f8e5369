package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/campus-reservation/internal/application"
	"github.com/example/campus-reservation/internal/calendar"
	"github.com/example/campus-reservation/internal/persistence"
)

var (
	reservationCounter uint64
	ruleCounter        uint64
	managerCounter     uint64
)

// referenceTime falls on Monday 2024-06-10 so fixture dates start a quota week.
var referenceTime = time.Date(2024, time.June, 10, 8, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the calendar date of ReferenceTime.
func ReferenceDate() time.Time {
	return calendar.DateOf(referenceTime)
}

// -------------------------- Reservation fixtures --------------------------

// ReservationFixture represents a deterministic reservation record that can be
// materialised for application or persistence tests.
type ReservationFixture struct {
	ID            string
	CampusID      int64
	UserID        string
	StudentID     string
	UserName      string
	Contact       string
	Date          time.Time
	StartHour     int
	EndHour       int
	Status        persistence.ReservationStatus
	KeyPickedUp   bool
	KeyPickupTime *time.Time
	KeyReturned   bool
	KeyReturnTime *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns an active one hour reservation on campus 1 at
// 09:00 on ReferenceDate, with optional overrides.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ReservationFixture{
		ID:        fmt.Sprintf("reservation-%03d", idx),
		CampusID:  1,
		UserID:    fmt.Sprintf("user-%03d", idx),
		StudentID: application.DefaultStudentID,
		UserName:  application.DefaultUserName,
		Date:      ReferenceDate(),
		StartHour: 9,
		EndHour:   10,
		Status:    persistence.StatusActive,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithReservationCampus overrides the campus.
func WithReservationCampus(id int64) ReservationOption {
	return func(f *ReservationFixture) {
		f.CampusID = id
	}
}

// WithReservationUser overrides the owning user.
func WithReservationUser(userID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.UserID = userID
	}
}

// WithReservationDate sets the reservation date from a YYYY-MM-DD string.
func WithReservationDate(date string) ReservationOption {
	return func(f *ReservationFixture) {
		f.Date = calendar.MustParseDate(date)
	}
}

// WithReservationHours sets the reserved hour range.
func WithReservationHours(start, end int) ReservationOption {
	return func(f *ReservationFixture) {
		f.StartHour = start
		f.EndHour = end
	}
}

// WithReservationCancelled marks the fixture cancelled.
func WithReservationCancelled() ReservationOption {
	return func(f *ReservationFixture) {
		f.Status = persistence.StatusCancelled
	}
}

// WithReservationKeyPickup records a key pickup at t.
func WithReservationKeyPickup(t time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.KeyPickedUp = true
		f.KeyPickupTime = &t
	}
}

// WithReservationCreatedAt sets both created and updated timestamps.
func WithReservationCreatedAt(t time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.CreatedAt = t
		f.UpdatedAt = t
	}
}

// Persistence returns the fixture as a persistence.Reservation value.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:            f.ID,
		CampusID:      f.CampusID,
		UserID:        f.UserID,
		StudentID:     f.StudentID,
		UserName:      f.UserName,
		Contact:       f.Contact,
		Date:          f.Date,
		StartHour:     f.StartHour,
		EndHour:       f.EndHour,
		Status:        f.Status,
		KeyPickedUp:   f.KeyPickedUp,
		KeyPickupTime: cloneTime(f.KeyPickupTime),
		KeyReturned:   f.KeyReturned,
		KeyReturnTime: cloneTime(f.KeyReturnTime),
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Input returns the fixture as an application.CreateReservationParams value.
func (f ReservationFixture) Input() application.CreateReservationParams {
	start, end := f.StartHour, f.EndHour
	return application.CreateReservationParams{
		UserID: f.UserID,
		Input: application.ReservationInput{
			CampusID:  f.CampusID,
			Date:      calendar.FormatDate(f.Date),
			StartHour: &start,
			EndHour:   &end,
			StudentID: f.StudentID,
			Name:      f.UserName,
			Contact:   f.Contact,
		},
	}
}

// ------------------------- Blackout rule fixtures -------------------------

// BlackoutRuleFixture represents a deterministic blackout rule.
type BlackoutRuleFixture struct {
	ID        string
	CampusID  int64
	Date      *time.Time
	DayOfWeek *int
	StartHour int
	EndHour   int
	Reason    string
	CreatedAt time.Time
}

// BlackoutRuleOption configures the generated blackout rule fixture.
type BlackoutRuleOption func(*BlackoutRuleFixture)

// NewBlackoutRuleFixture returns a global rule for campus 1 covering 00:00 to
// 08:00, with optional overrides.
func NewBlackoutRuleFixture(opts ...BlackoutRuleOption) BlackoutRuleFixture {
	idx := atomic.AddUint64(&ruleCounter, 1)
	fixture := BlackoutRuleFixture{
		ID:        fmt.Sprintf("rule-%03d", idx),
		CampusID:  1,
		StartHour: 0,
		EndHour:   8,
		Reason:    fmt.Sprintf("Closed %03d", idx),
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRuleID overrides the generated rule ID.
func WithRuleID(id string) BlackoutRuleOption {
	return func(f *BlackoutRuleFixture) {
		f.ID = id
	}
}

// WithRuleCampus overrides the campus.
func WithRuleCampus(id int64) BlackoutRuleOption {
	return func(f *BlackoutRuleFixture) {
		f.CampusID = id
	}
}

// WithRuleDate scopes the rule to one YYYY-MM-DD date.
func WithRuleDate(date string) BlackoutRuleOption {
	return func(f *BlackoutRuleFixture) {
		d := calendar.MustParseDate(date)
		f.Date = &d
		f.DayOfWeek = nil
	}
}

// WithRuleWeekday scopes the rule to a weekday, 0 being Sunday.
func WithRuleWeekday(day int) BlackoutRuleOption {
	return func(f *BlackoutRuleFixture) {
		f.DayOfWeek = &day
		f.Date = nil
	}
}

// WithRuleHours sets the blocked hour range.
func WithRuleHours(start, end int) BlackoutRuleOption {
	return func(f *BlackoutRuleFixture) {
		f.StartHour = start
		f.EndHour = end
	}
}

// WithRuleReason overrides the reason.
func WithRuleReason(reason string) BlackoutRuleOption {
	return func(f *BlackoutRuleFixture) {
		f.Reason = reason
	}
}

// Persistence returns the fixture as a persistence.BlackoutRule value.
func (f BlackoutRuleFixture) Persistence() persistence.BlackoutRule {
	rule := persistence.BlackoutRule{
		ID:        f.ID,
		CampusID:  f.CampusID,
		Date:      cloneTime(f.Date),
		StartHour: f.StartHour,
		EndHour:   f.EndHour,
		Reason:    f.Reason,
		CreatedAt: f.CreatedAt,
	}
	if f.DayOfWeek != nil {
		day := *f.DayOfWeek
		rule.DayOfWeek = &day
	}
	return rule
}

// Input returns the fixture as an application.BlackoutRuleInput value.
func (f BlackoutRuleFixture) Input() application.BlackoutRuleInput {
	start, end := f.StartHour, f.EndHour
	input := application.BlackoutRuleInput{
		CampusID:  f.CampusID,
		StartHour: &start,
		EndHour:   &end,
		Reason:    f.Reason,
	}
	if f.Date != nil {
		input.Date = calendar.FormatDate(*f.Date)
	}
	if f.DayOfWeek != nil {
		day := *f.DayOfWeek
		input.DayOfWeek = &day
	}
	return input
}

// ------------------------- Key manager fixtures --------------------------

// KeyManagerFixture represents a deterministic key manager.
type KeyManagerFixture struct {
	ID        string
	CampusID  int64
	Name      string
	Contact   string
	Active    bool
	CreatedAt time.Time
}

// KeyManagerOption configures the generated key manager fixture.
type KeyManagerOption func(*KeyManagerFixture)

// NewKeyManagerFixture returns an active key manager of campus 1.
func NewKeyManagerFixture(opts ...KeyManagerOption) KeyManagerFixture {
	idx := atomic.AddUint64(&managerCounter, 1)
	fixture := KeyManagerFixture{
		ID:        fmt.Sprintf("manager-%03d", idx),
		CampusID:  1,
		Name:      fmt.Sprintf("Keeper %03d", idx),
		Contact:   fmt.Sprintf("1380000%04d", idx),
		Active:    true,
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithManagerCampus overrides the campus.
func WithManagerCampus(id int64) KeyManagerOption {
	return func(f *KeyManagerFixture) {
		f.CampusID = id
	}
}

// WithManagerName overrides the display name.
func WithManagerName(name string) KeyManagerOption {
	return func(f *KeyManagerFixture) {
		f.Name = name
	}
}

// WithManagerInactive marks the key manager as no longer on duty.
func WithManagerInactive() KeyManagerOption {
	return func(f *KeyManagerFixture) {
		f.Active = false
	}
}

// Persistence returns the fixture as a persistence.KeyManager value.
func (f KeyManagerFixture) Persistence() persistence.KeyManager {
	return persistence.KeyManager{
		ID:        f.ID,
		CampusID:  f.CampusID,
		Name:      f.Name,
		Contact:   f.Contact,
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

// Input returns the fixture as an application.KeyManagerInput value.
func (f KeyManagerFixture) Input() application.KeyManagerInput {
	return application.KeyManagerInput{CampusID: f.CampusID, Name: f.Name, Contact: f.Contact}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
