// Package memory provides an in-process implementation of the persistence
// repositories. Every operation runs under one mutex, so the overlap check in
// InsertReservation is atomic with the write.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/campus-reservation/internal/calendar"
	"github.com/example/campus-reservation/internal/persistence"
	"github.com/example/campus-reservation/internal/scheduler"
)

// DefaultCampuses mirrors the rows seeded by the SQLite migrations.
func DefaultCampuses() []persistence.Campus {
	seeded := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return []persistence.Campus{
		{ID: 1, Name: "学院路校区", CreatedAt: seeded},
		{ID: 2, Name: "沙河校区", CreatedAt: seeded},
	}
}

// Store keeps campuses, blackout rules, reservations and key managers in maps.
type Store struct {
	mu           sync.RWMutex
	campuses     map[int64]persistence.Campus
	rules        map[string]persistence.BlackoutRule
	reservations map[string]persistence.Reservation
	keyManagers  map[string]persistence.KeyManager
}

// New returns a Store seeded with campuses. When none are supplied the
// DefaultCampuses are used.
func New(campuses ...persistence.Campus) *Store {
	if len(campuses) == 0 {
		campuses = DefaultCampuses()
	}
	s := &Store{
		campuses:     make(map[int64]persistence.Campus, len(campuses)),
		rules:        make(map[string]persistence.BlackoutRule),
		reservations: make(map[string]persistence.Reservation),
		keyManagers:  make(map[string]persistence.KeyManager),
	}
	for _, campus := range campuses {
		s.campuses[campus.ID] = campus
	}
	return s
}

// Close releases resources held by the store. No-op for the in-memory implementation.
func (s *Store) Close() error {
	return nil
}

// Ping reports store health. The in-memory store is always reachable.
func (s *Store) Ping(context.Context) error {
	return nil
}

// --- CampusRepository implementation ---

// ListCampuses returns all campuses ordered by ID.
func (s *Store) ListCampuses(ctx context.Context) ([]persistence.Campus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	campuses := make([]persistence.Campus, 0, len(s.campuses))
	for _, campus := range s.campuses {
		campuses = append(campuses, campus)
	}
	sort.Slice(campuses, func(i, j int) bool { return campuses[i].ID < campuses[j].ID })
	return campuses, nil
}

// GetCampus retrieves a campus by ID.
func (s *Store) GetCampus(ctx context.Context, id int64) (persistence.Campus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	campus, ok := s.campuses[id]
	if !ok {
		return persistence.Campus{}, persistence.ErrNotFound
	}
	return campus, nil
}

// --- BlackoutRuleRepository implementation ---

// CreateBlackoutRule stores a new rule.
func (s *Store) CreateBlackoutRule(ctx context.Context, rule persistence.BlackoutRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[rule.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.campuses[rule.CampusID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if rule.StartHour >= rule.EndHour || (rule.Date != nil && rule.DayOfWeek != nil) {
		return persistence.ErrConstraintViolation
	}

	s.rules[rule.ID] = cloneRule(rule)
	return nil
}

// GetBlackoutRule retrieves a rule by ID.
func (s *Store) GetBlackoutRule(ctx context.Context, id string) (persistence.BlackoutRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[id]
	if !ok {
		return persistence.BlackoutRule{}, persistence.ErrNotFound
	}
	return cloneRule(rule), nil
}

// ListBlackoutRules returns the rules of a campus, or of all campuses for zero.
func (s *Store) ListBlackoutRules(ctx context.Context, campusID int64) ([]persistence.BlackoutRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]persistence.BlackoutRule, 0)
	for _, rule := range s.rules {
		if campusID != 0 && rule.CampusID != campusID {
			continue
		}
		rules = append(rules, cloneRule(rule))
	}
	sort.Slice(rules, func(i, j int) bool { return lessRule(rules[i], rules[j]) })
	return rules, nil
}

// DeleteBlackoutRule removes a rule by ID.
func (s *Store) DeleteBlackoutRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.rules, id)
	return nil
}

// --- ReservationRepository implementation ---

// InsertReservation stores a reservation unless it overlaps an active one.
func (s *Store) InsertReservation(ctx context.Context, reservation persistence.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[reservation.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.campuses[reservation.CampusID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if reservation.StartHour >= reservation.EndHour {
		return persistence.ErrConstraintViolation
	}
	if reservation.Status == "" {
		reservation.Status = persistence.StatusActive
	}

	if reservation.Status == persistence.StatusActive {
		if len(scheduler.DetectConflicts(s.activeSlotsLocked(reservation.CampusID, reservation.Date), toSlot(reservation))) > 0 {
			return persistence.ErrOverlap
		}
	}

	reservation.Date = calendar.DateOf(reservation.Date)
	s.reservations[reservation.ID] = cloneReservation(reservation)
	return nil
}

// GetReservation retrieves a reservation by ID.
func (s *Store) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, ok := s.reservations[id]
	if !ok {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return cloneReservation(reservation), nil
}

// CountOverlappingActiveReservations counts active reservations on the campus
// and date whose hours overlap [startHour, endHour).
func (s *Store) CountOverlappingActiveReservations(ctx context.Context, campusID int64, date time.Time, startHour, endHour int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidate := scheduler.Slot{CampusID: campusID, Date: date, Interval: scheduler.Interval{Start: startHour, End: endHour}}
	return len(scheduler.DetectConflicts(s.activeSlotsLocked(campusID, date), candidate)), nil
}

// ListActiveReservationsForUser returns the user's active reservations dated
// within [from, to].
func (s *Store) ListActiveReservationsForUser(ctx context.Context, userID string, from, to time.Time) ([]persistence.Reservation, error) {
	reservations, _, err := s.ListReservations(ctx, persistence.ReservationFilter{
		UserID:   userID,
		DateFrom: &from,
		DateTo:   &to,
		Status:   persistence.StatusActive,
		Order:    persistence.OrderSlotAsc,
	})
	return reservations, err
}

// ListReservations returns one page of reservations matching filter and the
// total number of matches.
func (s *Store) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]persistence.Reservation, 0)
	for _, reservation := range s.reservations {
		if matchesFilter(reservation, filter) {
			matches = append(matches, cloneReservation(reservation))
		}
	}
	sortReservations(matches, filter.Order)

	total := len(matches)
	if filter.Offset > 0 {
		if filter.Offset >= len(matches) {
			return []persistence.Reservation{}, total, nil
		}
		matches = matches[filter.Offset:]
	}
	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}
	return matches, total, nil
}

// UpdateReservationStatus sets the status of a reservation.
func (s *Store) UpdateReservationStatus(ctx context.Context, id string, status persistence.ReservationStatus, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if status == persistence.StatusActive && reservation.Status != persistence.StatusActive {
		if len(scheduler.DetectConflicts(s.activeSlotsLocked(reservation.CampusID, reservation.Date), toSlot(reservation))) > 0 {
			return persistence.ErrOverlap
		}
	}
	reservation.Status = status
	reservation.UpdatedAt = updatedAt
	s.reservations[id] = reservation
	return nil
}

// UpdateKeyCustody persists the key pickup and return fields of a reservation.
func (s *Store) UpdateKeyCustody(ctx context.Context, update persistence.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[update.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	reservation.KeyPickedUp = update.KeyPickedUp
	reservation.KeyPickupTime = cloneTime(update.KeyPickupTime)
	reservation.KeyReturned = update.KeyReturned
	reservation.KeyReturnTime = cloneTime(update.KeyReturnTime)
	reservation.UpdatedAt = update.UpdatedAt
	s.reservations[update.ID] = reservation
	return nil
}

// --- KeyManagerRepository implementation ---

// CreateKeyManager stores a new key manager.
func (s *Store) CreateKeyManager(ctx context.Context, manager persistence.KeyManager) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if manager.ID == "" || strings.TrimSpace(manager.Name) == "" || strings.TrimSpace(manager.Contact) == "" {
		return persistence.ErrConstraintViolation
	}
	if _, ok := s.keyManagers[manager.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.campuses[manager.CampusID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	manager.CampusName = ""
	s.keyManagers[manager.ID] = manager
	return nil
}

// GetKeyManager retrieves a key manager by ID.
func (s *Store) GetKeyManager(ctx context.Context, id string) (persistence.KeyManager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	manager, ok := s.keyManagers[id]
	if !ok {
		return persistence.KeyManager{}, persistence.ErrNotFound
	}
	return s.withCampusNameLocked(manager), nil
}

// ListKeyManagers returns the key managers matching filter ordered by campus,
// name and ID.
func (s *Store) ListKeyManagers(ctx context.Context, filter persistence.KeyManagerFilter) ([]persistence.KeyManager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	managers := make([]persistence.KeyManager, 0)
	for _, manager := range s.keyManagers {
		if filter.CampusID != 0 && manager.CampusID != filter.CampusID {
			continue
		}
		if !filter.IncludeInactive && !manager.Active {
			continue
		}
		managers = append(managers, s.withCampusNameLocked(manager))
	}
	sort.Slice(managers, func(i, j int) bool {
		a, b := managers[i], managers[j]
		if a.CampusID != b.CampusID {
			return a.CampusID < b.CampusID
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return managers, nil
}

// UpdateKeyManager overwrites the mutable fields of a key manager.
func (s *Store) UpdateKeyManager(ctx context.Context, update persistence.KeyManager) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	manager, ok := s.keyManagers[update.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if strings.TrimSpace(update.Name) == "" || strings.TrimSpace(update.Contact) == "" {
		return persistence.ErrConstraintViolation
	}
	manager.Name = update.Name
	manager.Contact = update.Contact
	manager.Active = update.Active
	manager.UpdatedAt = update.UpdatedAt
	s.keyManagers[update.ID] = manager
	return nil
}

// DeleteKeyManager removes a key manager by ID.
func (s *Store) DeleteKeyManager(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keyManagers[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.keyManagers, id)
	return nil
}

func (s *Store) withCampusNameLocked(manager persistence.KeyManager) persistence.KeyManager {
	manager.CampusName = s.campuses[manager.CampusID].Name
	return manager
}

func (s *Store) activeSlotsLocked(campusID int64, date time.Time) []scheduler.Slot {
	day := calendar.DateOf(date)
	slots := make([]scheduler.Slot, 0)
	for _, reservation := range s.reservations {
		if reservation.Status != persistence.StatusActive || reservation.CampusID != campusID {
			continue
		}
		if !reservation.Date.Equal(day) {
			continue
		}
		slots = append(slots, toSlot(reservation))
	}
	return slots
}

func toSlot(reservation persistence.Reservation) scheduler.Slot {
	return scheduler.Slot{
		ID:       reservation.ID,
		CampusID: reservation.CampusID,
		Date:     reservation.Date,
		Interval: scheduler.Interval{Start: reservation.StartHour, End: reservation.EndHour},
	}
}

func matchesFilter(reservation persistence.Reservation, filter persistence.ReservationFilter) bool {
	if filter.CampusID != 0 && reservation.CampusID != filter.CampusID {
		return false
	}
	if filter.UserID != "" && reservation.UserID != filter.UserID {
		return false
	}
	if filter.Status != "" && reservation.Status != filter.Status {
		return false
	}
	if filter.KeyPickedUp != nil && reservation.KeyPickedUp != *filter.KeyPickedUp {
		return false
	}
	if filter.DateFrom != nil && reservation.Date.Before(calendar.DateOf(*filter.DateFrom)) {
		return false
	}
	if filter.DateTo != nil && reservation.Date.After(calendar.DateOf(*filter.DateTo)) {
		return false
	}
	return true
}

func sortReservations(reservations []persistence.Reservation, order persistence.ReservationOrder) {
	sort.SliceStable(reservations, func(i, j int) bool {
		a, b := reservations[i], reservations[j]
		switch order {
		case persistence.OrderSlotAsc:
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			if a.StartHour != b.StartHour {
				return a.StartHour < b.StartHour
			}
		case persistence.OrderSlotDesc:
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
			if a.StartHour != b.StartHour {
				return a.StartHour > b.StartHour
			}
		case persistence.OrderPickupDesc:
			at, bt := timeOrZero(a.KeyPickupTime), timeOrZero(b.KeyPickupTime)
			if !at.Equal(bt) {
				return at.After(bt)
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

func lessRule(a, b persistence.BlackoutRule) bool {
	switch {
	case a.Date != nil && b.Date == nil:
		return true
	case a.Date == nil && b.Date != nil:
		return false
	case a.Date != nil && b.Date != nil && !a.Date.Equal(*b.Date):
		return a.Date.After(*b.Date)
	}
	ad, bd := weekdayOrMax(a.DayOfWeek), weekdayOrMax(b.DayOfWeek)
	if ad != bd {
		return ad < bd
	}
	if a.StartHour != b.StartHour {
		return a.StartHour < b.StartHour
	}
	return a.ID < b.ID
}

// weekdayOrMax sorts rules without a weekday after those with one, matching
// SQLite's NULLS LAST behaviour for the secondary key.
func weekdayOrMax(day *int) int {
	if day == nil {
		return 7
	}
	return *day
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}

func cloneRule(rule persistence.BlackoutRule) persistence.BlackoutRule {
	rule.Date = cloneTime(rule.Date)
	if rule.Date != nil {
		day := calendar.DateOf(*rule.Date)
		rule.Date = &day
	}
	rule.DayOfWeek = cloneInt(rule.DayOfWeek)
	return rule
}

func cloneReservation(reservation persistence.Reservation) persistence.Reservation {
	reservation.KeyPickupTime = cloneTime(reservation.KeyPickupTime)
	reservation.KeyReturnTime = cloneTime(reservation.KeyReturnTime)
	return reservation
}
