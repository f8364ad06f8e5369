package application

import (
	"errors"
	"fmt"

	"github.com/example/campus-reservation/internal/persistence"
	"github.com/example/campus-reservation/internal/scheduler"
)

func toReservation(model persistence.Reservation) Reservation {
	return Reservation{
		ID:            model.ID,
		CampusID:      model.CampusID,
		UserID:        model.UserID,
		StudentID:     model.StudentID,
		UserName:      model.UserName,
		Contact:       model.Contact,
		Date:          model.Date,
		StartHour:     model.StartHour,
		EndHour:       model.EndHour,
		Status:        ReservationStatus(model.Status),
		KeyPickedUp:   model.KeyPickedUp,
		KeyPickupTime: model.KeyPickupTime,
		KeyReturned:   model.KeyReturned,
		KeyReturnTime: model.KeyReturnTime,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func toReservations(models []persistence.Reservation) []Reservation {
	reservations := make([]Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, toReservation(model))
	}
	return reservations
}

func toPersistenceReservation(reservation Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:            reservation.ID,
		CampusID:      reservation.CampusID,
		UserID:        reservation.UserID,
		StudentID:     reservation.StudentID,
		UserName:      reservation.UserName,
		Contact:       reservation.Contact,
		Date:          reservation.Date,
		StartHour:     reservation.StartHour,
		EndHour:       reservation.EndHour,
		Status:        persistence.ReservationStatus(reservation.Status),
		KeyPickedUp:   reservation.KeyPickedUp,
		KeyPickupTime: reservation.KeyPickupTime,
		KeyReturned:   reservation.KeyReturned,
		KeyReturnTime: reservation.KeyReturnTime,
		CreatedAt:     reservation.CreatedAt,
		UpdatedAt:     reservation.UpdatedAt,
	}
}

func toBlackoutRule(model persistence.BlackoutRule) BlackoutRule {
	return BlackoutRule{
		ID:        model.ID,
		CampusID:  model.CampusID,
		Date:      model.Date,
		DayOfWeek: model.DayOfWeek,
		StartHour: model.StartHour,
		EndHour:   model.EndHour,
		Reason:    model.Reason,
		CreatedAt: model.CreatedAt,
	}
}

func toPersistenceBlackoutRule(rule BlackoutRule) persistence.BlackoutRule {
	return persistence.BlackoutRule{
		ID:        rule.ID,
		CampusID:  rule.CampusID,
		Date:      rule.Date,
		DayOfWeek: rule.DayOfWeek,
		StartHour: rule.StartHour,
		EndHour:   rule.EndHour,
		Reason:    rule.Reason,
		CreatedAt: rule.CreatedAt,
	}
}

func toSchedulerRule(rule BlackoutRule) scheduler.BlackoutRule {
	return scheduler.BlackoutRule{
		ID:       rule.ID,
		CampusID: rule.CampusID,
		Date:     rule.Date,
		Weekday:  rule.DayOfWeek,
		Interval: scheduler.Interval{Start: rule.StartHour, End: rule.EndHour},
		Reason:   rule.Reason,
	}
}

func toSchedulerRules(models []persistence.BlackoutRule) []scheduler.BlackoutRule {
	rules := make([]scheduler.BlackoutRule, 0, len(models))
	for _, model := range models {
		rules = append(rules, toSchedulerRule(toBlackoutRule(model)))
	}
	return rules
}

func toKeyManager(model persistence.KeyManager) KeyManager {
	return KeyManager{
		ID:         model.ID,
		CampusID:   model.CampusID,
		CampusName: model.CampusName,
		Name:       model.Name,
		Contact:    model.Contact,
		Active:     model.Active,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toPersistenceKeyManager(manager KeyManager) persistence.KeyManager {
	return persistence.KeyManager{
		ID:        manager.ID,
		CampusID:  manager.CampusID,
		Name:      manager.Name,
		Contact:   manager.Contact,
		Active:    manager.Active,
		CreatedAt: manager.CreatedAt,
		UpdatedAt: manager.UpdatedAt,
	}
}

func toCampus(model persistence.Campus) Campus {
	return Campus{ID: model.ID, Name: model.Name}
}

// mapRepoError translates storage sentinels into application errors. Failures
// the caller cannot correct are wrapped in ErrPersistence.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}
