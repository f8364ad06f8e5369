package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-reservation/internal/calendar"
	"github.com/example/campus-reservation/internal/persistence"
)

// BlackoutStore captures the persistence operations needed by BlackoutService.
type BlackoutStore interface {
	persistence.CampusRepository
	persistence.BlackoutRuleRepository
}

// BlackoutService manages admin blackout rules.
type BlackoutService struct {
	store       BlackoutStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBlackoutService wires dependencies for blackout rule management.
func NewBlackoutService(store BlackoutStore, idGenerator func() string, now func() time.Time) *BlackoutService {
	return NewBlackoutServiceWithLogger(store, idGenerator, now, nil)
}

// NewBlackoutServiceWithLogger wires dependencies with a specified logger.
func NewBlackoutServiceWithLogger(store BlackoutStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BlackoutService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BlackoutService{store: store, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *BlackoutService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BlackoutService", operation, attrs...)
}

// CreateBlackoutRule validates and stores a rule. Leaving both Date and
// DayOfWeek empty creates a rule that applies every day.
func (s *BlackoutService) CreateBlackoutRule(ctx context.Context, input BlackoutRuleInput) (rule BlackoutRule, err error) {
	if s == nil || s.store == nil {
		err = fmt.Errorf("blackout store not configured")
		return
	}
	logger := s.loggerWith(ctx, "CreateBlackoutRule", "campus_id", input.CampusID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create blackout rule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("rule_id", rule.ID, "mode", rule.Mode()).InfoContext(ctx, "blackout rule created")
	}()

	vErr := validateBlackoutRuleInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if _, lookupErr := s.store.GetCampus(ctx, input.CampusID); lookupErr != nil {
		if errors.Is(lookupErr, persistence.ErrNotFound) {
			err = &ValidationError{FieldErrors: map[string]string{"campus_id": "campus_id does not exist"}}
			return
		}
		err = mapRepoError(lookupErr)
		return
	}

	rule = BlackoutRule{
		ID:        s.idGenerator(),
		CampusID:  input.CampusID,
		StartHour: *input.StartHour,
		EndHour:   *input.EndHour,
		Reason:    strings.TrimSpace(input.Reason),
		CreatedAt: s.now(),
	}
	if strings.TrimSpace(input.Date) != "" {
		date, _ := calendar.ParseDate(input.Date)
		rule.Date = &date
	}
	if input.DayOfWeek != nil {
		weekday := *input.DayOfWeek
		rule.DayOfWeek = &weekday
	}

	if err = s.store.CreateBlackoutRule(ctx, toPersistenceBlackoutRule(rule)); err != nil {
		err = mapRepoError(err)
		rule = BlackoutRule{}
	}
	return
}

// DeleteBlackoutRule removes a rule. Unknown identifiers return ErrNotFound.
func (s *BlackoutService) DeleteBlackoutRule(ctx context.Context, id string) (err error) {
	if s == nil || s.store == nil {
		return fmt.Errorf("blackout store not configured")
	}
	logger := s.loggerWith(ctx, "DeleteBlackoutRule", "rule_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete blackout rule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "blackout rule deleted")
	}()

	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	return mapRepoError(s.store.DeleteBlackoutRule(ctx, id))
}

// ListBlackoutRules returns the rules of a campus, or of every campus when
// campusID is zero.
func (s *BlackoutService) ListBlackoutRules(ctx context.Context, campusID int64) ([]BlackoutRule, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("blackout store not configured")
	}
	if campusID < 0 {
		return nil, &ValidationError{FieldErrors: map[string]string{"campus_id": "campus_id must be greater than 0"}}
	}
	models, err := s.store.ListBlackoutRules(ctx, campusID)
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListBlackoutRules", "campus_id", campusID).
			ErrorContext(ctx, "failed to list blackout rules", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	rules := make([]BlackoutRule, 0, len(models))
	for _, model := range models {
		rules = append(rules, toBlackoutRule(model))
	}
	return rules, nil
}
