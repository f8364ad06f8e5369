package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/campus-reservation/internal/calendar"
	"github.com/example/campus-reservation/internal/lock"
	"github.com/example/campus-reservation/internal/persistence"
	"github.com/example/campus-reservation/internal/recurrence"
)

const tracerName = "github.com/example/campus-reservation/internal/application"

// ReservationStore captures the persistence operations needed by the service.
type ReservationStore interface {
	persistence.CampusRepository
	persistence.BlackoutRuleRepository
	persistence.ReservationRepository
}

// ReservationService admits, lists and transitions reservations.
type ReservationService struct {
	store       ReservationStore
	blackouts   *BlackoutMatcher
	overlaps    *OverlapDetector
	quota       *QuotaAccountant
	locker      lock.Locker
	expander    *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewReservationService wires dependencies for reservation operations. A nil
// locker falls back to an in-process lock.Local.
func NewReservationService(store ReservationStore, locker lock.Locker, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(store, locker, idGenerator, now, nil)
}

// NewReservationServiceWithLogger wires dependencies with a specified logger.
func NewReservationServiceWithLogger(store ReservationStore, locker lock.Locker, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if locker == nil {
		locker = lock.NewLocal()
	}
	return &ReservationService{
		store:       store,
		blackouts:   NewBlackoutMatcher(store),
		overlaps:    NewOverlapDetector(store),
		quota:       NewQuotaAccountant(store),
		locker:      locker,
		expander:    recurrence.NewEngine(7),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		tracer:      otel.Tracer(tracerName),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CreateReservation decides whether the request is admissible and persists it
// when it is. Checks run in order validation, blackout, overlap, quota; the
// first failing check determines the outcome. Rejections are reported through
// Admission; the error return is reserved for storage and lock failures.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (admission Admission, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("reservation store not configured")
		return
	}

	input := params.Input
	ctx, span := s.tracer.Start(ctx, "ReservationService.CreateReservation", trace.WithAttributes(
		attribute.String("reservation.user_id", params.UserID),
		attribute.Int64("reservation.campus_id", input.CampusID),
		attribute.String("reservation.date", input.Date),
	))
	logger := s.loggerWith(ctx, "CreateReservation",
		"user_id", params.UserID,
		"campus_id", input.CampusID,
		"date", input.Date,
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, ErrorKind(err))
			logger.ErrorContext(ctx, "failed to evaluate reservation", "error", err, "error_kind", ErrorKind(err))
		} else {
			span.SetAttributes(attribute.String("reservation.outcome", string(admission.Outcome)))
			switch admission.Outcome {
			case OutcomeAccepted:
				logger.With("reservation_id", admission.Reservation.ID).InfoContext(ctx, "reservation accepted")
			default:
				logger.InfoContext(ctx, "reservation rejected", "outcome", admission.Outcome, "reason", admission.Reason)
			}
		}
		span.End()
	}()

	vErr := validateReservationInput(params.UserID, input)
	if vErr.HasErrors() {
		admission = invalidAdmission(vErr)
		return
	}
	userID := strings.TrimSpace(params.UserID)
	date, _ := calendar.ParseDate(input.Date)
	start, end := *input.StartHour, *input.EndHour

	if _, lookupErr := s.store.GetCampus(ctx, input.CampusID); lookupErr != nil {
		if errors.Is(lookupErr, persistence.ErrNotFound) {
			admission = invalidAdmission(&ValidationError{FieldErrors: map[string]string{"campus_id": "campus_id does not exist"}})
			return
		}
		err = fmt.Errorf("%w: get campus: %v", ErrPersistence, lookupErr)
		return
	}

	monday, _ := calendar.WeekBounds(date)
	var release func()
	release, err = s.locker.Acquire(ctx, lock.CampusDateKey(input.CampusID, date), lock.UserWeekKey(userID, monday))
	if err != nil {
		err = fmt.Errorf("acquire reservation locks: %w", err)
		return
	}
	defer release()

	var (
		blocked bool
		reason  string
	)
	blocked, reason, err = s.blackouts.IsBlocked(ctx, input.CampusID, date, start, end)
	if err != nil {
		return
	}
	if blocked {
		admission = Admission{Outcome: OutcomeBlocked, Reason: reason}
		return
	}

	var conflict bool
	conflict, err = s.overlaps.HasConflict(ctx, input.CampusID, date, start, end)
	if err != nil {
		return
	}
	if conflict {
		admission = Admission{Outcome: OutcomeConflicted, Reason: ReasonSlotReserved}
		return
	}

	usage, exceeded, quotaErr := s.quota.WouldExceed(ctx, userID, end-start, date)
	if quotaErr != nil {
		err = quotaErr
		return
	}
	if exceeded {
		admission = Admission{Outcome: OutcomeQuotaExceeded, Reason: usage.Message(), Quota: &usage}
		return
	}

	now := s.now()
	reservation := Reservation{
		ID:        s.idGenerator(),
		CampusID:  input.CampusID,
		UserID:    userID,
		StudentID: defaultString(input.StudentID, DefaultStudentID),
		UserName:  defaultString(input.Name, DefaultUserName),
		Contact:   strings.TrimSpace(input.Contact),
		Date:      date,
		StartHour: start,
		EndHour:   end,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if insertErr := s.store.InsertReservation(ctx, toPersistenceReservation(reservation)); insertErr != nil {
		switch {
		case errors.Is(insertErr, persistence.ErrOverlap):
			admission = Admission{Outcome: OutcomeConflicted, Reason: ReasonSlotReserved}
		case errors.Is(insertErr, persistence.ErrForeignKeyViolation):
			admission = invalidAdmission(&ValidationError{FieldErrors: map[string]string{"campus_id": "campus_id does not exist"}})
		default:
			err = fmt.Errorf("%w: insert reservation: %v", ErrPersistence, insertErr)
		}
		return
	}

	admission = Admission{Outcome: OutcomeAccepted, Reservation: &reservation}
	return
}

// CancelReservation releases a reservation owned by userID. Cancelling an
// already cancelled reservation returns it unchanged.
func (s *ReservationService) CancelReservation(ctx context.Context, userID, reservationID string) (reservation Reservation, err error) {
	logger := s.loggerWith(ctx, "CancelReservation", "user_id", userID, "reservation_id", reservationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	reservation, err = s.ownedReservation(ctx, userID, reservationID)
	if err != nil {
		return
	}
	if reservation.Status == StatusCancelled {
		return
	}

	now := s.now()
	if err = s.store.UpdateReservationStatus(ctx, reservation.ID, persistence.StatusCancelled, now); err != nil {
		err = mapRepoError(err)
		return
	}
	reservation.Status = StatusCancelled
	reservation.UpdatedAt = now
	return
}

// ListMyReservations returns the active reservations of userID, latest slot first.
func (s *ReservationService) ListMyReservations(ctx context.Context, userID string) ([]Reservation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &ValidationError{FieldErrors: map[string]string{"user_id": "user_id is required"}}
	}
	models, _, err := s.store.ListReservations(ctx, persistence.ReservationFilter{
		UserID: userID,
		Status: persistence.StatusActive,
		Order:  persistence.OrderSlotDesc,
	})
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListMyReservations", "user_id", userID).
			ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return toReservations(models), nil
}

// ListReservationsByDate returns the active reservations of a campus on one
// date ordered by start hour.
func (s *ReservationService) ListReservationsByDate(ctx context.Context, campusID int64, date string) ([]Reservation, error) {
	day, vErr := parseCampusDate(campusID, date)
	if vErr.HasErrors() {
		return nil, vErr
	}
	models, _, err := s.store.ListReservations(ctx, persistence.ReservationFilter{
		CampusID: campusID,
		DateFrom: &day,
		DateTo:   &day,
		Status:   persistence.StatusActive,
		Order:    persistence.OrderSlotAsc,
	})
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListReservationsByDate", "campus_id", campusID, "date", date).
			ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return toReservations(models), nil
}

// WeeklyView returns the active reservations and blackout occurrences of a
// campus for the Monday-to-Sunday week containing date.
func (s *ReservationService) WeeklyView(ctx context.Context, campusID int64, date string) (view WeeklyView, err error) {
	logger := s.loggerWith(ctx, "WeeklyView", "campus_id", campusID, "date", date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build weekly view", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	day, vErr := parseCampusDate(campusID, date)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	monday, sunday := calendar.WeekBounds(day)
	view = WeeklyView{CampusID: campusID, WeekStart: monday, WeekEnd: sunday}

	models, _, listErr := s.store.ListReservations(ctx, persistence.ReservationFilter{
		CampusID: campusID,
		DateFrom: &monday,
		DateTo:   &sunday,
		Status:   persistence.StatusActive,
		Order:    persistence.OrderSlotAsc,
	})
	if listErr != nil {
		err = mapRepoError(listErr)
		return
	}
	view.Reservations = toReservations(models)

	rules, rulesErr := s.store.ListBlackoutRules(ctx, campusID)
	if rulesErr != nil {
		err = mapRepoError(rulesErr)
		return
	}
	occurrences, expandErr := s.expander.Expand(toSchedulerRules(rules), monday, sunday)
	if expandErr != nil {
		err = fmt.Errorf("expand blackout rules: %w", expandErr)
		return
	}
	view.Blackouts = make([]BlackoutOccurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		view.Blackouts = append(view.Blackouts, BlackoutOccurrence{
			RuleID:    occ.RuleID,
			Mode:      occ.Mode,
			Date:      occ.Date,
			StartHour: occ.Interval.Start,
			EndHour:   occ.Interval.End,
			Reason:    occ.Reason,
		})
	}
	return
}

// PickUpKey records that the owner collected the key of an active reservation.
func (s *ReservationService) PickUpKey(ctx context.Context, userID, reservationID string) (reservation Reservation, err error) {
	logger := s.loggerWith(ctx, "PickUpKey", "user_id", userID, "reservation_id", reservationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record key pickup", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "key picked up")
	}()

	reservation, err = s.ownedReservation(ctx, userID, reservationID)
	if err != nil {
		return
	}
	if reservation.Status != StatusActive {
		err = fmt.Errorf("%w: reservation is %s", ErrInvalidState, reservation.Status)
		return
	}
	if reservation.KeyPickedUp {
		err = fmt.Errorf("%w: key already picked up", ErrInvalidState)
		return
	}

	now := s.now()
	reservation.KeyPickedUp = true
	reservation.KeyPickupTime = &now
	reservation.UpdatedAt = now
	if err = s.store.UpdateKeyCustody(ctx, toPersistenceReservation(reservation)); err != nil {
		err = mapRepoError(err)
	}
	return
}

// ReturnKey records that the owner returned a previously collected key.
func (s *ReservationService) ReturnKey(ctx context.Context, userID, reservationID string) (reservation Reservation, err error) {
	logger := s.loggerWith(ctx, "ReturnKey", "user_id", userID, "reservation_id", reservationID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record key return", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "key returned")
	}()

	reservation, err = s.ownedReservation(ctx, userID, reservationID)
	if err != nil {
		return
	}
	if !reservation.KeyPickedUp {
		err = fmt.Errorf("%w: key not picked up", ErrInvalidState)
		return
	}
	if reservation.KeyReturned {
		err = fmt.Errorf("%w: key already returned", ErrInvalidState)
		return
	}

	now := s.now()
	reservation.KeyReturned = true
	reservation.KeyReturnTime = &now
	reservation.UpdatedAt = now
	if err = s.store.UpdateKeyCustody(ctx, toPersistenceReservation(reservation)); err != nil {
		err = mapRepoError(err)
	}
	return
}

// ListKeyPickups returns the active reservations of a campus whose key has
// been collected, latest pickup first, capped at KeyPickupListLimit.
// Cancelled reservations are left out even when their key was picked up.
func (s *ReservationService) ListKeyPickups(ctx context.Context, campusID int64) ([]Reservation, error) {
	if campusID <= 0 {
		return nil, &ValidationError{FieldErrors: map[string]string{"campus_id": "campus_id is required"}}
	}
	pickedUp := true
	models, _, err := s.store.ListReservations(ctx, persistence.ReservationFilter{
		CampusID:    campusID,
		Status:      persistence.StatusActive,
		KeyPickedUp: &pickedUp,
		Order:       persistence.OrderPickupDesc,
		Limit:       KeyPickupListLimit,
	})
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListKeyPickups", "campus_id", campusID).
			ErrorContext(ctx, "failed to list key pickups", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return toReservations(models), nil
}

// ListHistory returns one page of reservations of every status, newest first.
func (s *ReservationService) ListHistory(ctx context.Context, params HistoryParams) (page HistoryPage, err error) {
	logger := s.loggerWith(ctx, "ListHistory", "campus_id", params.CampusID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list history", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	vErr := &ValidationError{}
	filter := persistence.ReservationFilter{CampusID: params.CampusID, Order: persistence.OrderCreatedDesc}
	if params.CampusID < 0 {
		vErr.add("campus_id", "campus_id must be greater than 0")
	}
	if from, ok := optionalDate(vErr, "start_date", params.StartDate); ok {
		filter.DateFrom = &from
	}
	if to, ok := optionalDate(vErr, "end_date", params.EndDate); ok {
		filter.DateTo = &to
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		vErr.add("end_date", "end_date must not be before start_date")
	}
	if params.Page < 0 {
		vErr.add("page", "page must be at least 1")
	}
	if params.PageSize < 0 {
		vErr.add("page_size", "page_size must be at least 1")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	page.Page = params.Page
	if page.Page == 0 {
		page.Page = 1
	}
	page.PageSize = params.PageSize
	switch {
	case page.PageSize == 0:
		page.PageSize = DefaultHistoryPageSize
	case page.PageSize > MaxHistoryPageSize:
		page.PageSize = MaxHistoryPageSize
	}
	filter.Limit = page.PageSize
	filter.Offset = (page.Page - 1) * page.PageSize

	models, total, listErr := s.store.ListReservations(ctx, filter)
	if listErr != nil {
		err = mapRepoError(listErr)
		return
	}
	page.Reservations = toReservations(models)
	page.Total = total
	return
}

func (s *ReservationService) ownedReservation(ctx context.Context, userID, reservationID string) (Reservation, error) {
	if s == nil || s.store == nil {
		return Reservation{}, fmt.Errorf("reservation store not configured")
	}
	model, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, mapRepoError(err)
	}
	reservation := toReservation(model)
	if strings.TrimSpace(userID) == "" || reservation.UserID != userID {
		return Reservation{}, ErrUnauthorized
	}
	return reservation, nil
}

func invalidAdmission(vErr *ValidationError) Admission {
	return Admission{Outcome: OutcomeInvalid, Reason: vErr.Summary(), FieldErrors: vErr.FieldErrors}
}

func defaultString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseCampusDate(campusID int64, date string) (time.Time, *ValidationError) {
	vErr := &ValidationError{}
	if campusID <= 0 {
		vErr.add("campus_id", "campus_id is required")
	}
	if strings.TrimSpace(date) == "" {
		vErr.add("date", "date is required")
		return time.Time{}, vErr
	}
	day, err := calendar.ParseDate(date)
	if err != nil {
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
	}
	return day, vErr
}

func optionalDate(vErr *ValidationError, field, value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, false
	}
	day, err := calendar.ParseDate(value)
	if err != nil {
		vErr.add(field, field+" must be formatted as YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}
