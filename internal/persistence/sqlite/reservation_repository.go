package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/campus-reservation/internal/calendar"
	"github.com/example/campus-reservation/internal/persistence"
)

const reservationColumns = `id, campus_id, user_id, student_id, user_name, contact, date, start_hour, end_hour,
	status, key_picked_up, key_pickup_time, key_returned, key_return_time, created_at, updated_at`

const overlapCountQuery = `
	SELECT COUNT(*) FROM reservations
	WHERE campus_id = ? AND date = ? AND status = 'active'
	  AND start_hour < ? AND end_hour > ?
`

// ReservationRepository implements persistence.ReservationRepository using SQLite
type ReservationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewReservationRepository creates a new SQLite reservation repository
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// InsertReservation stores a reservation. The overlap check and the insert run
// in one immediate transaction; the reservations_no_overlap_insert trigger
// enforces the same rule for writers that bypass this method.
func (r *ReservationRepository) InsertReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if reservation.Status == "" {
		reservation.Status = persistence.StatusActive
	}
	date := calendar.FormatDate(reservation.Date)

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if reservation.Status == persistence.StatusActive {
				var overlapping int
				if err := r.helper.QueryRowTx(ctx, tx, overlapCountQuery,
					reservation.CampusID, date, reservation.EndHour, reservation.StartHour,
				).Scan(&overlapping); err != nil {
					return err
				}
				if overlapping > 0 {
					return persistence.ErrOverlap
				}
			}

			query := `INSERT INTO reservations (` + reservationColumns + `)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
			_, err := r.helper.ExecTx(ctx, tx, query,
				reservation.ID,
				reservation.CampusID,
				reservation.UserID,
				reservation.StudentID,
				reservation.UserName,
				reservation.Contact,
				date,
				reservation.StartHour,
				reservation.EndHour,
				string(reservation.Status),
				boolToInt(reservation.KeyPickedUp),
				formatNullTimestamp(reservation.KeyPickupTime),
				boolToInt(reservation.KeyReturned),
				formatNullTimestamp(reservation.KeyReturnTime),
				formatTimestamp(reservation.CreatedAt),
				formatTimestamp(reservation.UpdatedAt),
			)
			return err
		})
	})
}

// GetReservation retrieves a reservation by ID
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	reservation, err := scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, r.mapper.MapError(err)
	}
	return reservation, nil
}

// CountOverlappingActiveReservations counts active reservations on the campus
// and date whose hours overlap [startHour, endHour)
func (r *ReservationRepository) CountOverlappingActiveReservations(ctx context.Context, campusID int64, date time.Time, startHour, endHour int) (int, error) {
	var count int
	err := r.helper.QueryRow(ctx, overlapCountQuery, campusID, calendar.FormatDate(date), endHour, startHour).Scan(&count)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// ListActiveReservationsForUser returns the user's active reservations dated within [from, to]
func (r *ReservationRepository) ListActiveReservationsForUser(ctx context.Context, userID string, from, to time.Time) ([]persistence.Reservation, error) {
	reservations, _, err := r.ListReservations(ctx, persistence.ReservationFilter{
		UserID:   userID,
		DateFrom: &from,
		DateTo:   &to,
		Status:   persistence.StatusActive,
		Order:    persistence.OrderSlotAsc,
	})
	return reservations, err
}

// ListReservations returns one page of reservations matching filter and the
// total number of matches
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, int, error) {
	where, args := reservationWhere(filter)

	var total int
	if err := r.helper.QueryRow(ctx, `SELECT COUNT(*) FROM reservations`+where, args...).Scan(&total); err != nil {
		return nil, 0, r.mapper.MapError(err)
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations` + where + ` ORDER BY ` + reservationOrder(filter.Order)
	pageArgs := append([]any{}, args...)
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		pageArgs = append(pageArgs, filter.Limit)
	} else if filter.Offset > 0 {
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		pageArgs = append(pageArgs, filter.Offset)
	}

	rows, err := r.helper.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, r.mapper.MapError(err)
	}
	defer rows.Close()

	reservations := make([]persistence.Reservation, 0)
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, 0, r.mapper.MapError(err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, r.mapper.MapError(err)
	}
	return reservations, total, nil
}

// UpdateReservationStatus sets the status of a reservation. Reactivating a
// cancelled reservation fails with persistence.ErrOverlap when its slot has
// been taken since.
func (r *ReservationRepository) UpdateReservationStatus(ctx context.Context, id string, status persistence.ReservationStatus, updatedAt time.Time) error {
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.helper.Exec(ctx,
			`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), formatTimestamp(updatedAt), id,
		)
		if err != nil {
			return err
		}
		return requireRow(result)
	})
}

// UpdateKeyCustody persists the key pickup and return fields of a reservation
func (r *ReservationRepository) UpdateKeyCustody(ctx context.Context, reservation persistence.Reservation) error {
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.helper.Exec(ctx, `
			UPDATE reservations
			SET key_picked_up = ?, key_pickup_time = ?, key_returned = ?, key_return_time = ?, updated_at = ?
			WHERE id = ?`,
			boolToInt(reservation.KeyPickedUp),
			formatNullTimestamp(reservation.KeyPickupTime),
			boolToInt(reservation.KeyReturned),
			formatNullTimestamp(reservation.KeyReturnTime),
			formatTimestamp(reservation.UpdatedAt),
			reservation.ID,
		)
		if err != nil {
			return err
		}
		return requireRow(result)
	})
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func reservationWhere(filter persistence.ReservationFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if filter.CampusID != 0 {
		conditions = append(conditions, "campus_id = ?")
		args = append(args, filter.CampusID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.KeyPickedUp != nil {
		conditions = append(conditions, "key_picked_up = ?")
		args = append(args, boolToInt(*filter.KeyPickedUp))
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, calendar.FormatDate(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, calendar.FormatDate(*filter.DateTo))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func reservationOrder(order persistence.ReservationOrder) string {
	switch order {
	case persistence.OrderSlotAsc:
		return "date ASC, start_hour ASC, id ASC"
	case persistence.OrderSlotDesc:
		return "date DESC, start_hour DESC, id ASC"
	case persistence.OrderPickupDesc:
		return "key_pickup_time IS NULL, key_pickup_time DESC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation                  persistence.Reservation
		date, status                 string
		keyPickedUp, keyReturned     int
		keyPickupTime, keyReturnTime sql.NullString
		createdAt, updatedAt         string
	)
	if err := row.Scan(
		&reservation.ID,
		&reservation.CampusID,
		&reservation.UserID,
		&reservation.StudentID,
		&reservation.UserName,
		&reservation.Contact,
		&date,
		&reservation.StartHour,
		&reservation.EndHour,
		&status,
		&keyPickedUp,
		&keyPickupTime,
		&keyReturned,
		&keyReturnTime,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Reservation{}, err
	}

	var err error
	if reservation.Date, err = parseDateColumn("date", date); err != nil {
		return persistence.Reservation{}, err
	}
	reservation.Status = persistence.ReservationStatus(status)
	reservation.KeyPickedUp = keyPickedUp != 0
	reservation.KeyReturned = keyReturned != 0
	if reservation.KeyPickupTime, err = parseNullTimestamp("key_pickup_time", keyPickupTime); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.KeyReturnTime, err = parseNullTimestamp("key_return_time", keyReturnTime); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}
