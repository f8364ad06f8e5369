package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/campus-reservation/internal/calendar"
	"github.com/example/campus-reservation/internal/persistence"
)

const blackoutColumns = `id, campus_id, date, day_of_week, start_hour, end_hour, reason, created_at`

// BlackoutRuleRepository implements persistence.BlackoutRuleRepository using SQLite
type BlackoutRuleRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBlackoutRuleRepository creates a new SQLite blackout rule repository
func NewBlackoutRuleRepository(pool *ConnectionPool) *BlackoutRuleRepository {
	return &BlackoutRuleRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateBlackoutRule inserts a new rule
func (r *BlackoutRuleRepository) CreateBlackoutRule(ctx context.Context, rule persistence.BlackoutRule) error {
	if rule.ID == "" {
		return persistence.ErrConstraintViolation
	}

	var date sql.NullString
	if rule.Date != nil {
		date = sql.NullString{String: calendar.FormatDate(*rule.Date), Valid: true}
	}
	var dayOfWeek sql.NullInt64
	if rule.DayOfWeek != nil {
		dayOfWeek = sql.NullInt64{Int64: int64(*rule.DayOfWeek), Valid: true}
	}

	query := `
		INSERT INTO blackout_rules (` + blackoutColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		rule.ID,
		rule.CampusID,
		date,
		dayOfWeek,
		rule.StartHour,
		rule.EndHour,
		rule.Reason,
		formatTimestamp(rule.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// GetBlackoutRule retrieves a rule by ID
func (r *BlackoutRuleRepository) GetBlackoutRule(ctx context.Context, id string) (persistence.BlackoutRule, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+blackoutColumns+` FROM blackout_rules WHERE id = ?`, id)
	rule, err := scanBlackoutRule(row)
	if err != nil {
		return persistence.BlackoutRule{}, r.mapper.MapError(err)
	}
	return rule, nil
}

// ListBlackoutRules returns the rules of a campus, or of all campuses for zero
func (r *BlackoutRuleRepository) ListBlackoutRules(ctx context.Context, campusID int64) ([]persistence.BlackoutRule, error) {
	query := `SELECT ` + blackoutColumns + ` FROM blackout_rules`
	var args []any
	if campusID != 0 {
		query += ` WHERE campus_id = ?`
		args = append(args, campusID)
	}
	query += ` ORDER BY date IS NULL, date DESC, day_of_week IS NULL, day_of_week ASC, start_hour ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	rules := make([]persistence.BlackoutRule, 0)
	for rows.Next() {
		rule, err := scanBlackoutRule(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return rules, nil
}

// DeleteBlackoutRule removes a rule by ID
func (r *BlackoutRuleRepository) DeleteBlackoutRule(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM blackout_rules WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlackoutRule(row rowScanner) (persistence.BlackoutRule, error) {
	var (
		rule      persistence.BlackoutRule
		date      sql.NullString
		dayOfWeek sql.NullInt64
		createdAt string
	)
	if err := row.Scan(
		&rule.ID,
		&rule.CampusID,
		&date,
		&dayOfWeek,
		&rule.StartHour,
		&rule.EndHour,
		&rule.Reason,
		&createdAt,
	); err != nil {
		return persistence.BlackoutRule{}, err
	}

	if date.Valid {
		d, err := parseDateColumn("date", date.String)
		if err != nil {
			return persistence.BlackoutRule{}, err
		}
		rule.Date = &d
	}
	if dayOfWeek.Valid {
		day := int(dayOfWeek.Int64)
		rule.DayOfWeek = &day
	}

	var err error
	if rule.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.BlackoutRule{}, err
	}
	return rule, nil
}
