package sqlite

import (
	"context"
	"errors"

	"github.com/example/campus-reservation/internal/persistence"
)

// CampusRepository implements persistence.CampusRepository using SQLite
type CampusRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewCampusRepository creates a new SQLite campus repository
func NewCampusRepository(pool *ConnectionPool) *CampusRepository {
	return &CampusRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// ListCampuses returns all campuses ordered by ID
func (r *CampusRepository) ListCampuses(ctx context.Context) ([]persistence.Campus, error) {
	rows, err := r.helper.Query(ctx, `SELECT id, name, created_at FROM campuses ORDER BY id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	campuses := make([]persistence.Campus, 0)
	for rows.Next() {
		var campus persistence.Campus
		var createdAt string
		if err := rows.Scan(&campus.ID, &campus.Name, &createdAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if campus.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
			return nil, err
		}
		campuses = append(campuses, campus)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return campuses, nil
}

// GetCampus retrieves a campus by ID
func (r *CampusRepository) GetCampus(ctx context.Context, id int64) (persistence.Campus, error) {
	var campus persistence.Campus
	var createdAt string
	err := r.helper.QueryRow(ctx, `SELECT id, name, created_at FROM campuses WHERE id = ?`, id).
		Scan(&campus.ID, &campus.Name, &createdAt)
	if err != nil {
		mapped := r.mapper.MapError(err)
		if errors.Is(mapped, persistence.ErrNotFound) {
			return persistence.Campus{}, persistence.ErrNotFound
		}
		return persistence.Campus{}, mapped
	}
	if campus.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.Campus{}, err
	}
	return campus, nil
}
