package sqlite

import (
	"context"
	"fmt"

	"github.com/example/campus-reservation/internal/persistence"
)

const keyManagerSelect = `
	SELECT k.id, k.campus_id, c.name, k.name, k.contact, k.is_active, k.created_at, k.updated_at
	FROM key_managers k
	JOIN campuses c ON c.id = k.campus_id
`

// KeyManagerRepository implements persistence.KeyManagerRepository using SQLite
type KeyManagerRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewKeyManagerRepository creates a new SQLite key manager repository
func NewKeyManagerRepository(pool *ConnectionPool) *KeyManagerRepository {
	return &KeyManagerRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateKeyManager inserts a new key manager
func (r *KeyManagerRepository) CreateKeyManager(ctx context.Context, manager persistence.KeyManager) error {
	if manager.ID == "" {
		return persistence.ErrConstraintViolation
	}
	query := `
		INSERT INTO key_managers (id, campus_id, name, contact, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		manager.ID,
		manager.CampusID,
		manager.Name,
		manager.Contact,
		boolToInt(manager.Active),
		formatTimestamp(manager.CreatedAt),
		formatTimestamp(manager.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetKeyManager retrieves a key manager by ID
func (r *KeyManagerRepository) GetKeyManager(ctx context.Context, id string) (persistence.KeyManager, error) {
	row := r.helper.QueryRow(ctx, keyManagerSelect+` WHERE k.id = ?`, id)
	manager, err := scanKeyManager(row)
	if err != nil {
		return persistence.KeyManager{}, r.mapper.MapError(err)
	}
	return manager, nil
}

// ListKeyManagers returns the key managers matching filter
func (r *KeyManagerRepository) ListKeyManagers(ctx context.Context, filter persistence.KeyManagerFilter) ([]persistence.KeyManager, error) {
	query := keyManagerSelect + ` WHERE 1 = 1`
	var args []any
	if filter.CampusID != 0 {
		query += ` AND k.campus_id = ?`
		args = append(args, filter.CampusID)
	}
	if !filter.IncludeInactive {
		query += ` AND k.is_active = 1`
	}
	query += ` ORDER BY k.campus_id ASC, k.name ASC, k.id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	managers := make([]persistence.KeyManager, 0)
	for rows.Next() {
		manager, err := scanKeyManager(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		managers = append(managers, manager)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return managers, nil
}

// UpdateKeyManager overwrites the mutable fields of a key manager
func (r *KeyManagerRepository) UpdateKeyManager(ctx context.Context, manager persistence.KeyManager) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE key_managers SET name = ?, contact = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		manager.Name,
		manager.Contact,
		boolToInt(manager.Active),
		formatTimestamp(manager.UpdatedAt),
		manager.ID,
	)
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

// DeleteKeyManager removes a key manager by ID
func (r *KeyManagerRepository) DeleteKeyManager(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM key_managers WHERE id = ?`, id)
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

func scanKeyManager(row rowScanner) (persistence.KeyManager, error) {
	var (
		manager   persistence.KeyManager
		active    int
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&manager.ID,
		&manager.CampusID,
		&manager.CampusName,
		&manager.Name,
		&manager.Contact,
		&active,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.KeyManager{}, err
	}
	manager.Active = active != 0

	var err error
	if manager.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.KeyManager{}, err
	}
	if manager.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return persistence.KeyManager{}, err
	}
	return manager, nil
}
