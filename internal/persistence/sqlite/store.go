// Package sqlite implements the persistence repositories on SQLite through
// modernc.org/sqlite. The schema is applied from embedded migrations when the
// store is opened.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/campus-reservation/internal/calendar"
	"github.com/example/campus-reservation/internal/persistence/sqlite/migration"
	"github.com/example/campus-reservation/internal/persistence/sqlite/migrations"
)

// timestampLayout has fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Store bundles the SQLite repositories over one connection pool.
type Store struct {
	*CampusRepository
	*BlackoutRuleRepository
	*ReservationRepository
	*KeyManagerRepository

	pool *ConnectionPool
}

// Open connects to the database described by cfg and applies pending migrations.
func Open(ctx context.Context, cfg migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	pool, err := NewConnectionPool(cfg)
	if err != nil {
		return nil, err
	}

	manager := migration.NewMigrationManager(
		migration.NewFileScanner(migrations.FS),
		migration.NewSQLiteExecutor(pool.DB()),
		".",
		logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: apply migrations: %w", err)
	}

	return &Store{
		CampusRepository:       NewCampusRepository(pool),
		BlackoutRuleRepository: NewBlackoutRuleRepository(pool),
		ReservationRepository:  NewReservationRepository(pool),
		KeyManagerRepository:   NewKeyManagerRepository(pool),
		pool:                   pool,
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// DB exposes the underlying handle for tests and diagnostics.
func (s *Store) DB() *sql.DB {
	return s.pool.DB()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(column, value string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return t, nil
}

func formatNullTimestamp(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTimestamp(*t), Valid: true}
}

func parseNullTimestamp(column string, value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := parseTimestamp(column, value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDateColumn(column, value string) (time.Time, error) {
	d, err := calendar.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
