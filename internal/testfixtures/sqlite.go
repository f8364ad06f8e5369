package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/campus-reservation/internal/persistence"
	"github.com/example/campus-reservation/internal/persistence/memory"
	"github.com/example/campus-reservation/internal/persistence/sqlite"
	"github.com/example/campus-reservation/internal/persistence/sqlite/migration"
)

// Store is the full repository surface shared by the memory and SQLite
// stores. It satisfies every application store interface.
type Store interface {
	persistence.CampusRepository
	persistence.BlackoutRuleRepository
	persistence.ReservationRepository
	persistence.KeyManagerRepository
}

// StoreHarness exposes the repositories of one store implementation for
// contract style persistence tests.
type StoreHarness struct {
	Name          string
	Store         Store
	Campuses      persistence.CampusRepository
	BlackoutRules persistence.BlackoutRuleRepository
	Reservations  persistence.ReservationRepository
	KeyManagers   persistence.KeyManagerRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *StoreHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a StoreHarness over a temporary SQLite file that
// is migrated automatically. Callers may optionally invoke Close, but the
// helper also registers a cleanup callback with tb.
func NewSQLiteHarness(tb testing.TB) *StoreHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "reservations.db")
	store, err := sqlite.Open(context.Background(), migration.TempFileTestSQLiteConfig(path), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	harness := &StoreHarness{
		Name:          "sqlite",
		Store:         store,
		Campuses:      store,
		BlackoutRules: store,
		Reservations:  store,
		KeyManagers:   store,
		cleanup: func() {
			_ = store.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

// NewMemoryHarness constructs a StoreHarness over an in-process store seeded
// with the default campuses.
func NewMemoryHarness(tb testing.TB) *StoreHarness {
	tb.Helper()

	store := memory.New()
	return &StoreHarness{
		Name:          "memory",
		Store:         store,
		Campuses:      store,
		BlackoutRules: store,
		Reservations:  store,
		KeyManagers:   store,
		cleanup: func() {
			_ = store.Close()
		},
	}
}

// Harnesses returns one harness per store implementation.
func Harnesses(tb testing.TB) []*StoreHarness {
	tb.Helper()
	return []*StoreHarness{NewMemoryHarness(tb), NewSQLiteHarness(tb)}
}
