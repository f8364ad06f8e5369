package migration

import (
	"context"
	"time"
)

// Migration is one versioned SQL file.
type Migration struct {
	Version     string // Version identifier (e.g., "001", "002")
	Description string // Human-readable description of the migration
	SQL         string // SQL statements to execute
	FilePath    string // Path of the file within the migration filesystem
	Checksum    string // SHA-256 of SQL
}

// MigrationManager orchestrates the migration process.
type MigrationManager interface {
	// RunMigrations executes all pending migrations in version order.
	RunMigrations(ctx context.Context) error

	// GetPendingMigrations returns the migrations that still need to run.
	GetPendingMigrations(ctx context.Context) ([]Migration, error)

	// GetMigrationStatus reports applied and pending migrations.
	GetMigrationStatus(ctx context.Context) (*MigrationStatus, error)
}

// FileScanner discovers and parses migration files.
type FileScanner interface {
	// ScanMigrations returns the migrations found in dir sorted by version.
	ScanMigrations(dir string) ([]Migration, error)

	// ValidateFileName checks that a file follows the naming convention.
	ValidateFileName(filename string) error

	// ParseMigrationFile reads and parses a single migration file.
	ParseMigrationFile(filePath string) (*Migration, error)
}

// Executor runs migrations against the database.
type Executor interface {
	// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
	InitializeVersionTable(ctx context.Context) error

	// ExecuteMigration runs a migration and records it in one transaction.
	ExecuteMigration(ctx context.Context, migration Migration) (time.Duration, error)

	// GetAppliedVersions returns applied migrations ordered by version.
	GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}

// MigrationStatus describes the schema version of a database.
type MigrationStatus struct {
	CurrentVersion    string
	PendingCount      int
	AppliedMigrations []AppliedMigration
	PendingMigrations []Migration
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}
