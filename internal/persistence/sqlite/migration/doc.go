// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files are read from an fs.FS (normally an embed.FS compiled into
// the binary) and follow the naming convention {version}_{description}.sql,
// for example "001_initial_schema.sql". Each file runs inside one transaction
// together with its schema_migrations bookkeeping row, so a failed file leaves
// no partial schema behind.
//
// The package also owns SQLiteConfig, which renders the modernc.org/sqlite
// connection string with the PRAGMAs every pooled connection needs.
//
// Example usage:
//
//	db, err := NewConnectionManager(cfg).GetConnection()
//	manager := NewMigrationManager(NewFileScanner(files), NewSQLiteExecutor(db), ".", logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
