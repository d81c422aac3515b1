package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/jask/wizflow/internal/database/migrations"
)

// MigrationsTable records the applied schema version.
const MigrationsTable = "schema_migrations"

// coreTables are dropped by ResetDatabase, children first.
var coreTables = []string{"transactions", "categories", "accounts", "settings", MigrationsTable}

// RunMigrations applies every embedded up migration newer than the recorded version, in
// ascending order. Each version runs in its own transaction; a failed version leaves the
// schema marked dirty and the error is returned.
func RunMigrations(db *sql.DB) error {
	return runMigrations(db, migrations.FS)
}

func runMigrations(db *sql.DB, fsys fs.FS) error {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	defer src.Close()

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	// m.Close is not called: it would close db, which the caller owns.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// SchemaVersion reports the recorded schema version. A database that was never migrated
// reports version 0.
func SchemaVersion(ctx context.Context, db *sql.DB) (version uint, dirty bool, err error) {
	ok, err := tableExists(ctx, db, MigrationsTable)
	if err != nil || !ok {
		return 0, false, err
	}
	row := db.QueryRowContext(ctx, `SELECT version, dirty FROM `+MigrationsTable+` LIMIT 1`)
	if err = row.Scan(&version, &dirty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return version, dirty, nil
}

// IsDatabaseInitialized reports whether the core tables exist.
func IsDatabaseInitialized(ctx context.Context, db *sql.DB) (bool, error) {
	return tableExists(ctx, db, "accounts")
}

// ResetDatabase drops all core tables and the migration record. It is irreversible and
// asks for no confirmation.
func ResetDatabase(ctx context.Context, db *sql.DB) error {
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		for _, t := range coreTables {
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+t); err != nil {
				return fmt.Errorf("drop table %s: %w", t, err)
			}
		}
		return nil
	})
}

func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
