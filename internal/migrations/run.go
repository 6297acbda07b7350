// Package migrations применяет встроенные миграции схемы учётных записей.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// RunPostgres применяет миграции PostgreSQL.
func RunPostgres(db *sql.DB) error {
	const op = "migrations.RunPostgres"
	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := up(postgresFS, "postgres", "pgx_v5", driver); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RunSQLite применяет миграции SQLite.
func RunSQLite(db *sql.DB) error {
	const op = "migrations.RunSQLite"
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := up(sqliteFS, "sqlite", "sqlite", driver); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func up(fsys embed.FS, dir, name string, driver database.Driver) error {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
