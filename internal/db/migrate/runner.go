// Package migrate applies the client storage schema from embedded SQL files using golang-migrate.
package migrate

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"event-management/client/internal/db"
)

// ErrNoChange is returned when Up/Down has nothing to do (already at target version).
var ErrNoChange = migrate.ErrNoChange

// Run applies migrations for driver ("postgres" or "sqlite") in the given direction.
// direction must be "up" or "down". Already being at the target version is not an error.
// Run opens and closes its own connection; golang-migrate closes the instance it is handed.
func Run(driver, dsn, direction string) error {
	if dsn == "" {
		return errors.New("STORAGE_DSN is not set; create a .env from .env.example or set STORAGE_DSN")
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}

	conn, err := db.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("migrate open: %w", err)
	}

	var target database.Driver
	switch driver {
	case db.DriverPostgres:
		target, err = postgres.WithInstance(conn, &postgres.Config{})
	case db.DriverSQLite:
		target, err = sqlite.WithInstance(conn, &sqlite.Config{})
	default:
		err = fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("migrate driver: %w", err)
	}

	sourceDriver, err := iofs.New(db.MigrationFS, "migrations/"+driver)
	if err != nil {
		_ = target.Close()
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, driver, target)
	if err != nil {
		_ = target.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	}
	return nil
}
