// Package db opens the SQL database that backs persisted client storage.
package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open. They match the STORAGE_DRIVER config values.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SQLDriverName maps a storage driver to the database/sql driver name it registers.
func SQLDriverName(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return "pgx", nil
	case DriverSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("db: unsupported driver %q", driver)
	}
}

// Open opens a connection for driver using the given DSN and pings it. Caller must call Close when done.
func Open(driver, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("db: %s DSN is empty", driver)
	}
	name, err := SQLDriverName(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// One writer at a time; sqlite serializes anyway and this avoids SQLITE_BUSY on the profile file.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
