package storage

import (
	"fmt"

	"event-management/client/internal/db"
	"event-management/client/internal/db/migrate"
	"event-management/client/internal/security"
)

// DriverMemory keeps storage in process memory; nothing survives the run.
const DriverMemory = "memory"

// Open returns the repository for driver, migrating the SQL schema first. When sealer is
// non-nil the repository seals every value. The returned close func releases the connection.
func Open(driver, dsn string, sealer *security.Sealer) (Repository, func() error, error) {
	var (
		repo    Repository
		closeFn = func() error { return nil }
	)
	switch driver {
	case DriverMemory:
		repo = NewMemoryRepository()
	case db.DriverSQLite, db.DriverPostgres:
		if err := migrate.Run(driver, dsn, "up"); err != nil {
			return nil, nil, fmt.Errorf("storage: migrate: %w", err)
		}
		conn, err := db.Open(driver, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: open: %w", err)
		}
		sqlRepo, err := NewSQLRepository(conn, driver)
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		repo, closeFn = sqlRepo, conn.Close
	default:
		return nil, nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
	if sealer != nil {
		repo = NewSealedRepository(repo, sealer)
	}
	return repo, closeFn, nil
}
