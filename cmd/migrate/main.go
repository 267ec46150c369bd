// migrate applies the client storage schema from embedded SQL; run with go run ./cmd/migrate.
// eventctl migrates on startup, so this is only needed to roll back or to prepare a shared
// Postgres profile ahead of time.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"event-management/client/internal/config"
	"event-management/client/internal/db/migrate"
	"event-management/client/internal/storage"
)

func main() {
	direction := pflag.String("direction", "up", "Migration direction: up or down")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.StorageDriver == storage.DriverMemory {
		fmt.Fprintln(os.Stderr, "STORAGE_DRIVER is memory; there is no schema to migrate")
		os.Exit(1)
	}

	if err := migrate.Run(cfg.StorageDriver, cfg.StorageDSN, *direction); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
