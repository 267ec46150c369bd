package migrate

import (
	"path/filepath"
	"testing"

	"event-management/client/internal/db"
)

func TestRun_EmptyDSN(t *testing.T) {
	err := Run(db.DriverSQLite, "", "up")
	if err == nil {
		t.Fatal("Run with empty DSN should return error")
	}
	want := "STORAGE_DSN is not set; create a .env from .env.example or set STORAGE_DSN"
	if err.Error() != want {
		t.Errorf("error message = %q, want %q", err.Error(), want)
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	testCases := []struct {
		name      string
		direction string
	}{
		{"empty", ""},
		{"invalid", "invalid"},
		{"upcase", "UP"},
		{"mixed", "Up"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dsn := filepath.Join(t.TempDir(), "storage.db")
			if err := Run(db.DriverSQLite, dsn, tc.direction); err == nil {
				t.Errorf("Run with direction %q should return error", tc.direction)
			}
		})
	}
}

func TestRun_UnsupportedDriver(t *testing.T) {
	if err := Run("mysql", "user@/db", "up"); err == nil {
		t.Fatal("Run with unsupported driver should return error")
	}
}

func TestRun_SQLiteUpDown(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "storage.db")

	if err := Run(db.DriverSQLite, dsn, "up"); err != nil {
		t.Fatalf("Run up: %v", err)
	}
	// Second up is a no-op, not an error.
	if err := Run(db.DriverSQLite, dsn, "up"); err != nil {
		t.Fatalf("Run up again: %v", err)
	}

	conn, err := db.Open(db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var n int
	if err := conn.QueryRow("SELECT COUNT(*) FROM client_storage").Scan(&n); err != nil {
		t.Fatalf("client_storage should exist after up: %v", err)
	}
	conn.Close()

	if err := Run(db.DriverSQLite, dsn, "down"); err != nil {
		t.Fatalf("Run down: %v", err)
	}
	conn, err = db.Open(db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()
	if err := conn.QueryRow("SELECT COUNT(*) FROM client_storage").Scan(&n); err == nil {
		t.Error("client_storage should not exist after down")
	}
}
