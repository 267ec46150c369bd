package storage

import (
	"context"
	"path/filepath"
	"testing"

	"event-management/client/internal/db"
)

func openSQLite(t *testing.T) Repository {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "storage.db")
	repo, closeFn, err := Open(db.DriverSQLite, dsn, nil)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = closeFn() })
	return repo
}

func TestSQLRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	r := openSQLite(t)

	if _, ok, err := r.Get(ctx, KeyUser); err != nil || ok {
		t.Fatalf("Get missing: ok=%v err=%v", ok, err)
	}
	if err := r.Set(ctx, KeyUser, `{"id":1}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := r.Set(ctx, KeyUser, `{"id":2}`); err != nil {
		t.Fatalf("Set upsert: %v", err)
	}
	v, ok, err := r.Get(ctx, KeyUser)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if v != `{"id":2}` {
		t.Errorf("Get = %q, want upserted value", v)
	}

	_ = r.Set(ctx, KeyAccessToken, "A1")
	if err := r.Delete(ctx, SessionKeys...); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, k := range SessionKeys {
		if _, ok, _ := r.Get(ctx, k); ok {
			t.Errorf("key %s should be deleted", k)
		}
	}
}

func TestSQLRepository_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "storage.db")

	r, closeFn, err := Open(db.DriverSQLite, dsn, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.Set(ctx, KeyRefreshToken, "R1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_ = closeFn()

	r2, closeFn2, err := Open(db.DriverSQLite, dsn, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer closeFn2()
	v, ok, err := r2.Get(ctx, KeyRefreshToken)
	if err != nil || !ok || v != "R1" {
		t.Errorf("Get after reopen = %q ok=%v err=%v, want R1", v, ok, err)
	}
}

func TestNewSQLRepository_UnsupportedDriver(t *testing.T) {
	if _, err := NewSQLRepository(nil, "mysql"); err == nil {
		t.Fatal("NewSQLRepository with unsupported driver should return error")
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, _, err := Open("redis", "localhost:6379", nil); err == nil {
		t.Fatal("Open with unsupported driver should return error")
	}
}
