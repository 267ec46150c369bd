package storage

import (
	"context"
	"testing"
)

func TestMemoryRepository_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	if _, ok, err := r.Get(ctx, KeyAccessToken); err != nil || ok {
		t.Fatalf("Get on empty repo: ok=%v err=%v, want ok=false", ok, err)
	}
	if err := r.Set(ctx, KeyAccessToken, "A1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := r.Set(ctx, KeyAccessToken, "A2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := r.Get(ctx, KeyAccessToken)
	if err != nil || !ok || v != "A2" {
		t.Fatalf("Get = %q ok=%v err=%v, want A2", v, ok, err)
	}

	_ = r.Set(ctx, KeyRefreshToken, "R1")
	_ = r.Set(ctx, KeyUser, `{"id":1}`)
	if err := r.Delete(ctx, SessionKeys...); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len after Delete = %d, want 0", r.Len())
	}
	if err := r.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete missing key: %v", err)
	}
}
