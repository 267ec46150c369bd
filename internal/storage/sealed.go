package storage

import (
	"context"
	"log"

	"event-management/client/internal/security"
)

// SealedRepository encrypts values before they reach the underlying repository.
// A value that cannot be opened (wrong key, tampered, or written unsealed) reads as absent,
// which makes session restore clear it instead of failing.
type SealedRepository struct {
	inner  Repository
	sealer *security.Sealer
}

// NewSealedRepository wraps inner so values are sealed with sealer.
func NewSealedRepository(inner Repository, sealer *security.Sealer) *SealedRepository {
	return &SealedRepository{inner: inner, sealer: sealer}
}

// Get opens the stored value for key.
func (r *SealedRepository) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, ok, err := r.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	plain, err := r.sealer.Open(sealed)
	if err != nil {
		log.Printf("storage: unreadable sealed value for %s: %v", key, err)
		return "", false, nil
	}
	return plain, true, nil
}

// Set seals value and stores it under key.
func (r *SealedRepository) Set(ctx context.Context, key, value string) error {
	sealed, err := r.sealer.Seal(value)
	if err != nil {
		return err
	}
	return r.inner.Set(ctx, key, sealed)
}

// Delete removes keys from the underlying repository.
func (r *SealedRepository) Delete(ctx context.Context, keys ...string) error {
	return r.inner.Delete(ctx, keys...)
}
