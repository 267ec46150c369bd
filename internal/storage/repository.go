// Package storage persists the client session across runs. It plays the role browser
// localStorage plays for the web client: a flat string key/value space.
package storage

import "context"

// Keys owned by the session. Values are stored verbatim; user is the serialized user record.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// SessionKeys lists every persisted session key, in the order they are cleared.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// Repository is a persisted key/value store.
type Repository interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
