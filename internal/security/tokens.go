// Package security holds the client's credential helpers: unverified inspection of access
// tokens, fingerprints for logging refresh tokens, and at-rest sealing of persisted values.
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is not a parseable JWT.
	ErrInvalidToken = errors.New("invalid token")
)

// AccessClaims holds the claims the client reads from an access token. The server
// (SimpleJWT) sets user_id and token_type alongside the registered claims.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID    any    `json:"user_id"`
	TokenType string `json:"token_type"`
}

// InspectAccess parses the access token WITHOUT verifying its signature. The client never
// trusts these claims for authorization; they only tell it when the token is about to expire.
func InspectAccess(token string) (*AccessClaims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	var claims AccessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// ExpiresAt returns the token's exp claim. ok is false for opaque tokens or tokens without exp.
func ExpiresAt(token string) (time.Time, bool) {
	claims, err := InspectAccess(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// ExpiresWithin reports whether token expires before now+skew. Tokens whose expiry cannot be
// read report false so they are sent as-is and the server decides.
func ExpiresWithin(token string, now time.Time, skew time.Duration) bool {
	exp, ok := ExpiresAt(token)
	if !ok {
		return false
	}
	return !exp.After(now.Add(skew))
}
