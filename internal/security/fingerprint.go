package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short SHA-256 fingerprint of a token, hex-encoded.
// Used to key in-flight refreshes and to mention tokens in logs without the raw value.
func Fingerprint(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:8])
}
