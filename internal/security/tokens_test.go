package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signTestToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-5 * time.Minute)),
		},
		UserID:    1,
		TokenType: "access",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestInspectAccess(t *testing.T) {
	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	tok := signTestToken(t, exp)

	claims, err := InspectAccess(tok)
	if err != nil {
		t.Fatalf("InspectAccess: %v", err)
	}
	if claims.TokenType != "access" {
		t.Errorf("TokenType = %q, want access", claims.TokenType)
	}
	if !claims.ExpiresAt.Time.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt.Time, exp)
	}
}

func TestInspectAccess_Invalid(t *testing.T) {
	for _, tok := range []string{"", "A1", "not.a.jwt"} {
		if _, err := InspectAccess(tok); err != ErrInvalidToken {
			t.Errorf("InspectAccess(%q): want ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestExpiresWithin(t *testing.T) {
	now := time.Now()
	expired := signTestToken(t, now.Add(-time.Minute))
	fresh := signTestToken(t, now.Add(time.Hour))

	if !ExpiresWithin(expired, now, 0) {
		t.Error("expired token should report ExpiresWithin")
	}
	if ExpiresWithin(fresh, now, 30*time.Second) {
		t.Error("fresh token should not report ExpiresWithin")
	}
	if !ExpiresWithin(fresh, now, 2*time.Hour) {
		t.Error("token inside skew window should report ExpiresWithin")
	}
	if ExpiresWithin("opaque-token", now, time.Hour) {
		t.Error("opaque token should never report ExpiresWithin")
	}
}

func TestFingerprint(t *testing.T) {
	a, b := Fingerprint("R1"), Fingerprint("R2")
	if a == b {
		t.Error("different tokens should have different fingerprints")
	}
	if a != Fingerprint("R1") {
		t.Error("fingerprint should be deterministic")
	}
	if len(a) != 16 {
		t.Errorf("len(Fingerprint) = %d, want 16", len(a))
	}
}
