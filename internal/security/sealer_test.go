package security

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func testKey() []byte { return bytes.Repeat([]byte{7}, 32) }

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer(testKey())
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	sealed, err := s.Seal(`{"id":1}`)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if sealed == `{"id":1}` {
		t.Fatal("sealed value should not equal plaintext")
	}
	plain, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if plain != `{"id":1}` {
		t.Errorf("Open = %q, want %q", plain, `{"id":1}`)
	}
}

func TestSealer_OpenRejectsTamperedAndForeign(t *testing.T) {
	s, _ := NewSealer(testKey())
	other, _ := NewSealer(bytes.Repeat([]byte{9}, 32))
	sealed, _ := s.Seal("A1")

	if _, err := other.Open(sealed); err != ErrUnsealable {
		t.Errorf("Open with wrong key: want ErrUnsealable, got %v", err)
	}
	if _, err := s.Open("A1"); err != ErrUnsealable {
		t.Errorf("Open unsealed value: want ErrUnsealable, got %v", err)
	}
	if _, err := s.Open(base64.StdEncoding.EncodeToString([]byte("short"))); err != ErrUnsealable {
		t.Errorf("Open short value: want ErrUnsealable, got %v", err)
	}
}

func TestParseKey(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString(testKey())
	k, err := ParseKey(enc)
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if !bytes.Equal(k, testKey()) {
		t.Error("ParseKey returned wrong bytes")
	}
	if _, err := ParseKey(""); err != ErrInvalidKey {
		t.Errorf("ParseKey empty: want ErrInvalidKey, got %v", err)
	}
	if _, err := ParseKey(base64.StdEncoding.EncodeToString([]byte("too-short"))); err != ErrInvalidKey {
		t.Errorf("ParseKey short: want ErrInvalidKey, got %v", err)
	}
	if _, err := NewSealer([]byte("short")); err != ErrInvalidKey {
		t.Errorf("NewSealer short: want ErrInvalidKey, got %v", err)
	}
}
