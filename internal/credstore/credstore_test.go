package credstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestFileRoundTrip(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "nested", "credential"))

	if _, err := f.Get(); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential before set, got %v", err)
	}
	if err := f.Set("tok-123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := f.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "tok-123" {
		t.Fatalf("expected tok-123, got %q", got)
	}

	if err := f.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := f.Clear(); err != nil {
		t.Fatalf("second clear should be a no-op, got %v", err)
	}
	if _, err := f.Get(); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential after clear, got %v", err)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	if _, err := m.Get(); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
	m.Set("abc")
	if got, _ := m.Get(); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	m.Clear()
	if _, err := m.Get(); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential after clear, got %v", err)
	}
}

func TestExpired(t *testing.T) {
	sign := func(exp time.Time) string {
		claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return tok
	}
	now := time.Now()

	if !Expired(sign(now.Add(-time.Minute)), now) {
		t.Fatalf("token expired a minute ago should report expired")
	}
	if Expired(sign(now.Add(time.Hour)), now) {
		t.Fatalf("token valid for an hour should not report expired")
	}
	// Opaque tokens cannot be inspected and are left for the server to judge.
	if Expired("not-a-jwt", now) {
		t.Fatalf("opaque token must not be treated as expired")
	}
}
