package enginetoken

import (
	"errors"
	"testing"
	"time"
)

func TestMintAndValidate(t *testing.T) {
	sec := "secret123"
	exp := time.Now().Add(5 * time.Minute).Unix()

	tok := Mint(sec, "ch-1", 42, exp)
	uid, gotExp, err := Validate(sec, tok, "ch-1", time.Now())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if uid != 42 || gotExp != exp {
		t.Fatalf("mismatch: %d/%d", uid, gotExp)
	}
}

func TestBadSignature(t *testing.T) {
	sec := "secret123"
	exp := time.Now().Add(5 * time.Minute).Unix()
	tok := Mint(sec, "ch-1", 42, exp)

	// flip a char
	if tok[0] == 'A' {
		tok = "B" + tok[1:]
	} else {
		tok = "A" + tok[1:]
	}

	if _, _, err := Validate(sec, tok, "ch-1", time.Now()); err == nil {
		t.Fatalf("expected error for tampered token")
	}
}

func TestWrongChannelRejected(t *testing.T) {
	sec := "secret123"
	tok := Mint(sec, "ch-1", 42, time.Now().Add(time.Minute).Unix())
	if _, _, err := Validate(sec, tok, "ch-2", time.Now()); !errors.Is(err, ErrTokenChannel) {
		t.Fatalf("expected ErrTokenChannel, got %v", err)
	}
}

func TestExpiredRejected(t *testing.T) {
	sec := "secret123"
	tok := Mint(sec, "ch-1", 42, time.Now().Add(-time.Minute).Unix())
	if _, _, err := Validate(sec, tok, "ch-1", time.Now()); !errors.Is(err, ErrTokenExp) {
		t.Fatalf("expected ErrTokenExp, got %v", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	tok := Mint("secret-a", "ch-1", 42, time.Now().Add(time.Minute).Unix())
	if _, _, err := Validate("secret-b", tok, "ch-1", time.Now()); !errors.Is(err, ErrTokenSig) {
		t.Fatalf("expected ErrTokenSig, got %v", err)
	}
}
