package application

import (
	"errors"
	"strings"
	"testing"
)

func TestCreateAndVerifyPassword(t *testing.T) {
	hash, err := CreatePasswordHash("correct horse battery staple", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash prefix: %s", hash)
	}

	if err := VerifyPassword(hash, "correct horse battery staple"); err != nil {
		t.Fatalf("VerifyPassword rejected matching password: %v", err)
	}
}

func TestVerifyPasswordRejectsWrongPassword(t *testing.T) {
	hash, err := CreatePasswordHash("original", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}

	if err := VerifyPassword(hash, "different"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	if err := VerifyPassword("not-a-hash", "whatever"); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
	}
}

func TestHashesAreSalted(t *testing.T) {
	first, err := CreatePasswordHash("same password", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	second, err := CreatePasswordHash("same password", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash returned error: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password should differ by salt")
	}
}
