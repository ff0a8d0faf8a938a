package token

import (
	"errors"
	"testing"
	"time"

	"github.com/example/homestay/internal/application"
)

func testUser() application.User {
	return application.User{ID: "user-1", Username: "amelie", IsAdmin: true}
}

func TestIssueAndParse(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer("test-secret", time.Hour)
	issuedAt := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	signed, expiresAt, err := issuer.Issue(testUser(), issuedAt)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if !expiresAt.Equal(issuedAt.Add(time.Hour)) {
		t.Fatalf("expected expiry %v, got %v", issuedAt.Add(time.Hour), expiresAt)
	}

	claims, err := issuer.Parse(signed)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.Subject != "user-1" || claims.Username != "amelie" || !claims.IsAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	signed, _, err := NewIssuer("secret-a", time.Hour).Issue(testUser(), time.Now())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := NewIssuer("secret-b", time.Hour).Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer("test-secret", time.Minute)
	signed, _, err := issuer.Issue(testUser(), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := issuer.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := NewIssuer("test-secret", time.Hour).Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
