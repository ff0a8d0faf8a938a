// Package token issues and validates the signed access tokens returned by the
// two-factor login flow.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/homestay/internal/application"
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("token: invalid token")

// Claims carries the identity attributes embedded in an access token.
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Issuer mints HS256 signed tokens with a fixed lifetime.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer constructs an issuer. A non-positive ttl falls back to 24 hours.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue mints a token for the user. It satisfies application.TokenIssuer.
func (i *Issuer) Issue(user application.User, issuedAt time.Time) (string, time.Time, error) {
	if i == nil || len(i.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("token issuer not configured")
	}

	expiresAt := issuedAt.Add(i.ttl)
	claims := &Claims{
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates a token string and returns its claims.
func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	if i == nil || len(i.secret) == 0 {
		return nil, fmt.Errorf("token issuer not configured")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
