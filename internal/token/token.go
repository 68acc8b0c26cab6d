// Package token provides issuance and verification of signed access tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of an issued access token.
const TokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken is returned for any token that fails verification:
// malformed, bad signature, or expired. A single error value keeps the
// failure mode indistinguishable to callers.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the identity embedded in an access token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service signs and verifies access tokens with a shared secret.
//
// Issuance deliberately performs no password check; the caller is
// responsible for confirming the email exists before requesting a
// token.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a token Service with the given signing secret.
func NewService(secret string) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    TokenTTL,
	}
}

// Issue creates a signed token embedding the given email.
func (s *Service) Issue(email string) (string, error) {
	now := time.Now()

	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and expiry of a token and returns the
// embedded email. All failures map to ErrInvalidToken.
func (s *Service) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Email == "" {
		return "", ErrInvalidToken
	}

	return claims.Email, nil
}
