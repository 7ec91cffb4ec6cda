// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing, reset
// secrets) from the domain logic. It acts as an Infrastructure service
// injected into the Application layer via narrow interfaces such as
// [auth.TokenProvider].
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure classes. Callers branch on these with [errors.Is];
// the jwt library's own sentinels never escape this package.
var (
	// ErrTokenExpired is returned when the token's validity window has elapsed.
	ErrTokenExpired = errors.New("sec: token has expired")

	// ErrTokenSignature is returned when the signature does not match the
	// configured signing key.
	ErrTokenSignature = errors.New("sec: token signature is invalid")

	// ErrTokenMalformed is returned when the value is not a structurally
	// valid JWT at all.
	ErrTokenMalformed = errors.New("sec: token is malformed")
)

// TokenClaims is the payload embedded inside a Trekora identity token.
//
// # Why so small?
//
// The token is a signed assertion of identity only: subject (user ID) and
// issue time. Everything else — role, email, account status — is resolved
// from the user store on every authenticated request, so a password change
// or account deletion takes effect without waiting for the token to expire.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// Subject returns the user ID the token asserts.
func (c *TokenClaims) Subject() string { return c.RegisteredClaims.Subject }

// IssuedAt returns the instant the token was signed.
func (c *TokenClaims) IssuedAt() time.Time { return c.RegisteredClaims.IssuedAt.Time }

// TokenService signs and verifies compact identity tokens using HS256.
//
// The signing key, validity window, and issuer are injected at construction
// so key rotation is a deployment concern, not a code change.
type TokenService struct {
	signingKey []byte
	issuer     string
	timeToLive time.Duration
}

// NewTokenService creates a TokenService from a shared HMAC secret.
func NewTokenService(secret, issuer string, timeToLive time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("sec: signing secret must not be empty")
	}
	if timeToLive <= 0 {
		return nil, fmt.Errorf("sec: token time-to-live must be positive, got %s", timeToLive)
	}

	return &TokenService{
		signingKey: []byte(secret),
		issuer:     issuer,
		timeToLive: timeToLive,
	}, nil
}

// Issue creates a signed identity token for the given subject (user ID),
// valid from now until now + the configured time-to-live.
func (service *TokenService) Issue(subject string) (string, error) {
	currentTime := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.timeToLive)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.signingKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature and validity window of a token string.
//
// # Returns
//   - The embedded [*TokenClaims] when the token is authentic and current.
//   - [ErrTokenExpired], [ErrTokenSignature], or [ErrTokenMalformed] otherwise.
func (service *TokenService) Verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.signingKey, nil
	})

	if err != nil {
		return nil, classifyTokenError(err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// classifyTokenError maps jwt library failures onto this package's sentinels.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %s", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %s", ErrTokenSignature, err)
	default:
		return fmt.Errorf("%w: %s", ErrTokenMalformed, err)
	}
}
