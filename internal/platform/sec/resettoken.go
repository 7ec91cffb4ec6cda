// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// resetTokenBytes is the entropy of the plaintext reset secret.
	resetTokenBytes = 32

	// ResetTokenTTL is how long a password-reset secret stays redeemable.
	ResetTokenTTL = 10 * time.Minute
)

// ResetToken is a freshly generated, single-use password-reset credential.
//
// The Plaintext travels to the user out-of-band (email) and is never stored;
// the store keeps only the Fingerprint and ExpiresAt pair. Redeeming the
// secret recomputes the fingerprint with [FingerprintToken] and compares.
type ResetToken struct {
	// Plaintext is the URL-safe secret embedded in the reset link.
	Plaintext string

	// Fingerprint is the sha256 hex digest of Plaintext — the only form
	// that is ever persisted.
	Fingerprint string

	// ExpiresAt is the absolute instant the secret stops being redeemable.
	ExpiresAt time.Time
}

// NewResetToken generates a cryptographically random reset secret together
// with its storage fingerprint and expiry.
//
// # Why sha256 and not bcrypt?
//
// The secret already carries 256 bits of entropy, so brute-forcing the
// fingerprint is infeasible without a slow hash. A fast, deterministic digest
// is required anyway: the redeem path looks the fingerprint up by equality.
func NewResetToken() (*ResetToken, error) {
	randomBytes := make([]byte, resetTokenBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("sec: failed to generate reset token: %w", err)
	}

	plaintext := hex.EncodeToString(randomBytes)

	return &ResetToken{
		Plaintext:   plaintext,
		Fingerprint: FingerprintToken(plaintext),
		ExpiresAt:   time.Now().Add(ResetTokenTTL),
	}, nil
}

// FingerprintToken computes the deterministic one-way fingerprint of a
// plaintext secret, as stored in the user record.
func FingerprintToken(plaintext string) string {
	digest := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(digest[:])
}
