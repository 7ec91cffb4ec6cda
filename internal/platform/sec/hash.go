// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost is the bcrypt work factor. 12 is tuned so a single hash
// takes in the low hundreds of milliseconds on our production hardware.
const passwordHashCost = 12

// HashPassword hashes a plain-text password using the bcrypt algorithm.
// The plaintext never leaves this function: it is not logged and not returned.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), passwordHashCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
// The comparison is constant-time, delegated to bcrypt's own routine.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}
