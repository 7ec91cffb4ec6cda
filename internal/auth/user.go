// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

/*
Package auth implements the identity and session-authorization layer.

It defines the core User entity and the logic for registration, login,
token-based session resolution, and the password lifecycle (update, forgot,
reset).

# Architecture

This layer is the "Truth" of the system. Entities defined here encapsulate
all business rules related to user identity; transport and storage adapters
depend on it, never the other way round.
*/
package auth

import (
	"time"

	"github.com/trekora/trekora/internal/platform/sec"
)

// # Domain Entities

// User represents a registered traveller, guide, or administrator.
//
// PasswordHash and the reset-token pair are never serialized. Repository
// queries omit the hash column by default; only the ...WithPassword lookups
// hydrate it.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Photo string   `json:"photo,omitempty"`
	Role  sec.Role `json:"role"`

	PasswordHash string `json:"-"`

	// PasswordChangedAt is the credential-rotation watermark. Any token
	// issued before this instant is rejected as stale.
	PasswordChangedAt *time.Time `json:"-"`

	// ResetTokenFingerprint and ResetTokenExpiresAt form the outstanding
	// password-reset pair. Both set or both clear, never half.
	ResetTokenFingerprint *string    `json:"-"`
	ResetTokenExpiresAt   *time.Time `json:"-"`

	// Active is false after a self-service account deletion. Inactive
	// accounts are invisible to every default query.
	Active bool `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PasswordChangedAfter reports whether the user rotated their password after
// the given instant. Used to invalidate tokens issued before the rotation.
//
// The watermark is written with a one-second rewind (see Service), so a token
// minted by the same flow that rotated the password never trips this check.
func (user *User) PasswordChangedAfter(instant time.Time) bool {
	if user.PasswordChangedAt == nil {
		return false
	}
	return user.PasswordChangedAt.After(instant)
}

// Principal converts the user into the read-only identity snapshot attached
// to authenticated request contexts.
func (user *User) Principal() *sec.Principal {
	return &sec.Principal{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

// # Field Identifiers

// Field names used for validation details and identity mapping in this domain.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldPasswordConfirm = "password_confirm"
	FieldRole            = "role"
	FieldToken           = "token"
	FieldCurrentPassword = "current_password"
	FieldMessage         = "message"
)
