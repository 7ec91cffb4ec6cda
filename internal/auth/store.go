// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for identity records.
//
// Default lookups never hydrate PasswordHash; the ...WithPassword variants
// exist for the credential-checking paths only. All lookups exclude
// soft-deleted (inactive) accounts.
type UserRepository interface {

	/*
		Create persists a brand-new user account.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on duplicate email, or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		FindByID returns the active account with the given ID, without the
		password hash.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity (PasswordHash empty)
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByIDWithPassword returns the active account with the given ID,
		including the password hash. For credential verification only.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByIDWithPassword(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the active account with the given email, without
		the password hash.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity (PasswordHash empty)
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByEmailWithPassword returns the active account with the given
		email, including the password hash. For the login path only.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmailWithPassword(context context.Context, email string) (*User, error)

	/*
		SetResetToken stores the reset fingerprint and expiry as one atomic
		write. A second call overwrites the previous pair.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - fingerprint: string
		  - expiresAt: time.Time

		Returns:
		  - error: Persistence failures
	*/
	SetResetToken(context context.Context, userID string, fingerprint string, expiresAt time.Time) error

	/*
		ClearResetToken nulls both reset columns as one atomic write.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	ClearResetToken(context context.Context, userID string) error

	/*
		FindByResetFingerprint returns the active account whose stored reset
		fingerprint matches AND whose reset expiry is after now.

		Parameters:
		  - context: context.Context
		  - fingerprint: string
		  - now: time.Time

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound when no live pair matches
	*/
	FindByResetFingerprint(context context.Context, fingerprint string, now time.Time) (*User, error)

	/*
		UpdatePassword replaces the password hash, records the rotation
		watermark, and clears the reset pair in a single statement.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string
		  - changedAt: time.Time

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID string, newHash string, changedAt time.Time) error
}
