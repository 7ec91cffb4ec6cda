// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

// PostgreSQL implementation of the auth storage contracts.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, unique violations) are mapped to
// domain-friendly [apperr.AppError] values via [dberr.Wrap] so handlers never
// see pgx internals.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trekora/trekora/internal/platform/apperr"
	"github.com/trekora/trekora/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Column lists for the two hydration modes. The password hash rides only on
// the credential-checking queries.
const (
	userColumns             = "id, name, email, photo, role, passwordchangedat, createdat, updatedat"
	userColumnsWithPassword = "id, name, email, photo, role, passwordchangedat, createdat, updatedat, passwordhash"
)

/*
Create persists a new user record into the users.account table.

Description: Deep-persists the account, initializing timestamps when absent.
A duplicate email surfaces as a client-safe Conflict.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, name, email, photo, role, passwordhash, isactive, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Active = true

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Name,
		user.Email,
		user.Photo,
		user.Role,
		user.PasswordHash,
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return dberr.Wrap(err, "This email is already registered")
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves an active user record by its primary key.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated entity without the password hash
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE id = $1 AND isactive = TRUE`

	user := &User{Active: true}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.PasswordChangedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
FindByIDWithPassword retrieves an active user including the password hash.

Description: Credential-verification lookup for the authenticated
password-change flow. Never used for plain profile reads.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Hydrated entity including PasswordHash
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByIDWithPassword(context context.Context, id string) (*User, error) {
	query := `
		SELECT ` + userColumnsWithPassword + `
		FROM users.account
		WHERE id = $1 AND isactive = TRUE`

	user := &User{Active: true}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.PasswordChangedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.PasswordHash,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_with_password_failed: %w", err)
	}

	return user, nil
}

/*
FindByEmail retrieves an active user record by email.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated entity without the password hash
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE email = $1 AND isactive = TRUE`

	user := &User{Active: true}
	err := repository.pool.QueryRow(context, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.PasswordChangedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindByEmailWithPassword retrieves an active user including the password hash.

Description: Login-path lookup. The hash is compared in the service layer
and never leaves it.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated entity including PasswordHash
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByEmailWithPassword(context context.Context, email string) (*User, error) {
	query := `
		SELECT ` + userColumnsWithPassword + `
		FROM users.account
		WHERE email = $1 AND isactive = TRUE`

	user := &User{Active: true}
	err := repository.pool.QueryRow(context, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.PasswordChangedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.PasswordHash,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_with_password_failed: %w", err)
	}

	return user, nil
}

/*
SetResetToken writes the reset fingerprint and expiry in one statement.

Description: Both columns change together so a crash can never leave a
half-written pair. Re-issuing simply overwrites the previous pair.

Parameters:
  - context: context.Context
  - userID: string
  - fingerprint: string
  - expiresAt: time.Time

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) SetResetToken(context context.Context, userID string, fingerprint string, expiresAt time.Time) error {
	const query = `
		UPDATE users.account
		SET resettokenhash = $2, resettokenexpiresat = $3, updatedat = $4
		WHERE id = $1 AND isactive = TRUE`

	_, err := repository.pool.Exec(context, query, userID, fingerprint, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_reset_token_failed: %w", err)
	}

	return nil
}

/*
ClearResetToken nulls both reset columns in one statement.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) ClearResetToken(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET resettokenhash = NULL, resettokenexpiresat = NULL, updatedat = $2
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_clear_reset_token_failed: %w", err)
	}

	return nil
}

/*
FindByResetFingerprint resolves a live reset fingerprint into its account.

Description: The expiry check happens inside the WHERE clause, so an expired
pair is indistinguishable from a bogus token.

Parameters:
  - context: context.Context
  - fingerprint: string
  - now: time.Time

Returns:
  - *User: Hydrated entity without the password hash
  - error: apperr.NotFound when no live pair matches
*/
func (repository *PostgresUserRepository) FindByResetFingerprint(context context.Context, fingerprint string, now time.Time) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE resettokenhash = $1 AND resettokenexpiresat > $2 AND isactive = TRUE`

	user := &User{Active: true}
	err := repository.pool.QueryRow(context, query, fingerprint, now).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.PasswordChangedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_reset_fingerprint_failed: %w", err)
	}

	return user, nil
}

/*
UpdatePassword rotates the credential in a single statement.

Description: Replaces the hash, stamps the rotation watermark, and clears
the reset pair together so no intermediate state is ever visible.

Parameters:
  - context: context.Context
  - userID: string
  - newHash: string
  - changedAt: time.Time

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID string, newHash string, changedAt time.Time) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2,
		    passwordchangedat = $3,
		    resettokenhash = NULL,
		    resettokenexpiresat = NULL,
		    updatedat = $4
		WHERE id = $1 AND isactive = TRUE`

	_, err := repository.pool.Exec(context, query, userID, newHash, changedAt, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}

	return nil
}
