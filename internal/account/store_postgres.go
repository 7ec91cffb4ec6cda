// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

/*
Package account (Postgres) implements the storage layer for profile data.

# Schema Table Mapping
  - users.account: Master identity and profile data.

Column names come from the shared [schema] definitions so queries cannot
drift from the migrated schema.
*/
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trekora/trekora/internal/auth"
	"github.com/trekora/trekora/internal/platform/apperr"
	"github.com/trekora/trekora/internal/platform/database/schema"
	"github.com/trekora/trekora/internal/platform/dberr"
)

// # Account Repository

// PostgresAccountRepository implements the AccountRepository interface using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// profileColumns lists the hydrated columns. Profile reads never touch the
// password hash or the reset pair.
func profileColumns() string {
	t := schema.UserAccount
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s",
		t.ID, t.Name, t.Email, t.Photo, t.Role, t.CreatedAt, t.UpdatedAt)
}

/*
FindByID retrieves an active user record by its primary key.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *auth.User: Hydrated profile entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	t := schema.UserAccount
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s = TRUE`,
		profileColumns(), t.Table, t.ID, t.IsActive)

	user := &auth.User{Active: true}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
Update persists changes to a user's mutable profile fields.

Description: Synchronizes name, email, and photo, refreshing the updatedat
timestamp. An email collision surfaces as a client-safe Conflict.

Parameters:
  - context: context.Context
  - user: *auth.User

Returns:
  - error: apperr.Conflict or update failures
*/
func (repository *PostgresAccountRepository) Update(context context.Context, user *auth.User) error {
	t := schema.UserAccount
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5
		WHERE %s = $1 AND %s = TRUE`,
		t.Table, t.Name, t.Email, t.Photo, t.UpdatedAt, t.ID, t.IsActive)

	user.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Name,
		user.Email,
		user.Photo,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return dberr.Wrap(err, "This email is already registered")
		}
		return fmt.Errorf("postgres_account_repo_update_failed: %w", err)
	}

	return nil
}

/*
SoftDelete flags a user account as inactive.

Description: Retention-friendly deletion. The row stays; visibility ends.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresAccountRepository) SoftDelete(context context.Context, id string) error {
	t := schema.UserAccount
	query := fmt.Sprintf("UPDATE %s SET %s = FALSE, %s = $2 WHERE %s = $1",
		t.Table, t.IsActive, t.UpdatedAt, t.ID)

	_, err := repository.pool.Exec(context, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_soft_delete_failed: %w", err)
	}
	return nil
}

/*
List returns a page of active accounts, newest first.

Description: UUIDv7 primary keys are time-ordered, so the ID sort doubles as
a creation-time sort without touching the timestamp column.

Parameters:
  - context: context.Context
  - limit: int (page size)
  - offset: int (rows to skip)

Returns:
  - []*auth.User: Active accounts in the requested window
  - int: Total active account count, independent of the window
  - error: Retrieval failures
*/
func (repository *PostgresAccountRepository) List(context context.Context, limit, offset int) ([]*auth.User, int, error) {
	t := schema.UserAccount
	countQuery := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s = TRUE", t.Table, t.IsActive)
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = TRUE
		ORDER BY %s DESC
		LIMIT $1 OFFSET $2`,
		profileColumns(), t.Table, t.IsActive, t.ID)

	var total int
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_count_failed: %w", err)
	}

	rows, err := repository.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		user := &auth.User{Active: true}
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Photo,
			&user.Role,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_account_repo_list_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_rows_failed: %w", err)
	}

	return users, total, nil
}
