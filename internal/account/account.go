// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

/*
Package account handles traveller profile self-service and administration.

It provides the authenticated user's view of their own identity (read,
update, soft-delete) and the admin-only account listing.

# Architecture

  - Domain: Depends on the auth package for the User entity.
  - Security: Every route sits behind the strict authentication gate;
    the listing additionally requires the admin role.
*/
package account

import (
	"context"

	"github.com/trekora/trekora/internal/auth"
)

// # Repository Contracts

// AccountRepository defines the persistence contract for profile self-service.
type AccountRepository interface {
	/*
		FindByID retrieves an active user record by ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		Update modifies the mutable profile fields of an existing user.

		Parameters:
		  - context: context.Context
		  - user: *auth.User (Hydrated entity with changes)

		Returns:
		  - error: apperr.Conflict on a duplicate email, or storage failures
	*/
	Update(context context.Context, user *auth.User) error

	/*
		SoftDelete flags an account as inactive. The row survives for
		retention; every default query stops seeing it.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Execution failures
	*/
	SoftDelete(context context.Context, id string) error

	/*
		List returns a page of active accounts, newest first.

		Parameters:
		  - context: context.Context
		  - limit: int (page size)
		  - offset: int (rows to skip)

		Returns:
		  - []*auth.User: Active accounts in the requested window
		  - int: Total active account count
		  - error: Retrieval failures
	*/
	List(context context.Context, limit, offset int) ([]*auth.User, int, error)
}
