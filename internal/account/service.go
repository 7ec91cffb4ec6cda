// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/trekora/trekora/internal/auth"
)

// # Service Layer

// Service orchestrates business logic for traveller profiles.
type Service struct {
	accountRepository AccountRepository
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(accountRepo AccountRepository, logger *slog.Logger) *Service {
	return &Service{
		accountRepository: accountRepo,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfileInput defines the mutable subset of profile fields.
// Password changes travel through the auth service, never through here.
type UpdateProfileInput struct {
	Name  *string
	Email *string
	Photo *string
}

/*
UpdateProfile applies a partial set of changes to a user's identity metadata.

Description: Fetches the existing state, overlays the provided fields, and
synchronizes the change to persistent storage.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Conflict (email taken) or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// Apply delta updates
	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Photo != nil {
		user.Photo = *input.Photo
	}

	if err := service.accountRepository.Update(context, user); err != nil {
		return nil, err
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

/*
DeleteAccount performs an idempotent soft-deletion of a user account.

Description: Flags the account as inactive. Outstanding tokens stop
resolving on their next authenticated request because every default lookup
excludes inactive rows.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution failures
*/
func (service *Service) DeleteAccount(context context.Context, userID string) error {
	if err := service.accountRepository.SoftDelete(context, userID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	service.logger.Warn("user_account_deactivated", slog.String("user_id", userID))

	return nil
}

// # Administration

/*
ListUsers returns a page of active accounts for administrative review.

Parameters:
  - context: context.Context
  - limit: int (page size)
  - offset: int (rows to skip)

Returns:
  - []*auth.User: Active accounts, newest first
  - int: Total active account count
  - error: Retrieval failures
*/
func (service *Service) ListUsers(context context.Context, limit, offset int) ([]*auth.User, int, error) {
	users, total, err := service.accountRepository.List(context, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_failed: %w", err)
	}
	return users, total, nil
}
