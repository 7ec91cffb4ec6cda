// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

package account_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trekora/trekora/internal/account"
	"github.com/trekora/trekora/internal/auth"
	"github.com/trekora/trekora/internal/platform/apperr"
	"github.com/trekora/trekora/internal/platform/sec"
	"github.com/trekora/trekora/pkg/pointer"
)

// # Test Doubles

// fakeAccountRepository is an in-memory AccountRepository.
type fakeAccountRepository struct {
	users map[string]*auth.User
}

func newFakeAccountRepository() *fakeAccountRepository {
	return &fakeAccountRepository{users: make(map[string]*auth.User)}
}

func (f *fakeAccountRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := f.users[id]
	if !ok || !user.Active {
		return nil, apperr.NotFound("User not found")
	}
	copied := *user
	return &copied, nil
}

func (f *fakeAccountRepository) Update(_ context.Context, user *auth.User) error {
	for id, existing := range f.users {
		if id != user.ID && existing.Email == user.Email {
			return apperr.Conflict("This email is already registered")
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeAccountRepository) SoftDelete(_ context.Context, id string) error {
	if user, ok := f.users[id]; ok {
		user.Active = false
	}
	return nil
}

func (f *fakeAccountRepository) List(_ context.Context, limit, offset int) ([]*auth.User, int, error) {
	var active []*auth.User
	for _, user := range f.users {
		if user.Active {
			copied := *user
			active = append(active, &copied)
		}
	}

	total := len(active)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return active[offset:end], total, nil
}

// # Fixtures

func newTestAccountService(t *testing.T) (*account.Service, *fakeAccountRepository) {
	t.Helper()

	repository := newFakeAccountRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return account.NewService(repository, logger), repository
}

func seedAccount(repository *fakeAccountRepository, id, name, emailAddress string) {
	repository.users[id] = &auth.User{
		ID:        id,
		Name:      name,
		Email:     emailAddress,
		Role:      sec.RoleUser,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// # Tests

/*
TestService_UpdateProfile verifies the partial-update overlay: provided
fields change, absent fields survive.
*/
func TestService_UpdateProfile(t *testing.T) {
	service, repository := newTestAccountService(t)
	seedAccount(repository, "user-1", "Thorin Trekker", "thorin@trekora.test")

	t.Run("partial overlay", func(t *testing.T) {
		user, err := service.UpdateProfile(context.Background(), "user-1", account.UpdateProfileInput{
			Name: pointer.To("  Thorin the Bold  "),
		})
		require.NoError(t, err)

		// 1. The provided field is trimmed and applied
		assert.Equal(t, "Thorin the Bold", user.Name)

		// 2. Absent fields are untouched
		assert.Equal(t, "thorin@trekora.test", user.Email)
	})

	t.Run("email is normalized", func(t *testing.T) {
		user, err := service.UpdateProfile(context.Background(), "user-1", account.UpdateProfileInput{
			Email: pointer.To(" Thorin@NEW.test "),
		})
		require.NoError(t, err)

		assert.Equal(t, "thorin@new.test", user.Email)
	})

	t.Run("email collision", func(t *testing.T) {
		seedAccount(repository, "user-2", "Gala Guide", "gala@trekora.test")

		_, err := service.UpdateProfile(context.Background(), "user-1", account.UpdateProfileInput{
			Email: pointer.To("gala@trekora.test"),
		})

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 409, appError.HTTPStatus)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := service.UpdateProfile(context.Background(), "no-such-id", account.UpdateProfileInput{
			Name: pointer.To("Ghost"),
		})

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 404, appError.HTTPStatus)
	})
}

/*
TestService_DeleteAccount verifies soft-deletion: the record survives but
stops resolving.
*/
func TestService_DeleteAccount(t *testing.T) {
	service, repository := newTestAccountService(t)
	seedAccount(repository, "user-1", "Thorin Trekker", "thorin@trekora.test")

	require.NoError(t, service.DeleteAccount(context.Background(), "user-1"))

	// The row is retained but no longer visible
	require.Contains(t, repository.users, "user-1")
	_, err := service.GetProfile(context.Background(), "user-1")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 404, appError.HTTPStatus)
}

/*
TestService_ListUsers verifies windowing and the total count.
*/
func TestService_ListUsers(t *testing.T) {
	service, repository := newTestAccountService(t)
	seedAccount(repository, "user-1", "A", "a@trekora.test")
	seedAccount(repository, "user-2", "B", "b@trekora.test")
	seedAccount(repository, "user-3", "C", "c@trekora.test")
	repository.users["user-3"].Active = false

	users, total, err := service.ListUsers(context.Background(), 1, 0)
	require.NoError(t, err)

	// Deactivated accounts are invisible to the listing
	assert.Equal(t, 2, total)
	assert.Len(t, users, 1)
}
