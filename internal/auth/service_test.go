// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trekora/trekora/internal/auth"
	"github.com/trekora/trekora/internal/platform/apperr"
	"github.com/trekora/trekora/internal/platform/email"
	"github.com/trekora/trekora/internal/platform/sec"
)

// # Test Doubles

// fakeUserRepository is an in-memory UserRepository.
type fakeUserRepository struct {
	users           map[string]*auth.User
	clearResetCalls int
	clearResetErr   error
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[string]*auth.User)}
}

func (f *fakeUserRepository) Create(_ context.Context, user *auth.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return apperr.Conflict("This email is already registered")
		}
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := f.users[id]
	if !ok || !user.Active {
		return nil, apperr.NotFound("User not found")
	}
	return f.clone(user, false), nil
}

func (f *fakeUserRepository) FindByIDWithPassword(_ context.Context, id string) (*auth.User, error) {
	user, ok := f.users[id]
	if !ok || !user.Active {
		return nil, apperr.NotFound("User not found")
	}
	return f.clone(user, true), nil
}

func (f *fakeUserRepository) FindByEmail(_ context.Context, address string) (*auth.User, error) {
	for _, user := range f.users {
		if user.Email == address && user.Active {
			return f.clone(user, false), nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (f *fakeUserRepository) FindByEmailWithPassword(_ context.Context, address string) (*auth.User, error) {
	for _, user := range f.users {
		if user.Email == address && user.Active {
			return f.clone(user, true), nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (f *fakeUserRepository) SetResetToken(_ context.Context, userID, fingerprint string, expiresAt time.Time) error {
	user, ok := f.users[userID]
	if !ok {
		return apperr.NotFound("User not found")
	}
	user.ResetTokenFingerprint = &fingerprint
	user.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (f *fakeUserRepository) ClearResetToken(_ context.Context, userID string) error {
	f.clearResetCalls++
	if f.clearResetErr != nil {
		return f.clearResetErr
	}
	if user, ok := f.users[userID]; ok {
		user.ResetTokenFingerprint = nil
		user.ResetTokenExpiresAt = nil
	}
	return nil
}

func (f *fakeUserRepository) FindByResetFingerprint(_ context.Context, fingerprint string, now time.Time) (*auth.User, error) {
	for _, user := range f.users {
		if user.Active &&
			user.ResetTokenFingerprint != nil && *user.ResetTokenFingerprint == fingerprint &&
			user.ResetTokenExpiresAt != nil && user.ResetTokenExpiresAt.After(now) {
			return f.clone(user, false), nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (f *fakeUserRepository) UpdatePassword(_ context.Context, userID, newHash string, changedAt time.Time) error {
	user, ok := f.users[userID]
	if !ok {
		return apperr.NotFound("User not found")
	}
	user.PasswordHash = newHash
	user.PasswordChangedAt = &changedAt
	user.ResetTokenFingerprint = nil
	user.ResetTokenExpiresAt = nil
	return nil
}

func (f *fakeUserRepository) clone(user *auth.User, withPassword bool) *auth.User {
	copied := *user
	if !withPassword {
		copied.PasswordHash = ""
	}
	return &copied
}

// stored returns the canonical record, bypassing hydration rules.
func (f *fakeUserRepository) stored(userID string) *auth.User {
	return f.users[userID]
}

// fakeMailer records outbound messages and can simulate delivery failure.
type fakeMailer struct {
	sent    []email.Message
	sendErr error
}

func (m *fakeMailer) Send(_ context.Context, message email.Message) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, message)
	return nil
}

// # Fixtures

func newTestService(t *testing.T) (*auth.Service, *fakeUserRepository, *fakeMailer, *sec.TokenService) {
	t.Helper()

	tokens, err := sec.NewTokenService("unit-test-secret", "trekora.test", time.Hour)
	require.NoError(t, err)

	repository := newFakeUserRepository()
	mailer := &fakeMailer{}
	service := auth.NewService(repository, tokens, mailer, "https://trekora.test")

	return service, repository, mailer, tokens
}

func signupUser(t *testing.T, service *auth.Service, emailAddress string) (*auth.User, string) {
	t.Helper()

	user, token, err := service.Signup(context.Background(), auth.SignupInput{
		Name:     "Thorin Trekker",
		Email:    emailAddress,
		Password: "pass1234",
	})
	require.NoError(t, err)

	return user, token
}

func assertUnauthorized(t *testing.T, err error, message string) {
	t.Helper()

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 401, appError.HTTPStatus)
	assert.Equal(t, message, appError.Message)
}

// # Registration & Login

/*
TestService_Signup verifies account creation: hashing, role defaulting,
email normalization, and the immediate session token.
*/
func TestService_Signup(t *testing.T) {
	service, repository, _, tokens := newTestService(t)

	user, token, err := service.Signup(context.Background(), auth.SignupInput{
		Name:     "Thorin Trekker",
		Email:    "  Thorin@Trekora.TEST ",
		Password: "pass1234",
	})
	require.NoError(t, err)

	// 1. Role defaults to the lowest privilege
	assert.Equal(t, sec.RoleUser, user.Role)

	// 2. Email is lowercased and trimmed
	assert.Equal(t, "thorin@trekora.test", user.Email)

	// 3. The stored credential is a hash, never the plaintext
	stored := repository.stored(user.ID)
	require.NotNil(t, stored)
	assert.NotEqual(t, "pass1234", stored.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("pass1234", stored.PasswordHash))

	// 4. The token identifies the new account
	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject())
}

/*
TestService_Signup_RoleFromInput verifies that a caller-supplied role is
persisted as given.
*/
func TestService_Signup_RoleFromInput(t *testing.T) {
	service, _, _, _ := newTestService(t)

	user, _, err := service.Signup(context.Background(), auth.SignupInput{
		Name:     "Gala Guide",
		Email:    "gala@trekora.test",
		Password: "pass1234",
		Role:     sec.RoleGuide,
	})
	require.NoError(t, err)

	assert.Equal(t, sec.RoleGuide, user.Role)
}

/*
TestService_Signup_DuplicateEmail verifies the conflict surface.
*/
func TestService_Signup_DuplicateEmail(t *testing.T) {
	service, _, _, _ := newTestService(t)
	signupUser(t, service, "thorin@trekora.test")

	_, _, err := service.Signup(context.Background(), auth.SignupInput{
		Name:     "Imposter",
		Email:    "thorin@trekora.test",
		Password: "pass1234",
	})

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 409, appError.HTTPStatus)
}

/*
TestService_Login verifies credential checking and enumeration resistance:
unknown email and wrong password are indistinguishable.
*/
func TestService_Login(t *testing.T) {
	service, _, _, tokens := newTestService(t)
	created, _ := signupUser(t, service, "thorin@trekora.test")

	t.Run("success", func(t *testing.T) {
		user, token, err := service.Login(context.Background(), "thorin@trekora.test", "pass1234")
		require.NoError(t, err)

		assert.Equal(t, created.ID, user.ID)
		assert.Empty(t, user.PasswordHash)

		claims, err := tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, created.ID, claims.Subject())
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := service.Login(context.Background(), "nobody@trekora.test", "pass1234")
		assertUnauthorized(t, err, "Incorrect email or password")
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := service.Login(context.Background(), "thorin@trekora.test", "wrong-password")
		assertUnauthorized(t, err, "Incorrect email or password")
	})
}

// # Session Resolution

/*
TestService_AuthenticateToken verifies the full resolution pipeline:
signature, subject existence, and credential staleness.
*/
func TestService_AuthenticateToken(t *testing.T) {
	service, repository, _, _ := newTestService(t)
	created, token := signupUser(t, service, "thorin@trekora.test")

	t.Run("valid token", func(t *testing.T) {
		principal, err := service.AuthenticateToken(context.Background(), token)
		require.NoError(t, err)

		assert.Equal(t, created.ID, principal.ID)
		assert.Equal(t, "thorin@trekora.test", principal.Email)
		assert.Equal(t, sec.RoleUser, principal.Role)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := service.AuthenticateToken(context.Background(), "loggedOut")
		assertUnauthorized(t, err, "Invalid token. Please log in again.")
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived, err := sec.NewTokenService("unit-test-secret", "trekora.test", time.Millisecond)
		require.NoError(t, err)
		expired, err := shortLived.Issue(created.ID)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)

		_, err = service.AuthenticateToken(context.Background(), expired)
		assertUnauthorized(t, err, "Your token has expired. Please log in again.")
	})

	t.Run("deleted subject", func(t *testing.T) {
		repository.stored(created.ID).Active = false
		defer func() { repository.stored(created.ID).Active = true }()

		_, err := service.AuthenticateToken(context.Background(), token)
		assertUnauthorized(t, err, "The user belonging to this token does no longer exist.")
	})

	t.Run("stale credentials", func(t *testing.T) {
		rotatedAt := time.Now().Add(time.Minute)
		repository.stored(created.ID).PasswordChangedAt = &rotatedAt
		defer func() { repository.stored(created.ID).PasswordChangedAt = nil }()

		_, err := service.AuthenticateToken(context.Background(), token)
		assertUnauthorized(t, err, "User recently changed password. Please log in again.")
	})
}

// # Password Recovery

/*
TestService_ForgotPassword verifies the issue path: fingerprint-only
storage, the emailed link, and rollback on delivery failure.
*/
func TestService_ForgotPassword(t *testing.T) {
	t.Run("unknown email", func(t *testing.T) {
		service, _, _, _ := newTestService(t)

		err := service.ForgotPassword(context.Background(), "nobody@trekora.test")

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 404, appError.HTTPStatus)
		assert.Equal(t, "There is no user with that email address.", appError.Message)
	})

	t.Run("success", func(t *testing.T) {
		service, repository, mailer, _ := newTestService(t)
		created, _ := signupUser(t, service, "thorin@trekora.test")

		require.NoError(t, service.ForgotPassword(context.Background(), "thorin@trekora.test"))

		// 1. Exactly one message, addressed to the account
		require.Len(t, mailer.sent, 1)
		message := mailer.sent[0]
		assert.Equal(t, "thorin@trekora.test", message.To)
		assert.Contains(t, message.BodyText, "https://trekora.test/api/v1/users/reset-password/")

		// 2. Storage holds the fingerprint, never the plaintext
		stored := repository.stored(created.ID)
		require.NotNil(t, stored.ResetTokenFingerprint)
		require.NotNil(t, stored.ResetTokenExpiresAt)
		assert.NotContains(t, message.BodyText, *stored.ResetTokenFingerprint)
		assert.WithinDuration(t, time.Now().Add(sec.ResetTokenTTL), *stored.ResetTokenExpiresAt, 2*time.Second)
	})

	t.Run("delivery failure rolls the pair back", func(t *testing.T) {
		service, repository, mailer, _ := newTestService(t)
		created, _ := signupUser(t, service, "thorin@trekora.test")
		mailer.sendErr = errors.New("smtp: connection refused")

		err := service.ForgotPassword(context.Background(), "thorin@trekora.test")

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 500, appError.HTTPStatus)
		assert.Equal(t, "NOTIFICATION_FAILED", appError.Code)

		stored := repository.stored(created.ID)
		assert.Nil(t, stored.ResetTokenFingerprint)
		assert.Nil(t, stored.ResetTokenExpiresAt)
		assert.Equal(t, 1, repository.clearResetCalls)
	})

	t.Run("failed rollback surfaces in the cause", func(t *testing.T) {
		service, repository, mailer, _ := newTestService(t)
		signupUser(t, service, "thorin@trekora.test")
		mailer.sendErr = errors.New("smtp: connection refused")
		repository.clearResetErr = errors.New("pool closed")

		err := service.ForgotPassword(context.Background(), "thorin@trekora.test")

		// The client still sees the retryable delivery failure, but the
		// server-side cause records that the secret could not be cleared.
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "NOTIFICATION_FAILED", appError.Code)
		require.NotNil(t, appError.Cause)
		assert.Contains(t, appError.Cause.Error(), "auth_service_reset_rollback_failed")
		assert.Contains(t, appError.Cause.Error(), "pool closed")
	})

	t.Run("reissue replaces the outstanding secret", func(t *testing.T) {
		service, repository, mailer, _ := newTestService(t)
		created, _ := signupUser(t, service, "thorin@trekora.test")

		require.NoError(t, service.ForgotPassword(context.Background(), "thorin@trekora.test"))
		firstFingerprint := *repository.stored(created.ID).ResetTokenFingerprint

		require.NoError(t, service.ForgotPassword(context.Background(), "thorin@trekora.test"))

		// Only one secret is ever outstanding; the stored fingerprint now
		// belongs to the second message.
		require.Len(t, mailer.sent, 2)
		stored := repository.stored(created.ID)
		require.NotNil(t, stored.ResetTokenFingerprint)
		assert.NotEqual(t, firstFingerprint, *stored.ResetTokenFingerprint)
		assert.Equal(t, sec.FingerprintToken(extractResetPlaintext(t, mailer.sent[1])), *stored.ResetTokenFingerprint)
	})
}

// extractResetPlaintext pulls the plaintext secret out of the emailed link.
func extractResetPlaintext(t *testing.T, message email.Message) string {
	t.Helper()

	const marker = "/api/v1/users/reset-password/"
	index := len(marker)
	start := -1
	for i := 0; i+index <= len(message.BodyText); i++ {
		if message.BodyText[i:i+index] == marker {
			start = i + index
			break
		}
	}
	require.GreaterOrEqual(t, start, 0, "reset link not found in message body")

	end := start
	for end < len(message.BodyText) && isHexChar(message.BodyText[end]) {
		end++
	}
	return message.BodyText[start:end]
}

func isHexChar(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

/*
TestService_ResetPassword verifies the redeem path end to end using the
plaintext from the emailed link.
*/
func TestService_ResetPassword(t *testing.T) {
	t.Run("invalid token", func(t *testing.T) {
		service, _, _, _ := newTestService(t)

		_, _, err := service.ResetPassword(context.Background(), "bogus-token", "newpass123")

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 400, appError.HTTPStatus)
		assert.Equal(t, "Token is invalid or has expired", appError.Message)
	})

	t.Run("expired token", func(t *testing.T) {
		service, repository, mailer, _ := newTestService(t)
		created, _ := signupUser(t, service, "thorin@trekora.test")
		require.NoError(t, service.ForgotPassword(context.Background(), "thorin@trekora.test"))

		// Force the stored pair into the past.
		past := time.Now().Add(-time.Minute)
		repository.stored(created.ID).ResetTokenExpiresAt = &past

		plaintext := extractResetPlaintext(t, mailer.sent[0])
		_, _, err := service.ResetPassword(context.Background(), plaintext, "newpass123")

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 400, appError.HTTPStatus)
	})

	t.Run("success", func(t *testing.T) {
		service, repository, mailer, tokens := newTestService(t)
		created, _ := signupUser(t, service, "thorin@trekora.test")
		require.NoError(t, service.ForgotPassword(context.Background(), "thorin@trekora.test"))

		plaintext := extractResetPlaintext(t, mailer.sent[0])
		user, token, err := service.ResetPassword(context.Background(), plaintext, "newpass123")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)

		// 1. The credential rotated and the pair is gone
		stored := repository.stored(created.ID)
		assert.True(t, sec.CheckPasswordHash("newpass123", stored.PasswordHash))
		assert.Nil(t, stored.ResetTokenFingerprint)
		assert.Nil(t, stored.ResetTokenExpiresAt)

		// 2. The rotation watermark is set, rewound behind the new token
		require.NotNil(t, stored.PasswordChangedAt)
		assert.True(t, stored.PasswordChangedAt.Before(time.Now()))

		// 3. Auto-login: the fresh token resolves immediately
		claims, err := tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, created.ID, claims.Subject())

		principal, err := service.AuthenticateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, created.ID, principal.ID)
	})

	t.Run("reissued secret invalidates the prior one", func(t *testing.T) {
		service, _, mailer, _ := newTestService(t)
		created, _ := signupUser(t, service, "thorin@trekora.test")

		require.NoError(t, service.ForgotPassword(context.Background(), "thorin@trekora.test"))
		require.NoError(t, service.ForgotPassword(context.Background(), "thorin@trekora.test"))
		require.Len(t, mailer.sent, 2)

		// 1. The first, unexpired plaintext no longer redeems
		firstPlaintext := extractResetPlaintext(t, mailer.sent[0])
		_, _, err := service.ResetPassword(context.Background(), firstPlaintext, "newpass123")
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 400, appError.HTTPStatus)

		// 2. The second one does
		secondPlaintext := extractResetPlaintext(t, mailer.sent[1])
		user, _, err := service.ResetPassword(context.Background(), secondPlaintext, "newpass123")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("token is single use", func(t *testing.T) {
		service, _, mailer, _ := newTestService(t)
		signupUser(t, service, "thorin@trekora.test")
		require.NoError(t, service.ForgotPassword(context.Background(), "thorin@trekora.test"))

		plaintext := extractResetPlaintext(t, mailer.sent[0])
		_, _, err := service.ResetPassword(context.Background(), plaintext, "newpass123")
		require.NoError(t, err)

		_, _, err = service.ResetPassword(context.Background(), plaintext, "anotherpass1")
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 400, appError.HTTPStatus)
	})
}

/*
TestService_UpdatePassword verifies the authenticated rotation path.
*/
func TestService_UpdatePassword(t *testing.T) {
	t.Run("wrong current password", func(t *testing.T) {
		service, _, _, _ := newTestService(t)
		created, _ := signupUser(t, service, "thorin@trekora.test")

		_, _, err := service.UpdatePassword(context.Background(), created.ID, "wrong-password", "newpass123")
		assertUnauthorized(t, err, "Your current password is wrong.")
	})

	t.Run("success keeps the new session live", func(t *testing.T) {
		service, repository, _, _ := newTestService(t)
		created, _ := signupUser(t, service, "thorin@trekora.test")

		user, token, err := service.UpdatePassword(context.Background(), created.ID, "pass1234", "newpass123")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
		assert.Empty(t, user.PasswordHash)

		// 1. Only the new credential verifies
		stored := repository.stored(created.ID)
		assert.False(t, sec.CheckPasswordHash("pass1234", stored.PasswordHash))
		assert.True(t, sec.CheckPasswordHash("newpass123", stored.PasswordHash))

		// 2. The watermark rewind keeps the fresh token valid
		principal, err := service.AuthenticateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, created.ID, principal.ID)
	})

	t.Run("rotation invalidates earlier sessions", func(t *testing.T) {
		service, _, _, _ := newTestService(t)
		created, oldToken := signupUser(t, service, "thorin@trekora.test")

		// Token timestamps have second granularity and the rotation
		// watermark is rewound one second, so put the old token clearly
		// behind the rotation instant.
		time.Sleep(1100 * time.Millisecond)

		_, freshToken, err := service.UpdatePassword(context.Background(), created.ID, "pass1234", "newpass123")
		require.NoError(t, err)

		// 1. The pre-rotation session is rejected as stale
		_, err = service.AuthenticateToken(context.Background(), oldToken)
		assertUnauthorized(t, err, "User recently changed password. Please log in again.")

		// 2. The session minted by the rotation itself keeps working
		principal, err := service.AuthenticateToken(context.Background(), freshToken)
		require.NoError(t, err)
		assert.Equal(t, created.ID, principal.ID)
	})
}
