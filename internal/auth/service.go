// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trekora/trekora/internal/platform/apperr"
	"github.com/trekora/trekora/internal/platform/email"
	"github.com/trekora/trekora/internal/platform/sec"
	"github.com/trekora/trekora/pkg/uuidv7"
)

// # Contracts & Types

// TokenProvider defines the contract for issuing and verifying identity tokens.
type TokenProvider interface {
	// Issue creates a signed identity token for the given user ID.
	Issue(subject string) (string, error)

	// Verify checks signature and validity window, returning the claims or
	// one of the sec.ErrToken* sentinels.
	Verify(token string) (*sec.TokenClaims, error)
}

// passwordChangeRewind is subtracted from the rotation watermark so a token
// minted in the same second as the rotation is not rejected as stale.
const passwordChangeRewind = 1 * time.Second

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, login, or
// the reset flow must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	tokenProvider  TokenProvider
	mailer         email.Sender
	baseURL        string
}

// NewService constructs a new [Service] with its dependencies.
func NewService(userRepo UserRepository, tokenProv TokenProvider, mailer email.Sender, baseURL string) *Service {
	return &Service{
		userRepository: userRepo,
		tokenProvider:  tokenProv,
		mailer:         mailer,
		baseURL:        strings.TrimRight(baseURL, "/"),
	}
}

// # Registration & Login

// SignupInput holds the data required to enroll a new traveller.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     sec.Role
}

/*
Signup hashes, persists, and immediately authenticates a new account.

Description: Creates the account and establishes a session in the same call,
so the client is logged in right after registering.

Parameters:
  - context: context.Context
  - input: SignupInput

Returns:
  - *User: Created entity
  - string: Signed identity token
  - error: Conflict (duplicate email) or storage errors
*/
func (service *Service) Signup(context context.Context, input SignupInput) (*User, string, error) {

	// Prevent storing plain-text passwords.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// The role arrives from the request payload and defaults to the lowest
	// privilege when absent.
	role := input.Role
	if role == "" {
		role = sec.RoleUser
	}

	// Time-sortable ID to keep the PG primary key index append-friendly.
	user := &User{
		ID:           uuidv7.New(),
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		PasswordHash: hashedPassword,
		Role:         role,
		Active:       true,
	}

	// Persist. A duplicate email surfaces as a client-safe Conflict.
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, "", err
	}

	token, err := service.tokenProvider.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	return user, token, nil
}

/*
Login validates credentials and issues an identity token.

Description: Performs a constant-time hash comparison. Unknown email and
wrong password produce the identical response to prevent account
enumeration.

Parameters:
  - context: context.Context
  - emailAddress: string
  - password: string

Returns:
  - *User: Authenticated entity
  - string: Signed identity token
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, emailAddress, password string) (*User, string, error) {
	user, err := service.userRepository.FindByEmailWithPassword(context, normalizeEmail(emailAddress))

	// Unknown email and wrong password are indistinguishable to the caller.
	if err != nil {
		return nil, "", apperr.Unauthorized("Incorrect email or password")
	}
	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", apperr.Unauthorized("Incorrect email or password")
	}

	token, err := service.tokenProvider.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	// The hash was only needed for the comparison above.
	user.PasswordHash = ""

	return user, token, nil
}

// # Session Resolution

/*
AuthenticateToken resolves a raw token string into an authenticated principal.

Description: Verifies the signature and validity window, re-fetches the
subject from the store (deleted accounts are rejected), and rejects tokens
issued before the subject's last password rotation.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *sec.Principal: Resolved identity snapshot
  - error: apperr.Unauthorized for every rejection class
*/
func (service *Service) AuthenticateToken(context context.Context, token string) (*sec.Principal, error) {

	// ── 1. Signature & Expiry ─────────────────────────────────────────────
	claims, err := service.tokenProvider.Verify(token)
	if err != nil {
		return nil, classifyVerifyError(err)
	}

	// ── 2. Subject Resolution ─────────────────────────────────────────────
	user, err := service.userRepository.FindByID(context, claims.Subject())
	if err != nil {
		return nil, apperr.Unauthorized("The user belonging to this token does no longer exist.")
	}

	// ── 3. Credential Staleness ───────────────────────────────────────────
	if user.PasswordChangedAfter(claims.IssuedAt()) {
		return nil, apperr.Unauthorized("User recently changed password. Please log in again.")
	}

	return user.Principal(), nil
}

// classifyVerifyError maps token verification sentinels onto client-safe 401s.
func classifyVerifyError(err error) error {
	if errors.Is(err, sec.ErrTokenExpired) {
		return apperr.Unauthorized("Your token has expired. Please log in again.")
	}
	return apperr.Unauthorized("Invalid token. Please log in again.")
}

// # Password Lifecycle

/*
ForgotPassword initiates the reset flow for the given email.

Description: Generates a single-use secret, persists its fingerprint and
expiry atomically, and emails the plaintext inside a reset link. If the email
cannot be sent the pair is rolled back so no orphaned secret survives.

Parameters:
  - context: context.Context
  - emailAddress: string

Returns:
  - error: apperr.NotFound for unknown emails, apperr.SendFailure on
    delivery failure, or storage errors
*/
func (service *Service) ForgotPassword(context context.Context, emailAddress string) error {
	user, err := service.userRepository.FindByEmail(context, normalizeEmail(emailAddress))
	if err != nil {
		return apperr.NotFound("There is no user with that email address.")
	}

	// ── 1. Generate & Persist ─────────────────────────────────────────────
	resetToken, err := sec.NewResetToken()
	if err != nil {
		return fmt.Errorf("auth_service_reset_token_failed: %w", err)
	}

	if err := service.userRepository.SetResetToken(context, user.ID, resetToken.Fingerprint, resetToken.ExpiresAt); err != nil {
		return err
	}

	// ── 2. Deliver ────────────────────────────────────────────────────────
	resetURL := fmt.Sprintf("%s/api/v1/users/reset-password/%s", service.baseURL, resetToken.Plaintext)
	message := email.Message{
		To:      user.Email,
		Subject: "Your password reset token (valid for 10 min)",
		BodyText: fmt.Sprintf(
			"Forgot your password? Submit a PATCH request with your new password and password confirmation to: %s\nIf you didn't forget your password, please ignore this email!",
			resetURL,
		),
		Tag: "password-reset",
	}

	if err := service.mailer.Send(context, message); err != nil {
		// Roll the pair back so the undeliverable secret cannot linger. A
		// failed rollback rides along in the cause for the server-side log.
		if clearErr := service.userRepository.ClearResetToken(context, user.ID); clearErr != nil {
			err = fmt.Errorf("auth_service_reset_rollback_failed: %w (send: %w)", clearErr, err)
		}
		return apperr.SendFailure(err)
	}

	return nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Resolves the plaintext secret via its fingerprint, rotates the
credential, clears the pair, and issues a fresh token (auto-login).

Parameters:
  - context: context.Context
  - plaintextToken: string
  - newPassword: string

Returns:
  - *User: Entity with the rotated credential
  - string: Fresh identity token
  - error: BadRequest for invalid/expired tokens, or storage errors
*/
func (service *Service) ResetPassword(context context.Context, plaintextToken, newPassword string) (*User, string, error) {
	fingerprint := sec.FingerprintToken(plaintextToken)

	user, err := service.userRepository.FindByResetFingerprint(context, fingerprint, time.Now())
	if err != nil {
		return nil, "", apperr.BadRequest("Token is invalid or has expired")
	}

	if user, err = service.rotatePassword(context, user, newPassword); err != nil {
		return nil, "", err
	}

	token, err := service.tokenProvider.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	return user, token, nil
}

/*
UpdatePassword rotates the credential of an authenticated user.

Description: Verifies the current password before applying the new one, then
issues a fresh token so the session outlives its own rotation watermark.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - *User: Entity with the rotated credential
  - string: Fresh identity token
  - error: Unauthorized for a wrong current password, or storage errors
*/
func (service *Service) UpdatePassword(context context.Context, userID, currentPassword, newPassword string) (*User, string, error) {
	user, err := service.userRepository.FindByIDWithPassword(context, userID)
	if err != nil {
		return nil, "", err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return nil, "", apperr.Unauthorized("Your current password is wrong.")
	}

	if user, err = service.rotatePassword(context, user, newPassword); err != nil {
		return nil, "", err
	}

	token, err := service.tokenProvider.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	return user, token, nil
}

// rotatePassword hashes the new credential and persists the rotation.
//
// The watermark is rewound by one second so the token issued immediately
// after by the same flow is never itself considered stale.
func (service *Service) rotatePassword(context context.Context, user *User, newPassword string) (*User, error) {
	newHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	changedAt := time.Now().Add(-passwordChangeRewind)
	if err := service.userRepository.UpdatePassword(context, user.ID, newHash, changedAt); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	user.PasswordChangedAt = &changedAt
	user.ResetTokenFingerprint = nil
	user.ResetTokenExpiresAt = nil

	return user, nil
}

// # Helpers

// normalizeEmail canonicalizes an address for storage and lookup.
func normalizeEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
