// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

/*
HTTP delivery layer for the authentication lifecycle.

It implements the gateway from account creation to session establishment and
password recovery.

# Architecture

The handler acts as a thin mediation layer between the web and [Service]:
  - Protocol: RESTful JSON with the {"status", "token", "data"} envelope.
  - Security: Orchestrates the session cookie alongside the token envelope.
  - Verification: Enforces strict input validation before reaching [Service].

This layer is strictly responsible for transport concerns (status codes,
headers, cookies, JSON).
*/
package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trekora/trekora/internal/platform/constants"
	"github.com/trekora/trekora/internal/platform/middleware"
	requestutil "github.com/trekora/trekora/internal/platform/request"
	"github.com/trekora/trekora/internal/platform/respond"
	"github.com/trekora/trekora/internal/platform/sec"
	"github.com/trekora/trekora/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// Everything related to the session lifecycle entry points: signup, login,
// logout, and the password-reset callbacks.
type Handler struct {
	authService   *Service
	cookieTTL     time.Duration
	secureCookies bool
}

// NewHandler constructs a new [Handler].
//
// # Parameters
//   - service: The authentication service.
//   - cookieTTL: Lifetime of the session cookie.
//   - secureCookies: Marks cookies Secure (production deployments).
func NewHandler(service *Service, cookieTTL time.Duration, secureCookies bool) *Handler {
	return &Handler{
		authService:   service,
		cookieTTL:     cookieTTL,
		secureCookies: secureCookies,
	}
}

// Register mounts the authentication routes onto the given router.
//
// # Endpoints
//   - POST  /signup                  : Creates an account and logs it in.
//   - POST  /login                   : Authenticates and returns a token.
//   - GET   /logout                  : Clears the session cookie.
//   - POST  /forgot-password         : Starts the reset flow.
//   - PATCH /reset-password/{token}  : Completes the reset flow.
//   - PATCH /update-password         : Rotates the password (authenticated).
func (handler *Handler) Register(router chi.Router) {

	// Public endpoints
	router.Post("/signup", handler.signup)
	router.Post("/login", handler.login)
	router.Get("/logout", handler.logout)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Patch("/reset-password/{token}", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(handler.authService))
		r.Patch("/update-password", handler.updatePassword)
	})
}

// # Request Payloads

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Role            string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

/*
Signup handles the creation of a new account.

POST /api/v1/users/signup

Description: Validates input, persists a new account, and immediately
establishes a session (cookie + token envelope).

Request:
  - Body: signupRequest (Name, Email, Password, PasswordConfirm, Role)

Response:
  - 201: TokenEnvelope: Token and created user profile
  - 400: ErrInvalidJSON: Bad input or confirmation mismatch
  - 409: ErrConflict: Email already registered
*/
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	var input signupRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 100).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Confirm(FieldPasswordConfirm, input.Password, input.PasswordConfirm).
		Custom(FieldRole, input.Role != "" && !sec.Role(input.Role).IsValid(), "Unknown role")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, token, err := handler.authService.Signup(request.Context(), SignupInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     sec.Role(input.Role),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.sendSession(writer, http.StatusCreated, token, user)
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/users/login

Description: Verifies credentials and responds with the token envelope plus
the session cookie.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: TokenEnvelope: Token and user profile
  - 400: ErrInvalidJSON: Missing email or password
  - 401: ErrUnauthorized: Incorrect email or password
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, token, err := handler.authService.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.sendSession(writer, http.StatusOK, token, user)
}

/*
Logout clears the session cookie.

GET /api/v1/users/logout

Description: Overwrites the cookie with a short-lived sentinel value. The
token itself stays valid until its natural expiry; no server-side state is
consulted or mutated.

Response:
  - 200: Success envelope
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    constants.LogoutSentinel,
		Path:     "/",
		Expires:  time.Now().Add(constants.LogoutCookieTTL),
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	respond.JSON(writer, http.StatusOK, map[string]string{constants.FieldStatus: "success"})
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/users/forgot-password

Description: Emails a single-use reset link to the account. A delivery
failure rolls the generated secret back before reporting.

Request:
  - Body: forgotPasswordRequest (Email)

Response:
  - 200: Success: Token sent to email
  - 404: ErrNotFound: No account with that email
  - 500: NOTIFICATION_FAILED: Delivery failure (safe to retry)
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ForgotPassword(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Token sent to email!"})
}

/*
ResetPassword completes the password recovery flow.

PATCH /api/v1/users/reset-password/{token}

Description: Validates the plaintext reset secret from the URL, rotates the
credential, and logs the user straight in.

Request:
  - Path: token (plaintext reset secret)
  - Body: resetPasswordRequest (Password, PasswordConfirm)

Response:
  - 200: TokenEnvelope: Fresh token and user profile
  - 400: ErrInvalidJSON: Invalid/expired token or confirmation mismatch
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	plaintextToken := requestutil.Param(request, FieldToken)

	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Confirm(FieldPasswordConfirm, input.Password, input.PasswordConfirm)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, token, err := handler.authService.ResetPassword(request.Context(), plaintextToken, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.sendSession(writer, http.StatusOK, token, user)
}

/*
UpdatePassword rotates the authenticated user's password.

PATCH /api/v1/users/update-password

Description: Verifies the current password before applying the new one, then
re-establishes the session with a fresh token.

Request:
  - Body: updatePasswordRequest (CurrentPassword, Password, PasswordConfirm)

Response:
  - 200: TokenEnvelope: Fresh token and user profile
  - 401: ErrUnauthorized: Session invalid or current password wrong
  - 400: ErrInvalidJSON: Weak password or confirmation mismatch
*/
func (handler *Handler) updatePassword(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updatePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Confirm(FieldPasswordConfirm, input.Password, input.PasswordConfirm)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, token, err := handler.authService.UpdatePassword(
		request.Context(),
		principal.ID,
		input.CurrentPassword,
		input.Password,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.sendSession(writer, http.StatusOK, token, user)
}

// # Session Transport

// sendSession writes the session cookie and the token envelope together.
//
// The cookie serves browser clients; the envelope serves API clients that
// store the token themselves and send it as a Bearer header.
func (handler *Handler) sendSession(writer http.ResponseWriter, statusCode int, token string, user *User) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(handler.cookieTTL),
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	respond.Token(writer, statusCode, token, user)
}
