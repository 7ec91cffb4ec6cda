// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/trekora/trekora/internal/platform/apperr"
	"github.com/trekora/trekora/internal/platform/constants"
	"github.com/trekora/trekora/internal/platform/ctxutil"
	"github.com/trekora/trekora/internal/platform/respond"
	"github.com/trekora/trekora/internal/platform/sec"
)

// SessionAuthenticator resolves a raw token string into an authenticated principal.
//
// # Why an interface?
//
// Resolution requires both signature verification AND a user-store lookup
// (deleted accounts and stale credentials must be rejected). Defining the
// contract here decouples the middleware from the auth service implementation
// and lets tests inject fakes.
type SessionAuthenticator interface {
	// AuthenticateToken verifies the token and resolves its subject.
	//
	// Returns [apperr.Unauthorized]-class errors for every rejection:
	// bad signature, expired, deleted subject, or credentials rotated
	// after the token was issued.
	AuthenticateToken(ctx context.Context, token string) (*sec.Principal, error)
}

// Authenticate is the hard authorization gate for protected endpoints.
//
// # Flow
//  1. Extract the token: 'Authorization: Bearer <token>' header first,
//     session cookie as fallback.
//  2. If absent, abort with HTTP 401.
//  3. Resolve via [SessionAuthenticator] (signature, expiry, subject
//     existence, credential staleness).
//  4. Inject the resolved [*sec.Principal] into the request context.
func Authenticate(authenticator SessionAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token := TokenFromRequest(request)

			// ── 1. Missing Token ──────────────────────────────────────────────
			if token == "" {
				respond.Error(writer, request, apperr.Unauthorized("You are not logged in. Please log in to get access."))
				return
			}

			// ── 2. Verification & Subject Resolution ──────────────────────────
			user, err := authenticator.AuthenticateToken(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithPrincipal(request.Context(), user)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// AuthenticateOptional is the soft variant used on anonymous-safe paths.
//
// It runs the exact same checks as [Authenticate] but never fails the
// request: any missing, invalid, expired, or stale token silently resolves
// to an anonymous request. Handlers downstream see a nil principal.
func AuthenticateOptional(authenticator SessionAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token := TokenFromRequest(request)
			if token == "" {
				next.ServeHTTP(writer, request)
				return
			}

			user, err := authenticator.AuthenticateToken(request.Context(), token)
			if err != nil {
				// Swallow every rejection: this gate only decorates, never blocks.
				next.ServeHTTP(writer, request)
				return
			}

			ctx := ctxutil.WithPrincipal(request.Context(), user)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireRole blocks requests whose authenticated principal is not in the
// allowed role set.
//
// # Usage
//
// Must be registered in the router strictly AFTER [Authenticate]; an
// anonymous request here is a routing bug and is rejected as 401.
func RequireRole(allowed ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			user := ctxutil.GetPrincipal(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if user == nil {
				respond.Error(writer, request, apperr.Unauthorized("You are not logged in. Please log in to get access."))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !user.Role.In(allowed...) {
				respond.Error(writer, request, apperr.Forbidden("You do not have permission to perform this action"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// TokenFromRequest extracts the identity token from a request.
//
// Precedence: the Authorization header is checked first, the session cookie
// second. Returns "" when neither carries a usable value.
func TokenFromRequest(request *http.Request) string {

	// 1. Bearer header
	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// 2. Session cookie
	if cookie, err := request.Cookie(constants.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}
