// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trekora/trekora/internal/auth"
	"github.com/trekora/trekora/internal/platform/apperr"
	"github.com/trekora/trekora/internal/platform/middleware"
	requestutil "github.com/trekora/trekora/internal/platform/request"
	"github.com/trekora/trekora/internal/platform/respond"
	"github.com/trekora/trekora/internal/platform/sec"
	"github.com/trekora/trekora/internal/platform/validate"
	"github.com/trekora/trekora/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements the profile self-service HTTP endpoints.
type Handler struct {
	accountService *Service
	authenticator  middleware.SessionAuthenticator
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, authenticator middleware.SessionAuthenticator) *Handler {
	return &Handler{
		accountService: service,
		authenticator:  authenticator,
	}
}

// Register mounts the account routes onto the given router.
//
// # Endpoints
//   - GET    /me         : Returns the authenticated profile.
//   - PATCH  /update-me  : Updates name, email, or photo.
//   - DELETE /delete-me  : Deactivates the account.
//   - GET    /           : Lists all accounts (admin only).
func (handler *Handler) Register(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(handler.authenticator))

		r.Get("/me", handler.getMe)
		r.Patch("/update-me", handler.updateMe)
		r.Delete("/delete-me", handler.deleteMe)

		// Administration
		r.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireRole(sec.RoleAdmin))
			admin.Get("/", handler.listUsers)
		})
	})
}

// # Request Payloads

// updateMeRequest deliberately includes the password fields so their
// presence can be rejected with a pointer to the correct route.
type updateMeRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Photo           *string `json:"photo"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"password_confirm"`
}

/*
GetMe returns the authenticated user's own profile.

GET /api/v1/users/me

Response:
  - 200: User: The caller's profile
  - 401: ErrUnauthorized: Not logged in
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"user": user})
}

/*
UpdateMe updates the authenticated user's identity metadata.

PATCH /api/v1/users/update-me

Description: Accepts name, email, and photo. Password fields are rejected
with a pointer to the dedicated route so credentials never ride along with
profile edits.

Request:
  - Body: updateMeRequest (Name, Email, Photo; all optional)

Response:
  - 200: User: Updated profile
  - 400: ErrInvalidJSON: Password fields present or invalid email
  - 409: ErrConflict: Email already taken
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Password != "" || input.PasswordConfirm != "" {
		respond.Error(writer, request, apperr.BadRequest(
			"This route is not for password updates. Please use /update-password.",
		))
		return
	}

	validator := &validate.Validator{}
	if input.Name != nil {
		validator.Required(auth.FieldName, *input.Name).MaxLen(auth.FieldName, *input.Name, 100)
	}
	if input.Email != nil {
		validator.Email(auth.FieldEmail, *input.Email)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		Name:  input.Name,
		Email: input.Email,
		Photo: input.Photo,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"user": user})
}

/*
DeleteMe deactivates the authenticated user's account.

DELETE /api/v1/users/delete-me

Description: Soft-delete. The account disappears from every default query;
the row is retained for compliance.

Response:
  - 204: No Content: Account deactivated
  - 401: ErrUnauthorized: Not logged in
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ListUsers returns a page of active accounts.

GET /api/v1/users?page=1&limit=20

Description: Administrative listing. Gated by the admin role.

Request:
  - Query: page, limit (clamped to sane bounds)

Response:
  - 200: PaginatedEnvelope: Active accounts plus pagination metadata
  - 403: ErrForbidden: Caller lacks the admin role
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	users, total, err := handler.accountService.ListUsers(
		request.Context(),
		paginationParams.Limit,
		paginationParams.Offset(),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, map[string]any{"users": users},
		pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}
