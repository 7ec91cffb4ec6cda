// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

package sec

// # User Roles

// Role represents the authorization level granted to an account.
type Role string

const (
	// Default role for standard registered travellers
	RoleUser Role = "user"

	// Leads tours in the field
	RoleGuide Role = "guide"

	// Owns tour content and manages guides
	RoleLeadGuide Role = "lead-guide"

	// Unrestricted system access
	RoleAdmin Role = "admin"
)

// Roles lists every valid role value, in ascending privilege order.
// Used to validate caller-supplied role strings at the boundary.
func Roles() []Role {
	return []Role{RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin}
}

// IsValid reports whether r is one of the enumerated role values.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// In reports whether r is a member of the allowed set.
//
// # Why a set, not a hierarchy?
//
// Route gating on Trekora is expressed as explicit allow-lists
// (e.g. admin + lead-guide may delete tours, but a plain guide may not),
// so membership is the primitive, not a numeric privilege level.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// # Authenticated Principal

// Principal is the resolved identity attached to a request context after a
// token has been verified against the user store.
//
// It is a read-only snapshot taken at authentication time. Handlers that
// mutate security-sensitive fields must re-fetch the full account record.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
