// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

// Package schema centralizes table and column name constants so repository
// queries never drift from the migrated schema.
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table               string
	ID                  string
	Name                string
	Email               string
	Photo               string
	Role                string
	Password            string
	PasswordChangedAt   string
	ResetTokenHash      string
	ResetTokenExpiresAt string
	IsActive            string
	CreatedAt           string
	UpdatedAt           string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:               "users.account",
	ID:                  "id",
	Name:                "name",
	Email:               "email",
	Photo:               "photo",
	Role:                "role",
	Password:            "passwordhash",
	PasswordChangedAt:   "passwordchangedat",
	ResetTokenHash:      "resettokenhash",
	ResetTokenExpiresAt: "resettokenexpiresat",
	IsActive:            "isactive",
	CreatedAt:           "createdat",
	UpdatedAt:           "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Email, t.Photo, t.Role, t.Password,
		t.PasswordChangedAt, t.ResetTokenHash, t.ResetTokenExpiresAt,
		t.IsActive, t.CreatedAt, t.UpdatedAt,
	}
}
