// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the back office.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// BackOfficeRoles may sign in to the back office and manage display blocks.
var BackOfficeRoles = []Role{RoleAdmin, RoleEditor}

// CanManageBlocks reports whether r may edit the block registry.
func (r Role) CanManageBlocks() bool {
	return slices.Contains(BackOfficeRoles, r)
}

// CanEditSettings reports whether r may change the school configuration.
func (r Role) CanEditSettings() bool {
	return r == RoleAdmin
}

// User represents a staff account with authentication and 2FA fields.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Needs2FASetup returns true if the user has not completed 2FA enrollment.
func (u *User) Needs2FASetup() bool {
	return !u.TOTPEnabled
}
