package domain

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// UserRole
// ──────────────────────────────────────────────────────────────────────────────

// UserRole controls access to the admin surface.
type UserRole string

const (
	RoleUser  UserRole = "user"  // standard trader
	RoleAdmin UserRole = "admin" // full admin access
)

// IsAdmin returns true only for the admin role.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// ──────────────────────────────────────────────────────────────────────────────
// User
// ──────────────────────────────────────────────────────────────────────────────

// User is the domain entity for trader accounts. Accounts are provisioned by
// the admin token dev-script; there is no self-service signup in this system.
type User struct {
	ID        uuid.UUID `json:"id"         db:"id"`
	Email     string    `json:"email"      db:"email"`
	Role      UserRole  `json:"role"       db:"role"`
	IsActive  bool      `json:"is_active"  db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
