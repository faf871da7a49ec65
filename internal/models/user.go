package models

import "time"

// Roles recognized by the platform.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Profile is a registered user account.
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is a server-side record backing an issued access token. A token is
// only valid while its session row exists and has not expired.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthenticatedUser is the caller identity attached to a request after token
// verification.
type AuthenticatedUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the caller holds the administrator role.
func (u AuthenticatedUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}
