// Package models defines the domain snapshots exchanged with the notes backend.
package models

// Role is a user's role within its tenant.
type Role string

// Known roles.
const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// User is the authenticated identity returned by the backend. It is an
// immutable snapshot owned by the session manager; other components treat
// it as read-only.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	TenantID string `json:"tenantId"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
