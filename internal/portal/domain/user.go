package domain

import "time"

// Roles a user can hold. The portal has exactly two.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // argon2id PHC encoded
	Role         string // RoleAdmin or RoleUser
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the administrator role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
