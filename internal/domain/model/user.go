package model

import "time"

// Role describes what a user is allowed to do with credit.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents a registered account holder.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// IsAdmin reports whether user may grant or remove credit.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
