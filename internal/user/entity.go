// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID                    string     `db:"id"`
	Email                 string     `db:"email"`
	PasswordHash          string     `db:"password_hash"`
	Name                  string     `db:"name"`
	Role                  string     `db:"role"`
	PasswordChanged       bool       `db:"password_changed"`
	TempPasswordExpiresAt *time.Time `db:"temp_password_expires_at"`
	CreatedBy             *string    `db:"created_by"`
	TokenVersion          int        `db:"token_version"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
