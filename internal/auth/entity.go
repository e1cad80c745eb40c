// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshToken is stored hashed. A token is single-use: rotation marks it
// used and links it to its replacement within the same family.
type RefreshToken struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	TokenHash    string     `db:"token_hash"`
	FamilyID     string     `db:"family_id"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	IsUsed       bool       `db:"is_used"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
	UserAgent    string     `db:"user_agent"`
	IPAddress    string     `db:"ip_address"`
}

func (t *RefreshToken) IsExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// UserInfo is the slice of a user account the auth flows need.
type UserInfo struct {
	ID                    string
	Email                 string
	Name                  string
	PasswordHash          string
	Role                  string
	TokenVersion          int
	PasswordChanged       bool
	TempPasswordExpiresAt *time.Time
	CreatedAt             time.Time
}

// TempPasswordExpired is true while the account still runs on a
// temporary password whose window has closed.
func (u *UserInfo) TempPasswordExpired(now time.Time) bool {
	if u.PasswordChanged {
		return false
	}
	return u.TempPasswordExpiresAt == nil || now.After(*u.TempPasswordExpiresAt)
}

type NewUser struct {
	Email                 string
	PasswordHash          string
	Name                  string
	Role                  string
	CreatedBy             *string
	TempPasswordExpiresAt *time.Time
}
