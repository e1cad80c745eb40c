// AngelaMos | 2026
// access.go

// Package access resolves a caller's effective role on an event from its
// owner and shared-access list. It is used by every package that guards
// event-scoped records.
package access

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	RoleNone   Role = "none"
)

// Grant is one shared-access entry. Name and Email are a snapshot taken
// when the grant was made.
type Grant struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// Resolve never fails: no access is RoleNone. Ownership wins over any grant
// for the same user.
func Resolve(ownerID string, grants []Grant, userID string) Role {
	if userID == "" {
		return RoleNone
	}

	if ownerID == userID {
		return RoleOwner
	}

	for _, g := range grants {
		if g.UserID != userID {
			continue
		}
		if g.Role.Grantable() {
			return g.Role
		}
		return RoleNone
	}

	return RoleNone
}

// Grantable reports whether r may appear in a shared-access list.
func (r Role) Grantable() bool {
	return r == RoleEditor || r == RoleViewer
}

func (r Role) CanRead() bool {
	return r == RoleOwner || r == RoleEditor || r == RoleViewer
}

func (r Role) CanWrite() bool {
	return r == RoleOwner || r == RoleEditor
}

func (r Role) IsOwner() bool {
	return r == RoleOwner
}

func (r Role) String() string {
	return string(r)
}
