// AngelaMos | 2026
// access_test.go

package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	grants := []Grant{
		{UserID: "editor-1", Role: RoleEditor},
		{UserID: "viewer-1", Role: RoleViewer},
		{UserID: "bogus-1", Role: Role("admin")},
	}

	tests := []struct {
		name   string
		userID string
		want   Role
	}{
		{"owner", "owner-1", RoleOwner},
		{"editor grant", "editor-1", RoleEditor},
		{"viewer grant", "viewer-1", RoleViewer},
		{"stranger", "someone", RoleNone},
		{"empty user", "", RoleNone},
		{"non grantable role stored", "bogus-1", RoleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve("owner-1", grants, tt.userID))
		})
	}
}

func TestResolveOwnerWinsOverGrant(t *testing.T) {
	grants := []Grant{{UserID: "owner-1", Role: RoleViewer}}

	assert.Equal(t, RoleOwner, Resolve("owner-1", grants, "owner-1"))
}

func TestResolveAlwaysOneOfFour(t *testing.T) {
	valid := map[Role]bool{
		RoleOwner: true, RoleEditor: true, RoleViewer: true, RoleNone: true,
	}
	grants := []Grant{
		{UserID: "a", Role: RoleEditor},
		{UserID: "b", Role: RoleViewer},
		{UserID: "c", Role: ""},
	}

	for _, owner := range []string{"a", "b", "c", "d", ""} {
		for _, user := range []string{"a", "b", "c", "d", ""} {
			got := Resolve(owner, grants, user)
			assert.True(t, valid[got], "owner=%q user=%q got %q", owner, user, got)
			assert.Equal(t, owner == user && user != "", got == RoleOwner)
		}
	}
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, RoleOwner.CanWrite())
	assert.True(t, RoleEditor.CanWrite())
	assert.False(t, RoleViewer.CanWrite())
	assert.False(t, RoleNone.CanWrite())

	assert.True(t, RoleViewer.CanRead())
	assert.False(t, RoleNone.CanRead())

	assert.True(t, RoleEditor.Grantable())
	assert.True(t, RoleViewer.Grantable())
	assert.False(t, RoleOwner.Grantable())
	assert.False(t, RoleNone.Grantable())
}
