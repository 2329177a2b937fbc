package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_HasRole(t *testing.T) {
	u := &User{Roles: []string{RoleUser, RoleAdmin}}

	assert.True(t, u.HasRole(RoleUser))
	assert.True(t, u.HasRole(RoleAdmin))
	assert.False(t, u.HasRole(RoleSuperUser))
}

func TestUser_HasAnyRole(t *testing.T) {
	u := &User{Roles: []string{RoleUser}}

	assert.True(t, u.HasAnyRole(RoleAdmin, RoleUser))
	assert.False(t, u.HasAnyRole(RoleAdmin, RoleSuperUser))
	assert.True(t, u.HasAnyRole(), "empty list matches every user")
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	u := &User{Email: "test@example.com", PasswordHash: "secret-hash"}

	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-hash")
	assert.Contains(t, string(data), "test@example.com")
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(RoleAdmin))
	assert.True(t, IsValidRole(RoleSuperUser))
	assert.True(t, IsValidRole(RoleUser))
	assert.False(t, IsValidRole("manager"))
	assert.False(t, IsValidRole(""))
}

func TestIsValidGender(t *testing.T) {
	for _, g := range ValidGenders() {
		assert.True(t, IsValidGender(g))
	}
	assert.False(t, IsValidGender("other"))
}
