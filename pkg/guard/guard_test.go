package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iscander13/back/pkg/auth"
)

func principal(id int64, role auth.Role) *auth.Principal {
	return &auth.Principal{UserID: &id, Role: role}
}

func TestCanActOn(t *testing.T) {
	tests := []struct {
		actor auth.Role
		owner auth.Role
		self  bool
		want  bool
	}{
		{auth.RoleUser, auth.RoleUser, true, true},
		{auth.RoleUser, auth.RoleUser, false, false},
		{auth.RoleUser, auth.RoleAdmin, false, false},
		{auth.RoleUser, auth.RoleSuperAdmin, false, false},
		{auth.RoleAdmin, auth.RoleUser, false, true},
		{auth.RoleAdmin, auth.RoleAdmin, true, true},
		{auth.RoleAdmin, auth.RoleAdmin, false, false},
		{auth.RoleAdmin, auth.RoleSuperAdmin, false, false},
		{auth.RoleSuperAdmin, auth.RoleUser, false, true},
		{auth.RoleSuperAdmin, auth.RoleAdmin, false, true},
		{auth.RoleSuperAdmin, auth.RoleSuperAdmin, false, true},
		{auth.Role("OWNER"), auth.RoleUser, true, false},
	}

	for _, tt := range tests {
		got := CanActOn(tt.actor, tt.owner, tt.self)
		assert.Equal(t, tt.want, got, "actor=%s owner=%s self=%v", tt.actor, tt.owner, tt.self)
	}
}

func TestCheckOwnership(t *testing.T) {
	t.Run("user on own resource", func(t *testing.T) {
		assert.NoError(t, CheckOwnership(principal(1, auth.RoleUser), 1, auth.RoleUser))
	})

	t.Run("user on another user's resource", func(t *testing.T) {
		err := CheckOwnership(principal(1, auth.RoleUser), 2, auth.RoleUser)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin on another admin's resource", func(t *testing.T) {
		err := CheckOwnership(principal(1, auth.RoleAdmin), 2, auth.RoleAdmin)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("synthetic principal without id never owns", func(t *testing.T) {
		p := &auth.Principal{Role: auth.RoleAdmin}
		assert.NoError(t, CheckOwnership(p, 2, auth.RoleUser))
		assert.ErrorIs(t, CheckOwnership(p, 2, auth.RoleAdmin), ErrForbidden)
	})
}

func TestCheckDelegation(t *testing.T) {
	t.Run("acting on oneself always allowed", func(t *testing.T) {
		assert.NoError(t, CheckDelegation(principal(1, auth.RoleUser), 1, auth.RoleUser))
	})

	t.Run("user may not delegate", func(t *testing.T) {
		err := CheckDelegation(principal(1, auth.RoleUser), 2, auth.RoleUser)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin delegates to user", func(t *testing.T) {
		assert.NoError(t, CheckDelegation(principal(1, auth.RoleAdmin), 2, auth.RoleUser))
	})

	t.Run("admin may not delegate to another admin", func(t *testing.T) {
		err := CheckDelegation(principal(1, auth.RoleAdmin), 2, auth.RoleAdmin)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("super admin delegates to anyone", func(t *testing.T) {
		assert.NoError(t, CheckDelegation(principal(1, auth.RoleSuperAdmin), 2, auth.RoleAdmin))
	})
}

func TestValidateRoleChange(t *testing.T) {
	tests := []struct {
		name          string
		actor         auth.Role
		targetCurrent auth.Role
		requested     string
		want          auth.Role
		wantErr       error
	}{
		{"super admin promotes to admin", auth.RoleSuperAdmin, auth.RoleUser, "ADMIN", auth.RoleAdmin, nil},
		{"super admin promotes to super admin", auth.RoleSuperAdmin, auth.RoleUser, "SUPER_ADMIN", auth.RoleSuperAdmin, nil},
		{"super admin demotes admin", auth.RoleSuperAdmin, auth.RoleAdmin, "USER", auth.RoleUser, nil},
		{"admin demotes user to user", auth.RoleAdmin, auth.RoleUser, "USER", auth.RoleUser, nil},
		{"admin may not assign admin", auth.RoleAdmin, auth.RoleUser, "ADMIN", "", ErrForbidden},
		{"admin may not assign super admin", auth.RoleAdmin, auth.RoleUser, "SUPER_ADMIN", "", ErrForbidden},
		{"admin may not touch super admin", auth.RoleAdmin, auth.RoleSuperAdmin, "USER", "", ErrForbidden},
		{"user may not change roles", auth.RoleUser, auth.RoleUser, "USER", "", ErrForbidden},
		{"unknown role rejected before authorization", auth.RoleUser, auth.RoleUser, "OWNER", "", auth.ErrInvalidRole},
		{"case-insensitive input", auth.RoleSuperAdmin, auth.RoleUser, "admin", auth.RoleAdmin, nil},
		{"authority prefix accepted", auth.RoleSuperAdmin, auth.RoleUser, "ROLE_ADMIN", auth.RoleAdmin, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateRoleChange(tt.actor, tt.targetCurrent, tt.requested)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
