package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iscander13/back/pkg/auth"
	"github.com/iscander13/back/pkg/store"
)

func newAdminRouter(t *testing.T, users *fakeStore) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	NewAdminHandlers(users, testCodec(t)).RegisterRoutes(router)
	return router
}

func adminFixture(t *testing.T) (*fakeStore, *store.User, *store.User, *store.User, *store.User) {
	t.Helper()
	users := newFakeStore()
	farmer := users.addUser(t, "farmer@example.com", "pw", string(auth.RoleUser))
	admin := users.addUser(t, "admin@example.com", "pw", string(auth.RoleAdmin))
	otherAdmin := users.addUser(t, "admin2@example.com", "pw", string(auth.RoleAdmin))
	super := users.addUser(t, "root@example.com", "pw", string(auth.RoleSuperAdmin))
	return users, farmer, admin, otherAdmin, super
}

func TestListUsers(t *testing.T) {
	users, _, admin, _, _ := adminFixture(t)
	router := newAdminRouter(t, users)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/admin/users", nil, principalFor(t, admin))
	require.Equal(t, http.StatusOK, recorder.Code)

	var out []UserResponse
	decodeBody(t, recorder, &out)
	assert.Len(t, out, 4)
}

func TestUpdateUserEmail(t *testing.T) {
	t.Run("admin updates regular user", func(t *testing.T) {
		users, farmer, admin, _, _ := adminFixture(t)
		router := newAdminRouter(t, users)

		path := fmt.Sprintf("/api/v1/admin/users/%d/email", farmer.ID)
		recorder := doRequest(t, router, http.MethodPut, path, map[string]string{"email": "new@example.com"}, principalFor(t, admin))
		require.Equal(t, http.StatusOK, recorder.Code)

		stored, err := users.GetUserByID(context.Background(), farmer.ID)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", stored.Email)
	})

	t.Run("admin cannot touch another admin", func(t *testing.T) {
		users, _, admin, otherAdmin, _ := adminFixture(t)
		router := newAdminRouter(t, users)

		path := fmt.Sprintf("/api/v1/admin/users/%d/email", otherAdmin.ID)
		recorder := doRequest(t, router, http.MethodPut, path, map[string]string{"email": "new@example.com"}, principalFor(t, admin))
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("super admin can touch admins", func(t *testing.T) {
		users, _, admin, _, super := adminFixture(t)
		router := newAdminRouter(t, users)

		path := fmt.Sprintf("/api/v1/admin/users/%d/email", admin.ID)
		recorder := doRequest(t, router, http.MethodPut, path, map[string]string{"email": "renamed@example.com"}, principalFor(t, super))
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		users, farmer, admin, _, _ := adminFixture(t)
		router := newAdminRouter(t, users)

		path := fmt.Sprintf("/api/v1/admin/users/%d/email", farmer.ID)
		recorder := doRequest(t, router, http.MethodPut, path, map[string]string{"email": "admin@example.com"}, principalFor(t, admin))
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("unknown user not found", func(t *testing.T) {
		users, _, admin, _, _ := adminFixture(t)
		router := newAdminRouter(t, users)

		recorder := doRequest(t, router, http.MethodPut, "/api/v1/admin/users/999/email", map[string]string{"email": "x@example.com"}, principalFor(t, admin))
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestUpdateUserRole(t *testing.T) {
	tests := []struct {
		name     string
		caller   func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User
		targetOf func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User
		newRole  string
		want     int
	}{
		{
			name:     "super admin promotes user to admin",
			caller:   func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User { return super },
			targetOf: func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User { return farmer },
			newRole:  "ADMIN",
			want:     http.StatusOK,
		},
		{
			name:     "super admin demotes admin to user",
			caller:   func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User { return super },
			targetOf: func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User { return admin },
			newRole:  "USER",
			want:     http.StatusOK,
		},
		{
			name:     "admin cannot grant ADMIN",
			caller:   func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User { return admin },
			targetOf: func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User { return farmer },
			newRole:  "ADMIN",
			want:     http.StatusForbidden,
		},
		{
			name:     "admin cannot grant SUPER_ADMIN",
			caller:   func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User { return admin },
			targetOf: func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User { return farmer },
			newRole:  "SUPER_ADMIN",
			want:     http.StatusForbidden,
		},
		{
			name:     "admin cannot touch super admin",
			caller:   func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User { return admin },
			targetOf: func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User { return super },
			newRole:  "USER",
			want:     http.StatusForbidden,
		},
		{
			name:     "unknown role is a bad request",
			caller:   func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User { return super },
			targetOf: func(f *fakeStore, farmer, admin, otherAdmin, super *store.User) *store.User { return farmer },
			newRole:  "OWNER",
			want:     http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, farmer, admin, otherAdmin, super := adminFixture(t)
			router := newAdminRouter(t, users)

			caller := tt.caller(users, farmer, admin, otherAdmin, super)
			target := tt.targetOf(users, farmer, admin, otherAdmin, super)

			path := fmt.Sprintf("/api/v1/admin/users/%d/role", target.ID)
			recorder := doRequest(t, router, http.MethodPut, path, map[string]string{"role": tt.newRole}, principalFor(t, caller))
			require.Equal(t, tt.want, recorder.Code, recorder.Body.String())

			stored, err := users.GetUserByID(context.Background(), target.ID)
			require.NoError(t, err)
			if tt.want == http.StatusOK {
				assert.Equal(t, tt.newRole, stored.Role)
			} else {
				assert.Equal(t, target.Role, stored.Role)
			}
		})
	}
}

func TestDeleteUser(t *testing.T) {
	t.Run("admin deletes regular user", func(t *testing.T) {
		users, farmer, admin, _, _ := adminFixture(t)
		router := newAdminRouter(t, users)

		path := fmt.Sprintf("/api/v1/admin/users/%d", farmer.ID)
		recorder := doRequest(t, router, http.MethodDelete, path, nil, principalFor(t, admin))
		require.Equal(t, http.StatusNoContent, recorder.Code)

		_, err := users.GetUserByID(context.Background(), farmer.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("admin cannot delete another admin", func(t *testing.T) {
		users, _, admin, otherAdmin, _ := adminFixture(t)
		router := newAdminRouter(t, users)

		path := fmt.Sprintf("/api/v1/admin/users/%d", otherAdmin.ID)
		recorder := doRequest(t, router, http.MethodDelete, path, nil, principalFor(t, admin))
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}

func TestImpersonate(t *testing.T) {
	users, farmer, admin, _, super := adminFixture(t)
	router := newAdminRouter(t, users)
	codec := testCodec(t)

	t.Run("admin impersonates user", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/admin/impersonate/%d", farmer.ID)
		recorder := doRequest(t, router, http.MethodPost, path, nil, principalFor(t, admin))
		require.Equal(t, http.StatusOK, recorder.Code)

		var resp AuthResponse
		decodeBody(t, recorder, &resp)
		assert.Equal(t, farmer.Email, resp.Email)
		assert.Equal(t, []string{"ROLE_USER"}, resp.Roles)

		claims, err := codec.Verify(resp.Token)
		require.NoError(t, err)
		assert.True(t, claims.IsImpersonating)
		require.NotNil(t, claims.ImpersonatedUserID)
		assert.Equal(t, farmer.ID, *claims.ImpersonatedUserID)
		require.NotNil(t, claims.AdminID)
		assert.Equal(t, admin.ID, *claims.AdminID)
	})

	t.Run("admin cannot impersonate super admin", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/admin/impersonate/%d", super.ID)
		recorder := doRequest(t, router, http.MethodPost, path, nil, principalFor(t, admin))
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}
