package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iscander13/back/pkg/auth"
	"github.com/iscander13/back/pkg/guard"
	"github.com/iscander13/back/pkg/httputil"
	"github.com/iscander13/back/pkg/middleware"
	"github.com/iscander13/back/pkg/store"
)

// AdminHandlers handles administrator user management and
// impersonation. Routes are registered on an ADMIN-gated subrouter;
// finer-grained hierarchy rules are enforced per target through
// pkg/guard.
type AdminHandlers struct {
	users UserStore
	codec *auth.Codec
}

// NewAdminHandlers creates a new admin handlers instance.
func NewAdminHandlers(users UserStore, codec *auth.Codec) *AdminHandlers {
	return &AdminHandlers{
		users: users,
		codec: codec,
	}
}

// RegisterRoutes registers admin routes. The router must already
// require an ADMIN or SUPER_ADMIN principal.
func (h *AdminHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/admin/users", h.listUsers).Methods("GET")
	router.HandleFunc("/api/v1/admin/users/{userId}/email", h.updateEmail).Methods("PUT")
	router.HandleFunc("/api/v1/admin/users/{userId}/password", h.updatePassword).Methods("PUT")
	router.HandleFunc("/api/v1/admin/users/{userId}/role", h.updateRole).Methods("PUT")
	router.HandleFunc("/api/v1/admin/users/{userId}", h.deleteUser).Methods("DELETE")
	router.HandleFunc("/api/v1/admin/impersonate/{userId}", h.impersonate).Methods("POST")
}

// listUsers handles GET /api/v1/admin/users
func (h *AdminHandlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, UserResponse{ID: user.ID, Email: user.Email, Role: user.Role})
	}
	httputil.WriteSuccess(w, out)
}

// target loads the target account and verifies the caller may act on it.
func (h *AdminHandlers) target(w http.ResponseWriter, r *http.Request) (*store.User, auth.Role, bool) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return nil, "", false
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return nil, "", false
		}
		httputil.WriteInternalError(w, err)
		return nil, "", false
	}

	role, err := auth.ParseRole(user.Role)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return nil, "", false
	}

	principal := middleware.GetPrincipal(r)
	if err := guard.CheckOwnership(principal, user.ID, role); err != nil {
		httputil.WriteForbidden(w, "insufficient role permissions")
		return nil, "", false
	}
	return user, role, true
}

// updateEmail handles PUT /api/v1/admin/users/{userId}/email
func (h *AdminHandlers) updateEmail(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.target(w, r)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}

	if err := h.users.UpdateUserEmail(r.Context(), user.ID, req.Email); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			httputil.WriteConflict(w, "email already registered")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, UserResponse{ID: user.ID, Email: req.Email, Role: user.Role})
}

// updatePassword handles PUT /api/v1/admin/users/{userId}/password
func (h *AdminHandlers) updatePassword(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.target(w, r)
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if err := h.users.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, MessageResponse{Message: "password updated"})
}

// updateRole handles PUT /api/v1/admin/users/{userId}/role
func (h *AdminHandlers) updateRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "user not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	currentRole, err := auth.ParseRole(user.Role)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	principal := middleware.GetPrincipal(r)
	newRole, err := guard.ValidateRoleChange(principal.Role, currentRole, req.Role)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRole) {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		httputil.WriteForbidden(w, err.Error())
		return
	}

	if err := h.users.UpdateUserRole(r.Context(), user.ID, string(newRole)); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, UserResponse{ID: user.ID, Email: user.Email, Role: string(newRole)})
}

// deleteUser handles DELETE /api/v1/admin/users/{userId}
func (h *AdminHandlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), user.ID); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// impersonate handles POST /api/v1/admin/impersonate/{userId}. It
// issues a token for the target account carrying impersonation claims
// so the action stays attributable to the administrator.
func (h *AdminHandlers) impersonate(w http.ResponseWriter, r *http.Request) {
	user, role, ok := h.target(w, r)
	if !ok {
		return
	}

	principal := middleware.GetPrincipal(r)
	var adminID int64
	if principal.UserID != nil {
		adminID = *principal.UserID
	}

	token, err := h.codec.IssueImpersonation(user.Email, role, user.ID, adminID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, AuthResponse{
		Token: token,
		Email: user.Email,
		Roles: []string{role.Authority()},
	})
}
