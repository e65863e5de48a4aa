package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iscander13/back/pkg/auth"
	"github.com/iscander13/back/pkg/httputil"
	"github.com/iscander13/back/pkg/observability"
	"github.com/iscander13/back/pkg/store"
)

// AuthHandlers handles registration and credential logins.
type AuthHandlers struct {
	users   UserStore
	codec   *auth.Codec
	metrics *observability.Metrics
}

// NewAuthHandlers creates a new auth handlers instance. metrics may be
// nil.
func NewAuthHandlers(users UserStore, codec *auth.Codec, metrics *observability.Metrics) *AuthHandlers {
	return &AuthHandlers{
		users:   users,
		codec:   codec,
		metrics: metrics,
	}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/auth/register", h.register).Methods("POST")
	router.HandleFunc("/api/v1/auth/login", h.login).Methods("POST")
	router.HandleFunc("/api/v1/auth/admin/login", h.adminLogin).Methods("POST")
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// register handles POST /api/v1/auth/register
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
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

	user := &store.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         string(auth.RoleUser),
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			httputil.WriteConflict(w, "email already registered")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	h.issueToken(w, user, http.StatusCreated)
}

// login handles POST /api/v1/auth/login
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r, false)
}

// adminLogin handles POST /api/v1/auth/admin/login. It accepts only
// accounts holding ADMIN or SUPER_ADMIN.
func (h *AuthHandlers) adminLogin(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r, true)
}

func (h *AuthHandlers) handleLogin(w http.ResponseWriter, r *http.Request, adminOnly bool) {
	var req credentialsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.countLogin("bad_credentials")
			httputil.WriteUnauthorized(w, "Invalid email or password")
			return
		}
		h.countLogin("error")
		httputil.WriteInternalError(w, err)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		h.countLogin("bad_credentials")
		httputil.WriteUnauthorized(w, "Invalid email or password")
		return
	}

	role, err := auth.ParseRole(user.Role)
	if err != nil {
		h.countLogin("error")
		httputil.WriteInternalError(w, err)
		return
	}
	if adminOnly && !role.IsAdmin() {
		h.countLogin("forbidden")
		httputil.WriteForbidden(w, "administrator account required")
		return
	}

	h.countLogin("success")
	h.issueToken(w, user, http.StatusOK)
}

func (h *AuthHandlers) issueToken(w http.ResponseWriter, user *store.User, status int) {
	role, err := auth.ParseRole(user.Role)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	token, err := h.codec.Issue(user.Email, role)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteJSON(w, status, AuthResponse{
		Token: token,
		Email: user.Email,
		Roles: []string{role.Authority()},
	})
}

func (h *AuthHandlers) countLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
	}
}
