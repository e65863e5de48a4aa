package api

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/iscander13/back/pkg/auth"
	"github.com/iscander13/back/pkg/httputil"
	"github.com/iscander13/back/pkg/observability"
	"github.com/iscander13/back/pkg/store"
)

// ResetCodeTTL is how long a recovery code stays valid.
const ResetCodeTTL = 15 * time.Minute

// RecoveryHandlers implements password recovery: a 6-digit code is
// stored with a 15 minute expiry and delivered through the Mailer.
// Responses never reveal whether an account exists.
type RecoveryHandlers struct {
	users  RecoveryStore
	mailer Mailer
	log    *observability.Logger
	now    func() time.Time
}

// NewRecoveryHandlers creates a new recovery handlers instance.
func NewRecoveryHandlers(users RecoveryStore, mailer Mailer, log *observability.Logger) *RecoveryHandlers {
	return &RecoveryHandlers{
		users:  users,
		mailer: mailer,
		log:    log,
		now:    time.Now,
	}
}

// RegisterRoutes registers password recovery routes.
func (h *RecoveryHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/recovery/send-code", h.sendCode).Methods("POST")
	router.HandleFunc("/api/v1/recovery/verify-code", h.verifyCode).Methods("POST")
	router.HandleFunc("/api/v1/recovery/reset-password", h.resetPassword).Methods("POST")
}

const sentResponse = "If the account exists, a recovery code has been sent"

// sendCode handles POST /api/v1/recovery/send-code
func (h *RecoveryHandlers) sendCode(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteSuccess(w, MessageResponse{Message: sentResponse})
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	code, err := generateResetCode()
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	expiry := h.now().Add(ResetCodeTTL)
	if err := h.users.SetResetCode(r.Context(), user.Email, code, expiry); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	if h.mailer != nil {
		if err := h.mailer.SendResetCode(r.Context(), user.Email, code); err != nil {
			h.log.WithError(err).WithField("email", user.Email).Error("failed to deliver recovery code")
			httputil.WriteErrorMessage(w, http.StatusBadGateway, "failed to send recovery code")
			return
		}
	}

	httputil.WriteSuccess(w, MessageResponse{Message: sentResponse})
}

// verifyCode handles POST /api/v1/recovery/verify-code
func (h *RecoveryHandlers) verifyCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if _, ok := h.checkCode(w, r, strings.TrimSpace(req.Email), req.Code); !ok {
		return
	}
	httputil.WriteSuccess(w, MessageResponse{Message: "code verified"})
}

// resetPassword handles POST /api/v1/recovery/reset-password
func (h *RecoveryHandlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.NewPassword, "newPassword") {
		return
	}

	user, ok := h.checkCode(w, r, strings.TrimSpace(req.Email), req.Code)
	if !ok {
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if err := h.users.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if err := h.users.ClearResetCode(r.Context(), user.Email); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, MessageResponse{Message: "password reset"})
}

// checkCode validates the recovery code for the account. Missing
// accounts and mismatched or expired codes produce the same response.
func (h *RecoveryHandlers) checkCode(w http.ResponseWriter, r *http.Request, email, code string) (*store.User, bool) {
	const invalid = "Invalid or expired code"

	if email == "" || code == "" {
		httputil.WriteBadRequest(w, invalid)
		return nil, false
	}

	user, err := h.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteBadRequest(w, invalid)
			return nil, false
		}
		httputil.WriteInternalError(w, err)
		return nil, false
	}

	if user.ResetCode == nil || user.ResetCodeExpiry == nil ||
		*user.ResetCode != code || h.now().After(*user.ResetCodeExpiry) {
		httputil.WriteBadRequest(w, invalid)
		return nil, false
	}
	return user, true
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
