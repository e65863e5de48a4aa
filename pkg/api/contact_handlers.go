package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iscander13/back/pkg/httputil"
	"github.com/iscander13/back/pkg/observability"
)

// ContactHandlers relays contact-form submissions to the operators'
// mailbox through the ContactMailer.
type ContactHandlers struct {
	mailer ContactMailer
	log    *observability.Logger
}

// NewContactHandlers creates a new contact handlers instance. mailer
// may be nil, in which case submissions are rejected with 503.
func NewContactHandlers(mailer ContactMailer, log *observability.Logger) *ContactHandlers {
	return &ContactHandlers{
		mailer: mailer,
		log:    log,
	}
}

// RegisterRoutes registers the contact form route.
func (h *ContactHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/send-email", h.sendEmail).Methods("POST")
}

// sendEmail handles POST /api/send-email
func (h *ContactHandlers) sendEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContactInfo string `json:"contactInfo"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.ContactInfo = strings.TrimSpace(req.ContactInfo)
	if !httputil.RequireNonEmpty(w, req.ContactInfo, "contactInfo") {
		return
	}

	if h.mailer == nil {
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "contact form is not configured")
		return
	}
	if err := h.mailer.SendContactMessage(r.Context(), req.ContactInfo); err != nil {
		h.log.WithError(err).Error("failed to relay contact message")
		httputil.WriteErrorMessage(w, http.StatusBadGateway, "failed to send message")
		return
	}

	httputil.WriteSuccess(w, MessageResponse{Message: "Email sent successfully!"})
}
