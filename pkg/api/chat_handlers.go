package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iscander13/back/pkg/auth"
	"github.com/iscander13/back/pkg/guard"
	"github.com/iscander13/back/pkg/httputil"
	"github.com/iscander13/back/pkg/middleware"
	"github.com/iscander13/back/pkg/store"
)

// Chat message senders.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// ChatHandlers serves per-polygon chat history and relays new messages
// to the assistant.
type ChatHandlers struct {
	chat      ChatStore
	assistant Assistant
}

// NewChatHandlers creates a new chat handlers instance. assistant may
// be nil, in which case new messages are stored without a reply.
func NewChatHandlers(chat ChatStore, assistant Assistant) *ChatHandlers {
	return &ChatHandlers{
		chat:      chat,
		assistant: assistant,
	}
}

// RegisterRoutes registers chat routes. The router must already require
// a principal.
func (h *ChatHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/chat/polygons/{polygonId}", h.history).Methods("GET")
	router.HandleFunc("/api/chat/polygons/{polygonId}", h.send).Methods("POST")
}

// accessPolygon loads the polygon and verifies chat access, which
// follows the same hierarchy rules as polygon access.
func (h *ChatHandlers) accessPolygon(w http.ResponseWriter, r *http.Request) (*store.Polygon, bool) {
	polygonID, ok := httputil.ParsePathStringOrError(w, r, "polygonId")
	if !ok {
		return nil, false
	}

	polygon, err := h.chat.GetPolygon(r.Context(), polygonID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "polygon not found")
			return nil, false
		}
		httputil.WriteInternalError(w, err)
		return nil, false
	}

	principal := middleware.GetPrincipal(r)
	if !principal.SameUser(polygon.UserID) {
		owner, err := h.chat.GetUserByID(r.Context(), polygon.UserID)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return nil, false
		}
		ownerRole, err := auth.ParseRole(owner.Role)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return nil, false
		}
		if err := guard.CheckOwnership(principal, polygon.UserID, ownerRole); err != nil {
			httputil.WriteForbidden(w, "insufficient role permissions")
			return nil, false
		}
	}
	return polygon, true
}

// history handles GET /api/chat/polygons/{polygonId}
func (h *ChatHandlers) history(w http.ResponseWriter, r *http.Request) {
	polygon, ok := h.accessPolygon(w, r)
	if !ok {
		return
	}

	messages, err := h.chat.ListChatByPolygon(r.Context(), polygon.ID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if messages == nil {
		messages = []*store.ChatMessage{}
	}
	httputil.WriteSuccess(w, messages)
}

// send handles POST /api/chat/polygons/{polygonId}
func (h *ChatHandlers) send(w http.ResponseWriter, r *http.Request) {
	polygon, ok := h.accessPolygon(w, r)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Text, "text") {
		return
	}

	// The stored message carries the id of whoever wrote it, so history
	// stays attributable when an admin posts on a user's polygon.
	// Synthetic principals without an account id fall back to the owner.
	authorID := polygon.UserID
	if principal := middleware.GetPrincipal(r); principal != nil && principal.UserID != nil {
		authorID = *principal.UserID
	}

	userMessage := &store.ChatMessage{
		PolygonID: polygon.ID,
		UserID:    authorID,
		Sender:    SenderUser,
		Text:      req.Text,
	}
	if err := h.chat.CreateChatMessage(r.Context(), userMessage); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	response := []*store.ChatMessage{userMessage}

	if h.assistant != nil {
		history, err := h.chat.ListChatByPolygon(r.Context(), polygon.ID)
		if err != nil {
			httputil.WriteInternalError(w, err)
			return
		}

		reply, err := h.assistant.Reply(r.Context(), polygon, history, req.Text)
		if err != nil {
			// The user message is stored; surface the assistant failure.
			httputil.WriteErrorMessage(w, http.StatusBadGateway, "assistant unavailable")
			return
		}

		assistantMessage := &store.ChatMessage{
			PolygonID: polygon.ID,
			UserID:    polygon.UserID,
			Sender:    SenderAssistant,
			Text:      reply,
		}
		if err := h.chat.CreateChatMessage(r.Context(), assistantMessage); err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
		response = append(response, assistantMessage)
	}

	httputil.WriteCreated(w, response)
}
