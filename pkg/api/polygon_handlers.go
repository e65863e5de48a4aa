package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iscander13/back/pkg/auth"
	"github.com/iscander13/back/pkg/guard"
	"github.com/iscander13/back/pkg/httputil"
	"github.com/iscander13/back/pkg/middleware"
	"github.com/iscander13/back/pkg/store"
)

// PolygonHandlers handles polygon CRUD with ownership enforcement.
// Administrators may act on behalf of a USER-role account through the
// optional targetUserId parameter.
type PolygonHandlers struct {
	polygons PolygonStore
}

// NewPolygonHandlers creates a new polygon handlers instance.
func NewPolygonHandlers(polygons PolygonStore) *PolygonHandlers {
	return &PolygonHandlers{polygons: polygons}
}

// RegisterRoutes registers polygon routes. The router must already
// require a principal.
func (h *PolygonHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/polygons/create", h.createPolygon).Methods("POST")
	router.HandleFunc("/api/polygons/user", h.listPolygons).Methods("GET")
	router.HandleFunc("/api/polygons/clear-all", h.clearAll).Methods("DELETE")
	router.HandleFunc("/api/polygons/delete/{id}", h.deletePolygon).Methods("DELETE")
	router.HandleFunc("/api/polygons/{id}", h.updatePolygon).Methods("PUT")
}

type polygonRequest struct {
	Name         string `json:"name"`
	Crop         string `json:"crop"`
	Comment      string `json:"comment"`
	Color        string `json:"color"`
	GeoJSON      string `json:"geoJson"`
	TargetUserID int64  `json:"targetUserId,omitempty"`
}

// resolveOwner maps the request to the account the caller acts for:
// the caller itself, or a delegated target gated by the role hierarchy.
func (h *PolygonHandlers) resolveOwner(w http.ResponseWriter, r *http.Request, targetUserID int64) (int64, bool) {
	principal := middleware.GetPrincipal(r)

	if targetUserID == 0 {
		if principal.UserID == nil {
			httputil.WriteBadRequest(w, "targetUserId is required")
			return 0, false
		}
		return *principal.UserID, true
	}

	if principal.SameUser(targetUserID) {
		return targetUserID, true
	}

	target, err := h.polygons.GetUserByID(r.Context(), targetUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "target user not found")
			return 0, false
		}
		httputil.WriteInternalError(w, err)
		return 0, false
	}
	targetRole, err := auth.ParseRole(target.Role)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return 0, false
	}

	if err := guard.CheckDelegation(principal, target.ID, targetRole); err != nil {
		httputil.WriteForbidden(w, "insufficient role permissions")
		return 0, false
	}
	return target.ID, true
}

// checkPolygonAccess verifies the caller may act on the stored polygon.
func (h *PolygonHandlers) checkPolygonAccess(w http.ResponseWriter, r *http.Request, polygon *store.Polygon) bool {
	principal := middleware.GetPrincipal(r)
	if principal.SameUser(polygon.UserID) {
		return true
	}

	owner, err := h.polygons.GetUserByID(r.Context(), polygon.UserID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return false
	}
	ownerRole, err := auth.ParseRole(owner.Role)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return false
	}

	if err := guard.CheckOwnership(principal, polygon.UserID, ownerRole); err != nil {
		httputil.WriteForbidden(w, "insufficient role permissions")
		return false
	}
	return true
}

// createPolygon handles POST /api/polygons/create
func (h *PolygonHandlers) createPolygon(w http.ResponseWriter, r *http.Request) {
	var req polygonRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.GeoJSON, "geoJson") {
		return
	}

	ownerID, ok := h.resolveOwner(w, r, req.TargetUserID)
	if !ok {
		return
	}

	polygon := &store.Polygon{
		UserID:  ownerID,
		Name:    req.Name,
		Crop:    req.Crop,
		Comment: req.Comment,
		Color:   req.Color,
		GeoJSON: req.GeoJSON,
	}
	if err := h.polygons.CreatePolygon(r.Context(), polygon); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, polygon)
}

// listPolygons handles GET /api/polygons/user
func (h *PolygonHandlers) listPolygons(w http.ResponseWriter, r *http.Request) {
	targetUserID, err := httputil.ParseQueryInt64(r, "targetUserId", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	ownerID, ok := h.resolveOwner(w, r, targetUserID)
	if !ok {
		return
	}

	polygons, err := h.polygons.ListPolygonsByUser(r.Context(), ownerID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if polygons == nil {
		polygons = []*store.Polygon{}
	}
	httputil.WriteSuccess(w, polygons)
}

// updatePolygon handles PUT /api/polygons/{id}
func (h *PolygonHandlers) updatePolygon(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	polygon, err := h.polygons.GetPolygon(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "polygon not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	if !h.checkPolygonAccess(w, r, polygon) {
		return
	}

	var req polygonRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.GeoJSON, "geoJson") {
		return
	}

	polygon.Name = req.Name
	polygon.Crop = req.Crop
	polygon.Comment = req.Comment
	polygon.Color = req.Color
	polygon.GeoJSON = req.GeoJSON
	if err := h.polygons.UpdatePolygon(r.Context(), polygon); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, polygon)
}

// deletePolygon handles DELETE /api/polygons/delete/{id}
func (h *PolygonHandlers) deletePolygon(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	polygon, err := h.polygons.GetPolygon(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFoundError(w, "polygon not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	if !h.checkPolygonAccess(w, r, polygon) {
		return
	}

	if err := h.polygons.DeletePolygon(r.Context(), polygon.ID); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// clearAll handles DELETE /api/polygons/clear-all
func (h *PolygonHandlers) clearAll(w http.ResponseWriter, r *http.Request) {
	targetUserID, err := httputil.ParseQueryInt64(r, "targetUserId", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	ownerID, ok := h.resolveOwner(w, r, targetUserID)
	if !ok {
		return
	}

	deleted, err := h.polygons.DeletePolygonsByUser(r.Context(), ownerID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, MessageResponse{Message: fmt.Sprintf("deleted %d polygons", deleted)})
}
