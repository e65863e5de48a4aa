package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iscander13/back/pkg/crops"
	"github.com/iscander13/back/pkg/httputil"
)

// CropHandlers serves the crop reference catalog: chapters, the crops
// in a chapter and the varieties of a crop.
type CropHandlers struct {
	catalog crops.Catalog
}

// NewCropHandlers creates a new crop handlers instance.
func NewCropHandlers(catalog crops.Catalog) *CropHandlers {
	return &CropHandlers{catalog: catalog}
}

// RegisterRoutes registers crop catalog routes. The router must already
// require a principal.
func (h *CropHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/crops", h.listAll).Methods("GET")
	router.HandleFunc("/api/crops/chapters", h.listChapters).Methods("GET")
	router.HandleFunc("/api/crops/by-chapter", h.cropsByChapter).Methods("GET")
	router.HandleFunc("/api/crops/by-crop", h.varietiesByCrop).Methods("GET")
}

// listAll handles GET /api/crops
func (h *CropHandlers) listAll(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, h.catalog.Chapters())
}

// listChapters handles GET /api/crops/chapters
func (h *CropHandlers) listChapters(w http.ResponseWriter, r *http.Request) {
	chapters := h.catalog.Chapters()
	titles := make([]string, 0, len(chapters))
	for _, chapter := range chapters {
		titles = append(titles, chapter.Title)
	}
	httputil.WriteSuccess(w, titles)
}

// cropsByChapter handles GET /api/crops/by-chapter?chapter=
func (h *CropHandlers) cropsByChapter(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("chapter")
	if title == "" {
		httputil.WriteBadRequest(w, "chapter is required")
		return
	}

	// Titles match case-insensitively; unknown chapters yield an empty
	// list rather than 404.
	result := []crops.Crop{}
	for _, chapter := range h.catalog.Chapters() {
		if strings.EqualFold(chapter.Title, title) {
			result = append(result, chapter.Crops...)
		}
	}
	httputil.WriteSuccess(w, result)
}

// varietiesByCrop handles GET /api/crops/by-crop?crop=
func (h *CropHandlers) varietiesByCrop(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("crop")
	if name == "" {
		httputil.WriteBadRequest(w, "crop is required")
		return
	}

	result := []string{}
	for _, chapter := range h.catalog.Chapters() {
		for _, crop := range chapter.Crops {
			if strings.EqualFold(crop.Name, name) {
				result = append(result, crop.Varieties...)
			}
		}
	}
	httputil.WriteSuccess(w, result)
}
