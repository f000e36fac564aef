package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"movieverse/models"
	recommendsvc "movieverse/services/recommend"
)

type recommendService interface {
	DailyPick(ctx context.Context, identity models.Identity) (*models.DailyPick, error)
}

var _ recommendService = (*recommendsvc.Service)(nil)

type identityReader interface {
	Current() models.Identity
}

// RecommendHandler serves the cached daily pick for the session identity.
type RecommendHandler struct {
	Service  recommendService
	Identity identityReader
}

func NewRecommendHandler(s recommendService, identity identityReader) *RecommendHandler {
	return &RecommendHandler{Service: s, Identity: identity}
}

// Register mounts the recommendation route.
func (h *RecommendHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/recommendations", h.dailyPick).Methods(http.MethodGet)
}

func (h *RecommendHandler) dailyPick(w http.ResponseWriter, r *http.Request) {
	pick, err := h.Service.DailyPick(r.Context(), h.Identity.Current())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pick)
}
