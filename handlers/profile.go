package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"movieverse/internal/database"
	"movieverse/models"
)

type profileStore interface {
	ByUser(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile models.Profile) error
}

var _ profileStore = (*database.ProfileRepository)(nil)

// ProfileHandler reads and writes the signed-in user's favorite genres.
type ProfileHandler struct {
	Store    profileStore
	Identity identityReader
}

func NewProfileHandler(store profileStore, identity identityReader) *ProfileHandler {
	return &ProfileHandler{Store: store, Identity: identity}
}

// Register mounts the profile routes.
func (h *ProfileHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/profile", h.get).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", h.update).Methods(http.MethodPut)
}

func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request) {
	current := h.Identity.Current()
	if !current.Authenticated() {
		http.Error(w, "sign in to manage a profile", http.StatusUnauthorized)
		return
	}

	profile, err := h.Store.ByUser(r.Context(), current.UserID)
	if err != nil {
		writeError(w, &models.PersistenceError{Op: "load profile", Err: err})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request) {
	current := h.Identity.Current()
	if !current.Authenticated() {
		http.Error(w, "sign in to manage a profile", http.StatusUnauthorized)
		return
	}

	var request struct {
		FavoriteGenres []int `json:"favoriteGenres"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if request.FavoriteGenres == nil {
		request.FavoriteGenres = []int{}
	}

	profile := models.Profile{UserID: current.UserID, FavoriteGenres: request.FavoriteGenres}
	if err := h.Store.Upsert(r.Context(), profile); err != nil {
		writeError(w, &models.PersistenceError{Op: "save profile", Err: err})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
