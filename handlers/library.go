package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"movieverse/models"
	librarysvc "movieverse/services/library"
)

type libraryService interface {
	Watchlist() []models.WatchlistItem
	IsInWatchlist(id int, mediaType string) bool
	Toggle(ctx context.Context, id int, mediaType string) (bool, error)
	Add(ctx context.Context, id int, mediaType string) error
	Remove(ctx context.Context, id int, mediaType string) error
	SetRating(ctx context.Context, id int, mediaType string, value int) error
	Rating(id int, mediaType string) (int, bool)
}

var _ libraryService = (*librarysvc.Store)(nil)

// LibraryHandler exposes watchlist and rating operations over HTTP.
type LibraryHandler struct {
	Service  libraryService
	validate *validator.Validate
}

func NewLibraryHandler(s libraryService) *LibraryHandler {
	return &LibraryHandler{
		Service:  s,
		validate: validator.New(),
	}
}

// Register mounts the watchlist and rating routes.
func (h *LibraryHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/watchlist", h.list).Methods(http.MethodGet)
	r.HandleFunc("/api/watchlist", h.add).Methods(http.MethodPost)
	r.HandleFunc("/api/watchlist/toggle", h.toggle).Methods(http.MethodPost)
	r.HandleFunc("/api/watchlist/{type}/{id:[0-9]+}", h.contains).Methods(http.MethodGet)
	r.HandleFunc("/api/watchlist/{type}/{id:[0-9]+}", h.remove).Methods(http.MethodDelete)
	r.HandleFunc("/api/ratings", h.setRating).Methods(http.MethodPut)
	r.HandleFunc("/api/ratings/{type}/{id:[0-9]+}", h.getRating).Methods(http.MethodGet)
}

type watchlistRequest struct {
	ItemID   int    `json:"itemId" validate:"required,min=1"`
	ItemType string `json:"itemType" validate:"required,oneof=movie tv"`
}

type ratingRequest struct {
	ItemID   int    `json:"itemId" validate:"required,min=1"`
	ItemType string `json:"itemType" validate:"required,oneof=movie tv"`
	Rating   int    `json:"rating" validate:"required"`
}

func (h *LibraryHandler) decode(r *http.Request, into any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return &models.ValidationError{Field: "body", Reason: err.Error()}
	}
	if err := h.validate.Struct(into); err != nil {
		return &models.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

func itemVars(r *http.Request) (int, string, bool) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil || id <= 0 || !models.ValidMediaType(vars["type"]) {
		return 0, "", false
	}
	return id, vars["type"], true
}

func (h *LibraryHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Watchlist())
}

func (h *LibraryHandler) contains(w http.ResponseWriter, r *http.Request) {
	id, mediaType, ok := itemVars(r)
	if !ok {
		http.Error(w, "invalid item reference", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"inWatchlist": h.Service.IsInWatchlist(id, mediaType)})
}

func (h *LibraryHandler) add(w http.ResponseWriter, r *http.Request) {
	var request watchlistRequest
	if err := h.decode(r, &request); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Service.Add(r.Context(), request.ItemID, request.ItemType); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"inWatchlist": true})
}

func (h *LibraryHandler) toggle(w http.ResponseWriter, r *http.Request) {
	var request watchlistRequest
	if err := h.decode(r, &request); err != nil {
		writeError(w, err)
		return
	}
	inWatchlist, err := h.Service.Toggle(r.Context(), request.ItemID, request.ItemType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"inWatchlist": inWatchlist})
}

func (h *LibraryHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, mediaType, ok := itemVars(r)
	if !ok {
		http.Error(w, "invalid item reference", http.StatusBadRequest)
		return
	}
	if err := h.Service.Remove(r.Context(), id, mediaType); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"inWatchlist": false})
}

func (h *LibraryHandler) setRating(w http.ResponseWriter, r *http.Request) {
	var request ratingRequest
	if err := h.decode(r, &request); err != nil {
		writeError(w, err)
		return
	}
	// Range validation belongs to the store so it stays uniform across
	// every caller, not just HTTP.
	if err := h.Service.SetRating(r.Context(), request.ItemID, request.ItemType, request.Rating); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"rating": request.Rating})
}

func (h *LibraryHandler) getRating(w http.ResponseWriter, r *http.Request) {
	id, mediaType, ok := itemVars(r)
	if !ok {
		http.Error(w, "invalid item reference", http.StatusBadRequest)
		return
	}
	value, found := h.Service.Rating(id, mediaType)
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"rating": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rating": value})
}
