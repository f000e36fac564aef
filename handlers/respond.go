package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"movieverse/models"
	"movieverse/services/identity"
	"movieverse/services/library"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[handlers] encode response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	var persistenceErr *models.PersistenceError
	var fetchErr *models.FetchError

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
	case errors.Is(err, library.ErrMutationInFlight):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, identity.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &persistenceErr), errors.As(err, &fetchErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
