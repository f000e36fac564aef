package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"movieverse/models"
	"movieverse/services/identity"
)

type authService interface {
	Current() models.Identity
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	SignOut()
}

var _ authService = (*identity.Provider)(nil)

// AuthHandler exposes the session endpoints.
type AuthHandler struct {
	Identity authService
	validate *validator.Validate
}

func NewAuthHandler(provider authService) *AuthHandler {
	return &AuthHandler{Identity: provider, validate: validator.New()}
}

// Register mounts the auth routes.
func (h *AuthHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/auth/signup", h.signUp).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/signin", h.signIn).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/signout", h.signOut).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/session", h.session).Methods(http.MethodGet)
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *AuthHandler) decodeCredentials(r *http.Request) (credentialsRequest, error) {
	var request credentialsRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		return request, err
	}
	if err := h.validate.Struct(request); err != nil {
		return request, err
	}
	return request, nil
}

func (h *AuthHandler) signUp(w http.ResponseWriter, r *http.Request) {
	request, err := h.decodeCredentials(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.Identity.SignUp(r.Context(), request.Email, request.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request) {
	request, err := h.decodeCredentials(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessionToken, err := h.Identity.SignIn(r.Context(), request.Email, request.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":  sessionToken,
		"userId": h.Identity.Current().UserID,
	})
}

func (h *AuthHandler) signOut(w http.ResponseWriter, r *http.Request) {
	h.Identity.SignOut()
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) session(w http.ResponseWriter, r *http.Request) {
	current := h.Identity.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": current.Authenticated(),
		"userId":        current.UserID,
	})
}
