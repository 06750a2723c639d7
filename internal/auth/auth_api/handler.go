package auth_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"matchday/internal/auth"
	"matchday/internal/logger"
	"matchday/internal/models"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *auth.Service
	Logger  *logger.Logger
}

func NewHandler(service *auth.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// RegisterPublicRoutes mounts signup and signin, which need no token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/signup", h.SignUp)
	r.Post("/auth/signin", h.SignIn)
}

// RegisterProtectedRoutes mounts the routes that require a session.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/auth/signout", h.SignOut)
	r.Get("/auth/profile", h.Profile)
	r.Put("/auth/profile", h.UpdateProfile)
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.Service.SignUp(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SignUp: %v", err))
		http.Error(w, err.Error(), authStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.Service.SignIn(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SignIn: %v", err))
		http.Error(w, err.Error(), authStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.SignOut(r.Context(), auth.SessionID(r.Context())); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SignOut: %v", err))
		http.Error(w, "Failed to sign out", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.Profile(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Profile: %v", err))
		http.Error(w, err.Error(), authStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.UpdateProfile(r.Context(), auth.UserID(r.Context()), update); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateProfile: %v", err))
		http.Error(w, err.Error(), authStatus(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func authStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
