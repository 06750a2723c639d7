package matches_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"matchday/internal/auth"
	"matchday/internal/logger"
	"matchday/internal/matches"
	"matchday/internal/models"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *matches.Service
	Logger  *logger.Logger
}

func NewHandler(service *matches.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/matches", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{matchId}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/", h.Create)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	upcomingOnly := r.URL.Query().Get("upcoming") == "true"

	list, err := h.Service.List(r.Context(), upcomingOnly)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMatches: %v", err))
		http.Error(w, "Failed to load matches", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "matchId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid match id", http.StatusBadRequest)
		return
	}

	match, err := h.Service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, matches.ErrMatchNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("GetMatch: %v", err))
		http.Error(w, "Failed to load match", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var match models.Match
	if err := json.NewDecoder(r.Body).Decode(&match); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.Create(r.Context(), &match); err != nil {
		if errors.Is(err, matches.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CreateMatch: %v", err))
		http.Error(w, "Failed to create match", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, match)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
