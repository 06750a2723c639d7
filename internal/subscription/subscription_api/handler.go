package subscription_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"matchday/internal/auth"
	"matchday/internal/logger"
	"matchday/internal/models"
	"matchday/internal/subscription"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *subscription.Service
	Logger  *logger.Logger
}

func NewHandler(service *subscription.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/subscriptions", func(r chi.Router) {
		r.Get("/plans", h.Plans)
		r.Get("/mine", h.MySubscriptions)
		r.Post("/", h.Subscribe)
	})
}

func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, subscription.Plans)
}

func (h *Handler) MySubscriptions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	subs, err := h.Service.Subscriptions(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("MySubscriptions: %v", err))
		http.Error(w, "Failed to load subscriptions", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req models.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	// The signed-in user subscribes for themselves; the id from the token
	// wins over anything in the body.
	if id := auth.UserID(r.Context()); id > 0 {
		req.UserID = id
	}

	sub, err := h.Service.Subscribe(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Subscribe: %v", err))
		http.Error(w, err.Error(), subscribeStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

func subscribeStatus(err error) int {
	switch {
	case errors.Is(err, subscription.ErrDuplicateSubscription):
		return http.StatusConflict
	case errors.Is(err, subscription.ErrValidation), errors.Is(err, subscription.ErrPlanNotFound):
		return http.StatusBadRequest
	case errors.Is(err, subscription.ErrPaymentFailed):
		return http.StatusPaymentRequired
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
