package analytics_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"matchday/internal/analytics"
	"matchday/internal/logger"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard)
		r.Get("/tickets/status", h.TicketsByStatus)
		r.Get("/revenue/monthly", h.RevenueByMonth)
		r.Get("/matches/competitions", h.MatchesByCompetition)
		r.Get("/subscriptions", h.SubscriptionStats)
	})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Dashboard(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Dashboard: %v", err))
		http.Error(w, "Failed to load dashboard", http.StatusBadGateway)
		return
	}
	writeJSON(w, stats)
}

func (h *Handler) TicketsByStatus(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.TicketsByStatus(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("TicketsByStatus: %v", err))
		http.Error(w, "Failed to load chart", http.StatusBadGateway)
		return
	}
	writeJSON(w, data)
}

func (h *Handler) RevenueByMonth(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.RevenueByMonth(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RevenueByMonth: %v", err))
		http.Error(w, "Failed to load chart", http.StatusBadGateway)
		return
	}
	writeJSON(w, data)
}

func (h *Handler) MatchesByCompetition(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.MatchesByCompetition(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("MatchesByCompetition: %v", err))
		http.Error(w, "Failed to load chart", http.StatusBadGateway)
		return
	}
	writeJSON(w, data)
}

func (h *Handler) SubscriptionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.SubscriptionStats(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SubscriptionStats: %v", err))
		http.Error(w, "Failed to load chart", http.StatusBadGateway)
		return
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
