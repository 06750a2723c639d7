package inventory_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"matchday/internal/auth"
	"matchday/internal/inventory"
	"matchday/internal/inventory/receipt"
	"matchday/internal/logger"
	"matchday/internal/models"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service  *inventory.Service
	Receipts *receipt.Generator
	Logger   *logger.Logger
}

func NewHandler(service *inventory.Service, receipts *receipt.Generator, log *logger.Logger) *Handler {
	return &Handler{Service: service, Receipts: receipts, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/available", h.AvailableTickets)
		r.Get("/mine", h.UserTickets)
		r.Post("/purchase", h.Purchase)
		r.Get("/receipt/{purchaseId}", h.Receipt)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/generate", h.GenerateTickets)
			r.Post("/sell", h.SellTicket)
		})
	})
}

func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("Purchase: user=%d ticket=%d", userID, req.TicketID))

	purchase, err := h.Service.Purchase(r.Context(), userID, req.TicketID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Purchase failed: %v", err))
		http.Error(w, err.Error(), purchaseStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, purchase)
}

func (h *Handler) AvailableTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.Service.AvailableTickets(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AvailableTickets: %v", err))
		http.Error(w, "Failed to load tickets", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (h *Handler) UserTickets(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	tickets, err := h.Service.UserTickets(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UserTickets: %v", err))
		http.Error(w, err.Error(), purchaseStatus(err))
		return
	}

	var total float64
	for _, t := range tickets {
		total += t.Price
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tickets":     tickets,
		"total_price": total,
	})
}

func (h *Handler) GenerateTickets(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateTicketsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	tickets, err := h.Service.GenerateTickets(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GenerateTickets: %v", err))
		http.Error(w, err.Error(), purchaseStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"created": len(tickets),
		"tickets": tickets,
	})
}

func (h *Handler) SellTicket(w http.ResponseWriter, r *http.Request) {
	var req models.SellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.SellTicket(r.Context(), req.TicketID, req.BuyerEmail); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SellTicket: %v", err))
		http.Error(w, err.Error(), purchaseStatus(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Receipt streams the QR receipt PNG for one of the caller's purchases.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	purchaseID, err := strconv.ParseInt(chi.URLParam(r, "purchaseId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid purchase id", http.StatusBadRequest)
		return
	}

	purchase, err := h.Service.Receipt(r.Context(), userID, purchaseID)
	if err != nil {
		http.Error(w, err.Error(), purchaseStatus(err))
		return
	}

	png, err := h.Receipts.Encode(*purchase)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Receipt: QR encode failed: %v", err))
		http.Error(w, "Failed to render receipt", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func purchaseStatus(err error) int {
	switch {
	case errors.Is(err, inventory.ErrTicketNotFound), errors.Is(err, inventory.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, inventory.ErrTicketUnavailable):
		return http.StatusConflict
	case errors.Is(err, inventory.ErrValidation), errors.Is(err, inventory.ErrInvalidUser):
		return http.StatusBadRequest
	case errors.Is(err, inventory.ErrInconsistentState):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
