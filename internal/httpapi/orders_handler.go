package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/avdeev/go_storefront/internal/checkout"
	"github.com/avdeev/go_storefront/internal/domain"
	"github.com/avdeev/go_storefront/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrdersHandler struct {
	orders      repository.OrderStore
	coordinator *checkout.Coordinator
	timeout     time.Duration
}

func NewOrdersHandler(orders repository.OrderStore, coordinator *checkout.Coordinator, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: orders, coordinator: coordinator, timeout: timeout}
}

type SetStatusRequestDTO struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := userFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListOrdersByUserID(ctx, user.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, orderResponse(o, nil))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := userFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := parseOrderID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	order, err := h.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		handleError(w, err)
		return
	}
	if order.UserID != user.ID {
		handleError(w, checkout.ErrForbidden)
		return
	}

	lines, err := h.orders.GetOrderLines(ctx, orderID)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orderResponse(order, lines))
}

func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := userFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := parseOrderID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	order, err := h.coordinator.CancelOrder(ctx, orderID, user)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orderResponse(order, nil))
}

// SetStatus is the operator-facing transition endpoint; it is not scoped to
// the buyer because fulfillment staff drive it.
func (h *OrdersHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := parseOrderID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	var req SetStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.coordinator.SetStatus(ctx, orderID, domain.OrderStatus(req.Status))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orderResponse(order, nil))
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "order_id"))
}
