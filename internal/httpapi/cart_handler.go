package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/avdeev/go_storefront/internal/cartsync"
	"github.com/avdeev/go_storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	registry *cartsync.Registry
	timeout  time.Duration
}

func NewCartHandler(registry *cartsync.Registry, timeout time.Duration) *CartHandler {
	return &CartHandler{registry: registry, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int32 `json:"quantity"`
}

type CartLineDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type CartResponseDTO struct {
	UserID string        `json:"user_id"`
	Lines  []CartLineDTO `json:"lines"`
}

func cartResponse(userID string, lines []domain.CartLine) CartResponseDTO {
	dto := CartResponseDTO{UserID: userID, Lines: make([]CartLineDTO, 0, len(lines))}
	for _, l := range lines {
		dto.Lines = append(dto.Lines, CartLineDTO{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return dto
}

func (h *CartHandler) sync(ctx context.Context, w http.ResponseWriter) (*cartsync.Synchronizer, domain.User, bool) {
	user, ok := userFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return nil, domain.User{}, false
	}

	s, err := h.registry.Get(ctx, user.ID)
	if err != nil {
		handleError(w, err)
		return nil, domain.User{}, false
	}
	return s, user, true
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, user, ok := h.sync(ctx, w)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(user.ID, s.Snapshot()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, user, ok := h.sync(ctx, w)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	if err := s.Add(ctx, req.ProductID); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(user.ID, s.Snapshot()))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, user, ok := h.sync(ctx, w)
	if !ok {
		return
	}

	productID, err := parseProductID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := s.SetQuantity(ctx, productID, req.Quantity); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(user.ID, s.Snapshot()))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, user, ok := h.sync(ctx, w)
	if !ok {
		return
	}

	productID, err := parseProductID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	if err := s.Remove(ctx, productID); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(user.ID, s.Snapshot()))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, user, ok := h.sync(ctx, w)
	if !ok {
		return
	}

	if err := s.Clear(ctx); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(user.ID, s.Snapshot()))
}

func parseProductID(r *http.Request) (int64, error) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		return 0, strconv.ErrSyntax
	}
	return productID, nil
}
