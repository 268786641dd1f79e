package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/avdeev/go_storefront/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	catalog *catalog.Client
	timeout time.Duration
}

func NewProductHandler(c *catalog.Client, timeout time.Duration) *ProductHandler {
	return &ProductHandler{catalog: c, timeout: timeout}
}

type ProductResponseDTO struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	SalePrice   *float64 `json:"sale_price,omitempty"`
	Stock       int32    `json:"stock"`
	OrdersCount int32    `json:"orders_count"`
	ImageURL    string   `json:"image_url"`
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	p, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ProductResponseDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		SalePrice:   p.SalePrice,
		Stock:       p.Stock,
		OrdersCount: p.OrdersCount,
		ImageURL:    p.ImageURL,
	})
}
