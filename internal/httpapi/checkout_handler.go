package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/avdeev/go_storefront/internal/checkout"
	"github.com/avdeev/go_storefront/internal/domain"
	"github.com/avdeev/go_storefront/internal/inventory"
)

type CheckoutHandler struct {
	builder     *checkout.Builder
	coordinator *checkout.Coordinator
	timeout     time.Duration
}

func NewCheckoutHandler(builder *checkout.Builder, coordinator *checkout.Coordinator, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{builder: builder, coordinator: coordinator, timeout: timeout}
}

type ValidateStockRequestDTO struct {
	Lines []struct {
		ProductID int64 `json:"product_id"`
		Quantity  int32 `json:"quantity"`
	} `json:"lines"`
}

type PlaceOrderRequestDTO struct {
	Source      string                 `json:"source"` // "cart" or "buy_now"
	ProductID   int64                  `json:"product_id,omitempty"`
	PaymentMode string                 `json:"payment_mode"`
	Shipping    domain.ShippingAddress `json:"shipping"`
}

type OrderLineDTO struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int32   `json:"quantity"`
	Price       float64 `json:"price"`
}

type OrderResponseDTO struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Email       string         `json:"email"`
	TotalAmount float64        `json:"total_amount"`
	Status      string         `json:"status"`
	PaymentMode string         `json:"payment_mode"`
	CreatedAt   time.Time      `json:"created_at"`
	Lines       []OrderLineDTO `json:"lines,omitempty"`
}

func orderResponse(order *domain.Order, lines []domain.OrderLine) OrderResponseDTO {
	dto := OrderResponseDTO{
		ID:          order.ID.String(),
		UserID:      order.UserID,
		Email:       order.Email,
		TotalAmount: order.TotalAmount,
		Status:      string(order.Status),
		PaymentMode: string(order.PaymentMode),
		CreatedAt:   order.CreatedAt,
	}
	for _, l := range lines {
		dto.Lines = append(dto.Lines, OrderLineDTO{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Price:       l.Price,
		})
	}
	return dto
}

func (h *CheckoutHandler) ValidateStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, ok := userFromContext(ctx); !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req ValidateStockRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	lines := make([]inventory.Line, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = inventory.Line{ProductID: l.ProductID, Quantity: l.Quantity}
	}

	result, err := h.coordinator.ValidateStock(ctx, lines)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// PlaceOrder builds the checkout session from the requested source and runs
// the coordinator. A partial stock reconciliation is not a checkout failure:
// the buyer still gets their confirmed order.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := userFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var source checkout.Source
	switch req.Source {
	case "cart", "":
		source = checkout.SourceCart
	case "buy_now":
		source = checkout.SourceBuyNow
		if req.ProductID <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_product_id", "buy_now requires a positive product_id")
			return
		}
	default:
		respondError(w, http.StatusBadRequest, "invalid_source", "source must be cart or buy_now")
		return
	}

	paymentMode := domain.PaymentMode(req.PaymentMode)
	if paymentMode == "" {
		paymentMode = domain.PaymentModeCashOnDelivery
	}

	session, err := h.builder.Build(ctx, user.ID, source, req.ProductID)
	if err != nil {
		handleError(w, err)
		return
	}

	placed, err := h.coordinator.PlaceOrder(ctx, user, req.Shipping, paymentMode, session)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, orderResponse(placed.Order, placed.Lines))
}
