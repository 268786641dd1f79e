package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/avdeev/go_storefront/internal/cartsync"
	"github.com/avdeev/go_storefront/internal/checkout"
	"github.com/avdeev/go_storefront/internal/repository"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps domain errors to HTTP statuses. Insufficient stock gets
// its per-item verdicts attached so the buyer can adjust quantities.
func handleError(w http.ResponseWriter, err error) {
	var insufficient *checkout.InsufficientStockError
	if errors.As(err, &insufficient) {
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:   insufficient.Error(),
			Code:    "insufficient_stock",
			Details: insufficient.Items,
		})
		return
	}

	switch {
	case errors.Is(err, checkout.ErrEmptySelection),
		errors.Is(err, checkout.ErrInvalidInput),
		errors.Is(err, checkout.ErrInvalidStatus),
		errors.Is(err, cartsync.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, checkout.ErrOutOfStock):
		respondError(w, http.StatusConflict, "out_of_stock", err.Error())
	case errors.Is(err, checkout.ErrNotCancellable),
		errors.Is(err, checkout.ErrTerminalStatus):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, checkout.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrCartLineNotFound),
		errors.Is(err, cartsync.ErrLineNotFound),
		errors.Is(err, checkout.ErrProductGone):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "storage_failure", "internal server error")
	}
}
