package inventory

import (
	"context"
	"fmt"

	"github.com/avdeev/go_storefront/internal/domain"
)

// ItemVerdict is the per-line result of a stock check, detailed enough for
// the buyer to adjust quantities.
type ItemVerdict struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int32  `json:"requested"`
	Available   int32  `json:"available"`
	Sufficient  bool   `json:"sufficient"`
}

type ValidationResult struct {
	Valid bool          `json:"valid"`
	Items []ItemVerdict `json:"items"`
}

// ProductReader is the read-only product access the validator needs.
type ProductReader interface {
	GetProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)
}

// Validator performs the advisory pre-check of requested quantities against
// current stock. It never mutates anything, and it is not the concurrency
// guard: a concurrent buyer can invalidate its verdict the instant it is
// produced. Only the reconciler's conditional update prevents oversell.
type Validator struct {
	products ProductReader
}

func NewValidator(products ProductReader) *Validator {
	return &Validator{products: products}
}

func (v *Validator) Validate(ctx context.Context, lines []Line) (*ValidationResult, error) {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}

	products, err := v.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products for validation: %w", err)
	}

	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	result := &ValidationResult{Valid: true, Items: make([]ItemVerdict, 0, len(lines))}
	for _, l := range lines {
		verdict := ItemVerdict{
			ProductID: l.ProductID,
			Requested: l.Quantity,
		}
		// A missing product is reported as zero availability, not an error.
		if p, ok := byID[l.ProductID]; ok {
			verdict.ProductName = p.Name
			verdict.Available = p.Stock
			verdict.Sufficient = p.Stock >= l.Quantity
		}
		if !verdict.Sufficient {
			result.Valid = false
		}
		result.Items = append(result.Items, verdict)
	}

	return result, nil
}
