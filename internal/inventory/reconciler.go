package inventory

import (
	"context"
	"log"
)

// FailedAdjustment records one product whose delta could not be applied.
type FailedAdjustment struct {
	ProductID int64  `json:"product_id"`
	Reason    string `json:"reason"`
}

// ApplyResult is the partial outcome of a reconciliation batch.
type ApplyResult struct {
	Succeeded []int64            `json:"succeeded"`
	Failed    []FailedAdjustment `json:"failed,omitempty"`
}

// Complete reports whether every delta in the batch was applied.
func (r *ApplyResult) Complete() bool {
	return len(r.Failed) == 0
}

// Reconciler applies stock deltas product by product. Each adjustment is an
// independent atomic statement at the storage layer; one product failing
// never blocks the others, the caller gets partial results instead.
type Reconciler struct {
	ledger StockLedger
}

func NewReconciler(ledger StockLedger) *Reconciler {
	return &Reconciler{ledger: ledger}
}

func (r *Reconciler) Apply(ctx context.Context, lines []Line, direction Direction) *ApplyResult {
	result := &ApplyResult{}

	for _, l := range lines {
		var err error
		switch direction {
		case Increment:
			err = r.ledger.IncrementStock(ctx, l.ProductID, l.Quantity)
		default:
			err = r.ledger.DecrementStock(ctx, l.ProductID, l.Quantity)
		}

		if err != nil {
			log.Printf("stock %s failed for product %d qty %d: %v",
				direction, l.ProductID, l.Quantity, err)
			result.Failed = append(result.Failed, FailedAdjustment{
				ProductID: l.ProductID,
				Reason:    err.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, l.ProductID)
	}

	return result
}
