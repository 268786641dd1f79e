// Package inventory holds the stock validator and the reconciler that
// applies stock deltas against the product ledger.
package inventory

import "context"

// Line is one requested (product, quantity) pair. It is a transient value;
// nothing persists it.
type Line struct {
	ProductID int64
	Quantity  int32
}

// Direction tells the reconciler which way a batch of deltas moves stock.
type Direction int

const (
	// Decrement takes units off stock and adds them to the orders count
	// (order placement).
	Decrement Direction = iota
	// Increment restores units to stock and subtracts them from the orders
	// count, floored at zero (order cancellation).
	Increment
)

func (d Direction) String() string {
	if d == Increment {
		return "increment"
	}
	return "decrement"
}

// StockLedger is the slice of the product store the reconciler needs.
type StockLedger interface {
	DecrementStock(ctx context.Context, productID int64, quantity int32) error
	IncrementStock(ctx context.Context, productID int64, quantity int32) error
}
