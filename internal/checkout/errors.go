package checkout

import (
	"errors"
	"fmt"

	"github.com/avdeev/go_storefront/internal/inventory"
)

var (
	ErrEmptySelection = errors.New("nothing to check out, selection is empty")
	ErrProductGone    = errors.New("referenced product no longer exists")
	ErrOutOfStock     = errors.New("product is out of stock")
	ErrForbidden      = errors.New("order belongs to another buyer")
	ErrNotCancellable = errors.New("order can no longer be cancelled")
	ErrTerminalStatus = errors.New("order is in a terminal status")
	ErrInvalidStatus  = errors.New("unknown order status")
	ErrInvalidInput   = errors.New("invalid checkout input")
)

// InsufficientStockError aborts a checkout before any write happens. It
// carries the validator's per-item verdicts so the buyer can see requested
// versus available for every line.
type InsufficientStockError struct {
	Items []inventory.ItemVerdict
}

func (e *InsufficientStockError) Error() string {
	short := 0
	for _, item := range e.Items {
		if !item.Sufficient {
			short++
		}
	}
	return fmt.Sprintf("insufficient stock for %d of %d items", short, len(e.Items))
}
