package repository

import (
	"context"
	"errors"

	"github.com/avdeev/go_storefront/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrCartLineNotFound = errors.New("cart line not found")

	// ErrInsufficientStock means a conditional stock decrement matched no
	// row: the product exists but cannot cover the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOrderStatusTerminal means a conditional status update matched no
	// row: the order exists but is already cancelled or delivered.
	ErrOrderStatusTerminal = errors.New("order status is terminal")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// ProductStore is the stock ledger: product reads plus the two atomic
// stock/orders adjustments. Consumers define the interface, not postgres.
type ProductStore interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)

	// DecrementStock takes quantity units off stock and adds them to the
	// cumulative orders count in one conditional statement. Returns
	// ErrInsufficientStock when stock cannot cover quantity.
	DecrementStock(ctx context.Context, productID int64, quantity int32) error

	// IncrementStock returns quantity units to stock and subtracts them
	// from the orders count, floored at zero. It must not assume the
	// matching decrement ever happened.
	IncrementStock(ctx context.Context, productID int64, quantity int32) error
}

type CartStore interface {
	GetLines(ctx context.Context, userID string) ([]domain.CartLine, error)
	AddLine(ctx context.Context, userID string, productID int64, quantity int32) error
	UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int32) error
	RemoveLine(ctx context.Context, userID string, productID int64) error
	Clear(ctx context.Context, userID string) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	CreateOrderLines(ctx context.Context, lines []domain.OrderLine) error

	// DeleteOrder exists only for the compensating rollback after a failed
	// order-lines insert. Regular order history is never deleted.
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)

	// UpdateStatus refuses to move an order out of a terminal status and
	// returns ErrOrderStatusTerminal instead.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}
