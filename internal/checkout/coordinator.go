package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/avdeev/go_storefront/internal/domain"
	"github.com/avdeev/go_storefront/internal/inventory"
	"github.com/avdeev/go_storefront/internal/repository"
	"github.com/google/uuid"
)

// OrderStore is the order persistence the coordinator drives. UpdateStatus
// is expected to reject terminal orders with repository.ErrOrderStatusTerminal.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	CreateOrderLines(ctx context.Context, lines []domain.OrderLine) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

// CartClearer empties the buyer's durable cart after a cart-sourced checkout.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// Notifier is the fire-and-forget notification collaborator. Implementations
// must never let a delivery failure surface into the checkout result.
type Notifier interface {
	OrderConfirmed(ctx context.Context, order *domain.Order, lines []domain.OrderLine)
	OrderStatusChanged(ctx context.Context, order *domain.Order, status domain.OrderStatus)
}

// CartChangeSignal lets other devices and the local synchronizer learn that
// the buyer's cart rows changed outside their own mutations.
type CartChangeSignal interface {
	CartChanged(ctx context.Context, userID string)
}

// PlacedOrder is a successful coordinator run. Reconciliation carries the
// partial stock-adjustment outcome; when it is incomplete the order still
// stands and the gap is an operator concern, not a buyer-visible failure.
type PlacedOrder struct {
	Order          *domain.Order
	Lines          []domain.OrderLine
	Reconciliation *inventory.ApplyResult
}

// Coordinator orchestrates the multi-step checkout write sequence and the
// order lifecycle transitions, with compensating rollback where no single
// transaction spans the steps.
type Coordinator struct {
	orders     OrderStore
	validator  *inventory.Validator
	reconciler *inventory.Reconciler
	cart       CartClearer
	notifier   Notifier
	cartSignal CartChangeSignal
}

func NewCoordinator(
	orders OrderStore,
	validator *inventory.Validator,
	reconciler *inventory.Reconciler,
	cart CartClearer,
	notifier Notifier,
	cartSignal CartChangeSignal,
) *Coordinator {
	return &Coordinator{
		orders:     orders,
		validator:  validator,
		reconciler: reconciler,
		cart:       cart,
		notifier:   notifier,
		cartSignal: cartSignal,
	}
}

// PlaceOrder converts a built session into a persisted order.
//
// Steps 1-2 abort with no writes. Steps 3-4 are strictly transactional: a
// failed line insert deletes the just-created order. Step 5 (stock
// decrement) is best-effort; by the time it runs the buyer has a confirmed
// order and a partial failure is logged for reconciliation, never unwound.
func (c *Coordinator) PlaceOrder(
	ctx context.Context,
	buyer domain.User,
	address domain.ShippingAddress,
	paymentMode domain.PaymentMode,
	session *Session,
) (*PlacedOrder, error) {

	if buyer.ID == "" {
		return nil, fmt.Errorf("%w: missing buyer identity", ErrInvalidInput)
	}
	if session == nil || len(session.Items) == 0 {
		return nil, ErrEmptySelection
	}
	if session.UserID != buyer.ID {
		return nil, ErrForbidden
	}
	for _, item := range session.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: non-positive quantity for product %d", ErrInvalidInput, item.ProductID)
		}
	}

	verdict, err := c.validator.Validate(ctx, session.Lines())
	if err != nil {
		return nil, fmt.Errorf("stock validation failed: %w", err)
	}
	if !verdict.Valid {
		return nil, &InsufficientStockError{Items: verdict.Items}
	}

	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          buyer.ID,
		Email:           buyer.Email,
		TotalAmount:     session.TotalAmount,
		Status:          domain.OrderStatusPending,
		PaymentMode:     paymentMode,
		ShippingAddress: address,
		CreatedAt:       time.Now(),
	}

	if err := c.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	lines := make([]domain.OrderLine, len(session.Items))
	for i, item := range session.Items {
		lines[i] = domain.OrderLine{
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.UnitPrice,
		}
	}

	if err := c.orders.CreateOrderLines(ctx, lines); err != nil {
		// Compensating rollback: an order must never exist with zero lines.
		if delErr := c.orders.DeleteOrder(ctx, order.ID); delErr != nil {
			log.Printf("rollback of order %s failed: %v", order.ID, delErr)
		}
		return nil, fmt.Errorf("failed to create order lines: %w", err)
	}

	reconciliation := c.reconciler.Apply(ctx, session.Lines(), inventory.Decrement)
	if !reconciliation.Complete() {
		log.Printf("order %s committed with %d unreconciled stock adjustments, operator follow-up required",
			order.ID, len(reconciliation.Failed))
	}

	if session.FromCart {
		if err := c.cart.Clear(ctx, buyer.ID); err != nil {
			// The order stands; a stale cart is recoverable by the buyer.
			log.Printf("failed to clear cart for user %s after order %s: %v", buyer.ID, order.ID, err)
		}
		c.cartSignal.CartChanged(ctx, buyer.ID)
	}

	c.notifier.OrderConfirmed(ctx, order, lines)

	return &PlacedOrder{
		Order:          order,
		Lines:          lines,
		Reconciliation: reconciliation,
	}, nil
}

// CancelOrder transitions a buyer-owned, still-cancellable order to
// cancelled and restores its stock. The restore is best-effort like the
// decrement it reverses.
func (c *Coordinator) CancelOrder(ctx context.Context, orderID uuid.UUID, buyer domain.User) (*domain.Order, error) {
	order, err := c.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != buyer.ID {
		return nil, ErrForbidden
	}
	if !order.Status.IsCancellable() {
		return nil, fmt.Errorf("%w: status is %s", ErrNotCancellable, order.Status)
	}

	// The conditional update must win before any stock moves. Otherwise a
	// buyer and an operator cancelling the same order would restock twice.
	if err := c.orders.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled); err != nil {
		if errors.Is(err, repository.ErrOrderStatusTerminal) {
			return nil, fmt.Errorf("%w: order was finalized concurrently", ErrNotCancellable)
		}
		return nil, fmt.Errorf("failed to mark order cancelled: %w", err)
	}
	order.Status = domain.OrderStatusCancelled

	c.restock(ctx, orderID)

	c.notifier.OrderStatusChanged(ctx, order, domain.OrderStatusCancelled)

	return order, nil
}

// SetStatus moves a non-terminal order to a new status. Forward-only
// ordering is not enforced, only exits from terminal states are rejected.
func (c *Coordinator) SetStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	order, err := c.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionTo(order.Status, status) {
		return nil, fmt.Errorf("%w: %s", ErrTerminalStatus, order.Status)
	}

	if err := c.orders.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, repository.ErrOrderStatusTerminal) {
			return nil, fmt.Errorf("%w: order was finalized concurrently", ErrTerminalStatus)
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = status

	// Cancellation via status change restores stock the same way
	// CancelOrder does, whoever the actor is. Restocking only after the
	// conditional update keeps a racing cancellation from doubling it.
	if status == domain.OrderStatusCancelled {
		c.restock(ctx, orderID)
	}

	c.notifier.OrderStatusChanged(ctx, order, status)

	return order, nil
}

// restock returns a cancelled order's units to stock. The order is already
// cancelled at this point, so failures are logged for operator follow-up
// instead of surfacing, like the best-effort decrement they reverse.
func (c *Coordinator) restock(ctx context.Context, orderID uuid.UUID) {
	orderLines, err := c.orders.GetOrderLines(ctx, orderID)
	if err != nil {
		log.Printf("cancellation of order %s could not load lines to restock, operator follow-up required: %v",
			orderID, err)
		return
	}

	lines := make([]inventory.Line, len(orderLines))
	for i, l := range orderLines {
		lines[i] = inventory.Line{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	restock := c.reconciler.Apply(ctx, lines, inventory.Increment)
	if !restock.Complete() {
		log.Printf("cancellation of order %s left %d products unrestocked, operator follow-up required",
			orderID, len(restock.Failed))
	}
}

// ValidateStock exposes the advisory pre-check as its own operation for UI
// callers that want to show availability before checkout.
func (c *Coordinator) ValidateStock(ctx context.Context, lines []inventory.Line) (*inventory.ValidationResult, error) {
	if len(lines) == 0 {
		return nil, ErrEmptySelection
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: non-positive quantity for product %d", ErrInvalidInput, l.ProductID)
		}
	}
	return c.validator.Validate(ctx, lines)
}
