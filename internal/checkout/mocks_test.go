package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/avdeev/go_storefront/internal/domain"
	"github.com/avdeev/go_storefront/internal/repository"
	"github.com/google/uuid"
)

var errNoStock = errors.New("insufficient stock")

// mockProductStore backs the validator, reconciler and builder in one place.
type mockProductStore struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	failDec  map[int64]error
	getErr   error
}

func newMockProductStore(products ...*domain.Product) *mockProductStore {
	m := &mockProductStore{
		products: make(map[int64]*domain.Product),
		failDec:  make(map[int64]error),
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductStore) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductGone
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductStore) GetProductsByIDs(_ context.Context, ids []int64) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockProductStore) DecrementStock(_ context.Context, productID int64, quantity int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failDec[productID]; ok {
		return err
	}
	p, ok := m.products[productID]
	if !ok {
		return ErrProductGone
	}
	if p.Stock < quantity {
		return errNoStock
	}
	p.Stock -= quantity
	p.OrdersCount += quantity
	return nil
}

func (m *mockProductStore) IncrementStock(_ context.Context, productID int64, quantity int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return ErrProductGone
	}
	p.Stock += quantity
	if p.OrdersCount < quantity {
		p.OrdersCount = 0
	} else {
		p.OrdersCount -= quantity
	}
	return nil
}

func (m *mockProductStore) product(id int64) *domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id]
}

type mockOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
	lines  map[uuid.UUID][]domain.OrderLine

	createOrderErr error
	createLinesErr error
	updateErr      error
	deleted        []uuid.UUID

	// afterGet runs after GetOrderByID returns its copy, outside the lock,
	// letting a test mutate the store between the read and the next write.
	afterGet func()
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{
		orders: make(map[uuid.UUID]*domain.Order),
		lines:  make(map[uuid.UUID][]domain.OrderLine),
	}
}

func (m *mockOrderStore) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createOrderErr != nil {
		return m.createOrderErr
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderStore) CreateOrderLines(_ context.Context, lines []domain.OrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createLinesErr != nil {
		return m.createLinesErr
	}
	m.lines[lines[0].OrderID] = append([]domain.OrderLine(nil), lines...)
	return nil
}

func (m *mockOrderStore) DeleteOrder(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockOrderStore) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	order, ok := m.orders[id]
	if !ok {
		m.mu.Unlock()
		return nil, errors.New("order not found")
	}
	cp := *order
	m.mu.Unlock()
	if m.afterGet != nil {
		m.afterGet()
	}
	return &cp, nil
}

func (m *mockOrderStore) GetOrderLines(_ context.Context, orderID uuid.UUID) ([]domain.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OrderLine(nil), m.lines[orderID]...), nil
}

func (m *mockOrderStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	order, ok := m.orders[id]
	if !ok {
		return errors.New("order not found")
	}
	if order.Status.IsTerminal() {
		return repository.ErrOrderStatusTerminal
	}
	order.Status = status
	return nil
}

func (m *mockOrderStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type mockCart struct {
	mu       sync.Mutex
	lines    []domain.CartLine
	clearErr error
	cleared  int
}

func (m *mockCart) GetLines(_ context.Context, _ string) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CartLine(nil), m.lines...), nil
}

func (m *mockCart) Clear(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	m.lines = nil
	m.cleared++
	return nil
}

type mockNotifier struct {
	mu            sync.Mutex
	confirmed     []uuid.UUID
	statusChanges []domain.OrderStatus
}

func (m *mockNotifier) OrderConfirmed(_ context.Context, order *domain.Order, _ []domain.OrderLine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed = append(m.confirmed, order.ID)
}

func (m *mockNotifier) OrderStatusChanged(_ context.Context, _ *domain.Order, status domain.OrderStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusChanges = append(m.statusChanges, status)
}

type mockCartSignal struct {
	mu      sync.Mutex
	changed []string
}

func (m *mockCartSignal) CartChanged(_ context.Context, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changed = append(m.changed, userID)
}
