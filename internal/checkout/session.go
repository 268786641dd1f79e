package checkout

import (
	"context"
	"fmt"

	"github.com/avdeev/go_storefront/internal/domain"
	"github.com/avdeev/go_storefront/internal/inventory"
)

// Source tells the builder where the priced line-item list comes from.
type Source int

const (
	// SourceCart prices the buyer's whole cart.
	SourceCart Source = iota
	// SourceBuyNow prices a single product with quantity fixed at 1.
	SourceBuyNow
)

// SessionItem is one priced line of a checkout run. UnitPrice is captured
// here and snapshotted onto the order line; it is never recomputed later.
type SessionItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int32   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// Session is the assembled input for one coordinator run.
type Session struct {
	UserID      string        `json:"user_id"`
	Items       []SessionItem `json:"items"`
	TotalAmount float64       `json:"total_amount"`
	FromCart    bool          `json:"from_cart"`
}

// Lines converts the session into the (product, quantity) pairs the
// validator and reconciler operate on.
func (s *Session) Lines() []inventory.Line {
	lines := make([]inventory.Line, len(s.Items))
	for i, item := range s.Items {
		lines[i] = inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return lines
}

// Catalog is the product read access the builder needs.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error)
}

// CartReader is the slice of the cart store the builder needs.
type CartReader interface {
	GetLines(ctx context.Context, userID string) ([]domain.CartLine, error)
}

// Builder assembles the priced line-item list for a coordinator run from
// either the buyer's cart or a single buy-now product.
type Builder struct {
	catalog Catalog
	cart    CartReader
}

func NewBuilder(catalog Catalog, cart CartReader) *Builder {
	return &Builder{catalog: catalog, cart: cart}
}

func (b *Builder) Build(ctx context.Context, userID string, source Source, productID int64) (*Session, error) {
	if source == SourceBuyNow {
		return b.buildBuyNow(ctx, userID, productID)
	}
	return b.buildFromCart(ctx, userID)
}

func (b *Builder) buildFromCart(ctx context.Context, userID string) (*Session, error) {
	cartLines, err := b.cart.GetLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cartLines) == 0 {
		return nil, ErrEmptySelection
	}

	ids := make([]int64, len(cartLines))
	for i, l := range cartLines {
		ids[i] = l.ProductID
	}

	products, err := b.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products for cart: %w", err)
	}
	byID := make(map[int64]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	session := &Session{UserID: userID, FromCart: true}
	for _, l := range cartLines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("cart references product %d: %w", l.ProductID, ErrProductGone)
		}
		unitPrice := p.UnitPrice()
		subtotal := unitPrice * float64(l.Quantity)
		session.Items = append(session.Items, SessionItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			UnitPrice:   unitPrice,
			Subtotal:    subtotal,
		})
		session.TotalAmount += subtotal
	}

	return session, nil
}

func (b *Builder) buildBuyNow(ctx context.Context, userID string, productID int64) (*Session, error) {
	p, err := b.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", productID, err)
	}

	// Fast precheck before the validator even runs; still advisory.
	if !p.InStock() {
		return nil, ErrOutOfStock
	}

	unitPrice := p.UnitPrice()
	return &Session{
		UserID: userID,
		Items: []SessionItem{{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    1,
			UnitPrice:   unitPrice,
			Subtotal:    unitPrice,
		}},
		TotalAmount: unitPrice,
		FromCart:    false,
	}, nil
}
