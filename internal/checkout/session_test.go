package checkout

import (
	"context"
	"testing"

	"github.com/avdeev/go_storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_FromCart(t *testing.T) {
	sale := 80.0
	products := newMockProductStore(
		&domain.Product{ID: 1, Name: "Laptop", Price: 100, Stock: 5},
		&domain.Product{ID: 2, Name: "Mouse", Price: 30, SalePrice: &sale, Stock: 9},
	)
	cart := &mockCart{lines: []domain.CartLine{
		{UserID: "user-1", ProductID: 1, Quantity: 2},
		{UserID: "user-1", ProductID: 2, Quantity: 1},
	}}

	sut := NewBuilder(products, cart)
	session, err := sut.Build(context.Background(), "user-1", SourceCart, 0)
	require.NoError(t, err)

	assert.True(t, session.FromCart)
	require.Len(t, session.Items, 2)
	assert.Equal(t, 100.0, session.Items[0].UnitPrice)
	assert.Equal(t, 200.0, session.Items[0].Subtotal)
	// sale price wins over regular price
	assert.Equal(t, 80.0, session.Items[1].UnitPrice)
	assert.Equal(t, 280.0, session.TotalAmount)
}

func TestBuild_EmptyCart(t *testing.T) {
	sut := NewBuilder(newMockProductStore(), &mockCart{})

	_, err := sut.Build(context.Background(), "user-1", SourceCart, 0)
	require.ErrorIs(t, err, ErrEmptySelection)
}

func TestBuild_CartReferencesMissingProduct(t *testing.T) {
	products := newMockProductStore(&domain.Product{ID: 1, Name: "Laptop", Price: 100, Stock: 5})
	cart := &mockCart{lines: []domain.CartLine{
		{UserID: "user-1", ProductID: 1, Quantity: 1},
		{UserID: "user-1", ProductID: 404, Quantity: 1},
	}}

	sut := NewBuilder(products, cart)
	_, err := sut.Build(context.Background(), "user-1", SourceCart, 0)
	require.ErrorIs(t, err, ErrProductGone)
}

func TestBuild_BuyNow(t *testing.T) {
	sale := 45.0
	products := newMockProductStore(
		&domain.Product{ID: 3, Name: "Keyboard", Price: 60, SalePrice: &sale, Stock: 2},
	)

	sut := NewBuilder(products, &mockCart{})
	session, err := sut.Build(context.Background(), "user-1", SourceBuyNow, 3)
	require.NoError(t, err)

	assert.False(t, session.FromCart)
	require.Len(t, session.Items, 1)
	assert.Equal(t, int32(1), session.Items[0].Quantity)
	assert.Equal(t, 45.0, session.Items[0].UnitPrice)
	assert.Equal(t, 45.0, session.TotalAmount)
}

func TestBuild_BuyNowOutOfStock(t *testing.T) {
	products := newMockProductStore(&domain.Product{ID: 3, Name: "Keyboard", Price: 60, Stock: 0})

	sut := NewBuilder(products, &mockCart{})
	_, err := sut.Build(context.Background(), "user-1", SourceBuyNow, 3)
	require.ErrorIs(t, err, ErrOutOfStock)
}

func TestBuild_BuyNowMissingProduct(t *testing.T) {
	sut := NewBuilder(newMockProductStore(), &mockCart{})

	_, err := sut.Build(context.Background(), "user-1", SourceBuyNow, 99)
	require.ErrorIs(t, err, ErrProductGone)
}
