package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLedger struct {
	stock      map[int64]int32
	orders     map[int64]int32
	failOn     map[int64]error
	decrements int
	increments int
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		stock:  make(map[int64]int32),
		orders: make(map[int64]int32),
		failOn: make(map[int64]error),
	}
}

func (m *mockLedger) DecrementStock(_ context.Context, productID int64, quantity int32) error {
	m.decrements++
	if err, ok := m.failOn[productID]; ok {
		return err
	}
	m.stock[productID] -= quantity
	m.orders[productID] += quantity
	return nil
}

func (m *mockLedger) IncrementStock(_ context.Context, productID int64, quantity int32) error {
	m.increments++
	if err, ok := m.failOn[productID]; ok {
		return err
	}
	m.stock[productID] += quantity
	if m.orders[productID] < quantity {
		m.orders[productID] = 0
	} else {
		m.orders[productID] -= quantity
	}
	return nil
}

func TestApply_DecrementAll(t *testing.T) {
	ledger := newMockLedger()
	ledger.stock[1] = 5
	ledger.stock[2] = 3

	sut := NewReconciler(ledger)
	result := sut.Apply(context.Background(), []Line{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}, Decrement)

	assert.True(t, result.Complete())
	assert.ElementsMatch(t, []int64{1, 2}, result.Succeeded)
	assert.Equal(t, int32(3), ledger.stock[1])
	assert.Equal(t, int32(2), ledger.orders[1])
}

func TestApply_OneFailureDoesNotBlockOthers(t *testing.T) {
	ledger := newMockLedger()
	ledger.stock[1] = 5
	ledger.stock[3] = 5
	ledger.failOn[2] = assert.AnError

	sut := NewReconciler(ledger)
	result := sut.Apply(context.Background(), []Line{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
		{ProductID: 3, Quantity: 1},
	}, Decrement)

	assert.False(t, result.Complete())
	assert.ElementsMatch(t, []int64{1, 3}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, int64(2), result.Failed[0].ProductID)
	// products after the failed one were still attempted
	assert.Equal(t, 3, ledger.decrements)
	assert.Equal(t, int32(4), ledger.stock[3])
}

func TestApply_IncrementFloorsOrdersAtZero(t *testing.T) {
	ledger := newMockLedger()
	ledger.stock[1] = 0
	ledger.orders[1] = 1 // less than the restore quantity

	sut := NewReconciler(ledger)
	result := sut.Apply(context.Background(), []Line{{ProductID: 1, Quantity: 3}}, Increment)

	assert.True(t, result.Complete())
	assert.Equal(t, int32(3), ledger.stock[1])
	assert.Equal(t, int32(0), ledger.orders[1])
	assert.Equal(t, 1, ledger.increments)
}
