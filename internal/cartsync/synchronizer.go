// Package cartsync keeps an in-memory view of one buyer's cart lines
// consistent with durable storage while masking write latency. Mutations
// apply optimistically and notify observers immediately; a failed durable
// write reverts the local view and re-fetches the authoritative rows.
package cartsync

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/avdeev/go_storefront/internal/domain"
)

// Store is the durable cart access the synchronizer reconciles against.
type Store interface {
	GetLines(ctx context.Context, userID string) ([]domain.CartLine, error)
	AddLine(ctx context.Context, userID string, productID int64, quantity int32) error
	UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int32) error
	RemoveLine(ctx context.Context, userID string, productID int64) error
	Clear(ctx context.Context, userID string) error
}

// Event is a local change notification. Lines is the full current view so
// dependent consumers (a cart badge, a drawer) never need a second read.
type Event struct {
	UserID string
	Lines  []domain.CartLine
}

// Listener receives change events. Called synchronously; keep it cheap.
type Listener func(Event)

// Synchronizer owns the optimistic local view of one user's cart.
type Synchronizer struct {
	userID string
	store  Store

	mu        sync.RWMutex
	lines     []domain.CartLine
	listeners []Listener
}

func NewSynchronizer(userID string, store Store) *Synchronizer {
	return &Synchronizer{userID: userID, store: store}
}

// Subscribe registers a listener for local change notifications.
func (s *Synchronizer) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns a copy of the current local view.
func (s *Synchronizer) Snapshot() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLines(s.lines)
}

// Refresh discards all optimistic state and reloads the authoritative row
// set in full. Last authoritative read wins; concurrent edits are not merged.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	lines, err := s.store.GetLines(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("failed to reload cart: %w", err)
	}

	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()

	s.notify()
	return nil
}

// Add optimistically inserts (or bumps) the product's line before the
// durable write confirms. On failure the optimistic line is removed and
// observers are told the cart shrank back.
func (s *Synchronizer) Add(ctx context.Context, productID int64) error {
	s.mu.Lock()
	prev := cloneLines(s.lines)
	if i := indexOf(s.lines, productID); i >= 0 {
		s.lines[i].Quantity++
	} else {
		s.lines = append(s.lines, domain.CartLine{
			UserID:    s.userID,
			ProductID: productID,
			Quantity:  1,
			AddedAt:   time.Now(),
		})
	}
	s.mu.Unlock()
	s.notify()

	if err := s.store.AddLine(ctx, s.userID, productID, 1); err != nil {
		s.mu.Lock()
		s.lines = prev
		s.mu.Unlock()
		s.notify()
		return fmt.Errorf("failed to add cart line: %w", err)
	}
	return nil
}

// Remove optimistically deletes the line before the durable delete
// confirms. On failure the line is restored and the authoritative set is
// re-fetched to recover the exact quantity.
func (s *Synchronizer) Remove(ctx context.Context, productID int64) error {
	s.mu.Lock()
	prev := cloneLines(s.lines)
	i := indexOf(s.lines, productID)
	if i < 0 {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.mu.Unlock()
	s.notify()

	if err := s.store.RemoveLine(ctx, s.userID, productID); err != nil {
		s.mu.Lock()
		s.lines = prev
		s.mu.Unlock()
		s.notify()
		s.recover(ctx)
		return fmt.Errorf("failed to remove cart line: %w", err)
	}
	return nil
}

// SetQuantity optimistically updates the local quantity. On failure the
// optimistic value is discarded and the authoritative row set re-fetched.
func (s *Synchronizer) SetQuantity(ctx context.Context, productID int64, quantity int32) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidQuantity)
	}

	s.mu.Lock()
	prev := cloneLines(s.lines)
	i := indexOf(s.lines, productID)
	if i < 0 {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	s.lines[i].Quantity = quantity
	s.mu.Unlock()
	s.notify()

	if err := s.store.UpdateQuantity(ctx, s.userID, productID, quantity); err != nil {
		s.mu.Lock()
		s.lines = prev
		s.mu.Unlock()
		s.notify()
		s.recover(ctx)
		return fmt.Errorf("failed to update cart quantity: %w", err)
	}
	return nil
}

// Clear optimistically empties the local view; on failure the full set is
// re-fetched.
func (s *Synchronizer) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
	s.notify()

	if err := s.store.Clear(ctx, s.userID); err != nil {
		s.recover(ctx)
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// recover reloads the authoritative set after a failed optimistic write.
// Best-effort: the revert already restored a defensible local view.
func (s *Synchronizer) recover(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		log.Printf("cart recovery re-fetch failed for user %s: %v", s.userID, err)
	}
}

func (s *Synchronizer) notify() {
	s.mu.RLock()
	lines := cloneLines(s.lines)
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	event := Event{UserID: s.userID, Lines: lines}
	for _, l := range listeners {
		l(event)
	}
}

func indexOf(lines []domain.CartLine, productID int64) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	if lines == nil {
		return nil
	}
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}
