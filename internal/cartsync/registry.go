package cartsync

import (
	"context"
	"errors"
	"log"
	"sync"
)

var (
	ErrLineNotFound    = errors.New("product is not in the cart")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Registry tracks the live synchronizer per user so the change feed can
// route remote events to the right local view.
type Registry struct {
	store Store

	mu    sync.RWMutex
	syncs map[string]*Synchronizer
}

func NewRegistry(store Store) *Registry {
	return &Registry{
		store: store,
		syncs: make(map[string]*Synchronizer),
	}
}

// Get returns the user's synchronizer, creating and priming it on first use.
func (r *Registry) Get(ctx context.Context, userID string) (*Synchronizer, error) {
	r.mu.RLock()
	s, ok := r.syncs[userID]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	r.mu.Lock()
	if s, ok = r.syncs[userID]; !ok {
		s = NewSynchronizer(userID, r.store)
		r.syncs[userID] = s
	}
	r.mu.Unlock()

	if err := s.Refresh(ctx); err != nil {
		// An unprimed synchronizer must not stay registered: the fast path
		// above would keep serving its blank view as if it were the cart.
		r.mu.Lock()
		if r.syncs[userID] == s {
			delete(r.syncs, userID)
		}
		r.mu.Unlock()
		return nil, err
	}
	return s, nil
}

// NotifyRemoteChange is called by the change feed when another device or the
// checkout coordinator touched the user's cart rows. Users without a live
// synchronizer have nothing to reconcile.
func (r *Registry) NotifyRemoteChange(ctx context.Context, userID string) {
	r.mu.RLock()
	s, ok := r.syncs[userID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	if err := s.Refresh(ctx); err != nil {
		log.Printf("remote cart refresh failed for user %s: %v", userID, err)
	}
}

// Drop forgets a user's synchronizer (session end).
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.syncs, userID)
}
