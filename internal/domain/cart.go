package domain

import "time"

// CartLine is one (user, product) row of the buyer's pending selection.
// It is ephemeral: placing an order from the cart deletes the whole set.
type CartLine struct {
	UserID    string
	ProductID int64
	Quantity  int32
	AddedAt   time.Time
}

// User is the authenticated identity every cart and order operation is
// scoped to.
type User struct {
	ID    string
	Email string
}
