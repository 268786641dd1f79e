package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPacked         OrderStatus = "packed"
	OrderStatusPickedUp       OrderStatus = "picked_up"
	OrderStatusInTransit      OrderStatus = "in_transit"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// IsTerminal reports whether no transition may leave this status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsCancellable reports whether the buyer may still cancel an order in this
// status. Once handed to the carrier the order can only move forward.
func (s OrderStatus) IsCancellable() bool {
	return s == OrderStatusPending || s == OrderStatusPacked
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPacked, OrderStatusPickedUp,
		OrderStatusInTransit, OrderStatusOutForDelivery,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether an order currently in status s may move to
// the target status. Terminal states admit no transition; otherwise any
// valid target is allowed (forward-only ordering is not enforced).
func CanTransitionTo(s, target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	return target.IsValid()
}

type PaymentMode string

const (
	PaymentModeCashOnDelivery PaymentMode = "cash_on_delivery"
	PaymentModeCard           PaymentMode = "card"
)

// ShippingAddress is a structured snapshot copied onto the order at creation
// time, never a live reference to a mutable address record.
type ShippingAddress struct {
	Recipient  string `json:"recipient"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type Order struct {
	ID              uuid.UUID
	UserID          string
	Email           string
	TotalAmount     float64
	Status          OrderStatus
	PaymentMode     PaymentMode
	ShippingAddress ShippingAddress
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderLine is one product of an order. Price is the unit price captured at
// order time and must never be recomputed from the live product.
type OrderLine struct {
	OrderID     uuid.UUID
	ProductID   int64
	ProductName string
	Quantity    int32
	Price       float64
}
