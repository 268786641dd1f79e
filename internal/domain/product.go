package domain

import "time"

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	SalePrice   *float64
	Stock       int32
	OrdersCount int32
	ImageURL    string
	CreatedAt   time.Time
}

// UnitPrice is the price a buyer actually pays: the sale price when one is
// set, the regular price otherwise.
func (p *Product) UnitPrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// InStock reports whether at least one unit can be sold right now.
// Advisory only; the storage-level conditional update is the real guard.
func (p *Product) InStock() bool {
	return p.Stock > 0
}
