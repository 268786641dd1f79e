package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avdeev/go_storefront/internal/domain"
	"github.com/lib/pq"
)

const productColumns = `id, name, description, price, sale_price, stock, orders, image_url, created_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var p domain.Product
	var salePrice sql.NullFloat64
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&salePrice,
		&p.Stock,
		&p.OrdersCount,
		&p.ImageURL,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if salePrice.Valid {
		p.SalePrice = &salePrice.Float64
	}
	return &p, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProductsByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query products by ids: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, errScan := scanProduct(rows)
		if errScan != nil {
			return nil, fmt.Errorf("scan product row: %w", errScan)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

// DecrementStock is the concurrency guard for checkout: the WHERE clause
// makes the engine serialize concurrent decrements, so two buyers can never
// both take the last unit. stock and the cumulative orders count move in the
// same statement, keeping them the only authoritative ledger entry.
func (r *Repository) DecrementStock(ctx context.Context, productID int64, quantity int32) error {
	query := `UPDATE products
	          SET stock = stock - $2, orders = orders + $2
	          WHERE id = $1 AND stock >= $2`

	result, err := r.db.ExecContext(ctx, query, productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock for product %d: %w", productID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock rows affected: %w", err)
	}
	if affected == 0 {
		// Either the product is gone or stock cannot cover the quantity.
		if _, errGet := r.GetProduct(ctx, productID); errGet != nil {
			return errGet
		}
		return ErrInsufficientStock
	}
	return nil
}

// IncrementStock restores cancelled units. The orders count is floored at
// zero because the original decrement may never have been applied.
func (r *Repository) IncrementStock(ctx context.Context, productID int64, quantity int32) error {
	query := `UPDATE products
	          SET stock = stock + $2, orders = GREATEST(orders - $2, 0)
	          WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, productID, quantity)
	if err != nil {
		return fmt.Errorf("increment stock for product %d: %w", productID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment stock rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// SetStock overwrites a product's stock level (seeding and admin use).
func (r *Repository) SetStock(ctx context.Context, productID int64, stock int32) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = $2 WHERE id = $1`, productID, stock)
	if err != nil {
		return fmt.Errorf("set stock for product %d: %w", productID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set stock rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CreateProduct exists for seeding and tests; catalog CRUD proper belongs to
// the catalog collaborator.
func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (id, name, description, price, sale_price, stock, orders, image_url, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`

	var salePrice sql.NullFloat64
	if p.SalePrice != nil {
		salePrice = sql.NullFloat64{Float64: *p.SalePrice, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, salePrice, p.Stock, p.OrdersCount, p.ImageURL)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}
