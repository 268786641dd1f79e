package repository

import (
	"context"
	"fmt"

	"github.com/avdeev/go_storefront/internal/domain"
)

func (r *Repository) GetLines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	query := `SELECT user_id, product_id, quantity, added_at
	          FROM cart WHERE user_id = $1 ORDER BY added_at, product_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.UserID, &l.ProductID, &l.Quantity, &l.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}

// AddLine inserts the (user, product) line or bumps its quantity when it
// already exists. The unique key on (user_id, product_id) makes concurrent
// adds from two tabs collapse into one row.
func (r *Repository) AddLine(ctx context.Context, userID string, productID int64, quantity int32) error {
	query := `INSERT INTO cart (user_id, product_id, quantity, added_at)
	          VALUES ($1, $2, $3, NOW())
	          ON CONFLICT (user_id, product_id)
	          DO UPDATE SET quantity = cart.quantity + EXCLUDED.quantity`

	if _, err := r.db.ExecContext(ctx, query, userID, productID, quantity); err != nil {
		return fmt.Errorf("add cart line: %w", err)
	}
	return nil
}

func (r *Repository) UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int32) error {
	query := `UPDATE cart SET quantity = $3 WHERE user_id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("update cart quantity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update cart quantity rows affected: %w", err)
	}
	if affected == 0 {
		return ErrCartLineNotFound
	}
	return nil
}

func (r *Repository) RemoveLine(ctx context.Context, userID string, productID int64) error {
	query := `DELETE FROM cart WHERE user_id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove cart line rows affected: %w", err)
	}
	if affected == 0 {
		return ErrCartLineNotFound
	}
	return nil
}

// Clear deletes every line of the user's cart. Clearing an already empty
// cart is not an error; the coordinator calls this after a cart checkout.
func (r *Repository) Clear(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
