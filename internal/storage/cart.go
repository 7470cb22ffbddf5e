package storage

import (
	"context"
	"fmt"

	"github.com/AlenaMolokova/bazario/internal/apperrors"
	"github.com/AlenaMolokova/bazario/internal/models"
)

func (q *Queries) GetCartItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT user_id, product_id, quantity, added_at FROM cart_items
		WHERE user_id = $1
		ORDER BY added_at, product_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.UserID, &item.ProductID, &item.Quantity, &item.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (q *Queries) AddCartItem(ctx context.Context, userID, productID, quantity int64) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		userID, productID, quantity)
	if err != nil && pgErrorCode(err) == pgForeignKeyViolation {
		return fmt.Errorf("product %d: %w", productID, apperrors.ErrProductNotFound)
	}
	return err
}

func (q *Queries) SetCartItemQuantity(ctx context.Context, userID, productID, quantity int64) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE cart_items SET quantity = $3
		WHERE user_id = $1 AND product_id = $2`, userID, productID, quantity)
	if err != nil {
		return err
	}
	return expectAffected(tag, "cart item %d", productID)
}

func (q *Queries) RemoveCartItem(ctx context.Context, userID, productID int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return err
	}
	return expectAffected(tag, "cart item %d", productID)
}

func (q *Queries) ClearCart(ctx context.Context, userID int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}
