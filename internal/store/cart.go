package store

import (
	"context"
	"errors"
	"fmt"

	"storebot/internal/models"
)

const cartSelect = `
	SELECT c.id, c.user_id, c.product_id, c.variant, c.quantity, c.message_id,
	       p.name AS product_name, p.price AS product_price
	FROM cart_lines c
	JOIN products p ON p.id = c.product_id
	WHERE c.user_id = $1 AND c.quantity > 0
	ORDER BY c.id`

// GetCartLines retrieves the user's cart lines joined with their products.
// Lines with zero quantity are not returned.
func (s *Store) GetCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.db.SelectContext(ctx, &lines, cartSelect, userID)
	return lines, err
}

// AddOrIncrement inserts a cart line for (user, product, variant) or bumps
// its quantity if one exists. The unique constraint on the triple makes two
// rapid taps converge on a single line instead of racing to insert.
func (s *Store) AddOrIncrement(ctx context.Context, userID, productID int64, variant string) (*models.CartLine, error) {
	product, err := s.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load product %d: %w", productID, err)
	}

	var line models.CartLine
	err = s.db.GetContext(ctx, &line, `
		INSERT INTO cart_lines (user_id, product_id, variant, quantity)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (user_id, product_id, variant)
		DO UPDATE SET quantity = cart_lines.quantity + 1
		RETURNING id, user_id, product_id, variant, quantity, message_id`,
		userID, productID, variant)
	if err != nil {
		return nil, fmt.Errorf("failed to add cart line: %w", err)
	}

	line.ProductName = product.Name
	line.ProductPrice = product.Price
	return &line, nil
}

// ClearCart removes all of the user's cart lines. Clearing an empty cart is
// a no-op, not an error.
func (s *Store) ClearCart(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_lines WHERE user_id = $1", userID)
	return err
}

// SetCartMessageID records the chat message that last displayed the cart, so
// the payment prompt can be retracted after reconciliation. Shared across
// all lines of one cart snapshot.
func (s *Store) SetCartMessageID(ctx context.Context, userID int64, messageID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE cart_lines SET message_id = $1 WHERE user_id = $2",
		messageID, userID)
	return err
}
