package store

import (
	"context"
	"database/sql"
	"fmt"

	"storebot/internal/models"
)

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreatePaidOrderFromCart converts the user's cart into a paid order in a
// single transaction: it claims the correlation id, locks and prices the
// cart lines, inserts the order with frozen snapshots, and clears the cart.
// A duplicate callback fails the correlation-id uniqueness check and gets
// ErrAlreadyReconciled instead of a second order.
func (s *Store) CreatePaidOrderFromCart(ctx context.Context, correlationID string, userID int64) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO reconciliations (correlation_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (correlation_id) DO NOTHING`,
		correlationID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim correlation id: %w", err)
	}
	if claimed, _ := res.RowsAffected(); claimed == 0 {
		return nil, fmt.Errorf("correlation id %s: %w", correlationID, ErrAlreadyReconciled)
	}

	var lines []models.CartLine
	if err := tx.SelectContext(ctx, &lines, cartSelect+" FOR UPDATE OF c", userID); err != nil {
		return nil, fmt.Errorf("failed to lock cart lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("cart for user %d is empty: %w", userID, ErrNotFound)
	}

	total, snapshots := models.PriceCart(lines)

	var order models.Order
	err = tx.GetContext(ctx, &order, `
		INSERT INTO orders (user_id, total_price, items, status, message_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`,
		userID, total, snapshots, models.OrderStatusPaid, lines[0].MessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE reconciliations SET order_id = $1 WHERE correlation_id = $2",
		order.ID, correlationID)
	if err != nil {
		return nil, fmt.Errorf("failed to link reconciliation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_lines WHERE user_id = $1", userID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reconciliation: %w", err)
	}
	return &order, nil
}

// MarkOrderStatus transitions an existing order to the given status,
// recording the correlation id alongside. The transition is monotonic: once
// an order is terminal, a later callback gets ErrAlreadyReconciled instead
// of overwriting it.
func (s *Store) MarkOrderStatus(ctx context.Context, correlationID string, orderID int64, status string) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE id = $1 FOR UPDATE", orderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	if models.TerminalStatus(order.Status) {
		return nil, fmt.Errorf("order %d is already %s: %w", orderID, order.Status, ErrAlreadyReconciled)
	}

	err = tx.GetContext(ctx, &order, `
		UPDATE orders SET status = $1 WHERE id = $2
		RETURNING *`,
		status, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reconciliations (correlation_id, user_id, order_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (correlation_id) DO NOTHING`,
		correlationID, order.UserID, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to record reconciliation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}
	return &order, nil
}
