package database

import (
	"context"
	"database/sql"
	"fmt"

	"rootedinspeech/internal/models"
)

// CreateOrder stores the order and its items atomically.
func (db *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO orders (id, user_id, amount_cents, status) VALUES (?, ?, ?, ?)`,
			order.ID, order.UserID, order.AmountCents, order.Status)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i, item := range order.Items {
			_, err := tx.ExecContext(ctx, `INSERT INTO order_items (order_id, position, service_id, service_title, quantity, price_cents)
                                           VALUES (?, ?, ?, ?, ?, ?)`,
				order.ID, i, item.ServiceID, item.ServiceTitle, item.Quantity, item.PriceCents)
			if err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}
		return nil
	})
}

// ListOrdersByUser returns the user's orders with their items, oldest first.
func (db *DB) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, user_id, amount_cents, status FROM orders WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, err
	}

	orders := []models.Order{}
	index := make(map[string]int)
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.AmountCents, &o.Status); err != nil {
			rows.Close()
			return nil, err
		}
		o.Items = []models.OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := db.QueryContext(ctx, `SELECT oi.order_id, oi.service_id, oi.service_title, oi.quantity, oi.price_cents
                                           FROM order_items oi JOIN orders o ON o.id = oi.order_id
                                           WHERE o.user_id = ? ORDER BY oi.order_id, oi.position`, userID)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			orderID string
			item    models.OrderItem
		)
		if err := itemRows.Scan(&orderID, &item.ServiceID, &item.ServiceTitle, &item.Quantity, &item.PriceCents); err != nil {
			return nil, err
		}
		if i, ok := index[orderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return orders, itemRows.Err()
}
