package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/service"
)

// CreateOrder inserts an order and fills in its generated id.
func (s *SQLiteStorage) CreateOrder(ctx context.Context, order *model.Order) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOrder(order); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (user_id, order_time, amount) VALUES (?, ?, ?)
	`, order.UserID, order.OrderTime, order.Amount)
	if err != nil {
		return fmt.Errorf("failed to insert order for user %s: %w", order.UserID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read order id: %w", err)
	}
	order.ID = id
	return nil
}

// ListOrders returns orders newest first with offset/limit pagination.
func (s *SQLiteStorage) ListOrders(ctx context.Context, page service.Page) ([]model.Order, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	limit := page.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, order_time, amount FROM orders
		ORDER BY order_time DESC LIMIT ? OFFSET ?
	`, limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.OrderTime, &o.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

// DeleteOrder removes an order. Deleting a missing id is not an error.
func (s *SQLiteStorage) DeleteOrder(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	return nil
}

// CountOrders returns the number of orders a user has placed.
func (s *SQLiteStorage) CountOrders(ctx context.Context, userID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders for user %s: %w", userID, err)
	}
	return count, nil
}

// GetOrderTimes returns a user's order timestamps, most recent first.
func (s *SQLiteStorage) GetOrderTimes(ctx context.Context, userID string) ([]time.Time, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT order_time FROM orders WHERE user_id = ? ORDER BY order_time DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order times for user %s: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan order time: %w", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order times: %w", err)
	}
	return times, nil
}

// RecordAppEvent appends a behavioral event for a user.
func (s *SQLiteStorage) RecordAppEvent(ctx context.Context, event *model.AppEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAppEvent(event); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO app_events (user_id, event_name, event_time) VALUES (?, ?, ?)
	`, event.UserID, event.EventName, event.EventTime)
	if err != nil {
		return fmt.Errorf("failed to insert app event for user %s: %w", event.UserID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read app event id: %w", err)
	}
	event.ID = id
	return nil
}
