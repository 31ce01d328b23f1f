package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/meridian-crm/meridian/internal/service"
)

// GetDashboardCounts returns user totals plus downloads and registrations
// falling inside the range.
func (s *SQLiteStorage) GetDashboardCounts(ctx context.Context, start, end time.Time) (*service.DashboardCounts, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var counts service.DashboardCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT id),
			SUM(CASE WHEN download_date BETWEEN ? AND ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN registration_date BETWEEN ? AND ? THEN 1 ELSE 0 END)
		FROM users
	`, start, end, start, end).Scan(&counts.TotalUsers, &nullInt{&counts.Downloads}, &nullInt{&counts.Registrations})
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard counts: %w", err)
	}
	return &counts, nil
}

// GetUserOrderSummaries returns, for every user, their order count and the
// time of their most recent order.
func (s *SQLiteStorage) GetUserOrderSummaries(ctx context.Context) ([]service.UserOrderSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, MAX(o.order_time), COUNT(o.id)
		FROM users u
		LEFT JOIN orders o ON u.id = o.user_id
		GROUP BY u.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get user order summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []service.UserOrderSummary
	for rows.Next() {
		var sum service.UserOrderSummary
		var last sql.NullTime
		if err := rows.Scan(&sum.UserID, &last, &sum.OrderCount); err != nil {
			return nil, fmt.Errorf("failed to scan order summary: %w", err)
		}
		if last.Valid {
			t := last.Time
			sum.LastOrder = &t
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order summaries: %w", err)
	}
	return summaries, nil
}

// GetRegistrationTrend returns daily registration counts for the trailing
// window.
func (s *SQLiteStorage) GetRegistrationTrend(ctx context.Context, days int) ([]service.TrendPoint, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTrend(ctx, `
		SELECT date(registration_date), COUNT(id)
		FROM users
		WHERE registration_date >= date('now', ?)
		GROUP BY date(registration_date)
		ORDER BY date(registration_date) ASC
	`, fmt.Sprintf("-%d days", days))
}

// GetOrderTrend returns daily order counts for the trailing window.
func (s *SQLiteStorage) GetOrderTrend(ctx context.Context, days int) ([]service.TrendPoint, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTrend(ctx, `
		SELECT date(order_time), COUNT(id)
		FROM orders
		WHERE order_time >= date('now', ?)
		GROUP BY date(order_time)
		ORDER BY date(order_time) ASC
	`, fmt.Sprintf("-%d days", days))
}

func (s *SQLiteStorage) queryTrend(ctx context.Context, query string, args ...any) ([]service.TrendPoint, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trend: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []service.TrendPoint
	for rows.Next() {
		var p service.TrendPoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trend points: %w", err)
	}
	return points, nil
}

// GetFunnelUsers returns funnel inputs for users who downloaded in the range:
// registration flag, app_open count and order count per user.
func (s *SQLiteStorage) GetFunnelUsers(ctx context.Context, start, end time.Time) ([]service.FunnelUser, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id,
		       u.registration_date IS NOT NULL,
		       COALESCE(e.event_count, 0),
		       COALESCE(o.order_count, 0)
		FROM users u
		LEFT JOIN (SELECT user_id, COUNT(*) AS event_count FROM app_events WHERE event_name = ? GROUP BY user_id) e
		  ON u.id = e.user_id
		LEFT JOIN (SELECT user_id, COUNT(*) AS order_count FROM orders GROUP BY user_id) o
		  ON u.id = o.user_id
		WHERE u.download_date BETWEEN ? AND ?
	`, "app_open", start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get funnel users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []service.FunnelUser
	for rows.Next() {
		var fu service.FunnelUser
		if err := rows.Scan(&fu.UserID, &fu.Registered, &fu.AppOpens, &fu.OrderCount); err != nil {
			return nil, fmt.Errorf("failed to scan funnel user: %w", err)
		}
		users = append(users, fu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate funnel users: %w", err)
	}
	return users, nil
}

// GetCohortRows returns per-registration-month aggregates for the most
// recent cohorts.
func (s *SQLiteStorage) GetCohortRows(ctx context.Context, limit int) ([]service.CohortRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m', registration_date) AS month,
		       COUNT(id),
		       SUM(CASE WHEN loyalty_tier = 'Gold' THEN 1 ELSE 0 END)
		FROM users
		WHERE registration_date IS NOT NULL
		GROUP BY month
		ORDER BY month DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get cohort rows: %w", err)
	}

	var cohorts []service.CohortRow
	for rows.Next() {
		var c service.CohortRow
		if err := rows.Scan(&c.Month, &c.CohortUsers, &c.GoldUsers); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan cohort row: %w", err)
		}
		cohorts = append(cohorts, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to iterate cohort rows: %w", err)
	}
	_ = rows.Close()

	// One order-count query per cohort; twelve months at most.
	for i := range cohorts {
		err := s.db.QueryRowContext(ctx, `
			SELECT COUNT(o.id)
			FROM orders o
			JOIN users u ON o.user_id = u.id
			WHERE strftime('%Y-%m', u.registration_date) = ?
		`, cohorts[i].Month).Scan(&cohorts[i].TotalOrders)
		if err != nil {
			return nil, fmt.Errorf("failed to count cohort orders for %s: %w", cohorts[i].Month, err)
		}
	}

	return cohorts, nil
}

// GetCohortOrderTimes returns each cohort member's order timestamps, oldest
// first, for retention analysis.
func (s *SQLiteStorage) GetCohortOrderTimes(ctx context.Context, month string) ([]service.UserOrderTimes, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(month, "month"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, o.order_time
		FROM users u
		LEFT JOIN orders o ON u.id = o.user_id
		WHERE strftime('%Y-%m', u.registration_date) = ?
		ORDER BY u.id, o.order_time ASC
	`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get cohort order times: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []service.UserOrderTimes
	index := make(map[string]int)
	for rows.Next() {
		var userID string
		var at sql.NullTime
		if err := rows.Scan(&userID, &at); err != nil {
			return nil, fmt.Errorf("failed to scan cohort order time: %w", err)
		}
		i, ok := index[userID]
		if !ok {
			i = len(result)
			index[userID] = i
			result = append(result, service.UserOrderTimes{UserID: userID})
		}
		if at.Valid {
			result[i].Orders = append(result[i].Orders, at.Time)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cohort order times: %w", err)
	}
	return result, nil
}

// nullInt scans a nullable aggregate into an int, treating NULL as zero.
type nullInt struct {
	dest *int
}

func (n *nullInt) Scan(value any) error {
	if value == nil {
		*n.dest = 0
		return nil
	}
	switch v := value.(type) {
	case int64:
		*n.dest = int(v)
	case float64:
		*n.dest = int(v)
	default:
		return fmt.Errorf("unsupported aggregate type %T", value)
	}
	return nil
}
