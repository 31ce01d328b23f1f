package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/service"
)

// segmentPreviewBase joins users with their per-user order count. Filter
// clauses produced by the segment package append onto the WHERE 1=1 tail.
const segmentPreviewBase = `
	SELECT u.id, u.download_date, u.registration_date, u.loyalty_tier, u.lifecycle_stage,
	       u.created_at, u.updated_at, COALESCE(o.order_count, 0) AS order_count
	FROM users u
	LEFT JOIN (SELECT user_id, COUNT(*) AS order_count FROM orders GROUP BY user_id) o
	  ON u.id = o.user_id
	WHERE 1=1`

// CreateSegment inserts a segment; filters are serialized as JSON text.
func (s *SQLiteStorage) CreateSegment(ctx context.Context, segment *model.Segment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSegment(segment); err != nil {
		return err
	}

	filters, err := json.Marshal(segment.Filters)
	if err != nil {
		return fmt.Errorf("failed to serialize segment filters: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO segments (name, rule, filters) VALUES (?, ?, ?)
	`, segment.Name, segment.Rule, string(filters))
	if err != nil {
		return fmt.Errorf("failed to insert segment %q: %w", segment.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read segment id: %w", err)
	}
	segment.ID = id
	return nil
}

// ListSegments returns all saved segments, newest first. Filter text that no
// longer parses is surfaced as an empty filter list rather than an error.
func (s *SQLiteStorage) ListSegments(ctx context.Context) ([]model.Segment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, rule, filters, created_at FROM segments ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var segments []model.Segment
	for rows.Next() {
		var seg model.Segment
		var filters string
		if err := rows.Scan(&seg.ID, &seg.Name, &seg.Rule, &filters, &seg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		if filters != "" {
			_ = json.Unmarshal([]byte(filters), &seg.Filters)
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate segments: %w", err)
	}
	return segments, nil
}

// DeleteSegment removes a segment. Deleting a missing id is not an error.
func (s *SQLiteStorage) DeleteSegment(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM segments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete segment %d: %w", id, err)
	}
	return nil
}

// PreviewSegmentUsers returns users matching the compiled restriction,
// capped at limit rows.
func (s *SQLiteStorage) PreviewSegmentUsers(ctx context.Context, where string, args []any, limit int) ([]service.SegmentUser, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := segmentPreviewBase + where + ` LIMIT ?`
	queryArgs := append(append([]any{}, args...), limit)

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to preview segment: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []service.SegmentUser
	for rows.Next() {
		var su service.SegmentUser
		user, count, scanErr := scanSegmentUser(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan segment user: %w", scanErr)
		}
		su.User = *user
		su.OrderCount = count
		users = append(users, su)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate segment users: %w", err)
	}
	return users, nil
}

// CountSegmentUsers returns the full population size for the restriction,
// independent of the preview cap.
func (s *SQLiteStorage) CountSegmentUsers(ctx context.Context, where string, args []any) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	query := `SELECT COUNT(*) FROM (` + segmentPreviewBase + where + `)`

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count segment users: %w", err)
	}
	return count, nil
}

func scanSegmentUser(row scanner) (*model.User, int, error) {
	var user model.User
	var download, registration, createdAt, updatedAt sql.NullTime
	var tier, stage sql.NullString
	var orderCount int

	if err := row.Scan(&user.ID, &download, &registration, &tier, &stage, &createdAt, &updatedAt, &orderCount); err != nil {
		return nil, 0, err
	}

	user.DownloadDate = download.Time
	if registration.Valid {
		t := registration.Time
		user.RegistrationDate = &t
	}
	user.LoyaltyTier = model.LoyaltyTier(tier.String)
	user.LifecycleStage = model.LifecycleStage(stage.String)
	user.CreatedAt = createdAt.Time
	user.UpdatedAt = updatedAt.Time
	return &user, orderCount, nil
}
