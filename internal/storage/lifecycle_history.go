package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meridian-crm/meridian/internal/model"
)

// GetLifecycleHistory returns a user's stage history, newest first.
func (s *SQLiteStorage) GetLifecycleHistory(ctx context.Context, userID string) ([]model.LifecycleHistoryRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, stage, start_time, end_time
		FROM lifecycle_history
		WHERE user_id = ?
		ORDER BY start_time DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lifecycle history for user %s: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.LifecycleHistoryRecord
	for rows.Next() {
		var r model.LifecycleHistoryRecord
		var stage string
		var end sql.NullTime
		if err := rows.Scan(&r.ID, &r.UserID, &stage, &r.StartTime, &end); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		r.Stage = model.LifecycleStage(stage)
		if end.Valid {
			t := end.Time
			r.EndTime = &t
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history records: %w", err)
	}
	return records, nil
}

// AppendLifecycleHistory inserts a history record. end_time is never written
// by any code path; rows are left open.
func (s *SQLiteStorage) AppendLifecycleHistory(ctx context.Context, record *model.LifecycleHistoryRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateHistoryRecord(record); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO lifecycle_history (user_id, stage, start_time) VALUES (?, ?, ?)
	`, record.UserID, string(record.Stage), record.StartTime)
	if err != nil {
		return fmt.Errorf("failed to append history for user %s: %w", record.UserID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read history id: %w", err)
	}
	record.ID = id
	return nil
}
