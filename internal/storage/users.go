package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/meridian-crm/meridian/internal/common"
	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/service"
)

// SaveUser inserts a new user record.
func (s *SQLiteStorage) SaveUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, download_date, registration_date, loyalty_tier, lifecycle_stage)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, nullTime(user.DownloadDate), nullTimePtr(user.RegistrationDate),
		string(user.LoyaltyTier), string(user.LifecycleStage))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("user %s: %w", user.ID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert user %s: %w", user.ID, err)
	}
	return nil
}

// GetUser returns the user with the given id, or common.ErrNotFound.
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, download_date, registration_date, loyalty_tier, lifecycle_stage, created_at, updated_at
		FROM users WHERE id = ?
	`, id)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return user, nil
}

// ListUsers returns users ordered by creation time descending, optionally
// restricted by a LIKE search over id and loyalty tier.
func (s *SQLiteStorage) ListUsers(ctx context.Context, filter service.UserFilter) ([]model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, download_date, registration_date, loyalty_tier, lifecycle_stage, created_at, updated_at
		FROM users
	`
	args := make([]any, 0, 4)
	if filter.Search != "" {
		query += ` WHERE id LIKE ? OR loyalty_tier LIKE ?`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan user: %w", scanErr)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// UpdateUser updates a user's editable fields and bumps updated_at. The
// lifecycle stage is deliberately not touched here; stage writes go through
// UpdateUserStage.
func (s *SQLiteStorage) UpdateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET download_date = ?, registration_date = ?, loyalty_tier = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, nullTime(user.DownloadDate), nullTimePtr(user.RegistrationDate), string(user.LoyaltyTier), user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}
	return nil
}

// DeleteUser removes a user together with their orders, app events and
// lifecycle history. Deleting a user that does not exist is not an error.
func (s *SQLiteStorage) DeleteUser(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, query := range []string{
			`DELETE FROM orders WHERE user_id = ?`,
			`DELETE FROM app_events WHERE user_id = ?`,
			`DELETE FROM lifecycle_history WHERE user_id = ?`,
			`DELETE FROM users WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, query, id); err != nil {
				return fmt.Errorf("failed to delete user %s: %w", id, err)
			}
		}
		return nil
	})
}

// ListUserStages returns every user's id and stored stage.
func (s *SQLiteStorage) ListUserStages(ctx context.Context) ([]service.UserStage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, lifecycle_stage FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user stages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stages []service.UserStage
	for rows.Next() {
		var us service.UserStage
		var stage sql.NullString
		if err := rows.Scan(&us.UserID, &stage); err != nil {
			return nil, fmt.Errorf("failed to scan user stage: %w", err)
		}
		us.Stage = model.LifecycleStage(stage.String)
		stages = append(stages, us)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user stages: %w", err)
	}
	return stages, nil
}

// UpdateUserStage persists a stage transition: the user row is updated and a
// history record appended, atomically.
func (s *SQLiteStorage) UpdateUserStage(ctx context.Context, userID string, stage model.LifecycleStage, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if !stage.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStage, stage)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET lifecycle_stage = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
		`, string(stage), userID); err != nil {
			return fmt.Errorf("failed to update stage for user %s: %w", userID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO lifecycle_history (user_id, stage, start_time) VALUES (?, ?, ?)
		`, userID, string(stage), at); err != nil {
			return fmt.Errorf("failed to append history for user %s: %w", userID, err)
		}
		return nil
	})
}

// scanner abstracts sql.Row and sql.Rows for scanUser.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*model.User, error) {
	var user model.User
	var download, registration, createdAt, updatedAt sql.NullTime
	var tier, stage sql.NullString

	if err := row.Scan(&user.ID, &download, &registration, &tier, &stage, &createdAt, &updatedAt); err != nil {
		return nil, err
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
	return &user, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullTimePtr(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}
