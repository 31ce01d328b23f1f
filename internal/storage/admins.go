package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meridian-crm/meridian/internal/common"
	"github.com/meridian-crm/meridian/internal/model"
)

// GetAdminByEmail returns the admin with the given email, or
// common.ErrNotFound.
func (s *SQLiteStorage) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}

	var admin model.Admin
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM admins WHERE email = ?
	`, email).Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &admin.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("admin %s: %w", email, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin %s: %w", email, err)
	}
	return &admin, nil
}
