// Package crm implements user and order CRUD. Writes return the domain
// events they produced; the caller hands those to the automation dispatcher
// after the write has committed.
package crm

import (
	"context"
	"fmt"

	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/service"
)

// Service provides user and order CRUD over the store.
type Service struct {
	storage service.Storage
}

// NewService creates a CRM service over the given storage.
func NewService(storage service.Storage) *Service {
	return &Service{storage: storage}
}

// ListUsers returns a page of users, optionally restricted by a search term
// matched against id and loyalty tier.
func (s *Service) ListUsers(ctx context.Context, page, limit int, search string) ([]model.User, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	return s.storage.ListUsers(ctx, service.UserFilter{
		Search: search,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
}

// CreateUser stores a new user with the initial Lead stage and emits a
// UserRegistered event for the automation layer.
func (s *Service) CreateUser(ctx context.Context, user *model.User) ([]model.DomainEvent, error) {
	user.LifecycleStage = model.StageLead
	if user.LoyaltyTier == "" {
		user.LoyaltyTier = model.TierNone
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return []model.DomainEvent{model.UserRegistered{User: *user}}, nil
}

// UpdateUser rewrites a user's editable fields. The lifecycle stage is never
// touched here; only the classifier and automation paths write it.
func (s *Service) UpdateUser(ctx context.Context, user *model.User) error {
	if err := s.storage.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser removes a user and all dependent rows. Deleting a nonexistent
// user succeeds.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.storage.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// GetLifecycleHistory returns a user's stage history, newest first.
func (s *Service) GetLifecycleHistory(ctx context.Context, userID string) ([]model.LifecycleHistoryRecord, error) {
	return s.storage.GetLifecycleHistory(ctx, userID)
}

// ListOrders returns a page of orders, newest first.
func (s *Service) ListOrders(ctx context.Context, page, limit int) ([]model.Order, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	return s.storage.ListOrders(ctx, service.Page{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
}

// CreateOrder stores a new order and emits an OrderPlaced event for the
// automation layer.
func (s *Service) CreateOrder(ctx context.Context, order *model.Order) ([]model.DomainEvent, error) {
	if err := s.storage.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return []model.DomainEvent{model.OrderPlaced{Order: *order}}, nil
}

// DeleteOrder removes an order. Deleting a nonexistent order succeeds.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.storage.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}
