// Package testutil provides shared helpers for tests that need a real
// database behind them.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/service"
	"github.com/meridian-crm/meridian/internal/storage"
)

// TestDB wraps an in-memory database for a single test.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database and registers cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return &TestDB{Storage: store, t: t}
}

// CreateUser inserts a user and fails the test on error.
func (db *TestDB) CreateUser(ctx context.Context, user *model.User) *model.User {
	db.t.Helper()

	if user.DownloadDate.IsZero() {
		user.DownloadDate = time.Now().UTC().AddDate(0, -3, 0)
	}
	if user.LoyaltyTier == "" {
		user.LoyaltyTier = model.TierNone
	}
	if user.LifecycleStage == "" {
		user.LifecycleStage = model.StageLead
	}

	if err := db.Storage.SaveUser(ctx, user); err != nil {
		db.t.Fatalf("failed to create user %q: %v", user.ID, err)
	}
	return user
}

// CreateRegisteredUser inserts a user whose registration completed at the
// given time.
func (db *TestDB) CreateRegisteredUser(ctx context.Context, id string, registeredAt time.Time) *model.User {
	db.t.Helper()

	return db.CreateUser(ctx, &model.User{
		ID:               id,
		DownloadDate:     registeredAt.AddDate(0, 0, -1),
		RegistrationDate: &registeredAt,
	})
}

// CreateOrder inserts an order and fails the test on error.
func (db *TestDB) CreateOrder(ctx context.Context, userID string, at time.Time, amount float64) *model.Order {
	db.t.Helper()

	order := &model.Order{
		UserID:    userID,
		OrderTime: at,
		Amount:    amount,
	}
	if err := db.Storage.CreateOrder(ctx, order); err != nil {
		db.t.Fatalf("failed to create order for %q: %v", userID, err)
	}
	return order
}
