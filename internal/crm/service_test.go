package crm_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/common"
	"github.com/meridian-crm/meridian/internal/crm"
	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := crm.NewService(db.Storage)
	now := time.Now().UTC()

	events, err := svc.CreateUser(ctx, &model.User{
		ID:           "u1",
		DownloadDate: now.AddDate(0, 0, -10),
	})
	require.NoError(t, err)

	// New users always start as Lead, whatever the caller set.
	stored, err := db.Storage.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.StageLead, stored.LifecycleStage)
	assert.Equal(t, model.TierNone, stored.LoyaltyTier)

	require.Len(t, events, 1)
	registered, ok := events[0].(model.UserRegistered)
	require.True(t, ok)
	assert.Equal(t, "u1", registered.UserID())
}

func TestCreateUser_CallerStageIgnored(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := crm.NewService(db.Storage)

	_, err := svc.CreateUser(ctx, &model.User{
		ID:             "u1",
		DownloadDate:   time.Now().UTC(),
		LifecycleStage: model.StageChurned,
	})
	require.NoError(t, err)

	stored, err := db.Storage.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.StageLead, stored.LifecycleStage)
}

func TestUpdateUser_DoesNotTouchStage(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := crm.NewService(db.Storage)
	now := time.Now().UTC()

	db.CreateUser(ctx, &model.User{
		ID:             "u1",
		DownloadDate:   now.AddDate(0, -1, 0),
		LifecycleStage: model.StageActive,
	})

	reg := now.AddDate(0, 0, -3)
	require.NoError(t, svc.UpdateUser(ctx, &model.User{
		ID:               "u1",
		DownloadDate:     now.AddDate(0, -1, 0),
		RegistrationDate: &reg,
		LoyaltyTier:      model.TierGold,
	}))

	stored, err := db.Storage.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.TierGold, stored.LoyaltyTier)
	assert.Equal(t, model.StageActive, stored.LifecycleStage, "updates must not clobber the stage")
	require.NotNil(t, stored.RegistrationDate)
}

func TestDeleteUser_CascadesAndToleratesMissing(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := crm.NewService(db.Storage)
	now := time.Now().UTC()

	db.CreateRegisteredUser(ctx, "u1", now.AddDate(0, -1, 0))
	db.CreateOrder(ctx, "u1", now.AddDate(0, 0, -1), 20.00)

	require.NoError(t, svc.DeleteUser(ctx, "u1"))

	_, err := db.Storage.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	count, err := db.Storage.CountOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Deleting again is fine.
	assert.NoError(t, svc.DeleteUser(ctx, "u1"))
}

func TestListUsers_Pagination(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := crm.NewService(db.Storage)
	now := time.Now().UTC()

	for i := 0; i < 7; i++ {
		db.CreateRegisteredUser(ctx, fmt.Sprintf("user_%d", i), now.AddDate(0, -1, 0))
	}

	first, err := svc.ListUsers(ctx, 1, 5, "")
	require.NoError(t, err)
	assert.Len(t, first, 5)

	second, err := svc.ListUsers(ctx, 2, 5, "")
	require.NoError(t, err)
	assert.Len(t, second, 2)

	// Out-of-range page numbers normalize instead of failing.
	normalized, err := svc.ListUsers(ctx, 0, 0, "")
	require.NoError(t, err)
	assert.Len(t, normalized, 7)
}

func TestCreateOrder_EmitsEvent(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := crm.NewService(db.Storage)
	now := time.Now().UTC()

	db.CreateRegisteredUser(ctx, "u1", now.AddDate(0, -1, 0))

	order := &model.Order{UserID: "u1", OrderTime: now, Amount: 42.50}
	events, err := svc.CreateOrder(ctx, order)
	require.NoError(t, err)
	assert.NotZero(t, order.ID, "insert must backfill the order id")

	require.Len(t, events, 1)
	placed, ok := events[0].(model.OrderPlaced)
	require.True(t, ok)
	assert.Equal(t, "u1", placed.UserID())
	assert.InDelta(t, 42.50, placed.Order.Amount, 0.001)
}

func TestDeleteOrder_MissingIDSucceeds(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := crm.NewService(db.Storage)

	assert.NoError(t, svc.DeleteOrder(ctx, 424242))
}
