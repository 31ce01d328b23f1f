package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/lifecycle"
	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/testutil"
)

func TestRecalculateAll(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()

	// Lead with two recent orders: should become Active.
	db.CreateRegisteredUser(ctx, "buyer", now.AddDate(0, -2, 0))
	db.CreateOrder(ctx, "buyer", now.AddDate(0, 0, -2), 25.00)
	db.CreateOrder(ctx, "buyer", now.AddDate(0, 0, -9), 31.50)

	// Never ordered: stays Lead.
	db.CreateRegisteredUser(ctx, "browser", now.AddDate(0, -1, 0))

	// Last order three months back: should become Churned.
	db.CreateRegisteredUser(ctx, "lapsed", now.AddDate(0, -6, 0))
	db.CreateOrder(ctx, "lapsed", now.AddDate(0, -3, 0), 12.00)

	recalculator := lifecycle.NewRecalculator(db.Storage)
	summary, err := recalculator.RecalculateAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 0, summary.Failed)

	buyer, err := db.Storage.GetUser(ctx, "buyer")
	require.NoError(t, err)
	assert.Equal(t, model.StageActive, buyer.LifecycleStage)

	browser, err := db.Storage.GetUser(ctx, "browser")
	require.NoError(t, err)
	assert.Equal(t, model.StageLead, browser.LifecycleStage)

	lapsed, err := db.Storage.GetUser(ctx, "lapsed")
	require.NoError(t, err)
	assert.Equal(t, model.StageChurned, lapsed.LifecycleStage)
}

func TestRecalculateAll_RecordsHistory(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()

	db.CreateRegisteredUser(ctx, "u1", now.AddDate(0, -2, 0))
	db.CreateOrder(ctx, "u1", now.AddDate(0, 0, -1), 20.00)
	db.CreateOrder(ctx, "u1", now.AddDate(0, 0, -4), 18.00)

	recalculator := lifecycle.NewRecalculator(db.Storage)
	_, err := recalculator.RecalculateAll(ctx)
	require.NoError(t, err)

	history, err := db.Storage.GetLifecycleHistory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.StageActive, history[0].Stage)
	assert.Nil(t, history[0].EndTime, "history rows must never carry an end time")
}

func TestRecalculateAll_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()

	db.CreateRegisteredUser(ctx, "u1", now.AddDate(0, -2, 0))
	db.CreateOrder(ctx, "u1", now.AddDate(0, 0, -3), 20.00)
	db.CreateOrder(ctx, "u1", now.AddDate(0, 0, -7), 40.00)
	db.CreateRegisteredUser(ctx, "u2", now.AddDate(0, -1, 0))

	recalculator := lifecycle.NewRecalculator(db.Storage)

	first, err := recalculator.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	// A second run over converged data must not touch anything.
	second, err := recalculator.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Scanned)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 0, second.Failed)

	history, err := db.Storage.GetLifecycleHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 1, "converged runs must not append history rows")
}

func TestRecalculateAll_EmptyDatabase(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	summary, err := lifecycle.NewRecalculator(db.Storage).RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Scanned)
	assert.Equal(t, 0, summary.Updated)
}

func TestRecalculateAll_ContextCancellation(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	db.CreateRegisteredUser(ctx, "u1", time.Now().UTC().AddDate(0, -1, 0))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	_, err := lifecycle.NewRecalculator(db.Storage).RecalculateAll(cancelled)
	assert.Error(t, err)
}
