package segment_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/segment"
	"github.com/meridian-crm/meridian/internal/testutil"
)

func TestEvaluatorPreview(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()

	db.CreateRegisteredUser(ctx, "heavy", now.AddDate(0, -3, 0))
	for i := 0; i < 6; i++ {
		db.CreateOrder(ctx, "heavy", now.AddDate(0, 0, -i), 20.00)
	}

	db.CreateRegisteredUser(ctx, "light", now.AddDate(0, -2, 0))
	db.CreateOrder(ctx, "light", now.AddDate(0, 0, -1), 15.00)

	db.CreateRegisteredUser(ctx, "dormant", now.AddDate(0, -1, 0))

	evaluator := segment.NewEvaluator(db.Storage)

	preview, err := evaluator.Preview(ctx, []model.SegmentFilter{
		{Field: "order_count", Op: ">", Value: float64(1)},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, preview.TotalCount)
	require.Len(t, preview.Users, 1)
	assert.Equal(t, "heavy", preview.Users[0].ID)
	assert.Equal(t, 6, preview.Users[0].OrderCount)
	assert.Empty(t, preview.Skipped)
}

func TestEvaluatorPreview_ZeroOrderUsersMatch(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()

	db.CreateRegisteredUser(ctx, "dormant", now.AddDate(0, -1, 0))
	db.CreateRegisteredUser(ctx, "buyer", now.AddDate(0, -1, 0))
	db.CreateOrder(ctx, "buyer", now.AddDate(0, 0, -1), 30.00)

	preview, err := segment.NewEvaluator(db.Storage).Preview(ctx, []model.SegmentFilter{
		{Field: "order_count", Op: "=", Value: float64(0)},
	})
	require.NoError(t, err)

	// Users without any order rows still count as zero, not as missing.
	assert.Equal(t, 1, preview.TotalCount)
	require.Len(t, preview.Users, 1)
	assert.Equal(t, "dormant", preview.Users[0].ID)
}

func TestEvaluatorPreview_UnsupportedFilterIgnored(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()

	db.CreateRegisteredUser(ctx, "u1", now.AddDate(0, -1, 0))
	db.CreateRegisteredUser(ctx, "u2", now.AddDate(0, -1, 0))

	evaluator := segment.NewEvaluator(db.Storage)

	with, err := evaluator.Preview(ctx, []model.SegmentFilter{
		{Field: "shoe_size", Op: "=", Value: float64(42)},
	})
	require.NoError(t, err)

	without, err := evaluator.Preview(ctx, nil)
	require.NoError(t, err)

	// A skipped filter must behave exactly as if it had been omitted.
	assert.Equal(t, without.TotalCount, with.TotalCount)
	assert.Equal(t, len(without.Users), len(with.Users))
	require.Len(t, with.Skipped, 1)
	assert.Equal(t, "shoe_size", with.Skipped[0].Field)
}

func TestEvaluatorPreview_CapsRowsButNotCount(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()

	total := segment.PreviewLimit + 10
	for i := 0; i < total; i++ {
		db.CreateRegisteredUser(ctx, fmt.Sprintf("user_%03d", i), now.AddDate(0, -1, 0))
	}

	preview, err := segment.NewEvaluator(db.Storage).Preview(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, total, preview.TotalCount)
	assert.Len(t, preview.Users, segment.PreviewLimit)
}
