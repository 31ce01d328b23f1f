package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/analytics"
	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/testutil"
)

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()

	// Customer buckets by order recency.
	db.CreateRegisteredUser(ctx, "active", now.AddDate(0, -6, 0))
	db.CreateOrder(ctx, "active", now.AddDate(0, 0, -5), 20.00)

	db.CreateRegisteredUser(ctx, "at_risk", now.AddDate(0, -6, 0))
	db.CreateOrder(ctx, "at_risk", now.AddDate(0, 0, -40), 20.00)

	db.CreateRegisteredUser(ctx, "churned", now.AddDate(0, -6, 0))
	db.CreateOrder(ctx, "churned", now.AddDate(0, 0, -90), 20.00)

	// Registered but never ordered: not a customer.
	db.CreateRegisteredUser(ctx, "window_shopper", now.AddDate(0, -6, 0))

	svc := analytics.NewService(db.Storage)
	dash, err := svc.Dashboard(ctx, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, dash.Downloads)
	assert.Equal(t, 4, dash.Registrations)
	assert.Equal(t, 3, dash.Customers)
	assert.Equal(t, 1, dash.ActiveCustomers)
	assert.Equal(t, 1, dash.AtRiskCustomers)
	assert.Equal(t, 1, dash.ChurnedCustomers)
	assert.True(t, dash.DataSources.HasOrders)
}

func TestDashboard_DateRangeRestrictsDownloads(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()

	db.CreateUser(ctx, &model.User{ID: "old", DownloadDate: now.AddDate(-1, 0, 0)})
	db.CreateUser(ctx, &model.User{ID: "recent", DownloadDate: now.AddDate(0, 0, -3)})

	from := now.AddDate(0, 0, -7)
	dash, err := analytics.NewService(db.Storage).Dashboard(ctx, &from, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, dash.Downloads)
}

func TestDashboard_TrendSeriesSorted(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()

	db.CreateRegisteredUser(ctx, "u1", now.AddDate(0, 0, -2))
	db.CreateRegisteredUser(ctx, "u2", now.AddDate(0, 0, -8))
	db.CreateOrder(ctx, "u1", now.AddDate(0, 0, -1), 15.00)

	dash, err := analytics.NewService(db.Storage).Dashboard(ctx, nil, nil)
	require.NoError(t, err)

	require.NotEmpty(t, dash.ChartData)
	for i := 1; i < len(dash.ChartData); i++ {
		assert.Less(t, dash.ChartData[i-1].Date, dash.ChartData[i].Date)
	}
}

func TestFunnel(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	now := time.Now().UTC()

	// Downloaded only.
	db.CreateUser(ctx, &model.User{ID: "dl_only", DownloadDate: now.AddDate(0, -1, 0)})

	// Registered, heavy app usage, three orders: reaches every step.
	loyal := db.CreateRegisteredUser(ctx, "loyal", now.AddDate(0, -2, 0))
	for i := 0; i < 6; i++ {
		require.NoError(t, db.Storage.RecordAppEvent(ctx, &model.AppEvent{
			UserID:    loyal.ID,
			EventName: model.EventAppOpen,
			EventTime: now.AddDate(0, 0, -i-1),
		}))
	}
	db.CreateOrder(ctx, "loyal", now.AddDate(0, 0, -10), 20.00)
	db.CreateOrder(ctx, "loyal", now.AddDate(0, 0, -6), 25.00)
	db.CreateOrder(ctx, "loyal", now.AddDate(0, 0, -2), 30.00)

	// Registered with a single order and little engagement.
	db.CreateRegisteredUser(ctx, "one_timer", now.AddDate(0, -2, 0))
	db.CreateOrder(ctx, "one_timer", now.AddDate(0, 0, -4), 18.00)

	steps, err := analytics.NewService(db.Storage).Funnel(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, steps, 6)

	assert.Equal(t, "App Download", steps[0].Name)
	assert.Equal(t, 3, steps[0].Count)
	assert.InDelta(t, 100, steps[0].ConversionPct, 0.01)

	assert.Equal(t, "Registration", steps[1].Name)
	assert.Equal(t, 2, steps[1].Count)
	assert.InDelta(t, 66.7, steps[1].ConversionPct, 0.01)

	assert.Equal(t, "MQL (5+ Opens)", steps[2].Name)
	assert.Equal(t, 1, steps[2].Count)

	assert.Equal(t, "First Order", steps[3].Name)
	assert.Equal(t, 2, steps[3].Count)

	assert.Equal(t, "Second Order", steps[4].Name)
	assert.Equal(t, 1, steps[4].Count)

	assert.Equal(t, "Loyal (3+)", steps[5].Name)
	assert.Equal(t, 1, steps[5].Count)
	assert.InDelta(t, 100, steps[5].ConversionPct, 0.01)
}

func TestFunnel_EmptyDatabase(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	steps, err := analytics.NewService(db.Storage).Funnel(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, steps, 6)
	for _, step := range steps[1:] {
		assert.Zero(t, step.Count)
		assert.Zero(t, step.ConversionPct)
	}
}

func TestCohorts(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	reg := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	db.CreateUser(ctx, &model.User{
		ID:               "gold_member",
		DownloadDate:     reg.AddDate(0, 0, -1),
		RegistrationDate: &reg,
		LoyaltyTier:      model.TierGold,
	})
	db.CreateRegisteredUser(ctx, "regular", reg.AddDate(0, 0, 5))

	db.CreateOrder(ctx, "gold_member", reg.AddDate(0, 0, 3), 20.00)
	db.CreateOrder(ctx, "gold_member", reg.AddDate(0, 0, 8), 22.00)
	db.CreateOrder(ctx, "regular", reg.AddDate(0, 0, 9), 19.00)
	db.CreateOrder(ctx, "regular", reg.AddDate(0, 0, 12), 21.00)

	cohorts, err := analytics.NewService(db.Storage).Cohorts(ctx)
	require.NoError(t, err)
	require.Len(t, cohorts, 1)

	c := cohorts[0]
	assert.Equal(t, "2025-03", c.Month)
	assert.Equal(t, 2, c.CohortUsers)
	assert.Equal(t, 1, c.GoldUsers)
	assert.InDelta(t, 50, c.GoldConversionPct, 0.01)
	assert.InDelta(t, 2.0, c.AvgOrdersPerUser, 0.01)
}

func TestRetention(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	reg := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

	// Returned 10 days after the first order: retained.
	db.CreateRegisteredUser(ctx, "returner", reg)
	db.CreateOrder(ctx, "returner", reg.AddDate(0, 0, 2), 20.00)
	db.CreateOrder(ctx, "returner", reg.AddDate(0, 0, 12), 25.00)

	// Returned far outside the window: not retained.
	db.CreateRegisteredUser(ctx, "straggler", reg.AddDate(0, 0, 1))
	db.CreateOrder(ctx, "straggler", reg.AddDate(0, 0, 2), 15.00)
	db.CreateOrder(ctx, "straggler", reg.AddDate(0, 2, 0), 18.00)

	// Single order: not retained.
	db.CreateRegisteredUser(ctx, "one_shot", reg.AddDate(0, 0, 2))
	db.CreateOrder(ctx, "one_shot", reg.AddDate(0, 0, 4), 30.00)

	ret, err := analytics.NewService(db.Storage).Retention(ctx, "2025-03", 30)
	require.NoError(t, err)

	assert.Equal(t, 3, ret.CohortSize)
	assert.Equal(t, 1, ret.ReturningUsers)
	assert.InDelta(t, 33.3, ret.RetentionPct, 0.01)
}

func TestRetention_UnknownCohort(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	ret, err := analytics.NewService(db.Storage).Retention(ctx, "1999-01", 30)
	require.NoError(t, err)
	assert.Zero(t, ret.CohortSize)
	assert.Zero(t, ret.RetentionPct)
}
