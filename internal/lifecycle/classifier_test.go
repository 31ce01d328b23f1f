package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-crm/meridian/internal/model"
)

func TestClassify(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	daysAgo := func(d float64) time.Time {
		return now.Add(-time.Duration(d * 24 * float64(time.Hour)))
	}

	tests := []struct {
		name       string
		orderTimes []time.Time
		want       model.LifecycleStage
	}{
		{
			name:       "no orders is Lead",
			orderTimes: nil,
			want:       model.StageLead,
		},
		{
			name:       "last order well past churn threshold",
			orderTimes: []time.Time{daysAgo(90)},
			want:       model.StageChurned,
		},
		{
			name:       "exactly 60 days is Churned",
			orderTimes: []time.Time{daysAgo(60)},
			want:       model.StageChurned,
		},
		{
			name:       "just under 60 days is At Risk",
			orderTimes: []time.Time{daysAgo(59.9)},
			want:       model.StageAtRisk,
		},
		{
			name:       "exactly 30 days is At Risk",
			orderTimes: []time.Time{daysAgo(30)},
			want:       model.StageAtRisk,
		},
		{
			name:       "two orders inside the 30-day window is Active",
			orderTimes: []time.Time{daysAgo(1), daysAgo(2)},
			want:       model.StageActive,
		},
		{
			name:       "order exactly on the window edge counts toward Active",
			orderTimes: []time.Time{daysAgo(5), daysAgo(30)},
			want:       model.StageActive,
		},
		{
			name:       "one recent order, history spanning two months is Repeat",
			orderTimes: []time.Time{daysAgo(5), daysAgo(40)},
			want:       model.StageRepeat,
		},
		{
			name: "single recent order falls back to Active",
			orderTimes: []time.Time{
				time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
			},
			want: model.StageActive,
		},
		{
			name: "single recent order with a multi-month tail is Repeat",
			orderTimes: []time.Time{
				daysAgo(2),
				daysAgo(45),
				daysAgo(75),
			},
			want: model.StageRepeat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.orderTimes, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_MonthsCountedInUTC(t *testing.T) {
	now := time.Date(2025, 8, 9, 12, 0, 0, 0, time.UTC)

	// The older order is June 30 21:00 in UTC-5, which is July 1 in UTC.
	// Counted in UTC both orders share a month, so the user is Active, not
	// Repeat. A wall-clock count would see June and July and misclassify.
	orders := []time.Time{
		time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 21, 0, 0, 0, time.FixedZone("UTC-5", -5*3600)),
	}

	assert.Equal(t, model.StageActive, Classify(orders, now))
}

func TestClassify_Deterministic(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	orders := []time.Time{
		now.AddDate(0, 0, -3),
		now.AddDate(0, 0, -35),
	}

	first := Classify(orders, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(orders, now))
	}
}
