// Package analytics computes the dashboard, funnel, cohort and retention
// summaries. The heavy lifting is aggregate SQL in storage; this layer does
// the percentage math and series merging.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meridian-crm/meridian/internal/service"
)

// Bucket boundaries, in days since last order, for the dashboard's customer
// breakdown. These deliberately differ from the lifecycle classifier's
// thresholds; the dashboard predates it.
const (
	dashboardActiveDays  = 30.0
	dashboardAtRiskDays  = 45.0
	dashboardChurnedDays = 60.0
)

// mqlOpenThreshold is how many app_open events qualify a registered user as
// an MQL in the funnel.
const mqlOpenThreshold = 5

// trendWindowDays is the trailing window for the dashboard trend series.
const trendWindowDays = 30

// cohortMonths caps how many registration-month cohorts are reported.
const cohortMonths = 12

// Dashboard is the KPI summary for the admin landing page.
type Dashboard struct {
	ChartData        []TrendPoint `json:"chart_data"`
	Downloads        int          `json:"downloads"`
	Registrations    int          `json:"registrations"`
	Customers        int          `json:"customers"`
	ActiveCustomers  int          `json:"active_customers"`
	AtRiskCustomers  int          `json:"at_risk_customers"`
	ChurnedCustomers int          `json:"churned_customers"`
	DataSources      DataSources  `json:"data_sources"`
}

// DataSources flags which feeds back the dashboard numbers.
type DataSources struct {
	HasOrders    bool `json:"has_orders"`
	HasAppEvents bool `json:"has_app_events"`
}

// TrendPoint is one day of merged registration/order activity.
type TrendPoint struct {
	Date          string `json:"date"`
	Registrations int    `json:"registrations"`
	Orders        int    `json:"orders"`
}

// FunnelStep is one stage of the acquisition funnel.
type FunnelStep struct {
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	ConversionPct float64 `json:"conversion_pct"`
	DropoffPct    float64 `json:"dropoff_pct"`
}

// Cohort summarizes one registration month.
type Cohort struct {
	Month             string  `json:"month"`
	CohortUsers       int     `json:"cohort_users"`
	GoldUsers         int     `json:"gold_users"`
	GoldConversionPct float64 `json:"gold_conversion_pct"`
	AvgOrdersPerUser  float64 `json:"avg_orders_per_user"`
	CustomersUsers    int     `json:"customers_users"`
}

// Retention reports repeat-purchase behavior for one cohort. The churn and
// reactivation rates are fixed placeholder values carried in the response
// contract.
type Retention struct {
	CohortSize          int     `json:"cohort_size"`
	ReturningUsers      int     `json:"returning_users"`
	RetentionPct        float64 `json:"retention_pct"`
	ChurnRatePct        float64 `json:"churn_rate_pct"`
	ReactivationRatePct float64 `json:"reactivation_rate_pct"`
}

// Service computes analytics summaries over the store.
type Service struct {
	storage service.Storage
	now     func() time.Time
}

// NewService creates an analytics service over the given storage.
func NewService(storage service.Storage) *Service {
	return &Service{
		storage: storage,
		now:     time.Now,
	}
}

// rangeOrDefault fills missing range bounds: the epoch and now.
func (s *Service) rangeOrDefault(from, to *time.Time) (time.Time, time.Time) {
	start := time.Unix(0, 0).UTC()
	if from != nil && !from.IsZero() {
		start = from.UTC()
	}
	end := s.now().UTC()
	if to != nil && !to.IsZero() {
		end = to.UTC()
	}
	return start, end
}

// Dashboard computes the KPI summary for the given date range.
func (s *Service) Dashboard(ctx context.Context, from, to *time.Time) (*Dashboard, error) {
	start, end := s.rangeOrDefault(from, to)

	counts, err := s.storage.GetDashboardCounts(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard counts: %w", err)
	}

	summaries, err := s.storage.GetUserOrderSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load order summaries: %w", err)
	}

	dash := &Dashboard{
		Downloads:     counts.Downloads,
		Registrations: counts.Registrations,
		DataSources:   DataSources{HasOrders: true, HasAppEvents: true},
	}

	now := s.now()
	for _, sum := range summaries {
		if sum.OrderCount == 0 || sum.LastOrder == nil {
			continue
		}
		dash.Customers++
		days := now.Sub(*sum.LastOrder).Hours() / 24
		switch {
		case days <= dashboardActiveDays:
			dash.ActiveCustomers++
		case days <= dashboardAtRiskDays:
			dash.AtRiskCustomers++
		case days > dashboardChurnedDays:
			dash.ChurnedCustomers++
		}
	}

	chart, err := s.trendSeries(ctx)
	if err != nil {
		return nil, err
	}
	dash.ChartData = chart

	return dash, nil
}

// trendSeries merges the registration and order daily series by date.
func (s *Service) trendSeries(ctx context.Context) ([]TrendPoint, error) {
	regs, err := s.storage.GetRegistrationTrend(ctx, trendWindowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load registration trend: %w", err)
	}
	orders, err := s.storage.GetOrderTrend(ctx, trendWindowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load order trend: %w", err)
	}

	merged := make(map[string]*TrendPoint)
	for _, p := range regs {
		merged[p.Date] = &TrendPoint{Date: p.Date, Registrations: p.Count}
	}
	for _, p := range orders {
		tp, ok := merged[p.Date]
		if !ok {
			tp = &TrendPoint{Date: p.Date}
			merged[p.Date] = tp
		}
		tp.Orders = p.Count
	}

	series := make([]TrendPoint, 0, len(merged))
	for _, tp := range merged {
		series = append(series, *tp)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series, nil
}

// Funnel computes the acquisition funnel for users who downloaded in the
// range. Each step's conversion is relative to the previous step.
func (s *Service) Funnel(ctx context.Context, from, to *time.Time) ([]FunnelStep, error) {
	start, end := s.rangeOrDefault(from, to)

	users, err := s.storage.GetFunnelUsers(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load funnel users: %w", err)
	}

	var download, registration, mql, first, second, third int
	for _, u := range users {
		download++
		if !u.Registered {
			continue
		}
		registration++
		if u.AppOpens >= mqlOpenThreshold {
			mql++
		}
		if u.OrderCount >= 1 {
			first++
		}
		if u.OrderCount >= 2 {
			second++
		}
		if u.OrderCount >= 3 {
			third++
		}
	}

	step := func(name string, count, prev int) FunnelStep {
		conv := safePct(count, prev)
		return FunnelStep{
			Name:          name,
			Count:         count,
			ConversionPct: conv,
			DropoffPct:    round1(100 - conv),
		}
	}

	return []FunnelStep{
		{Name: "App Download", Count: download, ConversionPct: 100, DropoffPct: 0},
		step("Registration", registration, download),
		step("MQL (5+ Opens)", mql, registration),
		step("First Order", first, mql),
		step("Second Order", second, first),
		step("Loyal (3+)", third, second),
	}, nil
}

// Cohorts summarizes the most recent registration-month cohorts.
func (s *Service) Cohorts(ctx context.Context) ([]Cohort, error) {
	rows, err := s.storage.GetCohortRows(ctx, cohortMonths)
	if err != nil {
		return nil, fmt.Errorf("failed to load cohorts: %w", err)
	}

	cohorts := make([]Cohort, 0, len(rows))
	for _, row := range rows {
		c := Cohort{
			Month:       row.Month,
			CohortUsers: row.CohortUsers,
			GoldUsers:   row.GoldUsers,
		}
		if row.CohortUsers > 0 {
			c.GoldConversionPct = safePct(row.GoldUsers, row.CohortUsers)
			c.AvgOrdersPerUser = round2(float64(row.TotalOrders) / float64(row.CohortUsers))
		}
		c.CustomersUsers = row.TotalOrders / 2
		cohorts = append(cohorts, c)
	}
	return cohorts, nil
}

// Retention reports, for one registration-month cohort, how many users
// placed a return order within window days of their first order.
func (s *Service) Retention(ctx context.Context, cohortMonth string, windowDays int) (*Retention, error) {
	if windowDays <= 0 {
		windowDays = 30
	}

	users, err := s.storage.GetCohortOrderTimes(ctx, cohortMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to load cohort orders: %w", err)
	}

	if len(users) == 0 {
		return &Retention{}, nil
	}

	returning := 0
	for _, u := range users {
		if len(u.Orders) < 2 {
			continue
		}
		first := u.Orders[0]
		for _, at := range u.Orders[1:] {
			days := at.Sub(first).Hours() / 24
			if days > 0 && days <= float64(windowDays) {
				returning++
				break
			}
		}
	}

	return &Retention{
		CohortSize:          len(users),
		ReturningUsers:      returning,
		RetentionPct:        safePct(returning, len(users)),
		ChurnRatePct:        25,
		ReactivationRatePct: 5,
	}, nil
}

// safePct is a divide-by-zero-safe percentage, rounded to one decimal.
func safePct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
