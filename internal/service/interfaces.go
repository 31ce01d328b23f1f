// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/meridian-crm/meridian/internal/model"
)

// UserFilter defines filtering options for user list queries.
type UserFilter struct {
	Search string
	Limit  int
	Offset int
}

// Page defines offset/limit pagination for list queries.
type Page struct {
	Limit  int
	Offset int
}

// UserStage is the minimal projection the recalculation job needs.
type UserStage struct {
	UserID string
	Stage  model.LifecycleStage
}

// SegmentUser is a user row carrying its derived order count, as returned by
// segment previews.
type SegmentUser struct {
	model.User
	OrderCount int `json:"order_count"`
}

// DashboardCounts holds the user-level aggregates for the KPI dashboard.
type DashboardCounts struct {
	TotalUsers    int
	Downloads     int
	Registrations int
}

// UserOrderSummary pairs a user with their order recency and volume.
type UserOrderSummary struct {
	LastOrder  *time.Time
	UserID     string
	OrderCount int
}

// TrendPoint is one day of a registrations/orders trend series.
type TrendPoint struct {
	Date  string
	Count int
}

// FunnelUser carries the per-user counts the funnel is computed from.
type FunnelUser struct {
	UserID     string
	Registered bool
	AppOpens   int
	OrderCount int
}

// CohortRow holds the aggregates for one registration-month cohort.
type CohortRow struct {
	Month       string
	CohortUsers int
	GoldUsers   int
	TotalOrders int
}

// UserOrderTimes pairs a user with their order timestamps, oldest first.
type UserOrderTimes struct {
	UserID string
	Orders []time.Time
}

// Storage defines the contract for the persistence layer. Every component
// receives it at construction; nothing reaches for a shared handle.
type Storage interface {
	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUserStages(ctx context.Context) ([]UserStage, error)
	UpdateUserStage(ctx context.Context, userID string, stage model.LifecycleStage, at time.Time) error

	// Order operations
	CreateOrder(ctx context.Context, order *model.Order) error
	ListOrders(ctx context.Context, page Page) ([]model.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	CountOrders(ctx context.Context, userID string) (int, error)
	GetOrderTimes(ctx context.Context, userID string) ([]time.Time, error)

	// App event operations
	RecordAppEvent(ctx context.Context, event *model.AppEvent) error

	// Lifecycle history operations
	GetLifecycleHistory(ctx context.Context, userID string) ([]model.LifecycleHistoryRecord, error)
	AppendLifecycleHistory(ctx context.Context, record *model.LifecycleHistoryRecord) error

	// Segment operations
	CreateSegment(ctx context.Context, segment *model.Segment) error
	ListSegments(ctx context.Context) ([]model.Segment, error)
	DeleteSegment(ctx context.Context, id int64) error
	PreviewSegmentUsers(ctx context.Context, where string, args []any, limit int) ([]SegmentUser, error)
	CountSegmentUsers(ctx context.Context, where string, args []any) (int, error)

	// Automation operations
	CreateAutomation(ctx context.Context, rule *model.AutomationRule) error
	ListAutomations(ctx context.Context) ([]model.AutomationRule, error)
	GetAutomationsByTrigger(ctx context.Context, trigger model.TriggerKind) ([]model.AutomationRule, error)
	DeleteAutomation(ctx context.Context, id int64) error

	// Admin operations
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)

	// Analytics operations
	GetDashboardCounts(ctx context.Context, start, end time.Time) (*DashboardCounts, error)
	GetUserOrderSummaries(ctx context.Context) ([]UserOrderSummary, error)
	GetRegistrationTrend(ctx context.Context, days int) ([]TrendPoint, error)
	GetOrderTrend(ctx context.Context, days int) ([]TrendPoint, error)
	GetFunnelUsers(ctx context.Context, start, end time.Time) ([]FunnelUser, error)
	GetCohortRows(ctx context.Context, limit int) ([]CohortRow, error)
	GetCohortOrderTimes(ctx context.Context, month string) ([]UserOrderTimes, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
