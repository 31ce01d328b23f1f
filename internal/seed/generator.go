// Package seed generates synthetic demo data so the dashboard and the
// lifecycle jobs have something realistic to chew on.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/service"
)

// DefaultUserCount is the number of users generated when no count is given.
const DefaultUserCount = 500

// Shape parameters for the generated population. They mirror the demo
// dataset the dashboards were designed around.
const (
	registrationRate   = 0.8 // share of downloads that convert to a registration
	orderRate          = 0.4 // share of registered users that ever order
	maxRegistrationLag = 5   // days between download and registration
	maxAppOpens        = 20  // exclusive upper bound on app_open events
	maxOrders          = 15  // inclusive upper bound on orders per buyer
	minOrderAmount     = 10.0
	orderAmountSpread  = 50.0
)

var tiers = []model.LoyaltyTier{
	model.TierNone,
	model.TierSilver,
	model.TierGold,
	model.TierPlatinum,
}

// Generator writes a synthetic population into storage.
type Generator struct {
	storage service.Storage
	rng     *rand.Rand
	now     func() time.Time
	output  io.Writer
}

// NewGenerator creates a generator seeded for reproducible output. The same
// seed always produces the same population.
func NewGenerator(storage service.Storage, rngSeed int64, output io.Writer) *Generator {
	return &Generator{
		storage: storage,
		rng:     rand.New(rand.NewSource(rngSeed)),
		now:     time.Now,
		output:  output,
	}
}

// Generate inserts count users with their events, orders, and an initial
// lifecycle history row. It returns the number of users created.
func (g *Generator) Generate(ctx context.Context, count int) (int, error) {
	if count <= 0 {
		count = DefaultUserCount
	}

	now := g.now().UTC()
	start := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, time.UTC)

	bar := g.newProgressBar(count)

	for i := 0; i < count; i++ {
		select {
		case <-ctx.Done():
			return i, ctx.Err()
		default:
		}

		if err := g.generateUser(ctx, fmt.Sprintf("user_%d", i), start, now); err != nil {
			return i, fmt.Errorf("generating user %d: %w", i, err)
		}

		if err := bar.Add(1); err != nil {
			slog.Debug("Failed to advance progress bar", "error", err)
		}
	}

	return count, nil
}

func (g *Generator) generateUser(ctx context.Context, id string, start, now time.Time) error {
	downloadDate := g.randomTime(start, now)
	registered := g.rng.Float64() < registrationRate

	user := &model.User{
		ID:             id,
		DownloadDate:   downloadDate,
		LoyaltyTier:    model.TierNone,
		LifecycleStage: model.StageLead,
	}

	if !registered {
		return g.storage.SaveUser(ctx, user)
	}

	registrationDate := downloadDate.AddDate(0, 0, g.rng.Intn(maxRegistrationLag))
	if registrationDate.After(now) {
		registrationDate = now
	}
	user.RegistrationDate = &registrationDate
	user.LoyaltyTier = tiers[g.rng.Intn(len(tiers))]

	openCount := g.rng.Intn(maxAppOpens)

	var orderTimes []time.Time
	if g.rng.Float64() < orderRate {
		n := g.rng.Intn(maxOrders) + 1
		orderTimes = make([]time.Time, 0, n)
		for k := 0; k < n; k++ {
			orderTimes = append(orderTimes, g.randomTime(registrationDate, now))
		}
	}

	user.LifecycleStage = initialStage(openCount, orderTimes, now)

	if err := g.storage.SaveUser(ctx, user); err != nil {
		return err
	}

	for j := 0; j < openCount; j++ {
		event := &model.AppEvent{
			UserID:    id,
			EventName: model.EventAppOpen,
			EventTime: g.randomTime(registrationDate, now),
		}
		if err := g.storage.RecordAppEvent(ctx, event); err != nil {
			return err
		}
	}

	for _, at := range orderTimes {
		order := &model.Order{
			UserID:    id,
			OrderTime: at,
			Amount:    round2(minOrderAmount + g.rng.Float64()*orderAmountSpread),
		}
		if err := g.storage.CreateOrder(ctx, order); err != nil {
			return err
		}
	}

	record := &model.LifecycleHistoryRecord{
		UserID:    id,
		Stage:     user.LifecycleStage,
		StartTime: registrationDate,
	}
	return g.storage.AppendLifecycleHistory(ctx, record)
}

// initialStage derives the seeded stage from order recency, with MQL standing
// in for engaged non-buyers.
func initialStage(openCount int, orderTimes []time.Time, now time.Time) model.LifecycleStage {
	if len(orderTimes) == 0 {
		if openCount >= 5 {
			return model.StageMQL
		}
		return model.StageLead
	}

	last := orderTimes[0]
	for _, t := range orderTimes[1:] {
		if t.After(last) {
			last = t
		}
	}

	days := now.Sub(last).Hours() / 24
	switch {
	case days > 60:
		return model.StageChurned
	case days > 30:
		return model.StageAtRisk
	default:
		return model.StageActive
	}
}

func (g *Generator) randomTime(start, end time.Time) time.Time {
	span := end.Sub(start)
	if span <= 0 {
		return start
	}
	return start.Add(time.Duration(g.rng.Int63n(int64(span)))).UTC()
}

func (g *Generator) newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(g.output),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Seeding users...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(g.output)
		}),
	)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
