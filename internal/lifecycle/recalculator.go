package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-crm/meridian/internal/common"
	"github.com/meridian-crm/meridian/internal/service"
)

// Recalculator reclassifies every stored user and persists stage
// transitions. Users are processed one at a time; each stage write is
// independently atomic, so an interrupted run leaves a consistent prefix
// processed and the rest untouched.
type Recalculator struct {
	storage service.Storage
	now     func() time.Time
}

// Summary reports the outcome of a recalculation run.
type Summary struct {
	Scanned int
	Updated int
	Failed  int
}

// NewRecalculator creates a recalculation job over the given storage.
func NewRecalculator(storage service.Storage) *Recalculator {
	return &Recalculator{
		storage: storage,
		now:     time.Now,
	}
}

// RecalculateAll recomputes every user's stage from their full order history.
// Changed stages are written with a new history row; unchanged users get no
// write at all, so a converged run is a no-op. Per-user failures are logged
// and counted without aborting the rest of the run.
func (r *Recalculator) RecalculateAll(ctx context.Context) (*Summary, error) {
	slog.Info("Recalculating lifecycle stages")

	users, err := r.storage.ListUserStages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	// One instant for the whole run: a slow pass classifies every user
	// against the same moment.
	now := r.now()

	summary := &Summary{}
	for _, user := range users {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		summary.Scanned++

		updated, err := r.recalculateUser(ctx, user, now)
		if err != nil {
			summary.Failed++
			common.LogError(err, "Failed to recalculate user", common.Fields{
				"user_id": user.UserID,
			})
			continue
		}
		if updated {
			summary.Updated++
		}
	}

	slog.Info("Lifecycle recalculation complete",
		"scanned", summary.Scanned,
		"updated", summary.Updated,
		"failed", summary.Failed)
	return summary, nil
}

func (r *Recalculator) recalculateUser(ctx context.Context, user service.UserStage, now time.Time) (bool, error) {
	orderTimes, err := r.storage.GetOrderTimes(ctx, user.UserID)
	if err != nil {
		return false, fmt.Errorf("failed to load orders: %w", err)
	}

	newStage := Classify(orderTimes, now)
	if newStage == user.Stage {
		return false, nil
	}

	if err := r.storage.UpdateUserStage(ctx, user.UserID, newStage, now); err != nil {
		return false, fmt.Errorf("failed to persist stage %s: %w", newStage, err)
	}

	slog.Debug("Updated lifecycle stage",
		"user_id", user.UserID,
		"from", string(user.Stage),
		"to", string(newStage))
	return true, nil
}
