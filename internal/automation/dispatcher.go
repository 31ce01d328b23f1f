package automation

import (
	"context"

	"github.com/meridian-crm/meridian/internal/common"
	"github.com/meridian-crm/meridian/internal/model"
)

// Dispatcher consumes domain events produced by committed writes and feeds
// them to the rule engine. Dispatch runs after the triggering write has
// committed, so rule failures can never corrupt it; they are logged and
// dropped, never retried.
type Dispatcher struct {
	engine *Engine
}

// NewDispatcher creates a dispatcher over the given engine.
func NewDispatcher(engine *Engine) *Dispatcher {
	return &Dispatcher{engine: engine}
}

// Dispatch evaluates each event in order.
func (d *Dispatcher) Dispatch(ctx context.Context, events []model.DomainEvent) {
	for _, event := range events {
		if err := d.engine.HandleEvent(ctx, event); err != nil {
			common.LogError(err, "Failed to process domain event", common.Fields{
				"trigger": string(event.Trigger()),
				"user_id": event.UserID(),
			})
		}
	}
}
