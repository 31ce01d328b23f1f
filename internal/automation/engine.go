// Package automation evaluates trigger/condition/action rules against
// domain events emitted by CRUD writes.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-crm/meridian/internal/common"
	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/service"
)

// highValueThreshold is the strict lower bound for the HighValue condition:
// an order of exactly this amount does not qualify.
const highValueThreshold = 50.0

// Engine matches automation rules to domain events, evaluates their
// conditions and performs their actions.
type Engine struct {
	storage  service.Storage
	notifier Notifier
	now      func() time.Time
}

// NewEngine creates an automation engine. A nil notifier falls back to the
// log-only simulation.
func NewEngine(storage service.Storage, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = &LogNotifier{}
	}
	return &Engine{
		storage:  storage,
		notifier: notifier,
		now:      time.Now,
	}
}

// HandleEvent finds every rule whose trigger matches the event and evaluates
// each one independently, in the store's retrieval order. A failing rule is
// logged and skipped; the remaining rules still run.
func (e *Engine) HandleEvent(ctx context.Context, event model.DomainEvent) error {
	rules, err := e.storage.GetAutomationsByTrigger(ctx, event.Trigger())
	if err != nil {
		return fmt.Errorf("failed to load rules for trigger %s: %w", event.Trigger(), err)
	}

	slog.Debug("Evaluating automation rules",
		"trigger", string(event.Trigger()),
		"user_id", event.UserID(),
		"rules", len(rules))

	for _, rule := range rules {
		if err := e.evaluateRule(ctx, rule, event); err != nil {
			common.LogError(err, "Automation rule failed", common.Fields{
				"rule":    rule.Name,
				"user_id": event.UserID(),
			})
		}
	}
	return nil
}

func (e *Engine) evaluateRule(ctx context.Context, rule model.AutomationRule, event model.DomainEvent) error {
	met, err := e.conditionMet(ctx, rule, event)
	if err != nil {
		return fmt.Errorf("condition %s: %w", rule.Condition, err)
	}
	if !met {
		return nil
	}
	return e.performAction(ctx, rule, event)
}

func (e *Engine) conditionMet(ctx context.Context, rule model.AutomationRule, event model.DomainEvent) (bool, error) {
	switch rule.Condition {
	case model.ConditionNoOrder:
		count, err := e.storage.CountOrders(ctx, event.UserID())
		if err != nil {
			return false, err
		}
		return count == 0, nil

	case model.ConditionHighValue:
		placed, ok := event.(model.OrderPlaced)
		if !ok {
			return false, nil
		}
		return placed.Order.Amount > highValueThreshold, nil

	case model.ConditionInactive30:
		// Inert under eager per-event evaluation; an inactivity check needs a
		// batch pass that this trigger path never performs.
		slog.Debug("Skipping inert Inactive30 condition", "rule", rule.Name)
		return false, nil

	default:
		// Absent or unrecognized conditions always hold.
		return true, nil
	}
}

func (e *Engine) performAction(ctx context.Context, rule model.AutomationRule, event model.DomainEvent) error {
	if rule.Action != model.ActionUpdateStage {
		e.notifier.Notify(ctx, rule.Action, event.UserID(), rule.ActionValue)
		return nil
	}

	stage := model.LifecycleStage(rule.ActionValue)
	if !stage.Valid() {
		return fmt.Errorf("rule %q targets unknown stage %q", rule.Name, rule.ActionValue)
	}

	if err := e.storage.UpdateUserStage(ctx, event.UserID(), stage, e.now()); err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}

	slog.Info("Automation updated lifecycle stage",
		"rule", rule.Name,
		"user_id", event.UserID(),
		"stage", string(stage))
	return nil
}
