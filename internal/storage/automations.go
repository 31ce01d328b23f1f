package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meridian-crm/meridian/internal/model"
)

// CreateAutomation inserts an automation rule.
func (s *SQLiteStorage) CreateAutomation(ctx context.Context, rule *model.AutomationRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAutomationRule(rule); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO automations (name, trigger_kind, condition_kind, action_type, action_value)
		VALUES (?, ?, ?, ?, ?)
	`, rule.Name, string(rule.Trigger), string(rule.Condition), string(rule.Action), rule.ActionValue)
	if err != nil {
		return fmt.Errorf("failed to insert automation %q: %w", rule.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read automation id: %w", err)
	}
	rule.ID = id
	return nil
}

// ListAutomations returns all rules, newest first.
func (s *SQLiteStorage) ListAutomations(ctx context.Context) ([]model.AutomationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryAutomations(ctx, `
		SELECT id, name, trigger_kind, condition_kind, action_type, action_value, created_at
		FROM automations ORDER BY id DESC
	`)
}

// GetAutomationsByTrigger returns rules matching the trigger in the store's
// natural retrieval order.
func (s *SQLiteStorage) GetAutomationsByTrigger(ctx context.Context, trigger model.TriggerKind) ([]model.AutomationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryAutomations(ctx, `
		SELECT id, name, trigger_kind, condition_kind, action_type, action_value, created_at
		FROM automations WHERE trigger_kind = ?
	`, string(trigger))
}

// DeleteAutomation removes a rule. Deleting a missing id is not an error.
func (s *SQLiteStorage) DeleteAutomation(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM automations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete automation %d: %w", id, err)
	}
	return nil
}

func (s *SQLiteStorage) queryAutomations(ctx context.Context, query string, args ...any) ([]model.AutomationRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query automations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.AutomationRule
	for rows.Next() {
		var r model.AutomationRule
		var trigger, action string
		var condition, value sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &trigger, &condition, &action, &value, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan automation: %w", err)
		}
		r.Trigger = model.TriggerKind(trigger)
		r.Condition = model.ConditionKind(condition.String)
		r.Action = model.ActionKind(action)
		r.ActionValue = value.String
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate automations: %w", err)
	}
	return rules, nil
}
