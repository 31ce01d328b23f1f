// Package storage provides the data persistence layer for the meridian application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meridian-crm/meridian/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidUser     = errors.New("invalid user")
	ErrInvalidOrder    = errors.New("invalid order")
	ErrInvalidStage    = errors.New("invalid lifecycle stage")
	ErrInvalidRule     = errors.New("invalid automation rule")
	ErrInvalidSegment  = errors.New("invalid segment")
	ErrInvalidAppEvent = errors.New("invalid app event")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateUser validates a user record.
func validateUser(user *model.User) error {
	if user == nil {
		return fmt.Errorf("%w: user", ErrNilParameter)
	}
	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidUser)
	}
	if user.LifecycleStage != "" && !user.LifecycleStage.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStage, user.LifecycleStage)
	}
	return nil
}

// validateOrder validates an order record.
func validateOrder(order *model.Order) error {
	if order == nil {
		return fmt.Errorf("%w: order", ErrNilParameter)
	}
	if strings.TrimSpace(order.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidOrder)
	}
	if order.OrderTime.IsZero() {
		return fmt.Errorf("%w: missing order time", ErrInvalidOrder)
	}
	if order.Amount < 0 {
		return fmt.Errorf("%w: amount cannot be negative", ErrInvalidOrder)
	}
	return nil
}

// validateAppEvent validates an app event record.
func validateAppEvent(event *model.AppEvent) error {
	if event == nil {
		return fmt.Errorf("%w: event", ErrNilParameter)
	}
	if strings.TrimSpace(event.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidAppEvent)
	}
	if strings.TrimSpace(event.EventName) == "" {
		return fmt.Errorf("%w: missing event name", ErrInvalidAppEvent)
	}
	if event.EventTime.IsZero() {
		return fmt.Errorf("%w: missing event time", ErrInvalidAppEvent)
	}
	return nil
}

// validateHistoryRecord validates a lifecycle history record.
func validateHistoryRecord(record *model.LifecycleHistoryRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidUser)
	}
	if !record.Stage.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStage, record.Stage)
	}
	if record.StartTime.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidUser)
	}
	return nil
}

// validateAutomationRule validates an automation rule.
func validateAutomationRule(rule *model.AutomationRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if strings.TrimSpace(rule.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidRule)
	}
	if strings.TrimSpace(string(rule.Trigger)) == "" {
		return fmt.Errorf("%w: missing trigger", ErrInvalidRule)
	}
	if strings.TrimSpace(string(rule.Action)) == "" {
		return fmt.Errorf("%w: missing action", ErrInvalidRule)
	}
	return nil
}

// validateSegment validates a segment definition.
func validateSegment(segment *model.Segment) error {
	if segment == nil {
		return fmt.Errorf("%w: segment", ErrNilParameter)
	}
	if strings.TrimSpace(segment.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidSegment)
	}
	return nil
}
