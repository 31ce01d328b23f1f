package model

import "time"

// TriggerKind names the domain event an automation rule listens for.
type TriggerKind string

// Trigger kinds.
const (
	TriggerRegistration TriggerKind = "Registration"
	TriggerOrder        TriggerKind = "Order"
)

// ConditionKind names the predicate evaluated before a rule's action fires.
type ConditionKind string

// Condition kinds. An empty or unrecognized condition always evaluates true.
// ConditionInactive30 can never be satisfied under eager per-event
// evaluation; it is kept for rule-table compatibility.
const (
	ConditionNone       ConditionKind = ""
	ConditionNoOrder    ConditionKind = "NoOrder"
	ConditionHighValue  ConditionKind = "HighValue"
	ConditionInactive30 ConditionKind = "Inactive30"
)

// ActionKind names the side effect a rule performs when its condition holds.
type ActionKind string

// Action kinds. Anything other than ActionUpdateStage is treated as a
// simulated notification.
const (
	ActionUpdateStage ActionKind = "UpdateStage"
	ActionEmail       ActionKind = "Email"
	ActionPush        ActionKind = "Push"
)

// AutomationRule is a trigger/condition/action tuple executed when a
// matching domain event occurs.
type AutomationRule struct {
	CreatedAt   time.Time     `json:"created_at"`
	Name        string        `json:"name"`
	Trigger     TriggerKind   `json:"trigger"`
	Condition   ConditionKind `json:"condition"`
	Action      ActionKind    `json:"action_type"`
	ActionValue string        `json:"action_value"`
	ID          int64         `json:"id"`
}
