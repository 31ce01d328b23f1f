package model

// DomainEvent is emitted by a committed CRUD write and later consumed by the
// automation dispatcher. Keeping emission separate from evaluation means a
// failing rule can never corrupt the write that produced the event.
type DomainEvent interface {
	// Trigger is the automation trigger kind this event matches.
	Trigger() TriggerKind
	// UserID resolves the user the event concerns.
	UserID() string
}

// UserRegistered is emitted after a user record is created.
type UserRegistered struct {
	User User
}

// Trigger implements DomainEvent.
func (UserRegistered) Trigger() TriggerKind { return TriggerRegistration }

// UserID implements DomainEvent.
func (e UserRegistered) UserID() string { return e.User.ID }

// OrderPlaced is emitted after an order is created.
type OrderPlaced struct {
	Order Order
}

// Trigger implements DomainEvent.
func (OrderPlaced) Trigger() TriggerKind { return TriggerOrder }

// UserID implements DomainEvent.
func (e OrderPlaced) UserID() string { return e.Order.UserID }
