package model

import "time"

// Order represents a single purchase made by a user. Orders are immutable
// once created except for deletion.
type Order struct {
	OrderTime time.Time `json:"order_time"`
	UserID    string    `json:"user_id"`
	ID        int64     `json:"id"`
	Amount    float64   `json:"amount"`
}

// AppEvent is an append-only behavioral event (e.g. "app_open") recorded
// against a user.
type AppEvent struct {
	EventTime time.Time `json:"event_time"`
	UserID    string    `json:"user_id"`
	EventName string    `json:"event_name"`
	ID        int64     `json:"id"`
}

// EventAppOpen is the event name counted toward MQL qualification.
const EventAppOpen = "app_open"
