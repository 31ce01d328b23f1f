package model

import "time"

// SegmentFilter is a single declarative restriction on the user population.
// Value stays untyped because it crosses a JSON boundary: numbers arrive as
// float64, dates and enum values as strings.
type SegmentFilter struct {
	Value any    `json:"value"`
	Field string `json:"field"`
	Op    string `json:"op"`
}

// Segment is a saved, named filter definition used to select a subset of
// users. Rule is a denormalized human-readable description of Filters.
type Segment struct {
	CreatedAt time.Time       `json:"created_at"`
	Name      string          `json:"name"`
	Rule      string          `json:"rule"`
	Filters   []SegmentFilter `json:"filters"`
	ID        int64           `json:"id"`
}
