package model

import "time"

// LifecycleHistoryRecord is one entry in a user's append-only stage log.
// EndTime is carried in the schema but never populated; the most recent
// StartTime row reflects the user's current stage.
type LifecycleHistoryRecord struct {
	StartTime time.Time      `json:"start_time"`
	EndTime   *time.Time     `json:"end_time"`
	UserID    string         `json:"user_id"`
	Stage     LifecycleStage `json:"stage"`
	ID        int64          `json:"id"`
}
