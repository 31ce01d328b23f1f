// Package model defines the core domain types shared across the application.
package model

import "time"

// LoyaltyTier represents a user's loyalty program tier.
type LoyaltyTier string

// Loyalty tiers.
const (
	TierNone     LoyaltyTier = "None"
	TierSilver   LoyaltyTier = "Silver"
	TierGold     LoyaltyTier = "Gold"
	TierPlatinum LoyaltyTier = "Platinum"
)

// LifecycleStage is a categorical label describing a user's current
// engagement level.
type LifecycleStage string

// Lifecycle stages.
const (
	StageLead    LifecycleStage = "Lead"
	StageMQL     LifecycleStage = "MQL"
	StageActive  LifecycleStage = "Active"
	StageAtRisk  LifecycleStage = "At Risk"
	StageChurned LifecycleStage = "Churned"
	StageRepeat  LifecycleStage = "Repeat"
)

// Valid reports whether the stage is one of the known lifecycle stages.
func (s LifecycleStage) Valid() bool {
	switch s {
	case StageLead, StageMQL, StageActive, StageAtRisk, StageChurned, StageRepeat:
		return true
	default:
		return false
	}
}

// User represents a single customer record.
type User struct {
	DownloadDate     time.Time      `json:"download_date"`
	RegistrationDate *time.Time     `json:"registration_date"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	ID               string         `json:"id"`
	LoyaltyTier      LoyaltyTier    `json:"loyalty_tier"`
	LifecycleStage   LifecycleStage `json:"lifecycle_stage"`
}

// Registered reports whether the user has completed registration.
func (u *User) Registered() bool {
	return u.RegistrationDate != nil && !u.RegistrationDate.IsZero()
}
