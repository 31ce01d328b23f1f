// Package lifecycle implements lifecycle stage classification and the
// recalculation job that keeps stored stages current.
package lifecycle

import (
	"time"

	"github.com/meridian-crm/meridian/internal/model"
)

// Classification thresholds, in days.
const (
	churnedAfterDays = 60.0
	atRiskAfterDays  = 30.0
	activeWindowDays = 30.0
)

const (
	// activeOrderThreshold is how many orders within the active window
	// qualify a user as Active.
	activeOrderThreshold = 2
	// repeatMonthThreshold is how many distinct calendar months of ordering
	// qualify a user as Repeat.
	repeatMonthThreshold = 2
)

// Classify maps a user's order history to a lifecycle stage. orderTimes must
// be sorted most-recent-first. The function is pure: the same history and
// instant always produce the same stage.
//
// A single recent order that doesn't meet the Active or Repeat thresholds
// still classifies as Active; that fallback intentionally shares case (a)'s
// label.
func Classify(orderTimes []time.Time, now time.Time) model.LifecycleStage {
	if len(orderTimes) == 0 {
		return model.StageLead
	}

	daysSinceLast := daysBetween(orderTimes[0], now)
	switch {
	case daysSinceLast >= churnedAfterDays:
		return model.StageChurned
	case daysSinceLast >= atRiskAfterDays:
		return model.StageAtRisk
	}

	recent := 0
	for _, at := range orderTimes {
		if daysBetween(at, now) <= activeWindowDays {
			recent++
		}
	}
	if recent >= activeOrderThreshold {
		return model.StageActive
	}

	months := make(map[string]struct{}, len(orderTimes))
	for _, at := range orderTimes {
		months[at.UTC().Format("2006-01")] = struct{}{}
	}
	if len(months) >= repeatMonthThreshold {
		return model.StageRepeat
	}

	return model.StageActive
}

// daysBetween returns the elapsed fractional days from then to now.
func daysBetween(then, now time.Time) float64 {
	return now.Sub(then).Hours() / 24
}
