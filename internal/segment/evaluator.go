package segment

import (
	"context"
	"fmt"

	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/service"
)

// PreviewLimit is the hard cap on preview rows. Callers needing more must
// not rely on completeness beyond it.
const PreviewLimit = 50

// Preview is the result of evaluating a filter list against the current
// user population.
type Preview struct {
	Users      []service.SegmentUser `json:"preview_users"`
	Skipped    []model.SegmentFilter `json:"skipped_filters,omitempty"`
	TotalCount int                   `json:"total_count"`
}

// Evaluator runs segment filter lists against the store.
type Evaluator struct {
	storage service.Storage
}

// NewEvaluator creates a segment evaluator over the given storage.
func NewEvaluator(storage service.Storage) *Evaluator {
	return &Evaluator{storage: storage}
}

// Preview compiles the filters and returns the matching population size plus
// at most PreviewLimit user rows, each carrying its derived order count.
// Unsupported filters are skipped, not rejected, and reported back.
func (e *Evaluator) Preview(ctx context.Context, filters []model.SegmentFilter) (*Preview, error) {
	clause, skipped := Compile(filters)

	total, err := e.storage.CountSegmentUsers(ctx, clause.SQL, clause.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to count segment population: %w", err)
	}

	users, err := e.storage.PreviewSegmentUsers(ctx, clause.SQL, clause.Args, PreviewLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to preview segment: %w", err)
	}

	return &Preview{
		TotalCount: total,
		Users:      users,
		Skipped:    skipped,
	}, nil
}
