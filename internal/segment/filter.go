// Package segment translates declarative filter lists into query
// restrictions over the user population and evaluates segment previews.
package segment

import (
	"errors"
	"fmt"

	"github.com/meridian-crm/meridian/internal/model"
)

// ErrUnsupportedFilter indicates a filter names a field/operator pair the
// evaluator does not honor.
var ErrUnsupportedFilter = errors.New("unsupported segment filter")

// Clause is a conjunctive SQL restriction in the store's query form. SQL is
// either empty or a sequence of " AND ..." fragments ready to append after a
// WHERE 1=1 anchor.
type Clause struct {
	SQL  string
	Args []any
}

// fieldSpec describes one filterable field: the SQL expression it compiles
// to and the operators it supports.
type fieldSpec struct {
	expr string
	ops  map[string]bool
}

// Supported fields and operators. order_count is derived from the per-user
// order join; everything else reads the user row directly.
var fields = map[string]fieldSpec{
	"order_count": {
		expr: "COALESCE(o.order_count, 0)",
		ops:  map[string]bool{"=": true, ">": true, "<": true},
	},
	"lifecycle_stage": {
		expr: "u.lifecycle_stage",
		ops:  map[string]bool{"=": true, "!=": true},
	},
	"loyalty_tier": {
		expr: "u.loyalty_tier",
		ops:  map[string]bool{"=": true, "!=": true},
	},
	"download_date": {
		expr: "u.download_date",
		ops:  map[string]bool{">": true, "<": true},
	},
	"registration_date": {
		expr: "u.registration_date",
		ops:  map[string]bool{">": true, "<": true},
	},
}

// supported reports whether a filter's field/operator pair is honored.
func supported(f model.SegmentFilter) bool {
	spec, ok := fields[f.Field]
	return ok && spec.ops[f.Op]
}

// Compile translates filters into a conjunctive restriction. Filters with an
// unsupported field or operator contribute nothing; they are returned in
// skipped so callers can report what was dropped. Compile never fails: the
// empty filter list compiles to the unrestricted clause.
func Compile(filters []model.SegmentFilter) (Clause, []model.SegmentFilter) {
	var clause Clause
	var skipped []model.SegmentFilter

	for _, f := range filters {
		if !supported(f) {
			skipped = append(skipped, f)
			continue
		}
		spec := fields[f.Field]
		clause.SQL += fmt.Sprintf(" AND %s %s ?", spec.expr, f.Op)
		clause.Args = append(clause.Args, f.Value)
	}

	return clause, skipped
}

// Validate rejects any filter Compile would skip. It is applied when
// segments are saved, so stored definitions never silently lose filters;
// previews deliberately stay lenient.
func Validate(filters []model.SegmentFilter) error {
	for _, f := range filters {
		if !supported(f) {
			return fmt.Errorf("%w: %s %s", ErrUnsupportedFilter, f.Field, f.Op)
		}
	}
	return nil
}
