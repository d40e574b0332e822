package domain

import "time"

type ViolationKind string

const (
	ViolationOrphanUnit         ViolationKind = "orphan_unit"
	ViolationPopulationMismatch ViolationKind = "population_mismatch"
	ViolationDuplicateSibling   ViolationKind = "duplicate_sibling"
	ViolationMissingName        ViolationKind = "missing_name"
)

// Violation is one consistency finding. Violations are data, not errors: the
// validator reports all of them in one pass and never aborts on the first.
type Violation struct {
	ID        int64         `db:"id" json:"id,omitempty"`
	Kind      ViolationKind `db:"kind" json:"kind"`
	UnitID    string        `db:"unit_id" json:"unit_id"`
	Detail    string        `db:"detail" json:"detail"`
	Delta     float64       `db:"delta" json:"delta,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"-"`
}
