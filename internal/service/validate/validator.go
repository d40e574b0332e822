package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/constants"
	"github.com/openjordan/healthatlas/internal/service/normalizer"
	"github.com/shopspring/decimal"
)

// Validator runs the cross-level consistency checks over a full joined
// dataset. Violations are findings, not failures: Check never mutates its
// input and never stops at the first hit, so one pass yields the complete
// report.
type Validator struct {
	popMetric string
	tolerance decimal.Decimal // relative, e.g. 0.005 for 0.5%
}

func NewValidator(popMetric string, relTolerance float64) *Validator {
	return &Validator{
		popMetric: popMetric,
		tolerance: decimal.NewFromFloat(relTolerance),
	}
}

func (v *Validator) Check(records []*domain.JoinedRecord) []domain.Violation {
	byID := make(map[string]*domain.JoinedRecord, len(records))
	for _, rec := range records {
		byID[rec.Unit.UnitID] = rec
	}

	var violations []domain.Violation
	violations = append(violations, v.checkContainment(records, byID)...)
	violations = append(violations, v.checkPopulationConservation(records, byID)...)
	violations = append(violations, v.checkSiblingUniqueness(records)...)
	violations = append(violations, v.checkCompleteness(records)...)

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.UnitID != b.UnitID {
			return a.UnitID < b.UnitID
		}
		return a.Detail < b.Detail
	})

	return violations
}

// Strict turns a non-empty report into a hard failure, for callers that
// require a clean dataset.
func Strict(violations []domain.Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d violations", constants.ErrStrictValidation, len(violations))
}

// checkContainment verifies that every non-governorate's parent chain
// resolves, one level at a time, up to a governorate.
func (v *Validator) checkContainment(records []*domain.JoinedRecord, byID map[string]*domain.JoinedRecord) []domain.Violation {
	var violations []domain.Violation

	for _, rec := range records {
		unit := rec.Unit
		wantParent, ok := unit.Level.Parent()
		if !ok {
			if unit.ParentID != nil {
				violations = append(violations, domain.Violation{
					Kind:   domain.ViolationOrphanUnit,
					UnitID: unit.UnitID,
					Detail: fmt.Sprintf("governorate %q must not have a parent", unit.NameEn),
				})
			}
			continue
		}

		if unit.ParentID == nil {
			violations = append(violations, domain.Violation{
				Kind:   domain.ViolationOrphanUnit,
				UnitID: unit.UnitID,
				Detail: fmt.Sprintf("%s %q has no parent", unit.Level, unit.NameEn),
			})
			continue
		}

		parent, ok := byID[*unit.ParentID]
		if !ok {
			violations = append(violations, domain.Violation{
				Kind:   domain.ViolationOrphanUnit,
				UnitID: unit.UnitID,
				Detail: fmt.Sprintf("%s %q references unknown parent %q", unit.Level, unit.NameEn, *unit.ParentID),
			})
			continue
		}

		if parent.Unit.Level != wantParent {
			violations = append(violations, domain.Violation{
				Kind:   domain.ViolationOrphanUnit,
				UnitID: unit.UnitID,
				Detail: fmt.Sprintf("%s %q has %s parent %q, want %s", unit.Level, unit.NameEn, parent.Unit.Level, parent.Unit.NameEn, wantParent),
			})
		}
	}

	return violations
}

// checkPopulationConservation compares each parent's population against the
// sum over its children, per period, within the relative tolerance. The
// check only fires when the parent and every child carry the population
// metric for that period; a partially populated level would always produce a
// spurious shortfall.
func (v *Validator) checkPopulationConservation(records []*domain.JoinedRecord, byID map[string]*domain.JoinedRecord) []domain.Violation {
	children := make(map[string][]*domain.JoinedRecord)
	for _, rec := range records {
		if rec.Unit.ParentID != nil {
			children[*rec.Unit.ParentID] = append(children[*rec.Unit.ParentID], rec)
		}
	}

	var violations []domain.Violation
	for _, parent := range records {
		kids := children[parent.Unit.UnitID]
		if len(kids) == 0 {
			continue
		}

		for key, parentPop := range parent.Attributes {
			if key.Metric != v.popMetric {
				continue
			}

			sum := decimal.Decimal{}
			complete := true
			for _, kid := range kids {
				kidPop, ok := kid.Attribute(v.popMetric, key.Period)
				if !ok {
					complete = false
					break
				}
				sum = sum.Add(decimal.NewFromFloat(kidPop))
			}
			if !complete {
				continue
			}

			parentDec := decimal.NewFromFloat(parentPop)
			delta := sum.Sub(parentDec).Abs()
			allowed := parentDec.Abs().Mul(v.tolerance)
			if delta.GreaterThan(allowed) {
				violations = append(violations, domain.Violation{
					Kind:   domain.ViolationPopulationMismatch,
					UnitID: parent.Unit.UnitID,
					Detail: fmt.Sprintf("%s %q population %s for %s, children sum %s", parent.Unit.Level, parent.Unit.NameEn, parentDec, key.Period, sum),
					Delta:  delta.InexactFloat64(),
				})
			}
		}
	}

	return violations
}

// checkSiblingUniqueness reports one violation per group of same-parent units
// sharing a normalized name.
func (v *Validator) checkSiblingUniqueness(records []*domain.JoinedRecord) []domain.Violation {
	type groupKey struct {
		parent string
		name   string
	}

	groups := make(map[groupKey][]*domain.AdministrativeUnit)
	for _, rec := range records {
		unit := rec.Unit
		parent := ""
		if unit.ParentID != nil {
			parent = *unit.ParentID
		}

		seen := make(map[string]bool, 2)
		for _, name := range []string{unit.NameEn, unit.NameAr} {
			if name == "" {
				continue
			}
			norm, err := normalizer.NormalizeKey(name)
			if err != nil || seen[norm] {
				continue
			}
			seen[norm] = true
			key := groupKey{parent: parent, name: norm}
			groups[key] = append(groups[key], unit)
		}
	}

	var violations []domain.Violation
	reported := make(map[string]bool)
	for key, units := range groups {
		if len(units) < 2 {
			continue
		}

		ids := make([]string, 0, len(units))
		for _, unit := range units {
			ids = append(ids, unit.UnitID)
		}
		sort.Strings(ids)

		// units colliding on both names produce one finding, not two
		member := strings.Join(ids, ",")
		if reported[member] {
			continue
		}
		reported[member] = true

		violations = append(violations, domain.Violation{
			Kind:   domain.ViolationDuplicateSibling,
			UnitID: ids[0],
			Detail: fmt.Sprintf("siblings %s share name %q", member, key.name),
		})
	}

	return violations
}

func (v *Validator) checkCompleteness(records []*domain.JoinedRecord) []domain.Violation {
	var violations []domain.Violation

	for _, rec := range records {
		unit := rec.Unit
		var missing []string
		if strings.TrimSpace(unit.NameAr) == "" {
			missing = append(missing, "name_ar")
		}
		if strings.TrimSpace(unit.NameEn) == "" {
			missing = append(missing, "name_en")
		}
		if len(missing) > 0 {
			violations = append(violations, domain.Violation{
				Kind:   domain.ViolationMissingName,
				UnitID: unit.UnitID,
				Detail: fmt.Sprintf("%s %s missing %s", unit.Level, unit.UnitID, strings.Join(missing, ", ")),
			})
		}
	}

	return violations
}
