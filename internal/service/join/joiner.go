package join

import (
	"fmt"

	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/domain/dto"
	"github.com/openjordan/healthatlas/internal/pkg/constants"
	"github.com/openjordan/healthatlas/internal/service/normalizer"
)

// Index maps normalized keys to the units of one administrative level. Every
// unit is reachable under its Wikidata id and under both of its normalized
// names, and every key must resolve to exactly one unit.
type Index struct {
	level   domain.Level
	byKey   map[string]*dto.JoinedUnit
	ordered []*dto.JoinedUnit
}

// BuildIndex indexes units of a single level. Two units claiming the same
// normalized key is source-data corruption and fails with DuplicateUnitKey.
func BuildIndex(level domain.Level, units []*domain.AdministrativeUnit) (*Index, error) {
	idx := &Index{
		level:   level,
		byKey:   make(map[string]*dto.JoinedUnit, len(units)*3),
		ordered: make([]*dto.JoinedUnit, 0, len(units)),
	}

	for _, unit := range units {
		joined := dto.NewJoinedUnit(unit)
		idx.ordered = append(idx.ordered, joined)

		for _, raw := range []string{unit.ExternalID, unit.NameEn, unit.NameAr} {
			if raw == "" {
				continue
			}

			key, err := normalizer.NormalizeKey(raw)
			if err != nil {
				return nil, fmt.Errorf("unit %q: %w", unit.UnitID, err)
			}

			if prev, ok := idx.byKey[key]; ok && prev != joined {
				return nil, fmt.Errorf("%w: key %q claimed by units %q and %q at level %s",
					constants.ErrDuplicateUnitKey, key, prev.Unit.UnitID, unit.UnitID, level)
			}
			idx.byKey[key] = joined
		}
	}

	return idx, nil
}

// Lookup resolves a normalized key to its unit.
func (idx *Index) Lookup(key string) (*domain.AdministrativeUnit, bool) {
	joined, ok := idx.byKey[key]
	if !ok {
		return nil, false
	}
	return joined.Unit, true
}

// Result is the output of one join pass. Rejects carry the attribute rows
// whose keys matched no unit; they are data, not failures, so callers can
// audit unmatched source rows.
type Result struct {
	Joined  []*domain.JoinedRecord
	Rejects []domain.RejectedRecord
}

// Attributes merges attribute rows onto the indexed units. An unmatched row
// lands in the reject list and does not stop the pass. A row whose key is
// invalid, or that would put a second value into an occupied metric+period
// slot, aborts with an error carrying the raw key: silently dropping or
// overwriting is exactly the mis-join this pipeline exists to prevent.
func (idx *Index) Attributes(records []domain.AttributeRecord) (*Result, error) {
	result := &Result{}

	for _, record := range records {
		key, err := normalizer.NormalizeKey(record.JoinKey)
		if err != nil {
			return nil, fmt.Errorf("attribute %s/%s: %w", record.MetricName, record.Period, err)
		}

		joined, ok := idx.byKey[key]
		if !ok {
			result.Rejects = append(result.Rejects, domain.RejectedRecord{
				Record: record,
				Reason: fmt.Sprintf("key %q matches no %s", key, idx.level),
			})
			continue
		}

		if err := joined.PutAttribute(record.MetricName, record.Period, record.Value); err != nil {
			return nil, fmt.Errorf("raw key %q: %w", record.JoinKey, err)
		}
	}

	for _, joined := range idx.ordered {
		result.Joined = append(result.Joined, joined.Freeze())
	}

	return result, nil
}
