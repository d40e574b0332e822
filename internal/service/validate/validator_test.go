package validate

import (
	"testing"

	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unit(id string, level domain.Level, parentID, nameEn, nameAr string) *domain.AdministrativeUnit {
	u := &domain.AdministrativeUnit{
		UnitID: id,
		Level:  level,
		NameEn: nameEn,
		NameAr: nameAr,
	}
	if parentID != "" {
		u.ParentID = &parentID
	}
	return u
}

func joined(u *domain.AdministrativeUnit, population float64) *domain.JoinedRecord {
	rec := &domain.JoinedRecord{Unit: u, Attributes: map[domain.MetricKey]float64{}}
	if population > 0 {
		rec.Attributes[domain.MetricKey{Metric: "population", Period: "2024"}] = population
	}
	return rec
}

func kinds(violations []domain.Violation) []domain.ViolationKind {
	out := make([]domain.ViolationKind, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Kind)
	}
	return out
}

func TestCheckCleanDataset(t *testing.T) {
	v := NewValidator("population", 0.005)

	records := []*domain.JoinedRecord{
		joined(unit("g1", domain.LevelGovernorate, "", "Zarqa", "الزرقاء"), 100000),
		joined(unit("d1", domain.LevelDistrict, "g1", "Qasabah Zarqa", "قصبة الزرقاء"), 60000),
		joined(unit("d2", domain.LevelDistrict, "g1", "Russeifa", "الرصيفة"), 40000),
	}

	assert.Empty(t, v.Check(records))
}

func TestPopulationConservation(t *testing.T) {
	tests := []struct {
		name      string
		district1 float64
		district2 float64
		mismatch  bool
		delta     float64
	}{
		{name: "exact split", district1: 60000, district2: 40000, mismatch: false},
		{name: "within tolerance", district1: 60001, district2: 40000, mismatch: false},
		{name: "at tolerance boundary", district1: 60500, district2: 40000, mismatch: false},
		{name: "beyond tolerance", district1: 60600, district2: 40000, mismatch: true, delta: 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator("population", 0.005)

			records := []*domain.JoinedRecord{
				joined(unit("g1", domain.LevelGovernorate, "", "Zarqa", "الزرقاء"), 100000),
				joined(unit("d1", domain.LevelDistrict, "g1", "Qasabah Zarqa", "قصبة الزرقاء"), tt.district1),
				joined(unit("d2", domain.LevelDistrict, "g1", "Russeifa", "الرصيفة"), tt.district2),
			}

			violations := v.Check(records)
			if !tt.mismatch {
				assert.Empty(t, violations)
				return
			}

			require.Len(t, violations, 1)
			assert.Equal(t, domain.ViolationPopulationMismatch, violations[0].Kind)
			assert.Equal(t, "g1", violations[0].UnitID)
			assert.Equal(t, tt.delta, violations[0].Delta)
		})
	}
}

func TestPopulationConservationSkipsIncompleteChildren(t *testing.T) {
	v := NewValidator("population", 0.005)

	// d2 has no population row: the check must not fire on a partial level
	records := []*domain.JoinedRecord{
		joined(unit("g1", domain.LevelGovernorate, "", "Zarqa", "الزرقاء"), 100000),
		joined(unit("d1", domain.LevelDistrict, "g1", "Qasabah Zarqa", "قصبة الزرقاء"), 60000),
		joined(unit("d2", domain.LevelDistrict, "g1", "Russeifa", "الرصيفة"), 0),
	}

	assert.Empty(t, v.Check(records))
}

func TestDuplicateSibling(t *testing.T) {
	v := NewValidator("population", 0.005)

	records := []*domain.JoinedRecord{
		joined(unit("g1", domain.LevelGovernorate, "", "Zarqa Governorate", "محافظة الزرقاء"), 0),
		joined(unit("d1", domain.LevelDistrict, "g1", "Zarqa", "الزرقاء"), 0),
		joined(unit("d2", domain.LevelDistrict, "g1", "Zarqa", "زرقاء"), 0),
	}

	violations := v.Check(records)
	require.Len(t, violations, 1)
	assert.Equal(t, domain.ViolationDuplicateSibling, violations[0].Kind)
	assert.Contains(t, violations[0].Detail, "d1")
	assert.Contains(t, violations[0].Detail, "d2")
}

func TestDuplicateSiblingUnderDifferentParentsIsFine(t *testing.T) {
	v := NewValidator("population", 0.005)

	records := []*domain.JoinedRecord{
		joined(unit("g1", domain.LevelGovernorate, "", "Zarqa Governorate", "محافظة الزرقاء"), 0),
		joined(unit("g2", domain.LevelGovernorate, "", "Amman Governorate", "محافظة عمان"), 0),
		joined(unit("d1", domain.LevelDistrict, "g1", "Qasabah", "قصبة"), 0),
		joined(unit("d2", domain.LevelDistrict, "g2", "Qasabah", "القصبة"), 0),
	}

	assert.Empty(t, v.Check(records))
}

func TestOrphanUnit(t *testing.T) {
	v := NewValidator("population", 0.005)

	records := []*domain.JoinedRecord{
		joined(unit("g1", domain.LevelGovernorate, "", "Zarqa", "الزرقاء"), 0),
		joined(unit("d1", domain.LevelDistrict, "missing", "Russeifa", "الرصيفة"), 0),
		joined(unit("d2", domain.LevelDistrict, "", "Qasabah", "القصبة"), 0),
		// subdistrict pointing at a governorate skips a level
		joined(unit("s1", domain.LevelSubdistrict, "g1", "Hashimiyya", "الهاشمية"), 0),
	}

	violations := v.Check(records)
	assert.Equal(t, []domain.ViolationKind{
		domain.ViolationOrphanUnit,
		domain.ViolationOrphanUnit,
		domain.ViolationOrphanUnit,
	}, kinds(violations))
}

func TestMissingName(t *testing.T) {
	v := NewValidator("population", 0.005)

	records := []*domain.JoinedRecord{
		joined(unit("g1", domain.LevelGovernorate, "", "Zarqa", ""), 0),
	}

	violations := v.Check(records)
	require.Len(t, violations, 1)
	assert.Equal(t, domain.ViolationMissingName, violations[0].Kind)
	assert.Contains(t, violations[0].Detail, "name_ar")
}

func TestViolationsAreDataNotErrors(t *testing.T) {
	violations := []domain.Violation{{Kind: domain.ViolationMissingName, UnitID: "g1"}}

	err := Strict(violations)
	require.Error(t, err)
	assert.ErrorIs(t, err, constants.ErrStrictValidation)

	assert.NoError(t, Strict(nil))
}
