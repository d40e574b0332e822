package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/constants"
	"github.com/openjordan/healthatlas/internal/pkg/geo"
	"github.com/openjordan/healthatlas/internal/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	units      map[string]*domain.AdministrativeUnit
	attributes []*domain.AttributeRecord
	rates      []*domain.DerivedRate
	violations []domain.Violation
}

func newFakeStore() *fakeStore {
	return &fakeStore{units: make(map[string]*domain.AdministrativeUnit)}
}

func (f *fakeStore) UpsertUnit(_ context.Context, unit *domain.AdministrativeUnit) (*domain.AdministrativeUnit, error) {
	f.units[unit.UnitID] = unit
	return unit, nil
}

func (f *fakeStore) ListUnits(_ context.Context, _ store.ListUnitsOpts) ([]*domain.AdministrativeUnit, error) {
	out := make([]*domain.AdministrativeUnit, 0, len(f.units))
	for _, u := range f.units {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeStore) GetUnitByID(_ context.Context, unitID string) (*domain.AdministrativeUnit, error) {
	unit, ok := f.units[unitID]
	if !ok {
		return nil, constants.ErrDBNotFound
	}
	return unit, nil
}

func (f *fakeStore) ListUnitsMissingNames(_ context.Context) ([]*domain.AdministrativeUnit, error) {
	return nil, nil
}

func (f *fakeStore) UpdateUnitNames(_ context.Context, _, _, _ string) error {
	return nil
}

func (f *fakeStore) UpsertAttributes(_ context.Context, rows []*domain.AttributeRecord) error {
	f.attributes = append(f.attributes, rows...)
	return nil
}

func (f *fakeStore) UpsertRates(_ context.Context, rates []*domain.DerivedRate) error {
	f.rates = append(f.rates, rates...)
	return nil
}

func (f *fakeStore) ListRatesByUnitID(_ context.Context, _ string) ([]*domain.DerivedRate, error) {
	return f.rates, nil
}

func (f *fakeStore) ReplaceViolations(_ context.Context, violations []domain.Violation) error {
	f.violations = violations
	return nil
}

func (f *fakeStore) ListViolations(_ context.Context) ([]*domain.Violation, error) {
	out := make([]*domain.Violation, 0, len(f.violations))
	for i := range f.violations {
		out = append(out, &f.violations[i])
	}
	return out, nil
}

const governorateLayer = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name_en": "Zarqa", "name_ar": "الزرقاء", "wikidata": "Q503582", "pop": 100000},
      "geometry": {"type": "Polygon", "coordinates": [[[36.0, 32.0], [36.5, 32.0], [36.5, 32.3], [36.0, 32.3], [36.0, 32.0]]]}
    }
  ]
}`

const districtLayerTemplate = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name_en": "Qasabah Zarqa", "name_ar": "قصبة الزرقاء", "wikidata": "Q12345", "parent": "%s", "pop": 60000},
      "geometry": {"type": "Polygon", "coordinates": [[[36.0, 32.0], [36.25, 32.0], [36.25, 32.3], [36.0, 32.3], [36.0, 32.0]]]}
    },
    {
      "type": "Feature",
      "properties": {"name_en": "Russeifa", "name_ar": "الرصيفة", "wikidata": "Q2094680", "parent": "%s", "pop": 40000},
      "geometry": {"type": "Polygon", "coordinates": [[[36.25, 32.0], [36.5, 32.0], [36.5, 32.3], [36.25, 32.3], [36.25, 32.0]]]}
    }
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T, parentName string) Config {
	t.Helper()
	dir := t.TempDir()

	govPath := writeFile(t, dir, "gov.geojson", governorateLayer)
	disPath := writeFile(t, dir, "dis.geojson", fmt.Sprintf(districtLayerTemplate, parentName, parentName))
	casesPath := writeFile(t, dir, "cases.csv", "wikidata,cases\nQ12345,30\nQ2094680,10\nQ999999,5\n")

	fields := geo.FieldMap{
		NameAr:     "name_ar",
		NameEn:     "name_en",
		Wikidata:   "wikidata",
		ParentName: "parent",
		Population: "pop",
	}

	return Config{
		Layers: map[domain.Level]LayerSource{
			domain.LevelGovernorate: {Path: govPath, Fields: geo.FieldMap{NameAr: "name_ar", NameEn: "name_en", Wikidata: "wikidata", Population: "pop"}},
			domain.LevelDistrict:    {Path: disPath, Fields: fields},
		},
		Tables: []TableSource{
			{
				Path:        casesPath,
				Level:       domain.LevelDistrict,
				KeyColumn:   "wikidata",
				ValueColumn: "cases",
				Metric:      "cancer_cases",
				Period:      "2024",
			},
		},
		Diseases: []string{"cancer_cases"},
		Period:   "2024",
	}
}

func TestRun(t *testing.T) {
	fake := newFakeStore()
	svc := NewService(fake)

	summary, err := svc.Run(context.Background(), testConfig(t, "Zarqa"))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Units[domain.LevelGovernorate])
	assert.Equal(t, 2, summary.Units[domain.LevelDistrict])

	// the row keyed Q999999 matches nothing and must be audited, not dropped
	require.Len(t, summary.Rejects, 1)
	assert.Equal(t, "Q999999", summary.Rejects[0].Record.JoinKey)

	// 60000+40000 matches the governorate exactly
	assert.Empty(t, summary.Violations)

	require.Len(t, fake.rates, 2)
	byDistrict := make(map[string]*domain.DerivedRate, 2)
	for _, r := range fake.rates {
		byDistrict[fake.units[r.UnitID].NameEn] = r
	}
	assert.Equal(t, 50.0, byDistrict["Qasabah Zarqa"].RatePer100k)
	assert.Equal(t, 25.0, byDistrict["Russeifa"].RatePer100k)
	assert.False(t, byDistrict["Russeifa"].Adjusted)

	// persisted units carry resolved parents
	for _, unit := range fake.units {
		if unit.Level == domain.LevelDistrict {
			require.NotNil(t, unit.ParentID)
			assert.Equal(t, domain.LevelGovernorate, fake.units[*unit.ParentID].Level)
		}
	}
}

func TestRunParentResolutionByWikidataKey(t *testing.T) {
	fake := newFakeStore()
	svc := NewService(fake)

	// the parent column may carry the governorate's Q-id instead of its name
	_, err := svc.Run(context.Background(), testConfig(t, "Q503582"))
	require.NoError(t, err)
}

func TestRunUnknownParent(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.Run(context.Background(), testConfig(t, "Nowhere"))
	require.Error(t, err)
	assert.ErrorIs(t, err, constants.ErrOrphanLayer)
}

func TestRunContainment(t *testing.T) {
	dir := t.TempDir()
	govPath := writeFile(t, dir, "gov.geojson", governorateLayer)

	// district sticking out west of the governorate
	outside := `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name_en": "Elsewhere", "name_ar": "مكان", "wikidata": "Q1", "parent": "Zarqa", "pop": 100000},
      "geometry": {"type": "Polygon", "coordinates": [[[35.0, 32.0], [36.2, 32.0], [36.2, 32.3], [35.0, 32.3], [35.0, 32.0]]]}
    }
  ]
}`
	disPath := writeFile(t, dir, "dis.geojson", outside)

	cfg := Config{
		Layers: map[domain.Level]LayerSource{
			domain.LevelGovernorate: {Path: govPath, Fields: geo.FieldMap{NameAr: "name_ar", NameEn: "name_en", Wikidata: "wikidata", Population: "pop"}},
			domain.LevelDistrict:    {Path: disPath, Fields: geo.FieldMap{NameAr: "name_ar", NameEn: "name_en", Wikidata: "wikidata", ParentName: "parent", Population: "pop"}},
		},
		Period: "2024",
	}

	_, err := NewService(newFakeStore()).Run(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, constants.ErrContainment)
}

func TestRunStrictCleanData(t *testing.T) {
	fake := newFakeStore()
	svc := NewService(fake)

	cfg := testConfig(t, "Zarqa")
	cfg.Strict = true

	// a second-period population covering only the governorate must not
	// trigger conservation: the district figures for 2023 are simply absent
	cfg.Tables = append(cfg.Tables, TableSource{
		Path:        writeFile(t, t.TempDir(), "pop.csv", "wikidata,pop\nQ503582,90000\n"),
		Level:       domain.LevelGovernorate,
		KeyColumn:   "wikidata",
		ValueColumn: "pop",
		Metric:      "population",
		Period:      "2023",
	})

	summary, err := svc.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Empty(t, summary.Violations)
}

func TestRunStrictFailsOnViolations(t *testing.T) {
	fake := newFakeStore()
	svc := NewService(fake)

	cfg := testConfig(t, "Zarqa")
	cfg.Strict = true
	// a 2023 period where the district figures overshoot the governorate by
	// 700, past the 0.5% tolerance of 500
	cfg.Tables = append(cfg.Tables, TableSource{
		Path:        writeFile(t, t.TempDir(), "dis23.csv", "wikidata,pop\nQ12345,60700\nQ2094680,40000\n"),
		Level:       domain.LevelDistrict,
		KeyColumn:   "wikidata",
		ValueColumn: "pop",
		Metric:      "population",
		Period:      "2023",
	})
	cfg.Tables = append(cfg.Tables, TableSource{
		Path:        writeFile(t, t.TempDir(), "gov23.csv", "wikidata,pop\nQ503582,100000\n"),
		Level:       domain.LevelGovernorate,
		KeyColumn:   "wikidata",
		ValueColumn: "pop",
		Metric:      "population",
		Period:      "2023",
	})

	summary, err := svc.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, constants.ErrStrictValidation)
	// the full report is still assembled and persisted before strict fails
	require.NotNil(t, summary)
	assert.NotEmpty(t, fake.violations)
}

func TestRunExportCSV(t *testing.T) {
	fake := newFakeStore()
	svc := NewService(fake)

	cfg := testConfig(t, "Zarqa")
	cfg.OutputPath = filepath.Join(t.TempDir(), "joined.csv")
	cfg.OutputFormat = geo.FormatCSV

	_, err := svc.Run(context.Background(), cfg)
	require.NoError(t, err)

	raw, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Russeifa")
}
