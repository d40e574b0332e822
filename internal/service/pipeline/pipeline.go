package pipeline

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/constants"
	"github.com/openjordan/healthatlas/internal/pkg/geo"
	"github.com/openjordan/healthatlas/internal/pkg/logger"
	"github.com/openjordan/healthatlas/internal/pkg/store"
	"github.com/openjordan/healthatlas/internal/pkg/tabular"
	"github.com/openjordan/healthatlas/internal/service/join"
	"github.com/openjordan/healthatlas/internal/service/normalizer"
	"github.com/openjordan/healthatlas/internal/service/rate"
	"github.com/openjordan/healthatlas/internal/service/validate"
	"golang.org/x/sync/errgroup"
)

// LayerSource is one boundary layer on disk plus the property columns to
// read from it.
type LayerSource struct {
	Path   string       `json:"path"`
	Fields geo.FieldMap `json:"fields"`
}

// TableSource is one delimited attribute table. Each source contributes one
// metric; a file carrying several metrics is listed once per value column.
type TableSource struct {
	Path        string           `json:"path"`
	Encoding    tabular.Encoding `json:"encoding"`
	Level       domain.Level     `json:"level"`
	KeyColumn   string           `json:"key_column"`
	ValueColumn string           `json:"value_column"`
	Metric      string           `json:"metric"`
	Period      domain.Period    `json:"period"`
}

type Config struct {
	Layers   map[domain.Level]LayerSource
	Tables   []TableSource
	Diseases []string

	PopulationMetric string
	Period           domain.Period

	RateDecimals         int32
	PopulationTolerance  float64
	ContainmentTolerance float64

	Strict bool

	OutputPath   string
	OutputFormat geo.Format
}

func (cfg *Config) applyDefaults() {
	if cfg.PopulationMetric == "" {
		cfg.PopulationMetric = "population"
	}
	if cfg.RateDecimals == 0 {
		cfg.RateDecimals = 1
	}
	if cfg.PopulationTolerance == 0 {
		cfg.PopulationTolerance = 0.005
	}
}

// Summary is the outcome of one batch run.
type Summary struct {
	Units      map[domain.Level]int    `json:"units"`
	Rates      int                     `json:"rates"`
	Rejects    []domain.RejectedRecord `json:"rejects"`
	Violations []domain.Violation      `json:"violations"`
	Records    []*domain.JoinedRecord  `json:"-"`
}

type Service struct {
	store store.Store
}

func NewService(store store.Store) *Service {
	return &Service{store: store}
}

// Run executes one single-pass batch transformation: load the three boundary
// layers, join attribute tables per level, derive disease rates, validate
// the full set, persist, and optionally export. Inputs are read once and
// never mutated; every output is newly allocated.
func (s *Service) Run(ctx context.Context, cfg Config) (*Summary, error) {
	cfg.applyDefaults()

	unitsByLevel, attrsByLevel, err := s.load(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	// The three level joins are independent; validation must wait for all of
	// them because population conservation spans levels.
	results := make(map[domain.Level]*join.Result, len(unitsByLevel))
	resultsMx := sync.Mutex{}
	eg, egCtx := errgroup.WithContext(ctx)
	for level := range unitsByLevel {
		level := level
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			idx, err := join.BuildIndex(level, unitsByLevel[level])
			if err != nil {
				return fmt.Errorf("level %s: %w", level, err)
			}

			result, err := idx.Attributes(attrsByLevel[level])
			if err != nil {
				return fmt.Errorf("level %s: %w", level, err)
			}

			resultsMx.Lock()
			defer resultsMx.Unlock()
			results[level] = result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}

	summary := &Summary{Units: make(map[domain.Level]int, len(results))}
	for _, level := range domain.Levels {
		result, ok := results[level]
		if !ok {
			continue
		}
		summary.Units[level] = len(result.Joined)
		summary.Records = append(summary.Records, result.Joined...)
		summary.Rejects = append(summary.Rejects, result.Rejects...)
	}

	rates, err := s.deriveRates(cfg, summary.Records)
	if err != nil {
		return nil, fmt.Errorf("rates: %w", err)
	}
	summary.Rates = len(rates)

	validator := validate.NewValidator(cfg.PopulationMetric, cfg.PopulationTolerance)
	summary.Violations = validator.Check(summary.Records)

	if err := s.persist(ctx, summary, rates); err != nil {
		return nil, fmt.Errorf("persist: %w", err)
	}

	if cfg.OutputPath != "" {
		if err := export(cfg, summary.Records); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}

	logger.Infof(ctx, "pipeline run: %d units, %d rates, %d rejects, %d violations",
		len(summary.Records), summary.Rates, len(summary.Rejects), len(summary.Violations))

	if cfg.Strict {
		if err := validate.Strict(summary.Violations); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// load reads every configured layer and table, resolves parent references by
// normalized name, and enforces the geometric containment invariant.
func (s *Service) load(ctx context.Context, cfg Config) (map[domain.Level][]*domain.AdministrativeUnit, map[domain.Level][]domain.AttributeRecord, error) {
	unitsByLevel := make(map[domain.Level][]*domain.AdministrativeUnit, len(cfg.Layers))
	attrsByLevel := make(map[domain.Level][]domain.AttributeRecord, len(cfg.Layers))

	// parent lookup for the level below, normalized name or Q-id -> unit
	var parentIdx *join.Index

	for _, level := range domain.Levels {
		source, ok := cfg.Layers[level]
		if !ok {
			parentIdx = nil
			continue
		}

		records, err := geo.LoadPolygons(source.Path, source.Fields)
		if err != nil {
			return nil, nil, fmt.Errorf("layer %s: %w", level, err)
		}

		units := make([]*domain.AdministrativeUnit, 0, len(records))
		for _, record := range records {
			unit := &domain.AdministrativeUnit{
				UnitID:     uuid.NewString(),
				Level:      level,
				NameAr:     decodeName(record.NameAr),
				NameEn:     decodeName(record.NameEn),
				ExternalID: strings.TrimSpace(record.Wikidata),
				Geometry:   record.Geometry,
			}

			if _, hasParent := level.Parent(); hasParent {
				parent, err := resolveParent(parentIdx, record, level)
				if err != nil {
					return nil, nil, err
				}

				if !unit.Geometry.FitsWithin(&parent.Geometry, cfg.ContainmentTolerance) {
					return nil, nil, fmt.Errorf("%w: %s %q outside %s %q",
						constants.ErrContainment, level, unit.NameEn, parent.Level, parent.NameEn)
				}

				parentID := parent.UnitID
				unit.ParentID = &parentID
			}

			units = append(units, unit)

			if record.Population != nil {
				attrsByLevel[level] = append(attrsByLevel[level], domain.AttributeRecord{
					JoinKey:    unitKey(unit),
					MetricName: cfg.PopulationMetric,
					Value:      *record.Population,
					Period:     cfg.Period,
				})
			}
		}

		unitsByLevel[level] = units

		parentIdx, err = join.BuildIndex(level, units)
		if err != nil {
			return nil, nil, fmt.Errorf("layer %s: %w", level, err)
		}
	}

	for _, table := range cfg.Tables {
		rows, err := tabular.LoadTable(table.Path, table.Encoding)
		if err != nil {
			return nil, nil, fmt.Errorf("table %s: %w", table.Path, err)
		}

		for _, row := range rows {
			rawValue := strings.TrimSpace(row[table.ValueColumn])
			if rawValue == "" {
				continue
			}

			value, err := parseNumber(rawValue)
			if err != nil {
				return nil, nil, fmt.Errorf("table %s, metric %s: %w", table.Path, table.Metric, err)
			}

			attrsByLevel[table.Level] = append(attrsByLevel[table.Level], domain.AttributeRecord{
				JoinKey:    row[table.KeyColumn],
				MetricName: table.Metric,
				Value:      value,
				Period:     table.Period,
			})
		}
	}

	return unitsByLevel, attrsByLevel, nil
}

func resolveParent(parentIdx *join.Index, record *geo.Record, level domain.Level) (*domain.AdministrativeUnit, error) {
	if parentIdx == nil {
		return nil, fmt.Errorf("%w: no parent layer loaded for level %s", constants.ErrOrphanLayer, level)
	}
	if record.ParentName == "" {
		return nil, fmt.Errorf("%w: %s %q has no parent reference", constants.ErrOrphanLayer, level, record.NameEn)
	}

	key, err := normalizer.NormalizeKey(record.ParentName)
	if err != nil {
		return nil, fmt.Errorf("%s %q parent: %w", level, record.NameEn, err)
	}

	parent, ok := parentIdx.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q references unknown parent %q", constants.ErrOrphanLayer, level, record.NameEn, record.ParentName)
	}

	return parent, nil
}

func (s *Service) deriveRates(cfg Config, records []*domain.JoinedRecord) ([]*domain.DerivedRate, error) {
	diseases := make(map[string]bool, len(cfg.Diseases))
	for _, d := range cfg.Diseases {
		diseases[d] = true
	}

	calc := rate.NewCalculator(cfg.RateDecimals)

	var rates []*domain.DerivedRate
	for _, rec := range records {
		for key, cases := range rec.Attributes {
			if !diseases[key.Metric] {
				continue
			}

			population, ok := rec.Attribute(cfg.PopulationMetric, key.Period)
			if !ok {
				// no population for this period: the rate is undefined, not zero
				continue
			}

			derived, err := calc.Derive(rec.Unit.UnitID, key.Metric, key.Period, cases, population, nil)
			if err != nil {
				return nil, err
			}
			rates = append(rates, derived)
		}
	}

	return rates, nil
}

func (s *Service) persist(ctx context.Context, summary *Summary, rates []*domain.DerivedRate) error {
	var attrs []*domain.AttributeRecord
	for _, rec := range summary.Records {
		if _, err := s.store.UpsertUnit(ctx, rec.Unit); err != nil {
			return fmt.Errorf("UpsertUnit %q: %w", rec.Unit.UnitID, err)
		}

		for key, value := range rec.Attributes {
			attrs = append(attrs, &domain.AttributeRecord{
				UnitID:     rec.Unit.UnitID,
				JoinKey:    unitKey(rec.Unit),
				MetricName: key.Metric,
				Value:      value,
				Period:     key.Period,
			})
		}
	}

	if err := s.store.UpsertAttributes(ctx, attrs); err != nil {
		return fmt.Errorf("UpsertAttributes: %w", err)
	}

	if err := s.store.UpsertRates(ctx, rates); err != nil {
		return fmt.Errorf("UpsertRates: %w", err)
	}

	if err := s.store.ReplaceViolations(ctx, summary.Violations); err != nil {
		return fmt.Errorf("ReplaceViolations: %w", err)
	}

	return nil
}

func export(cfg Config, records []*domain.JoinedRecord) error {
	out := make([]*geo.Record, 0, len(records))
	for _, rec := range records {
		props := map[string]interface{}{
			"name_ar":  rec.Unit.NameAr,
			"name_en":  rec.Unit.NameEn,
			"wikidata": rec.Unit.ExternalID,
			"level":    string(rec.Unit.Level),
		}
		for key, value := range rec.Attributes {
			props[fmt.Sprintf("%s_%s", key.Metric, key.Period)] = value
		}

		record := &geo.Record{
			NameAr:     rec.Unit.NameAr,
			NameEn:     rec.Unit.NameEn,
			Wikidata:   rec.Unit.ExternalID,
			Geometry:   rec.Unit.Geometry,
			Properties: props,
		}
		if population, ok := rec.Attribute(cfg.PopulationMetric, cfg.Period); ok {
			record.Population = &population
		}
		out = append(out, record)
	}

	return geo.SavePolygons(cfg.OutputPath, out, cfg.OutputFormat)
}

// unitKey is the canonical join key of a unit: its Wikidata id when present,
// its English name otherwise.
func unitKey(unit *domain.AdministrativeUnit) string {
	if unit.ExternalID != "" {
		return unit.ExternalID
	}
	return unit.NameEn
}

// decodeName repairs HTML-entity-encoded names the way the source layers
// ship them, without touching already clean strings.
func decodeName(raw string) string {
	return strings.TrimSpace(html.UnescapeString(raw))
}

func parseNumber(raw string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", " ", "", " ", "").Replace(raw)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q: %w", raw, err)
	}
	return value, nil
}
