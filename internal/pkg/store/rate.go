package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/logger"
)

var rateColumns = []string{"id", "unit_id", "disease_name", "period", "cases", "population", "rate_per_100k", "adjusted", "created_at"}

func (s *store) UpsertRates(ctx context.Context, rates []*domain.DerivedRate) error {
	if len(rates) == 0 {
		return nil
	}

	query := builder().Insert(tableRates).
		Columns("unit_id", "disease_name", "period", "cases", "population", "rate_per_100k", "adjusted")

	for _, rate := range rates {
		query = query.Values(rate.UnitID, rate.DiseaseName, rate.Period, rate.Cases, rate.Population, rate.RatePer100k, rate.Adjusted)
	}

	query = query.Suffix(`
on conflict (unit_id, disease_name, period)
do update
set
	cases = excluded.cases,
	population = excluded.population,
	rate_per_100k = excluded.rate_per_100k,
	adjusted = excluded.adjusted`)

	if _, err := s.pool.Execx(ctx, query); err != nil {
		logger.Error(ctx, err.Error())
		return wrapErr(err)
	}

	return nil
}

func (s *store) ListRatesByUnitID(ctx context.Context, unitID string) ([]*domain.DerivedRate, error) {
	query := builder().Select(rateColumns...).
		From(tableRates).
		Where(sq.Eq{"unit_id": unitID}).
		OrderBy("disease_name, period")

	var selected []*domain.DerivedRate
	if err := s.pool.Selectx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}

	return selected, nil
}
