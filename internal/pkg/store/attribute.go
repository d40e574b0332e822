package store

import (
	"context"

	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/logger"
)

func (s *store) UpsertAttributes(ctx context.Context, rows []*domain.AttributeRecord) error {
	if len(rows) == 0 {
		return nil
	}

	query := builder().Insert(tableAttributes).
		Columns("unit_id", "join_key", "metric_name", "value", "period")

	for _, row := range rows {
		query = query.Values(row.UnitID, row.JoinKey, row.MetricName, row.Value, row.Period)
	}

	query = query.Suffix(`
on conflict (unit_id, metric_name, period)
do update
set
	value = excluded.value,
	join_key = excluded.join_key`)

	if _, err := s.pool.Execx(ctx, query); err != nil {
		logger.Error(ctx, err.Error())
		return wrapErr(err)
	}

	return nil
}
