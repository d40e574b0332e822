package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/logger"
)

var violationColumns = []string{"id", "kind", "unit_id", "detail", "delta", "created_at"}

// ReplaceViolations stores the report of the latest run, dropping the
// previous one.
func (s *store) ReplaceViolations(ctx context.Context, violations []domain.Violation) error {
	deleteQuery := builder().Delete(tableViolations).Where(sq.Expr("true"))
	if _, err := s.pool.Execx(ctx, deleteQuery); err != nil {
		logger.Error(ctx, err.Error())
		return wrapErr(err)
	}

	if len(violations) == 0 {
		return nil
	}

	query := builder().Insert(tableViolations).
		Columns("kind", "unit_id", "detail", "delta")

	for _, v := range violations {
		query = query.Values(v.Kind, v.UnitID, v.Detail, v.Delta)
	}

	if _, err := s.pool.Execx(ctx, query); err != nil {
		logger.Error(ctx, err.Error())
		return wrapErr(err)
	}

	return nil
}

func (s *store) ListViolations(ctx context.Context) ([]*domain.Violation, error) {
	query := builder().Select(violationColumns...).
		From(tableViolations).
		OrderBy("kind, unit_id")

	var selected []*domain.Violation
	if err := s.pool.Selectx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}

	return selected, nil
}
