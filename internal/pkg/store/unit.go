package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/bytedance/sonic"
	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/logger"
)

var unitColumns = []string{"unit_id", "level", "parent_id", "name_ar", "name_en", "external_id", "geometry", "created_at", "updated_at"}

type ListUnitsOpts struct {
	Level *domain.Level
}

func (s *store) UpsertUnit(ctx context.Context, unit *domain.AdministrativeUnit) (*domain.AdministrativeUnit, error) {
	geometryJSON, err := sonic.Marshal(unit.Geometry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal geometry: %w", err)
	}

	query := builder().Insert(tableUnits).
		Columns("unit_id", "level", "parent_id", "name_ar", "name_en", "external_id", "geometry").
		Values(unit.UnitID, unit.Level, unit.ParentID, unit.NameAr, unit.NameEn, unit.ExternalID, geometryJSON).
		Suffix(`
on conflict (unit_id)
do update
set
	parent_id = excluded.parent_id,
	name_ar = excluded.name_ar,
	name_en = excluded.name_en,
	external_id = excluded.external_id,
	geometry = excluded.geometry,
	updated_at = now()`)

	if _, err := s.pool.Execx(ctx, query); err != nil {
		logger.Errorf(ctx, "UpsertUnit: %s", err.Error())
		return nil, wrapErr(err)
	}

	selectQuery := builder().Select(unitColumns...).
		From(tableUnits).
		Where(sq.Eq{"unit_id": unit.UnitID})

	var selected domain.AdministrativeUnit
	if err := s.pool.Getx(ctx, &selected, selectQuery); err != nil {
		return nil, wrapErr(err)
	}

	return &selected, nil
}

func (s *store) ListUnits(ctx context.Context, opts ListUnitsOpts) ([]*domain.AdministrativeUnit, error) {
	query := builder().Select(unitColumns...).
		From(tableUnits).
		OrderBy("level, name_en")

	if opts.Level != nil {
		query = query.Where(sq.Eq{"level": *opts.Level})
	}

	var selected []*domain.AdministrativeUnit
	if err := s.pool.Selectx(ctx, &selected, query); err != nil {
		logger.Error(ctx, err.Error())
		return nil, wrapErr(err)
	}

	return selected, nil
}

func (s *store) GetUnitByID(ctx context.Context, unitID string) (*domain.AdministrativeUnit, error) {
	query := builder().Select(unitColumns...).
		From(tableUnits).
		Where(sq.Eq{"unit_id": unitID})

	var selected domain.AdministrativeUnit
	if err := s.pool.Getx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}

	return &selected, nil
}

func (s *store) ListUnitsMissingNames(ctx context.Context) ([]*domain.AdministrativeUnit, error) {
	query := builder().Select(unitColumns...).
		From(tableUnits).
		Where(sq.NotEq{"external_id": ""}).
		Where(sq.Or{sq.Eq{"name_ar": ""}, sq.Eq{"name_en": ""}})

	var selected []*domain.AdministrativeUnit
	if err := s.pool.Selectx(ctx, &selected, query); err != nil {
		return nil, wrapErr(err)
	}

	return selected, nil
}

func (s *store) UpdateUnitNames(ctx context.Context, unitID, nameAr, nameEn string) error {
	query := builder().Update(tableUnits).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"unit_id": unitID})

	if nameAr != "" {
		query = query.Set("name_ar", nameAr)
	}
	if nameEn != "" {
		query = query.Set("name_en", nameEn)
	}

	if _, err := s.pool.Execx(ctx, query); err != nil {
		logger.Errorf(ctx, "UpdateUnitNames, unit_id-%s: %s", unitID, err.Error())
		return wrapErr(err)
	}

	return nil
}
