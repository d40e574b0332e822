package store

import (
	"context"

	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/store/xpgx"
)

type Pool = xpgx.Pool

type Store interface {
	UpsertUnit(ctx context.Context, unit *domain.AdministrativeUnit) (*domain.AdministrativeUnit, error)
	ListUnits(ctx context.Context, opts ListUnitsOpts) ([]*domain.AdministrativeUnit, error)
	GetUnitByID(ctx context.Context, unitID string) (*domain.AdministrativeUnit, error)
	ListUnitsMissingNames(ctx context.Context) ([]*domain.AdministrativeUnit, error)
	UpdateUnitNames(ctx context.Context, unitID, nameAr, nameEn string) error

	UpsertAttributes(ctx context.Context, rows []*domain.AttributeRecord) error
	UpsertRates(ctx context.Context, rates []*domain.DerivedRate) error
	ListRatesByUnitID(ctx context.Context, unitID string) ([]*domain.DerivedRate, error)

	ReplaceViolations(ctx context.Context, violations []domain.Violation) error
	ListViolations(ctx context.Context) ([]*domain.Violation, error)
}

type store struct {
	pool Pool
}

func NewStore(pool Pool) Store {
	return &store{pool}
}
