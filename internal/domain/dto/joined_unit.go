package dto

import (
	"fmt"
	"sync"

	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/constants"
)

// JoinedUnit accumulates attribute values for one unit while a join pass
// runs. Each metric+period slot may be written once; a second write is an
// ambiguous join, never an overwrite.
type JoinedUnit struct {
	Unit         *domain.AdministrativeUnit
	Attributes   map[domain.MetricKey]float64
	attributesMx sync.Mutex
}

func NewJoinedUnit(unit *domain.AdministrativeUnit) *JoinedUnit {
	return &JoinedUnit{
		Unit:       unit,
		Attributes: make(map[domain.MetricKey]float64),
	}
}

func (j *JoinedUnit) PutAttribute(metric string, period domain.Period, value float64) error {
	j.attributesMx.Lock()
	defer j.attributesMx.Unlock()

	key := domain.MetricKey{Metric: metric, Period: period}
	if prev, ok := j.Attributes[key]; ok {
		return fmt.Errorf("%w: unit %q already has %s/%s=%v, refusing %v",
			constants.ErrAmbiguousJoin, j.Unit.UnitID, metric, period, prev, value)
	}

	j.Attributes[key] = value
	return nil
}

// Freeze converts the accumulator into the immutable join output.
func (j *JoinedUnit) Freeze() *domain.JoinedRecord {
	j.attributesMx.Lock()
	defer j.attributesMx.Unlock()

	attrs := make(map[domain.MetricKey]float64, len(j.Attributes))
	for k, v := range j.Attributes {
		attrs[k] = v
	}

	return &domain.JoinedRecord{Unit: j.Unit, Attributes: attrs}
}
