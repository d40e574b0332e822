package rate

import (
	"fmt"
	"math"

	"github.com/openjordan/healthatlas/internal/domain"
	"github.com/openjordan/healthatlas/internal/pkg/constants"
	"github.com/shopspring/decimal"
)

var per100k = decimal.NewFromInt(100000)

// AgeBand is one stratum of a direct standardization: the unit's cases and
// population inside the band, and the band's share of the reference
// population.
type AgeBand struct {
	Cases      float64
	Population float64
	Weight     float64
}

// Calculator derives per-100k rates with a uniform rounding policy. Mixed
// precision across districts would distort comparisons, so one Calculator is
// shared by a whole run.
type Calculator struct {
	decimals int32
}

func NewCalculator(decimals int32) *Calculator {
	return &Calculator{decimals: decimals}
}

// Crude computes cases/population*100000, rounded. A zero, negative, or NaN
// population has no defined rate: the error is returned, never a zero rate.
func (c *Calculator) Crude(cases, population float64) (float64, error) {
	if err := checkInputs(cases, population); err != nil {
		return 0, err
	}

	rate := decimal.NewFromFloat(cases).
		Div(decimal.NewFromFloat(population)).
		Mul(per100k).
		Round(c.decimals)

	return rate.InexactFloat64(), nil
}

// Adjusted computes a direct age-standardized rate: the weighted sum of the
// band-specific rates, weights normalized to sum to one.
func (c *Calculator) Adjusted(bands []AgeBand) (float64, error) {
	if len(bands) == 0 {
		return 0, fmt.Errorf("%w: no age bands", constants.ErrMissingPopulation)
	}

	weightSum := decimal.Decimal{}
	for _, band := range bands {
		weightSum = weightSum.Add(decimal.NewFromFloat(band.Weight))
	}
	if !weightSum.IsPositive() {
		return 0, fmt.Errorf("%w: age band weights sum to %s", constants.ErrMissingPopulation, weightSum)
	}

	total := decimal.Decimal{}
	for i, band := range bands {
		if err := checkInputs(band.Cases, band.Population); err != nil {
			return 0, fmt.Errorf("age band %d: %w", i, err)
		}

		bandRate := decimal.NewFromFloat(band.Cases).
			Div(decimal.NewFromFloat(band.Population)).
			Mul(per100k)
		total = total.Add(bandRate.Mul(decimal.NewFromFloat(band.Weight)))
	}

	return total.Div(weightSum).Round(c.decimals).InexactFloat64(), nil
}

// Derive builds the DerivedRate for one unit and disease. With age bands the
// rate is standardized and marked adjusted; without them the crude rate is
// returned with Adjusted=false, so consumers can always tell the two apart.
func (c *Calculator) Derive(unitID, disease string, period domain.Period, cases, population float64, bands []AgeBand) (*domain.DerivedRate, error) {
	derived := &domain.DerivedRate{
		UnitID:      unitID,
		DiseaseName: disease,
		Period:      period,
		Cases:       cases,
		Population:  population,
	}

	if len(bands) == 0 {
		rate, err := c.Crude(cases, population)
		if err != nil {
			return nil, fmt.Errorf("disease %q, unit %q: %w", disease, unitID, err)
		}
		derived.RatePer100k = rate
		return derived, nil
	}

	rate, err := c.Adjusted(bands)
	if err != nil {
		return nil, fmt.Errorf("disease %q, unit %q: %w", disease, unitID, err)
	}
	derived.RatePer100k = rate
	derived.Adjusted = true
	return derived, nil
}

func checkInputs(cases, population float64) error {
	if cases < 0 || math.IsNaN(cases) {
		return fmt.Errorf("%w: %v", constants.ErrNegativeCases, cases)
	}
	if population <= 0 || math.IsNaN(population) {
		return fmt.Errorf("%w: %v", constants.ErrMissingPopulation, population)
	}
	return nil
}
