package usecase

import (
	"math"

	"github.com/pharmaprocure/backend/internal/domain"
)

// CostService computes the comparable cost numbers for a supplier offer.
// It is stateless; every call is a pure function of its inputs.
type CostService struct{}

// NewCostService creates a new cost service
func NewCostService() *CostService {
	return &CostService{}
}

// Normalize combines price, pack size text and bonus text into an effective
// pack price and a normalized per-unit cost, both rounded to 4 decimal
// places. The rounded values are the authoritative comparison figures;
// downstream sorting must not re-derive them from raw inputs.
//
// A negative price is the one reportable error: unparseable pack or bonus
// text falls back to its documented default instead.
func (c *CostService) Normalize(price float64, packSizeText, bonusText string) (domain.CostResult, error) {
	if price < 0 {
		return domain.CostResult{}, domain.ErrNegativePrice
	}

	packSize := ParsePackSize(packSizeText)
	multiplier := InterpretBonus(bonusText)

	effective := round4(price * multiplier)
	normalized := round4(effective / float64(max(1, packSize)))

	return domain.CostResult{
		EffectiveUnitPrice: effective,
		NormalizedUnitCost: normalized,
	}, nil
}

// round4 rounds to 4 decimal places, the output precision for all cost
// comparison across suppliers.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
