package loyalty

import (
	"github.com/shopspring/decimal"
)

// Calculator converts purchase subtotals into earned SPIRALS.
type Calculator struct {
	baseRate decimal.Decimal
}

// NewCalculator creates a calculator with the given base rate (SPIRALs per
// $1 of subtotal). An unparsable rate falls back to 1.
func NewCalculator(baseRate string) *Calculator {
	rate, err := decimal.NewFromString(baseRate)
	if err != nil || rate.IsNegative() {
		rate = one
	}
	return &Calculator{baseRate: rate}
}

// Earned returns floor(subtotalDollars * baseRate * multiplier).
// Fractional SPIRALs are never issued: 9.99 at 1x earns 9 points, not 10.
// A zero subtotal earns zero points.
func (c *Calculator) Earned(subtotalDollars, multiplier decimal.Decimal) int64 {
	return subtotalDollars.Mul(c.baseRate).Mul(multiplier).Floor().IntPart()
}
