package loyalty_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/spiralshops/spiral-api/internal/domain/loyalty"
)

func TestEarnedTruncates(t *testing.T) {
	c := loyalty.NewCalculator("1")

	cases := []struct {
		name       string
		subtotal   string
		multiplier string
		want       int64
	}{
		{"9.99 truncates to 9", "9.99", "1", 9},
		{"10.00 at 2x earns 20", "10.00", "2", 20},
		{"zero subtotal earns nothing", "0", "5", 0},
		{"fractional multiplier floors", "10", "1.5", 15},
		{"fraction from both sides floors", "9.99", "1.5", 14},
		{"sub-dollar purchase earns nothing at 1x", "0.99", "1", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			subtotal, _ := decimal.NewFromString(tc.subtotal)
			multiplier, _ := decimal.NewFromString(tc.multiplier)
			if got := c.Earned(subtotal, multiplier); got != tc.want {
				t.Fatalf("Earned(%s, %s) = %d, want %d", tc.subtotal, tc.multiplier, got, tc.want)
			}
		})
	}
}

func TestCalculatorBaseRate(t *testing.T) {
	// 1 SPIRAL per $5.
	c := loyalty.NewCalculator("0.2")
	subtotal := decimal.NewFromInt(25)
	if got := c.Earned(subtotal, decimal.NewFromInt(1)); got != 5 {
		t.Fatalf("expected 5 points at 0.2 rate, got %d", got)
	}
}

func TestCalculatorBadRateFallsBack(t *testing.T) {
	c := loyalty.NewCalculator("not-a-number")
	if got := c.Earned(decimal.NewFromInt(10), decimal.NewFromInt(1)); got != 10 {
		t.Fatalf("expected fallback rate of 1, got %d points", got)
	}
}
