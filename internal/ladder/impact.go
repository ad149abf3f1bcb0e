package ladder

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var bpsScale = decimal.NewFromInt(10000)

// ImpactBps computes the signed impact, in basis points, of a unit rate
// observed at size against the baseline unit rate:
//
//	(baseline / atSize - 1) * 10000
//
// Positive means the price is worse at size (the baseline buys more per
// unit). Defined only when both rates are positive; otherwise nil — an
// unmeasurable rung is absent, never zero.
func ImpactBps(baseline, atSize decimal.Decimal) *decimal.Decimal {
	if !baseline.IsPositive() || !atSize.IsPositive() {
		return nil
	}
	v := baseline.Div(atSize).Sub(decimal.NewFromInt(1)).Mul(bpsScale)
	return &v
}

// toBaseUnits converts a human-readable token amount to a raw integer unit
// string. Truncates toward zero: rounding a sell amount up could exceed a
// real balance.
func toBaseUnits(amount decimal.Decimal, decimals int) (string, error) {
	units := amount.Shift(int32(decimals)).Truncate(0)
	if units.IsNegative() {
		return "", fmt.Errorf("negative amount %s", amount)
	}
	return units.String(), nil
}

// bpsFloat converts an exact impact value to the nullable float stored on a
// point.
func bpsFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}
