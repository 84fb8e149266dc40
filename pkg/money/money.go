package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// zeroTolerance is half of the smallest representable cent. Amounts whose
// magnitude falls below it are treated as settled.
const zeroTolerance = 0.005

// Round2 rounds an amount to 2 decimal places, half up.
func Round2(x float64) float64 {
	v, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return v
}

// ClampNonNeg rounds to 2 decimal places and floors negative results at zero.
func ClampNonNeg(x float64) float64 {
	r := Round2(x)
	if r < 0 {
		return 0
	}
	return r
}

// ApproxZero reports whether an amount is zero for settlement purposes.
func ApproxZero(x float64) bool {
	return math.Abs(x) < zeroTolerance
}

// Min returns the smaller of two amounts.
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
