package strategy

import (
	"math"

	"github.com/shopspring/decimal"
)

var decTwo = decimal.NewFromInt(2)

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func decToFloat(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

func decimalCompare(a, b float64) int {
	return decFromFloat(a).Cmp(decFromFloat(b))
}

func decimalEqual(a, b float64) bool { return decimalCompare(a, b) == 0 }
func decimalGT(a, b float64) bool    { return decimalCompare(a, b) > 0 }
func decimalLT(a, b float64) bool    { return decimalCompare(a, b) < 0 }

// midpoint computes (low+high)/2 without float drift on prices like 1.0850.
func midpoint(low, high float64) float64 {
	sum := decFromFloat(low).Add(decFromFloat(high))
	return decToFloat(sum.Div(decTwo))
}
