// Package numeric holds the decimal rounding used for displayed figures.
package numeric

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// exactDigits is enough fractional digits to print any float64 of magnitude
// at least 2^-12 exactly; anything smaller rounds to zero at one decimal anyway.
const exactDigits = 96

// Round rounds x to places decimal places, half away from zero, on the exact
// binary value of x. 0.25 rounds to 0.3, while 1.15 (stored as 1.1499...) rounds
// to 1.1. NaN and infinities are returned unchanged.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(x, 'f', exactDigits, 64))
	if err != nil {
		return x
	}
	f, _ := d.Round(places).Float64()
	return f
}

// Tenth rounds x to one decimal place.
func Tenth(x float64) float64 { return Round(x, 1) }
