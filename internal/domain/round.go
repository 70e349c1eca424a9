package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
