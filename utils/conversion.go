package utils

import "math"

// RoundMoney rounds an amount to two decimal places.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ClampMoney bounds v to [0, max].
func ClampMoney(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
