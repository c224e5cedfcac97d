package score

import "math"

// TrendAgainst returns chi_trend as the change from a previous score.
// A missing previous score yields 0.
func TrendAgainst(current float64, previous *float64) float64 {
	if previous == nil || math.IsNaN(*previous) {
		return 0
	}
	return Round1(current - *previous)
}

// Round1 rounds to one decimal place, the precision the dashboard displays
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
