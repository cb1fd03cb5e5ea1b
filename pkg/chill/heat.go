package chill

import "math"

// DefaultHeatBase is the base temperature in °C below which an hour
// contributes no heat.
const DefaultHeatBase = 4.0

// HeatSeries returns the cumulative heat accumulation for an hourly
// temperature sequence: each hour adds max(0, temp - base) degree-hours.
// Hours with missing input yield NaN at that position and do not advance
// the sum.
func HeatSeries(temps []float64, base float64) []float64 {
	out := make([]float64, len(temps))
	sum := 0.0
	for i, t := range temps {
		if math.IsNaN(t) {
			out[i] = math.NaN()
			continue
		}
		if t > base {
			sum += t - base
		}
		out[i] = sum
	}
	return out
}

// TotalHeat returns the final degree-hour sum for a series.
func TotalHeat(temps []float64, base float64) float64 {
	sum := 0.0
	for _, t := range temps {
		if math.IsNaN(t) {
			continue
		}
		if t > base {
			sum += t - base
		}
	}
	return sum
}
