// Package chill provides agroclimatic accumulation models over hourly
// temperature series: the Dynamic Model for winter chill portions, the
// classic chilling-hours count, the Utah weighted-hours model, and
// linear heat accumulation. All models fold an explicit state through
// the series in calendar order; hours with missing input propagate a
// missing output for that hour without perturbing the state, so gaps
// never silently zero-fill a cumulative sum.
package chill

import (
	"math"
)

// Dynamic Model rate constants (Fishman/Erez two-step kinetics).
const (
	dynE0     = 4153.5
	dynE1     = 12888.8
	dynA0     = 139500.0
	dynA1     = 2.567e18
	dynSlope  = 1.6
	dynTmelt  = 277.0
	kelvin    = 273.0
	completed = 1.0 // intermediate level at which a portion is credited
)

// DynamicState is the kinetic state of the Dynamic Model, threaded
// through the hourly fold. The zero value is the correct initial state.
type DynamicState struct {
	inter    float64 // intermediate product concentration
	xiPrev   float64 // previous hour's conversion fraction
	Portions float64 // cumulative chill portions
}

// Step advances the state by one hour at the given temperature in °C and
// returns the updated state. Each hour's transfer depends on the
// previous hour's state, so the fold cannot be reordered.
func (s DynamicState) Step(tempC float64) DynamicState {
	tk := tempC + kelvin

	ftmprt := dynSlope * dynTmelt * (tk - dynTmelt) / tk
	sr := math.Exp(ftmprt)
	xi := sr / (1 + sr)
	xs := (dynA0 / dynA1) * math.Exp((dynE1-dynE0)/tk)
	ak1 := dynA1 * math.Exp(-dynE1/tk)

	// When the intermediate passed the completion level last hour, the
	// resetting reaction converts part of it into one portion's worth
	// of product and the remainder carries over.
	interS := s.inter
	if s.inter >= completed {
		interS = s.inter - s.inter*s.xiPrev
	}

	interE := xs - (xs-interS)*math.Exp(-ak1)

	next := DynamicState{inter: interE, xiPrev: xi, Portions: s.Portions}
	if interE >= completed {
		next.Portions += xi * interE
	}
	return next
}

// ChillPortions returns the cumulative chill-portion series for an hourly
// temperature sequence. Output hour i is the total after hour i; hours
// with missing input yield NaN at that position and leave the kinetic
// state untouched.
func ChillPortions(temps []float64) []float64 {
	out := make([]float64, len(temps))
	var state DynamicState
	for i, t := range temps {
		if math.IsNaN(t) {
			out[i] = math.NaN()
			continue
		}
		state = state.Step(t)
		out[i] = state.Portions
	}
	return out
}

// TotalChillPortions returns the final chill-portion count for a series.
func TotalChillPortions(temps []float64) float64 {
	var state DynamicState
	for _, t := range temps {
		if math.IsNaN(t) {
			continue
		}
		state = state.Step(t)
	}
	return state.Portions
}

// ChillingHours counts hours with temperatures between 0 and 7.2 °C
// inclusive, the classic Weinberger chilling-hours definition. Missing
// hours are skipped.
func ChillingHours(temps []float64) float64 {
	n := 0.0
	for _, t := range temps {
		if math.IsNaN(t) {
			continue
		}
		if t > 0 && t <= 7.2 {
			n++
		}
	}
	return n
}

// UtahChillUnits accumulates the Utah Model's weighted chill units.
// Missing hours are skipped.
func UtahChillUnits(temps []float64) float64 {
	sum := 0.0
	for _, t := range temps {
		if math.IsNaN(t) {
			continue
		}
		sum += utahWeight(t)
	}
	return sum
}

func utahWeight(t float64) float64 {
	switch {
	case t <= 1.4:
		return 0
	case t <= 2.4:
		return 0.5
	case t <= 9.1:
		return 1
	case t <= 12.4:
		return 0.5
	case t <= 15.9:
		return 0
	case t <= 18.0:
		return -0.5
	default:
		return -1
	}
}
