// Package diurnal implements the idealized diurnal temperature curve:
// a sine climb from the morning minimum through the afternoon maximum
// while the sun is up, and a logarithmic decay from the sunset
// temperature toward the next morning's minimum overnight. Each hour's
// idealized temperature is linear in the surrounding daily extremes, so
// the model has a dual form that emits the coefficients instead of the
// value, for use by the least-squares solver.
package diurnal

import (
	"math"

	"github.com/agroclim/tempseries/pkg/solar"
)

// The sine segment spans daylength+4 hours so the curve peaks a fixed
// two hours after solar noon rather than at noon itself.
const maxLagHours = 4.0

// Term is one daily-extreme variable participating in an hour's equation.
// DayOffset is relative to the day the hour belongs to: -1 previous day,
// 0 same day, +1 next day.
type Term struct {
	DayOffset int
	Max       bool
	Coeff     float64
}

// Equation expresses one hour's idealized temperature as
// intercept + sum(coeff * extreme) over its terms.
type Equation struct {
	Intercept float64
	Terms     []Term
}

// EquationFor returns the linear form of the idealized temperature at the
// given hour of a day with sun times today, where prev holds the previous
// day's sun times (used for the pre-sunrise decay segment).
//
// Segment assignment: hour < sunrise is pre-dawn, sunrise <= hour <= sunset
// is daytime, hour > sunset is evening. The closed daytime interval keeps
// boundary hours from being assigned twice.
func EquationFor(hour int, today, prev solar.Times) Equation {
	h := float64(hour)

	switch {
	case h < today.Sunrise:
		// Pre-dawn: decay from the previous day's sunset temperature
		// toward today's minimum.
		frac := nightFraction(h+24.0-prev.Sunset, 24.0-prev.Daylength)
		sunsetWeight := sunsetSine(prev.Daylength)
		return Equation{
			Terms: []Term{
				{DayOffset: -1, Max: false, Coeff: (1 - frac) * (1 - sunsetWeight)},
				{DayOffset: -1, Max: true, Coeff: (1 - frac) * sunsetWeight},
				{DayOffset: 0, Max: false, Coeff: frac},
			},
		}
	case h <= today.Sunset:
		// Daytime: sine interpolation between today's extremes.
		s := math.Sin(math.Pi * (h - today.Sunrise) / (today.Daylength + maxLagHours))
		return Equation{
			Terms: []Term{
				{DayOffset: 0, Max: false, Coeff: 1 - s},
				{DayOffset: 0, Max: true, Coeff: s},
			},
		}
	default:
		// Evening: decay from today's sunset temperature toward the
		// next day's minimum.
		frac := nightFraction(h-today.Sunset, 24.0-today.Daylength)
		sunsetWeight := sunsetSine(today.Daylength)
		return Equation{
			Terms: []Term{
				{DayOffset: 0, Max: false, Coeff: (1 - frac) * (1 - sunsetWeight)},
				{DayOffset: 0, Max: true, Coeff: (1 - frac) * sunsetWeight},
				{DayOffset: 1, Max: false, Coeff: frac},
			},
		}
	}
}

// sunsetSine is the sine weight at the moment of sunset, which defines the
// sunset temperature as a mix of the day's extremes.
func sunsetSine(daylength float64) float64 {
	return math.Sin(math.Pi * daylength / (daylength + maxLagHours))
}

// nightFraction maps hours-since-sunset onto [0, 1] along a logarithmic
// decay that reaches 1 at the next sunrise.
func nightFraction(sinceSunset, nightLen float64) float64 {
	if nightLen <= 0 {
		return 1.0
	}
	if sinceSunset < 0 {
		sinceSunset = 0
	}
	frac := math.Log(sinceSunset+1.0) / math.Log(nightLen+1.0)
	if frac > 1.0 {
		frac = 1.0
	}
	return frac
}

// Evaluate computes the equation's value given a lookup for the daily
// extremes it references.
func (e Equation) Evaluate(extreme func(dayOffset int, max bool) float64) float64 {
	v := e.Intercept
	for _, t := range e.Terms {
		v += t.Coeff * extreme(t.DayOffset, t.Max)
	}
	return v
}

// IdealTemp returns the idealized temperature at an hour of the day given
// the surrounding daily extremes and the day's (and previous day's) sun
// times. This is the value form of EquationFor.
func IdealTemp(hour int, tminPrev, tmaxPrev, tmin, tmax, tminNext float64, today, prev solar.Times) float64 {
	eq := EquationFor(hour, today, prev)
	return eq.Evaluate(func(dayOffset int, max bool) float64 {
		switch {
		case dayOffset < 0 && max:
			return tmaxPrev
		case dayOffset < 0:
			return tminPrev
		case dayOffset > 0:
			return tminNext
		case max:
			return tmax
		default:
			return tmin
		}
	})
}
