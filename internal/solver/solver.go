// Package solver estimates missing daily Tmin/Tmax values from the hours
// of the surrounding three days where the temperature was actually
// observed. Every observed hour yields one linear equation from the
// diurnal curve model; each unknown is solved by least squares over its
// equation set once enough equations are available.
package solver

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/agroclim/tempseries/internal/diurnal"
	"github.com/agroclim/tempseries/internal/timeseries"
	"github.com/agroclim/tempseries/pkg/solar"
)

// coefficients below this magnitude contribute no usable constraint
const coeffEps = 1e-9

// Params holds the solver's tunable policy.
type Params struct {
	// MinEquations is the reliability threshold: unknowns with fewer
	// equations are deferred to the gap patcher instead of being fit
	// from an under-constrained system.
	MinEquations int
}

// DefaultParams returns the default solver policy.
func DefaultParams() Params {
	return Params{MinEquations: 5}
}

// Unknown identifies one missing daily extreme.
type Unknown struct {
	DayIndex int
	Max      bool
}

// Stats reports what the solver did with each unknown.
type Stats struct {
	// EquationCounts holds the number of usable equations found for each
	// unknown on its final attempt.
	EquationCounts map[Unknown]int
	Solved         int
	Deferred       int
}

// Solve fills as many missing Tmin/Tmax values in daily as the observed
// hours support, mutating daily in place and tagging solved values with
// their residual fit error. Unknowns with fewer than MinEquations usable
// equations, or whose equation set is numerically degenerate, are left
// missing for the patcher.
//
// Values solved in one pass become known predictors in the next, so
// entangled unknowns resolve iteratively; an equation is never used for
// an unknown while another of its variables is still unknown.
func Solve(hourly []timeseries.HourlyRecord, daily []timeseries.DailyExtreme, latitude float64, p Params, logger *zap.SugaredLogger) (*Stats, error) {
	if p.MinEquations < 1 {
		return nil, fmt.Errorf("min equations must be positive, got %d", p.MinEquations)
	}
	if err := timeseries.Aligned(hourly, daily); err != nil {
		return nil, err
	}

	times := make([]solar.Times, len(daily))
	for i, d := range daily {
		t, err := solar.SunTimes(latitude, d.DayOfYear())
		if err != nil {
			return nil, err
		}
		times[i] = t
	}

	stats := &Stats{EquationCounts: make(map[Unknown]int)}

	// Unknowns are attempted in calendar order, Tmin before Tmax, on every
	// pass. Entangled unknowns feed each other's equation sets, so the
	// attempt order must be fixed for the same input to give the same
	// output.
	var pending []Unknown
	for i, d := range daily {
		if timeseries.IsMissing(d.Tmin.Temp) {
			pending = append(pending, Unknown{DayIndex: i, Max: false})
		}
		if timeseries.IsMissing(d.Tmax.Temp) {
			pending = append(pending, Unknown{DayIndex: i, Max: true})
		}
	}

	for progress := true; progress && len(pending) > 0; {
		progress = false
		var remaining []Unknown
		for _, u := range pending {
			coeffs, rhs := collectEquations(u, hourly, daily, times)
			stats.EquationCounts[u] = len(coeffs)
			if len(coeffs) < p.MinEquations {
				remaining = append(remaining, u)
				continue
			}

			value, rms, err := fitLeastSquares(coeffs, rhs)
			if err != nil {
				// Degenerate systems fall through to the patcher,
				// same as having too little data.
				logger.Debugf("day %d %s: %v, deferring to patcher", u.DayIndex, varName(u.Max), err)
				remaining = append(remaining, u)
				continue
			}

			v := timeseries.Value{Temp: value, Source: timeseries.SourceSolved, FitRMS: rms}
			if u.Max {
				daily[u.DayIndex].Tmax = v
			} else {
				daily[u.DayIndex].Tmin = v
			}
			stats.Solved++
			progress = true
			logger.Debugf("day %d %s: solved %.2f from %d equations (rms %.3f)",
				u.DayIndex, varName(u.Max), value, len(coeffs), rms)
		}
		pending = remaining
	}

	stats.Deferred = len(pending)
	if stats.Deferred > 0 {
		logger.Debugf("%d unknowns deferred to the gap patcher", stats.Deferred)
	}
	return stats, nil
}

// collectEquations gathers, from every observed hour in the unknown's day
// and the two adjacent days, the equations in which the unknown appears
// with all other variables already known.
func collectEquations(u Unknown, hourly []timeseries.HourlyRecord, daily []timeseries.DailyExtreme, times []solar.Times) (coeffs, rhs []float64) {
	for j := u.DayIndex - 1; j <= u.DayIndex+1; j++ {
		if j < 0 || j >= len(daily) {
			continue
		}
		prev := times[j]
		if j > 0 {
			prev = times[j-1]
		}
		for h := 0; h < timeseries.HoursPerDay; h++ {
			obs := hourly[j*timeseries.HoursPerDay+h].Temp
			if timeseries.IsMissing(obs) {
				continue
			}
			eq := diurnal.EquationFor(h, times[j], prev)

			target := 0.0
			intercept := eq.Intercept
			usable := true
			for _, term := range eq.Terms {
				day := j + term.DayOffset
				if day == u.DayIndex && term.Max == u.Max {
					target += term.Coeff
					continue
				}
				if day < 0 || day >= len(daily) {
					usable = false
					break
				}
				val := daily[day].Tmin.Temp
				if term.Max {
					val = daily[day].Tmax.Temp
				}
				if timeseries.IsMissing(val) {
					// Another unknown participates; this equation
					// only becomes usable once that one is solved.
					usable = false
					break
				}
				intercept += term.Coeff * val
			}
			if !usable || math.Abs(target) < coeffEps {
				continue
			}
			coeffs = append(coeffs, target)
			rhs = append(rhs, obs-intercept)
		}
	}
	return coeffs, rhs
}

// fitLeastSquares solves the single-unknown over-determined system
// coeffs*x = rhs by QR decomposition, returning the estimate and the
// root-mean-square residual of the fit.
func fitLeastSquares(coeffs, rhs []float64) (float64, float64, error) {
	n := len(coeffs)

	sumSq := 0.0
	for _, c := range coeffs {
		sumSq += c * c
	}
	if sumSq < coeffEps {
		return 0, 0, fmt.Errorf("degenerate equation set (all coefficients near zero)")
	}

	X := mat.NewDense(n, 1, coeffs)
	y := mat.NewVecDense(n, rhs)

	var qr mat.QR
	qr.Factorize(X)

	sol := mat.NewVecDense(1, nil)
	if err := qr.SolveVecTo(sol, false, y); err != nil {
		return 0, 0, fmt.Errorf("least squares solve failed: %w", err)
	}
	x := sol.AtVec(0)

	ss := 0.0
	for i := range coeffs {
		r := rhs[i] - coeffs[i]*x
		ss += r * r
	}
	rms := math.Sqrt(ss / float64(n))

	return x, rms, nil
}

func varName(max bool) string {
	if max {
		return "tmax"
	}
	return "tmin"
}
