// Package reconstruct turns a gap-ridden hourly temperature series into a
// continuous one. The daily extremes are completed first (solver, then
// proxy patcher), the idealized diurnal curve is evaluated everywhere,
// and the observed-minus-idealized residual is linearly interpolated
// across the gaps and added back. Interpolating the residual rather than
// the raw temperature preserves the diurnal shape through gaps instead of
// drawing straight lines through them.
package reconstruct

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/agroclim/tempseries/internal/diurnal"
	"github.com/agroclim/tempseries/internal/patch"
	"github.com/agroclim/tempseries/internal/solver"
	"github.com/agroclim/tempseries/internal/timeseries"
	"github.com/agroclim/tempseries/pkg/solar"
)

// HourSource tags where each hour of the output series came from.
type HourSource int

const (
	// HourMissing marks hours whose day's extremes could not be
	// completed, leaving no curve to reconstruct from.
	HourMissing HourSource = iota
	// HourObserved marks hours carried through from the input.
	HourObserved
	// HourReconstructed marks hours rebuilt from the idealized curve
	// plus an interpolated residual.
	HourReconstructed
	// HourCurveOnly marks hours in unanchored gap runs where the
	// residual falls back to zero and the idealized curve stands alone.
	HourCurveOnly
)

// String returns the source label used in reports and storage.
func (s HourSource) String() string {
	switch s {
	case HourObserved:
		return "observed"
	case HourReconstructed:
		return "reconstructed"
	case HourCurveOnly:
		return "curve_only"
	default:
		return "still_missing"
	}
}

// Options bundles the tunable policies of the pipeline stages.
type Options struct {
	Solver solver.Params
	Patch  patch.Params
}

// DefaultOptions returns the default pipeline policies.
func DefaultOptions() Options {
	return Options{
		Solver: solver.DefaultParams(),
		Patch:  patch.DefaultParams(),
	}
}

// Result is the output of one reconstruction run.
type Result struct {
	// Hourly is the reconstructed series, full except for hours tagged
	// HourMissing.
	Hourly []timeseries.HourlyRecord
	// Sources tags every hour of Hourly with its origin.
	Sources []HourSource
	// Daily is the completed daily-extremes container with provenance.
	Daily []timeseries.DailyExtreme
	// SolverStats reports per-unknown equation counts.
	SolverStats *solver.Stats
	// Report is the patcher's provenance and bias summary.
	Report patch.Report
}

// Reconstruct runs the full pipeline. The daily series may be nil when
// only hourly data exists; days whose 24 hours are all observed
// contribute their extremes directly. Proxies are consulted in order for
// daily values the solver cannot constrain.
func Reconstruct(hourly []timeseries.HourlyRecord, dailyRecords []timeseries.DailyRecord, latitude float64, proxies []patch.Proxy, opts Options, logger *zap.SugaredLogger) (*Result, error) {
	if latitude <= -90 || latitude >= 90 {
		return nil, fmt.Errorf("latitude %.4f outside valid range (-90, 90)", latitude)
	}
	if err := timeseries.ValidateHourly(hourly); err != nil {
		return nil, fmt.Errorf("invalid hourly series: %w", err)
	}

	var daily []timeseries.DailyExtreme
	if dailyRecords != nil {
		if err := timeseries.ValidateDaily(dailyRecords); err != nil {
			return nil, fmt.Errorf("invalid daily series: %w", err)
		}
		daily = timeseries.NewDailyExtremes(dailyRecords)
	} else {
		daily = timeseries.EmptyDaily(hourly)
	}
	if err := timeseries.Aligned(hourly, daily); err != nil {
		return nil, err
	}

	fillFromCompleteDays(hourly, daily)

	stats, err := solver.Solve(hourly, daily, latitude, opts.Solver, logger)
	if err != nil {
		return nil, fmt.Errorf("daily-extreme solve failed: %w", err)
	}
	logger.Debugf("solver: %d solved, %d deferred", stats.Solved, stats.Deferred)

	report := patch.Patch(daily, proxies, opts.Patch, logger)

	out, sources := interpolateResiduals(hourly, daily, latitude)

	return &Result{
		Hourly:      out,
		Sources:     sources,
		Daily:       daily,
		SolverStats: stats,
		Report:      report,
	}, nil
}

// fillFromCompleteDays sets missing daily extremes from days whose hourly
// record is fully observed; those values need no estimation at all.
func fillFromCompleteDays(hourly []timeseries.HourlyRecord, daily []timeseries.DailyExtreme) {
	for i := range daily {
		if !timeseries.IsMissing(daily[i].Tmin.Temp) && !timeseries.IsMissing(daily[i].Tmax.Temp) {
			continue
		}
		lo, hi := hourly[i*timeseries.HoursPerDay].Temp, hourly[i*timeseries.HoursPerDay].Temp
		complete := true
		for h := 0; h < timeseries.HoursPerDay; h++ {
			t := hourly[i*timeseries.HoursPerDay+h].Temp
			if timeseries.IsMissing(t) {
				complete = false
				break
			}
			if t < lo {
				lo = t
			}
			if t > hi {
				hi = t
			}
		}
		if !complete {
			continue
		}
		if timeseries.IsMissing(daily[i].Tmin.Temp) {
			daily[i].Tmin = timeseries.Value{Temp: lo, Source: timeseries.SourceObserved}
		}
		if timeseries.IsMissing(daily[i].Tmax.Temp) {
			daily[i].Tmax = timeseries.Value{Temp: hi, Source: timeseries.SourceObserved}
		}
	}
}

// interpolateResiduals evaluates the idealized curve for every hour,
// interpolates the observed-minus-idealized residual across gaps, and
// assembles the final series.
func interpolateResiduals(hourly []timeseries.HourlyRecord, daily []timeseries.DailyExtreme, latitude float64) ([]timeseries.HourlyRecord, []HourSource) {
	n := len(hourly)
	ideal := idealSeries(daily, latitude)

	// Residuals exist only at hours that are both observed and covered
	// by a computable curve.
	residual := make([]float64, n)
	anchored := make([]bool, n)
	for i := range hourly {
		if timeseries.IsMissing(hourly[i].Temp) || timeseries.IsMissing(ideal[i]) {
			residual[i] = timeseries.Missing()
			continue
		}
		residual[i] = hourly[i].Temp - ideal[i]
		anchored[i] = true
	}

	// Nearest anchor on each side of every hour.
	prevAnchor := make([]int, n)
	last := -1
	for i := 0; i < n; i++ {
		if anchored[i] {
			last = i
		}
		prevAnchor[i] = last
	}
	nextAnchor := make([]int, n)
	next := -1
	for i := n - 1; i >= 0; i-- {
		if anchored[i] {
			next = i
		}
		nextAnchor[i] = next
	}

	out := make([]timeseries.HourlyRecord, n)
	sources := make([]HourSource, n)
	copy(out, hourly)

	for i := 0; i < n; i++ {
		if !timeseries.IsMissing(hourly[i].Temp) {
			sources[i] = HourObserved
			continue
		}
		if timeseries.IsMissing(ideal[i]) {
			out[i].Temp = timeseries.Missing()
			sources[i] = HourMissing
			continue
		}

		lo, hi := prevAnchor[i], nextAnchor[i]
		if lo >= 0 && hi >= 0 {
			f := float64(i-lo) / float64(hi-lo)
			r := residual[lo] + f*(residual[hi]-residual[lo])
			out[i].Temp = ideal[i] + r
			sources[i] = HourReconstructed
		} else {
			// Unanchored leading or trailing run: residual zero,
			// the idealized curve stands alone.
			out[i].Temp = ideal[i]
			sources[i] = HourCurveOnly
		}
	}
	return out, sources
}

// idealSeries evaluates the diurnal curve at every hour from the
// completed daily extremes. Boundary days reuse their own extremes in
// place of the day outside the series. Hours whose referenced extremes
// are still missing yield a missing idealized value.
func idealSeries(daily []timeseries.DailyExtreme, latitude float64) []float64 {
	times := make([]solar.Times, len(daily))
	for i, d := range daily {
		// Validity was established before the pipeline ran.
		t, _ := solar.SunTimes(latitude, d.DayOfYear())
		times[i] = t
	}

	clamp := func(i int) int {
		if i < 0 {
			return 0
		}
		if i >= len(daily) {
			return len(daily) - 1
		}
		return i
	}

	extreme := func(day int, max bool) float64 {
		d := daily[clamp(day)]
		if max {
			return d.Tmax.Temp
		}
		return d.Tmin.Temp
	}

	ideal := make([]float64, len(daily)*timeseries.HoursPerDay)
	for i := range daily {
		prev := times[clamp(i-1)]
		for h := 0; h < timeseries.HoursPerDay; h++ {
			idx := i*timeseries.HoursPerDay + h
			eq := diurnal.EquationFor(h, times[i], prev)
			v := eq.Intercept
			for _, term := range eq.Terms {
				x := extreme(i+term.DayOffset, term.Max)
				if timeseries.IsMissing(x) {
					v = timeseries.Missing()
					break
				}
				v += term.Coeff * x
			}
			ideal[idx] = v
		}
	}
	return ideal
}
