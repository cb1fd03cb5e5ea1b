// Package patch fills daily Tmin/Tmax values the solver could not
// estimate, first from bias-corrected proxy station series in caller
// priority order, then by linear interpolation between the nearest known
// neighbors. Every filled value carries its provenance, and a report
// accounts for each daily value exactly once.
package patch

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/agroclim/tempseries/internal/timeseries"
)

// Params holds the patcher's tunable policy.
type Params struct {
	// Interpolate enables the linear-interpolation fallback after all
	// proxies are exhausted.
	Interpolate bool
	// MinOverlap is the smallest overlap (days with both series known)
	// on which a proxy's bias statistics are considered trustworthy.
	MinOverlap int
}

// DefaultParams returns the default patching policy.
func DefaultParams() Params {
	return Params{Interpolate: true, MinOverlap: 3}
}

// Proxy is a named daily series from another station, used read-only.
type Proxy struct {
	Name    string
	Records []timeseries.DailyRecord
}

// BiasStats describes how one proxy relates to the target series for one
// variable over their overlap period. The mean bias is subtracted from
// proxy values before use; the sd ratio is reported but deliberately not
// corrected, since rescaling variance would distort the daily shape.
type BiasStats struct {
	Overlap  int
	MeanBias float64
	SDRatio  float64
	Filled   int
}

// ProxyStats holds a proxy's bias statistics for both variables.
type ProxyStats struct {
	Name string
	Tmin BiasStats
	Tmax BiasStats
}

// VarCounts tallies the provenance of every daily value of one variable.
type VarCounts struct {
	Observed     int
	Solved       int
	Proxy        map[string]int
	Interpolated int
	StillMissing int
}

// Total returns the sum over all provenance categories.
func (c VarCounts) Total() int {
	n := c.Observed + c.Solved + c.Interpolated + c.StillMissing
	for _, v := range c.Proxy {
		n += v
	}
	return n
}

// Report is the per-run provenance and accuracy summary, read-only after
// creation.
type Report struct {
	Tmin    VarCounts
	Tmax    VarCounts
	Proxies []ProxyStats
}

// Patch fills remaining missing values in daily, mutating it in place, and
// returns the provenance report. Proxies are tried in the given order; a
// lower-priority proxy is only consulted for dates the earlier ones could
// not fill. Values with no proxy coverage and no interpolation anchors
// remain missing and are reported as such.
func Patch(daily []timeseries.DailyExtreme, proxies []Proxy, p Params, logger *zap.SugaredLogger) Report {
	report := Report{
		Tmin: VarCounts{Proxy: make(map[string]int)},
		Tmax: VarCounts{Proxy: make(map[string]int)},
	}

	for _, proxy := range proxies {
		ps := applyProxy(daily, proxy, p, logger)
		report.Proxies = append(report.Proxies, ps)
	}

	if p.Interpolate {
		interpolateVar(daily, false)
		interpolateVar(daily, true)
	}

	for _, d := range daily {
		tally(&report.Tmin, d.Tmin)
		tally(&report.Tmax, d.Tmax)
	}

	if report.Tmin.StillMissing > 0 || report.Tmax.StillMissing > 0 {
		logger.Debugf("patching left %d tmin and %d tmax values missing",
			report.Tmin.StillMissing, report.Tmax.StillMissing)
	}
	return report
}

func tally(c *VarCounts, v timeseries.Value) {
	switch v.Source {
	case timeseries.SourceObserved:
		c.Observed++
	case timeseries.SourceSolved:
		c.Solved++
	case timeseries.SourceProxy:
		c.Proxy[v.Proxy]++
	case timeseries.SourceInterpolated:
		c.Interpolated++
	default:
		c.StillMissing++
	}
}

// applyProxy bias-corrects one proxy against the target and fills every
// still-missing date the proxy covers.
func applyProxy(daily []timeseries.DailyExtreme, proxy Proxy, p Params, logger *zap.SugaredLogger) ProxyStats {
	// Index proxy values by date.
	type date struct{ y, m, d int }
	idx := make(map[date]timeseries.DailyRecord, len(proxy.Records))
	for _, r := range proxy.Records {
		idx[date{r.Year, r.Month, r.Day}] = r
	}

	ps := ProxyStats{Name: proxy.Name}
	for _, max := range []bool{false, true} {
		var targetVals, proxyVals []float64
		for _, d := range daily {
			tv := d.Tmin
			if max {
				tv = d.Tmax
			}
			if timeseries.IsMissing(tv.Temp) {
				continue
			}
			pr, ok := idx[date{d.Year, d.Month, d.Day}]
			if !ok {
				continue
			}
			pv := pr.Tmin
			if max {
				pv = pr.Tmax
			}
			if timeseries.IsMissing(pv) {
				continue
			}
			targetVals = append(targetVals, tv.Temp)
			proxyVals = append(proxyVals, pv)
		}

		stats := BiasStats{Overlap: len(targetVals)}
		if stats.Overlap >= p.MinOverlap {
			stats.MeanBias = stat.Mean(proxyVals, nil) - stat.Mean(targetVals, nil)
			sdTarget := stat.StdDev(targetVals, nil)
			if sdTarget > 0 {
				stats.SDRatio = stat.StdDev(proxyVals, nil) / sdTarget
			} else {
				stats.SDRatio = math.NaN()
			}

			for i := range daily {
				tv := &daily[i].Tmin
				if max {
					tv = &daily[i].Tmax
				}
				if !timeseries.IsMissing(tv.Temp) {
					continue
				}
				pr, ok := idx[date{daily[i].Year, daily[i].Month, daily[i].Day}]
				if !ok {
					continue
				}
				pv := pr.Tmin
				if max {
					pv = pr.Tmax
				}
				if timeseries.IsMissing(pv) {
					continue
				}
				*tv = timeseries.Value{
					Temp:   pv - stats.MeanBias,
					Source: timeseries.SourceProxy,
					Proxy:  proxy.Name,
				}
				stats.Filled++
			}
		} else {
			logger.Debugf("proxy %s: overlap %d below minimum %d for %s, skipping",
				proxy.Name, stats.Overlap, p.MinOverlap, varName(max))
		}

		if max {
			ps.Tmax = stats
		} else {
			ps.Tmin = stats
		}
	}
	return ps
}

// interpolateVar fills interior missing runs of one variable linearly
// between the nearest earlier and later known values. Leading and
// trailing runs have no anchor on one side and stay missing.
func interpolateVar(daily []timeseries.DailyExtreme, max bool) {
	get := func(i int) *timeseries.Value {
		if max {
			return &daily[i].Tmax
		}
		return &daily[i].Tmin
	}

	prevKnown := -1
	for i := 0; i < len(daily); i++ {
		if timeseries.IsMissing(get(i).Temp) {
			continue
		}
		if prevKnown >= 0 && i-prevKnown > 1 {
			lo := get(prevKnown).Temp
			hi := get(i).Temp
			span := float64(i - prevKnown)
			for j := prevKnown + 1; j < i; j++ {
				f := float64(j-prevKnown) / span
				*get(j) = timeseries.Value{
					Temp:   lo + f*(hi-lo),
					Source: timeseries.SourceInterpolated,
				}
			}
		}
		prevKnown = i
	}
}

func varName(max bool) string {
	if max {
		return "tmax"
	}
	return "tmin"
}
