package solver

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/agroclim/tempseries/internal/diurnal"
	"github.com/agroclim/tempseries/internal/timeseries"
	"github.com/agroclim/tempseries/pkg/solar"
)

const testLatitude = 40.0

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// buildSeries generates a calendar-complete hourly series that follows the
// idealized curve exactly for the given daily extremes, starting June 1.
func buildSeries(t *testing.T, extremes [][2]float64) ([]timeseries.HourlyRecord, []timeseries.DailyExtreme) {
	t.Helper()
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	n := len(extremes)
	daily := make([]timeseries.DailyExtreme, n)
	times := make([]solar.Times, n)
	for i := 0; i < n; i++ {
		date := start.AddDate(0, 0, i)
		st, err := solar.SunTimes(testLatitude, date.YearDay())
		if err != nil {
			t.Fatalf("sun times: %v", err)
		}
		times[i] = st
		daily[i] = timeseries.DailyExtreme{
			Year:  date.Year(),
			Month: int(date.Month()),
			Day:   date.Day(),
			Tmin:  timeseries.Value{Temp: extremes[i][0], Source: timeseries.SourceObserved},
			Tmax:  timeseries.Value{Temp: extremes[i][1], Source: timeseries.SourceObserved},
		}
	}

	clamp := func(i int) int {
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}

	hourly := make([]timeseries.HourlyRecord, n*timeseries.HoursPerDay)
	for i := 0; i < n; i++ {
		for h := 0; h < timeseries.HoursPerDay; h++ {
			temp := diurnal.IdealTemp(h,
				extremes[clamp(i-1)][0], extremes[clamp(i-1)][1],
				extremes[i][0], extremes[i][1],
				extremes[clamp(i+1)][0],
				times[i], times[clamp(i-1)])
			hourly[i*timeseries.HoursPerDay+h] = timeseries.HourlyRecord{
				Year:  daily[i].Year,
				Month: daily[i].Month,
				Day:   daily[i].Day,
				Hour:  h,
				Temp:  temp,
			}
		}
	}
	return hourly, daily
}

func markMissing(d *timeseries.DailyExtreme, max bool) {
	v := timeseries.Value{Temp: timeseries.Missing(), Source: timeseries.SourceMissing}
	if max {
		d.Tmax = v
	} else {
		d.Tmin = v
	}
}

func TestSolveRecoversExtremes(t *testing.T) {
	extremes := [][2]float64{{10, 24}, {12, 26}, {11, 25}, {9, 23}, {13, 27}}
	hourly, daily := buildSeries(t, extremes)

	// Hide the middle day's extremes; every hour is still observed, so
	// the system is heavily over-determined.
	markMissing(&daily[2], false)
	markMissing(&daily[2], true)

	stats, err := Solve(hourly, daily, testLatitude, DefaultParams(), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Solved != 2 || stats.Deferred != 0 {
		t.Fatalf("solved %d deferred %d, expected 2 and 0", stats.Solved, stats.Deferred)
	}

	if math.Abs(daily[2].Tmin.Temp-11.0) > 1e-6 {
		t.Errorf("tmin recovered as %.4f, expected 11", daily[2].Tmin.Temp)
	}
	if math.Abs(daily[2].Tmax.Temp-25.0) > 1e-6 {
		t.Errorf("tmax recovered as %.4f, expected 25", daily[2].Tmax.Temp)
	}
	if daily[2].Tmin.Source != timeseries.SourceSolved || daily[2].Tmax.Source != timeseries.SourceSolved {
		t.Errorf("solved values not tagged as solved: %v, %v", daily[2].Tmin.Source, daily[2].Tmax.Source)
	}
	if daily[2].Tmin.FitRMS > 1e-6 {
		t.Errorf("noise-free fit has rms %.2e, expected ~0", daily[2].Tmin.FitRMS)
	}
}

func TestSolveEntangledUnknowns(t *testing.T) {
	// Adjacent days with missing extremes share equations. Coordinate
	// iteration must resolve them without treating the overlap as
	// circular.
	extremes := [][2]float64{{10, 24}, {12, 26}, {11, 25}, {9, 23}, {13, 27}}
	hourly, daily := buildSeries(t, extremes)

	markMissing(&daily[1], true)
	markMissing(&daily[2], false)

	stats, err := Solve(hourly, daily, testLatitude, DefaultParams(), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Solved != 2 {
		t.Fatalf("solved %d, expected 2", stats.Solved)
	}
	if math.Abs(daily[1].Tmax.Temp-26.0) > 1e-6 {
		t.Errorf("tmax recovered as %.4f, expected 26", daily[1].Tmax.Temp)
	}
	if math.Abs(daily[2].Tmin.Temp-11.0) > 1e-6 {
		t.Errorf("tmin recovered as %.4f, expected 11", daily[2].Tmin.Temp)
	}
}

func TestSolveDeterministicWithNoise(t *testing.T) {
	// With noise, entangled unknowns no longer have an exact joint
	// solution, so whichever solves first biases the other. The attempt
	// order is fixed, so repeated runs on the same input must produce
	// bit-identical results.
	extremes := [][2]float64{{10, 24}, {12, 26}, {11, 25}, {9, 23}, {13, 27}}
	hourly, daily := buildSeries(t, extremes)
	markMissing(&daily[1], true)
	markMissing(&daily[2], false)

	rng := rand.New(rand.NewSource(7))
	for i := range hourly {
		hourly[i].Temp += rng.NormFloat64() * 0.5
	}

	var firstTmax, firstTmin float64
	for run := 0; run < 40; run++ {
		d := make([]timeseries.DailyExtreme, len(daily))
		copy(d, daily)

		if _, err := Solve(hourly, d, testLatitude, DefaultParams(), testLogger()); err != nil {
			t.Fatalf("run %d: unexpected error: %v", run, err)
		}
		if timeseries.IsMissing(d[1].Tmax.Temp) || timeseries.IsMissing(d[2].Tmin.Temp) {
			t.Fatalf("run %d: unknowns not solved", run)
		}

		if run == 0 {
			firstTmax, firstTmin = d[1].Tmax.Temp, d[2].Tmin.Temp
			continue
		}
		if d[1].Tmax.Temp != firstTmax || d[2].Tmin.Temp != firstTmin {
			t.Fatalf("run %d diverged: got (%.6f, %.6f), first run gave (%.6f, %.6f)",
				run, d[1].Tmax.Temp, d[2].Tmin.Temp, firstTmax, firstTmin)
		}
	}
}

func TestSolveThreshold(t *testing.T) {
	// An unknown with exactly threshold-1 equations defers; with exactly
	// threshold equations it solves.
	tests := []struct {
		name          string
		observedHours int
		wantSolved    bool
	}{
		{"one below threshold defers", 4, false},
		{"at threshold solves", 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extremes := [][2]float64{{10, 24}, {12, 26}, {11, 25}}
			hourly, daily := buildSeries(t, extremes)
			markMissing(&daily[1], false)

			// Keep only a handful of morning hours on day 1 observed;
			// each is one usable equation for the missing Tmin.
			sunrise := 5
			keep := make(map[int]bool, tt.observedHours)
			for k := 0; k < tt.observedHours; k++ {
				keep[timeseries.HoursPerDay+sunrise+k] = true
			}
			for i := range hourly {
				if !keep[i] {
					hourly[i].Temp = timeseries.Missing()
				}
			}

			stats, err := Solve(hourly, daily, testLatitude, DefaultParams(), testLogger())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			u := Unknown{DayIndex: 1, Max: false}
			if stats.EquationCounts[u] != tt.observedHours {
				t.Errorf("equation count %d, expected %d", stats.EquationCounts[u], tt.observedHours)
			}
			solved := !timeseries.IsMissing(daily[1].Tmin.Temp)
			if solved != tt.wantSolved {
				t.Errorf("solved = %v, expected %v", solved, tt.wantSolved)
			}
			if tt.wantSolved && math.Abs(daily[1].Tmin.Temp-12.0) > 1e-6 {
				t.Errorf("tmin recovered as %.4f, expected 12", daily[1].Tmin.Temp)
			}
		})
	}
}

func TestSolveDegenerateSystem(t *testing.T) {
	// Observed hours whose equations do not involve the unknown at all
	// leave it with zero equations and deferred.
	extremes := [][2]float64{{10, 24}, {12, 26}, {11, 25}}
	hourly, daily := buildSeries(t, extremes)
	markMissing(&daily[1], false)
	markMissing(&daily[1], true)

	// Only day 0's pre-dawn hours remain observed; their equations touch
	// day -1 (clamped away) and day 0's Tmin only.
	for i := range hourly {
		if i >= 4 {
			hourly[i].Temp = timeseries.Missing()
		}
	}

	stats, err := Solve(hourly, daily, testLatitude, DefaultParams(), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Solved != 0 || stats.Deferred != 2 {
		t.Errorf("solved %d deferred %d, expected 0 and 2", stats.Solved, stats.Deferred)
	}
}

func TestSolveRejectsBadInput(t *testing.T) {
	extremes := [][2]float64{{10, 24}}
	hourly, daily := buildSeries(t, extremes)

	if _, err := Solve(hourly[:12], daily, testLatitude, DefaultParams(), testLogger()); err == nil {
		t.Error("expected error for misaligned series")
	}
	if _, err := Solve(hourly, daily, 95.0, DefaultParams(), testLogger()); err == nil {
		t.Error("expected error for out-of-range latitude")
	}
	if _, err := Solve(hourly, daily, testLatitude, Params{MinEquations: 0}, testLogger()); err == nil {
		t.Error("expected error for non-positive threshold")
	}
}
