package chill

import (
	"math"
	"testing"
)

func constantSeries(temp float64, hours int) []float64 {
	out := make([]float64, hours)
	for i := range out {
		out[i] = temp
	}
	return out
}

func TestChillPortionsTemperatureOptimum(t *testing.T) {
	// The kinetic model's response peaks in the single-digit range:
	// 1000 hours at 5°C must out-chill 1000 hours at 15°C.
	cold := TotalChillPortions(constantSeries(5, 1000))
	warm := TotalChillPortions(constantSeries(15, 1000))

	if cold <= 0 {
		t.Fatalf("1000 hours at 5°C produced %.3f portions, expected > 0", cold)
	}
	if cold <= warm {
		t.Errorf("5°C produced %.3f portions, 15°C produced %.3f; expected the colder run to dominate", cold, warm)
	}
}

func TestChillPortionsAccumulateMonotonically(t *testing.T) {
	series := ChillPortions(constantSeries(6, 500))
	prev := 0.0
	for i, v := range series {
		if v < prev {
			t.Fatalf("portions decreased at hour %d: %.4f -> %.4f", i, prev, v)
		}
		prev = v
	}
	if series[len(series)-1] <= 0 {
		t.Errorf("final portion count %.4f, expected > 0", series[len(series)-1])
	}
}

func TestChillPortionsMissingHoursPassThrough(t *testing.T) {
	// Missing hours yield missing outputs and leave the kinetic state
	// untouched; the final count matches the same series with the gap
	// removed.
	with := constantSeries(5, 200)
	with[100] = math.NaN()
	without := constantSeries(5, 199)

	series := ChillPortions(with)
	if !math.IsNaN(series[100]) {
		t.Errorf("output at missing hour = %.4f, expected NaN", series[100])
	}
	if got, want := series[len(series)-1], TotalChillPortions(without); math.Abs(got-want) > 1e-9 {
		t.Errorf("final count with gap %.6f, without gap %.6f", got, want)
	}
}

func TestChillingHours(t *testing.T) {
	tests := []struct {
		name  string
		temps []float64
		want  float64
	}{
		{"all in range", []float64{3, 5, 7.2}, 3},
		{"zero excluded", []float64{0, 5}, 1},
		{"above range excluded", []float64{7.3, 10}, 0},
		{"missing skipped", []float64{5, math.NaN(), 5}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChillingHours(tt.temps); got != tt.want {
				t.Errorf("ChillingHours = %.1f, expected %.1f", got, tt.want)
			}
		})
	}
}

func TestUtahChillUnits(t *testing.T) {
	tests := []struct {
		name  string
		temps []float64
		want  float64
	}{
		{"optimal band", []float64{5, 5}, 2},
		{"half weight", []float64{2, 10}, 1},
		{"warm hours negate", []float64{5, 20}, 0},
		{"very warm", []float64{20, 20}, -2},
		{"missing skipped", []float64{5, math.NaN()}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UtahChillUnits(tt.temps); got != tt.want {
				t.Errorf("UtahChillUnits = %.1f, expected %.1f", got, tt.want)
			}
		})
	}
}

func TestHeatAccumulation(t *testing.T) {
	temps := []float64{10, 4, 2, 14, math.NaN(), 6}

	if got := TotalHeat(temps, DefaultHeatBase); math.Abs(got-18) > 1e-9 {
		t.Errorf("TotalHeat = %.2f, expected 18", got)
	}

	series := HeatSeries(temps, DefaultHeatBase)
	want := []float64{6, 6, 6, 16, math.NaN(), 18}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(series[i]) {
				t.Errorf("hour %d: %.2f, expected NaN pass-through", i, series[i])
			}
			continue
		}
		if math.Abs(series[i]-want[i]) > 1e-9 {
			t.Errorf("hour %d: %.2f, expected %.2f", i, series[i], want[i])
		}
	}
}

func TestHeatNeverNegative(t *testing.T) {
	if got := TotalHeat([]float64{-10, 0, 3.9}, DefaultHeatBase); got != 0 {
		t.Errorf("TotalHeat below base = %.2f, expected 0", got)
	}
}
