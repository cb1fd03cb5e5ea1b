// Package timeseries defines the hourly and daily temperature series types
// shared by the reconstruction pipeline, along with calendar validation
// and CSV input/output.
package timeseries

import (
	"fmt"
	"math"
	"time"
)

// HoursPerDay is the sample count of one calendar day in an hourly series.
const HoursPerDay = 24

// Missing returns the marker used for absent temperature values.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing-value marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Source identifies where a daily extreme value came from.
type Source int

const (
	// SourceMissing marks a value that no stage could fill.
	SourceMissing Source = iota
	// SourceObserved marks a value present in the input record.
	SourceObserved
	// SourceSolved marks a value estimated by the daily-extreme solver.
	SourceSolved
	// SourceProxy marks a value patched from a bias-corrected proxy station.
	SourceProxy
	// SourceInterpolated marks a value filled by linear interpolation.
	SourceInterpolated
)

// String returns the provenance label used in reports.
func (s Source) String() string {
	switch s {
	case SourceObserved:
		return "observed"
	case SourceSolved:
		return "solved"
	case SourceProxy:
		return "proxy"
	case SourceInterpolated:
		return "interpolated"
	default:
		return "still_missing"
	}
}

// HourlyRecord is one sample of an hourly temperature series.
// Temp is NaN when the hour was not observed.
type HourlyRecord struct {
	Year  int
	Month int
	Day   int
	Hour  int
	Temp  float64
}

// DailyRecord is one row of a raw daily min/max series, as read from input
// or supplied as a proxy station. Values are NaN when missing.
type DailyRecord struct {
	Year  int
	Month int
	Day   int
	Tmin  float64
	Tmax  float64
}

// Value is a daily extreme together with its provenance tag. The tag lives
// on the value itself so later replacement can never desynchronize them.
type Value struct {
	Temp   float64
	Source Source
	Proxy  string  // proxy station name when Source is SourceProxy
	FitRMS float64 // residual fit error when Source is SourceSolved
}

// DailyExtreme is one day of the mutable Tmin/Tmax container passed through
// the solver and patcher stages.
type DailyExtreme struct {
	Year  int
	Month int
	Day   int
	Tmin  Value
	Tmax  Value
}

// Date returns the day at midnight UTC.
func (d DailyExtreme) Date() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// DayOfYear returns the 1-based ordinal day of the year.
func (d DailyExtreme) DayOfYear() int {
	return d.Date().YearDay()
}

// NewDailyExtremes converts a raw daily series into the provenance-tagged
// container, tagging present values as observed.
func NewDailyExtremes(records []DailyRecord) []DailyExtreme {
	out := make([]DailyExtreme, len(records))
	for i, r := range records {
		out[i] = DailyExtreme{
			Year:  r.Year,
			Month: r.Month,
			Day:   r.Day,
			Tmin:  tagObserved(r.Tmin),
			Tmax:  tagObserved(r.Tmax),
		}
	}
	return out
}

func tagObserved(v float64) Value {
	if IsMissing(v) {
		return Value{Temp: Missing(), Source: SourceMissing}
	}
	return Value{Temp: v, Source: SourceObserved}
}

// ValidateHourly checks that an hourly series is calendar-complete: hours
// run 0..23 within each day and days are consecutive with no gaps.
func ValidateHourly(records []HourlyRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("hourly series is empty")
	}
	if len(records)%HoursPerDay != 0 {
		return fmt.Errorf("hourly series length %d is not a whole number of days", len(records))
	}
	for i, r := range records {
		if err := validDate(r.Year, r.Month, r.Day); err != nil {
			return fmt.Errorf("hourly record %d: %w", i, err)
		}
		wantHour := i % HoursPerDay
		if r.Hour != wantHour {
			return fmt.Errorf("hourly record %d: hour %d, expected %d", i, r.Hour, wantHour)
		}
		if wantHour == 0 && i > 0 {
			prev := records[i-1]
			next := time.Date(prev.Year, time.Month(prev.Month), prev.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
			if r.Year != next.Year() || r.Month != int(next.Month()) || r.Day != next.Day() {
				return fmt.Errorf("hourly record %d: calendar gap after %04d-%02d-%02d", i, prev.Year, prev.Month, prev.Day)
			}
		}
	}
	return nil
}

// ValidateDaily checks that a daily series has valid, consecutive dates.
func ValidateDaily(records []DailyRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("daily series is empty")
	}
	for i, r := range records {
		if err := validDate(r.Year, r.Month, r.Day); err != nil {
			return fmt.Errorf("daily record %d: %w", i, err)
		}
		if i > 0 {
			prev := records[i-1]
			next := time.Date(prev.Year, time.Month(prev.Month), prev.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
			if r.Year != next.Year() || r.Month != int(next.Month()) || r.Day != next.Day() {
				return fmt.Errorf("daily record %d: calendar gap after %04d-%02d-%02d", i, prev.Year, prev.Month, prev.Day)
			}
		}
	}
	return nil
}

// Aligned reports whether the hourly series covers exactly the same period
// as the daily series, day for day.
func Aligned(hourly []HourlyRecord, daily []DailyExtreme) error {
	if len(hourly) != len(daily)*HoursPerDay {
		return fmt.Errorf("hourly series has %d records, daily series needs %d", len(hourly), len(daily)*HoursPerDay)
	}
	for i, d := range daily {
		h := hourly[i*HoursPerDay]
		if h.Year != d.Year || h.Month != d.Month || h.Day != d.Day {
			return fmt.Errorf("day %d: hourly date %04d-%02d-%02d does not match daily date %04d-%02d-%02d",
				i, h.Year, h.Month, h.Day, d.Year, d.Month, d.Day)
		}
	}
	return nil
}

func validDate(year, month, day int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month %d out of range", month)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return fmt.Errorf("invalid date %04d-%02d-%02d", year, month, day)
	}
	return nil
}

// EmptyDaily builds an all-missing daily container matching the calendar of
// an hourly series, for callers that supply no daily record at all.
func EmptyDaily(hourly []HourlyRecord) []DailyExtreme {
	n := len(hourly) / HoursPerDay
	out := make([]DailyExtreme, n)
	for i := 0; i < n; i++ {
		h := hourly[i*HoursPerDay]
		out[i] = DailyExtreme{
			Year:  h.Year,
			Month: h.Month,
			Day:   h.Day,
			Tmin:  Value{Temp: Missing(), Source: SourceMissing},
			Tmax:  Value{Temp: Missing(), Source: SourceMissing},
		}
	}
	return out
}
