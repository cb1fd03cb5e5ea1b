package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/agroclim/tempseries/pkg/solar"
)

func main() {
	var lat, lon float64
	var dateStr string
	flag.Float64Var(&lat, "lat", 0, "Latitude in degrees (positive north)")
	flag.Float64Var(&lon, "lon", 0, "Longitude in degrees (positive east)")
	flag.StringVar(&dateStr, "date", "", "Date to calculate for (YYYY-MM-DD, default today)")
	flag.Parse()

	var t time.Time
	if dateStr == "" {
		t = time.Now().UTC()
	} else {
		var err error
		t, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			os.Exit(1)
		}
	}

	times, err := solar.SunTimes(lat, t.YearDay())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	noon := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
	pos := solar.SunPosition(lat, lon, noon)

	fmt.Printf("Sun times for %s at %.4f, %.4f\n", t.Format("2006-01-02"), lat, lon)
	fmt.Printf("  Sunrise:     %s (local solar time)\n", formatHour(times.Sunrise))
	fmt.Printf("  Sunset:      %s (local solar time)\n", formatHour(times.Sunset))
	fmt.Printf("  Day length:  %.2f hours\n", times.Daylength)
	fmt.Printf("  Declination: %.2f°\n", pos.DeclinationDeg)
	fmt.Printf("  Eq of time:  %+.1f min\n", pos.EqOfTimeMin)
	fmt.Printf("  Elevation:   %.1f° (at 12:00 UTC)\n", pos.ElevationDeg)
}

func formatHour(h float64) string {
	hours := int(h)
	minutes := int((h - float64(hours)) * 60)
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}
