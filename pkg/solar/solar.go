// Package solar provides sunrise/sunset and solar position calculations
// for temperature modeling.
package solar

import (
	"fmt"
	"math"
)

// Times holds sunrise and sunset as fractional hours of local solar time,
// plus the resulting day length in hours.
type Times struct {
	Sunrise   float64
	Sunset    float64
	Daylength float64
}

// SunTimes computes sunrise, sunset and day length for a latitude and
// day of year using the ASCE solar declination and hour angle formulas.
// Polar conditions are clamped rather than returned as NaN: polar day
// yields Daylength 24 (sunrise 0, sunset 24), polar night yields
// Daylength 0 (sunrise and sunset pinned to solar noon).
func SunTimes(latitude float64, dayOfYear int) (Times, error) {
	if latitude <= -90 || latitude >= 90 || math.IsNaN(latitude) {
		return Times{}, fmt.Errorf("latitude %.4f outside valid range (-90, 90)", latitude)
	}
	if dayOfYear < 1 || dayOfYear > 366 {
		return Times{}, fmt.Errorf("day of year %d outside valid range [1, 366]", dayOfYear)
	}

	// Solar declination: angle between the Sun and the celestial equator
	doy := float64(dayOfYear)
	innerAngle := (356.6 + 0.9856*doy) * (math.Pi / 180.0)
	outerAngle := (278.97 + 0.9856*doy + 1.9165*math.Sin(innerAngle)) * (math.Pi / 180.0)
	declinationRad := math.Asin(0.39785 * math.Sin(outerAngle))

	latRad := latitude * (math.Pi / 180.0)

	// Hour angle at sunrise/sunset: cos(H) = -tan(lat) * tan(declination).
	// Outside [-1, 1] the sun never crosses the horizon on this day.
	cosH := -math.Tan(latRad) * math.Tan(declinationRad)

	if cosH < -1.0 {
		// Sun never sets (midnight sun / polar day)
		return Times{Sunrise: 0, Sunset: 24, Daylength: 24}, nil
	}
	if cosH > 1.0 {
		// Sun never rises (polar night)
		return Times{Sunrise: 12, Sunset: 12, Daylength: 0}, nil
	}

	// Half day length in hours, 15 degrees of hour angle per hour
	halfDay := math.Acos(cosH) * (180.0 / math.Pi) / 15.0

	return Times{
		Sunrise:   12.0 - halfDay,
		Sunset:    12.0 + halfDay,
		Daylength: 2.0 * halfDay,
	}, nil
}
