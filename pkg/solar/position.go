package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Position describes the apparent position of the sun at an instant,
// as seen from a point on the surface.
type Position struct {
	DeclinationDeg float64
	EqOfTimeMin    float64
	ElevationDeg   float64
	AzimuthDeg     float64
	CosZenith      float64
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// SunPosition computes the sun's declination, equation of time, elevation
// and azimuth for a UTC instant at the given latitude and longitude.
func SunPosition(lat, lon float64, ts time.Time) Position {
	t := ts.UTC()
	jd := julian.TimeToJD(t)
	T := (jd - 2451545.0) / 36525.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*M))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*M))*0.000289
	sunLong := L0 + C
	omega := 125.04 - 1934.136*T
	lambda := sunLong - 0.00569 - 0.00478*math.Sin(degToRad(omega))
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	declRad := math.Asin(math.Sin(degToRad(eps0)) * math.Sin(degToRad(lambda)))

	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	eqTimeMin := radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4

	utcMin := float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60.0
	timeOffset := 4*lon + eqTimeMin
	tst := utcMin + timeOffset
	ha := tst/4 - 180
	haRad := degToRad(ha)

	latRad := degToRad(lat)
	cosZen := math.Sin(latRad)*math.Sin(declRad) + math.Cos(latRad)*math.Cos(declRad)*math.Cos(haRad)
	zenRad := math.Acos(cosZen)
	zenDeg := radToDeg(zenRad)
	elDeg := 90 - zenDeg + 0.5667 // atmospheric refraction at the horizon

	if elDeg <= 0 {
		return Position{
			DeclinationDeg: radToDeg(declRad),
			EqOfTimeMin:    eqTimeMin,
			ElevationDeg:   elDeg,
			AzimuthDeg:     0.0,
			CosZenith:      cosZen,
		}
	}

	azNum := math.Sin(declRad) - math.Sin(latRad)*cosZen
	azDen := math.Cos(latRad) * math.Sin(zenRad)
	azRad := math.Acos(azNum / azDen)
	azDeg := radToDeg(azRad)
	if ha > 0 {
		azDeg = 360 - azDeg
	}

	return Position{
		DeclinationDeg: radToDeg(declRad),
		EqOfTimeMin:    eqTimeMin,
		ElevationDeg:   elDeg,
		AzimuthDeg:     azDeg,
		CosZenith:      cosZen,
	}
}
