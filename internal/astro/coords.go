// Package astro provides the coordinate, frame and time primitives used by
// target propagation and observing-block summaries.
package astro

import (
	"math"
	"time"
)

// SkyCoord is a position on the celestial sphere.
//
// For the galactic frame RAdeg and DecDeg carry galactic longitude and
// latitude. Az/El are only populated by EquatorialToHorizontal.
type SkyCoord struct {
	RAdeg  float64 // Right Ascension in degrees (0-360)
	DecDeg float64 // Declination in degrees (-90 to +90)

	Frame   Frame   // Reference frame; empty means ICRS
	Equinox float64 // Julian equinox for FK5 (e.g. 2000.0); ignored otherwise

	// Horizontal coordinates (observer-relative)
	AzDeg float64 // Azimuth in degrees (0=N, 90=E, 180=S, 270=W)
	ElDeg float64 // Elevation/Altitude in degrees (0=horizon, 90=zenith)
}

// NewICRS returns an ICRS position.
func NewICRS(raDeg, decDeg float64) SkyCoord {
	return SkyCoord{RAdeg: normalizeAngle360(raDeg), DecDeg: decDeg, Frame: ICRS}
}

// NewFK5 returns an FK5 position at the given equinox.
func NewFK5(raDeg, decDeg, equinox float64) SkyCoord {
	return SkyCoord{RAdeg: normalizeAngle360(raDeg), DecDeg: decDeg, Frame: FK5, Equinox: equinox}
}

// Vector returns the unit vector of the position in its own frame.
func (c SkyCoord) Vector() Vec3 {
	return unitVector(c.RAdeg, c.DecDeg)
}

// Observer represents a ground-based observer location.
type Observer struct {
	LatDeg float64 // Latitude in degrees (north positive)
	LonDeg float64 // Longitude in degrees (east positive)
	Name   string  // Optional name for the site
}

// MaunaKea is the default observing site.
var MaunaKea = Observer{LatDeg: 19.8263, LonDeg: -155.4747, Name: "Mauna Kea"}

// EquatorialToHorizontal converts equatorial coordinates (RA/Dec) to horizontal
// coordinates (Az/El) for a given observer and time.
//
// The function preserves the input RA/Dec values and populates Az/El.
// Uses standard astronomical conventions:
//   - Azimuth: 0° = North, 90° = East, 180° = South, 270° = West
//   - Elevation: 0° = horizon, 90° = zenith
func EquatorialToHorizontal(eq SkyCoord, obs Observer, t time.Time) SkyCoord {
	lat := degToRad(obs.LatDeg)
	ra := degToRad(eq.RAdeg)
	dec := degToRad(eq.DecDeg)

	ha := degToRad(localSiderealTime(t, obs.LonDeg)) - ra

	sinAlt := math.Sin(dec)*math.Sin(lat) + math.Cos(dec)*math.Cos(lat)*math.Cos(ha)
	alt := math.Asin(sinAlt)

	cosAz := (math.Sin(dec) - math.Sin(alt)*math.Sin(lat)) / (math.Cos(alt) * math.Cos(lat))
	// Clamp cosAz to [-1, 1] to handle floating point errors
	cosAz = math.Max(-1, math.Min(1, cosAz))
	az := math.Acos(cosAz)

	// Positive hour angle: west of the meridian
	if math.Sin(ha) > 0 {
		az = 2*math.Pi - az
	}

	out := eq
	out.AzDeg = radToDeg(az)
	out.ElDeg = radToDeg(alt)
	return out
}

// Airmass returns the plane-parallel airmass for an elevation in degrees.
// Objects at or below the horizon return +Inf.
func Airmass(elDeg float64) float64 {
	if elDeg <= 0 {
		return math.Inf(1)
	}
	return 1 / math.Sin(degToRad(elDeg))
}

// localSiderealTime calculates the Local Sidereal Time in degrees
// for a given UTC time and observer longitude.
func localSiderealTime(t time.Time, lonDeg float64) float64 {
	return normalizeAngle360(greenwichMeanSiderealTime(t) + lonDeg)
}

// greenwichMeanSiderealTime calculates GMST in degrees for a given UTC time
// (IAU 1982).
func greenwichMeanSiderealTime(t time.Time) float64 {
	jd := julianDate(t)
	T := (jd - jdJ2000) / 36525.0

	gmst := 280.46061837 +
		360.98564736629*(jd-jdJ2000) +
		0.000387933*T*T -
		T*T*T/38710000.0

	return normalizeAngle360(gmst)
}

// julianDate calculates the Julian Date for a given time.
func julianDate(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	h := float64(t.Hour())
	min := float64(t.Minute())
	sec := float64(t.Second())
	ns := float64(t.Nanosecond())
	dayFrac := (h + min/60 + sec/3600 + ns/3600e9) / 24.0

	// January/February count as months 13/14 of the previous year
	if m <= 2 {
		y--
		m += 12
	}

	// Gregorian calendar correction
	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	return math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + dayFrac + B - 1524.5
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// radToDeg converts radians to degrees.
func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// normalizeAngle360 normalizes an angle to 0-360 degrees.
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
