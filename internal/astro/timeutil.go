package astro

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Supported span of decimal years for epochs and propagation targets.
const (
	MinYear = 1000.0
	MaxYear = 3000.0
)

const (
	jdJ2000       = 2451545.0
	daysPerJYear  = 365.25
	secondsPerDay = 86400.0
)

// ErrTimeOutOfRange is returned for times outside [MinYear, MaxYear].
var ErrTimeOutOfRange = errors.New("time outside supported range")

// DecimalYear returns the Julian epoch of t (J2000.0 = 2000.0).
func DecimalYear(t time.Time) float64 {
	return 2000.0 + (julianDate(t)-jdJ2000)/daysPerJYear
}

// FromDecimalYear returns the UTC instant for a Julian epoch.
func FromDecimalYear(y float64) (time.Time, error) {
	if err := CheckYear(y); err != nil {
		return time.Time{}, err
	}
	days := (y - 2000.0) * daysPerJYear
	whole := math.Floor(days)
	frac := time.Duration(math.Round((days - whole) * secondsPerDay * float64(time.Second)))
	j2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	return j2000.AddDate(0, 0, int(whole)).Add(frac), nil
}

// CheckYear reports whether a decimal year is inside the supported span.
func CheckYear(y float64) error {
	if math.IsNaN(y) || y < MinYear || y > MaxYear {
		return fmt.Errorf("%w: %.3f not in [%g, %g]", ErrTimeOutOfRange, y, MinYear, MaxYear)
	}
	return nil
}

// CheckTime reports whether t is inside the supported span.
func CheckTime(t time.Time) error {
	return CheckYear(DecimalYear(t))
}

// TimeDelta returns t2 - t1. Spans beyond roughly 292 years saturate; use
// YearsBetween for long baselines.
func TimeDelta(t1, t2 time.Time) time.Duration {
	return t2.Sub(t1)
}

// JulianYears converts a duration to Julian years.
func JulianYears(d time.Duration) float64 {
	return d.Seconds() / (secondsPerDay * daysPerJYear)
}

// YearsBetween returns (to - from) in Julian years. Spans that saturate
// time.Duration fall back to Julian dates.
func YearsBetween(from, to time.Time) float64 {
	if d := TimeDelta(from, to); d != math.MaxInt64 && d != math.MinInt64 {
		return JulianYears(d)
	}
	return (julianDate(to) - julianDate(from)) / daysPerJYear
}

// NowPlus returns now shifted by d.
func NowPlus(now time.Time, d time.Duration) time.Time {
	return now.Add(d)
}
