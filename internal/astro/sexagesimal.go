package astro

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrSexagesimal is returned for malformed sexagesimal strings.
var ErrSexagesimal = errors.New("malformed sexagesimal value")

// ParseHMS parses "hh mm ss.s" or "hh:mm:ss.s" right ascension into degrees.
func ParseHMS(s string) (float64, error) {
	neg, v, err := parseSexagesimal(s)
	if err != nil {
		return 0, err
	}
	if neg || v >= 24 {
		return 0, fmt.Errorf("%w: right ascension %q out of range", ErrSexagesimal, s)
	}
	return v * 15, nil
}

// ParseDMS parses "±dd mm ss.s" or "±dd:mm:ss.s" into degrees.
func ParseDMS(s string) (float64, error) {
	neg, v, err := parseSexagesimal(s)
	if err != nil {
		return 0, err
	}
	if v > 90 {
		return 0, fmt.Errorf("%w: declination %q out of range", ErrSexagesimal, s)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// parseSexagesimal returns the sign and absolute value in the unit of the
// first field. The sign is taken from the text so "-00 30 00" is negative.
func parseSexagesimal(s string) (bool, float64, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimLeft(s, "+-")

	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == ' ' })
	if len(fields) == 0 || len(fields) > 3 {
		return false, 0, fmt.Errorf("%w: %q", ErrSexagesimal, s)
	}

	var total float64
	div := 1.0
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 {
			return false, 0, fmt.Errorf("%w: %q", ErrSexagesimal, s)
		}
		if i > 0 && v >= 60 {
			return false, 0, fmt.Errorf("%w: %q field %d >= 60", ErrSexagesimal, s, i+1)
		}
		total += v / div
		div *= 60
	}
	return neg, total, nil
}

// FormatHMS renders degrees as "hh mm ss.ss" with the given decimals on seconds.
func FormatHMS(deg float64, decimals int) string {
	h, m, sec := splitSexagesimal(normalizeAngle360(deg)/15, decimals)
	if h >= 24 {
		h -= 24
	}
	return fmt.Sprintf("%02d %02d %0*.*f", h, m, secWidth(decimals), decimals, sec)
}

// FormatDMS renders degrees as "±dd mm ss.s" with the given decimals on seconds.
func FormatDMS(deg float64, decimals int) string {
	sign := "+"
	if deg < 0 {
		sign = "-"
	}
	d, m, sec := splitSexagesimal(math.Abs(deg), decimals)
	return fmt.Sprintf("%s%02d %02d %0*.*f", sign, d, m, secWidth(decimals), decimals, sec)
}

// splitSexagesimal rounds to the requested precision before splitting so
// 59.999s never renders as 60.00.
func splitSexagesimal(v float64, decimals int) (int, int, float64) {
	scale := math.Pow(10, float64(max(decimals, 0)))
	unit := int64(scale)
	n := int64(math.Round(v * 3600 * scale))
	whole := n / (3600 * unit)
	rem := n % (3600 * unit)
	min := rem / (60 * unit)
	sec := float64(rem%(60*unit)) / scale
	return int(whole), int(min), sec
}

func secWidth(decimals int) int {
	if decimals <= 0 {
		return 2
	}
	return 3 + decimals
}
