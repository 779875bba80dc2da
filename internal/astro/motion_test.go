package astro

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestApplySpaceMotionIdentity(t *testing.T) {
	pos := NewFK5(123.456, -45.678, 2000)
	pm := ProperMotion{PMRA: 1.5, PMDec: -2.5}

	if got := ApplySpaceMotion(pos, pm, 0.1, 30, 0); got != pos {
		t.Errorf("dt=0: got %+v, want %+v", got, pos)
	}
	if got := ApplySpaceMotion(pos, ProperMotion{}, 0, 0, 50); got != pos {
		t.Errorf("no motion: got %+v, want %+v", got, pos)
	}
}

func TestApplySpaceMotionBarnard(t *testing.T) {
	// Barnard's star, Gaia-like values at J2000.
	pos := NewICRS(269.452076, 4.693391)
	pm := ProperMotion{PMRA: -0.79858, PMDec: 10.32812}

	got := ApplySpaceMotion(pos, pm, 0.54831, -110.51, 10)

	wantDec := 4.693391 + 103.2812/3600
	wantRA := 269.452076 + (-7.9858/3600)/math.Cos(degToRad(4.693391))
	if math.Abs(got.DecDeg-wantDec) > 1e-4 {
		t.Errorf("Dec = %.7f, want %.7f", got.DecDeg, wantDec)
	}
	if math.Abs(got.RAdeg-wantRA) > 1e-4 {
		t.Errorf("RA = %.7f, want %.7f", got.RAdeg, wantRA)
	}
	if got.Frame != ICRS {
		t.Errorf("Frame = %q, want icrs", got.Frame)
	}
}

func TestApplySpaceMotionPoleCrossing(t *testing.T) {
	// 0.36" short of the pole moving 1"/yr north ends 0.64" past it.
	pos := NewICRS(0, 90-0.36/3600)
	got := ApplySpaceMotion(pos, ProperMotion{PMDec: 1}, 0, 0, 1)

	if math.Abs(got.RAdeg-180) > 1e-3 {
		t.Errorf("RA = %v, want 180", got.RAdeg)
	}
	if want := 90 - 0.64/3600; math.Abs(got.DecDeg-want) > 1e-7 {
		t.Errorf("Dec = %.9f, want %.9f", got.DecDeg, want)
	}
}

func TestApplySpaceMotionReversible(t *testing.T) {
	pos := NewICRS(10, 60)
	pm := ProperMotion{PMRA: 0.2, PMDec: -0.3}

	fwd := ApplySpaceMotion(pos, pm, 0, 0, 25)
	if AngularSeparation(pos.RAdeg, pos.DecDeg, fwd.RAdeg, fwd.DecDeg) < 1e-4 {
		t.Fatal("position did not move")
	}
	// Linear motion is reversible to first order over short baselines.
	back := ApplySpaceMotion(fwd, pm, 0, 0, -25)
	if sep := AngularSeparation(pos.RAdeg, pos.DecDeg, back.RAdeg, back.DecDeg); sep > 1e-6 {
		t.Errorf("reversal separation = %v deg", sep)
	}
}

func TestDecimalYear(t *testing.T) {
	j2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := DecimalYear(j2000); math.Abs(got-2000) > 1e-12 {
		t.Errorf("DecimalYear(J2000) = %v, want 2000", got)
	}

	for _, y := range []float64{1000, 1950.5, 2015.5, 2024.123, 3000} {
		tm, err := FromDecimalYear(y)
		if err != nil {
			t.Fatalf("FromDecimalYear(%v) error = %v", y, err)
		}
		if got := DecimalYear(tm); math.Abs(got-y) > 1e-7 {
			t.Errorf("DecimalYear(FromDecimalYear(%v)) = %v", y, got)
		}
	}
}

func TestTimeRange(t *testing.T) {
	for _, y := range []float64{999.99, 3000.01, math.NaN()} {
		if _, err := FromDecimalYear(y); !errors.Is(err, ErrTimeOutOfRange) {
			t.Errorf("FromDecimalYear(%v) error = %v, want ErrTimeOutOfRange", y, err)
		}
	}
	if err := CheckTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Errorf("CheckTime(2026) error = %v", err)
	}
}

func TestYearsBetween(t *testing.T) {
	a := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	b := a.AddDate(0, 0, 36525)
	if got := YearsBetween(a, b); math.Abs(got-100) > 1e-9 {
		t.Errorf("YearsBetween() = %v, want 100", got)
	}
	if got := YearsBetween(b, a); math.Abs(got+100) > 1e-9 {
		t.Errorf("YearsBetween() reversed = %v, want -100", got)
	}
	far := a.AddDate(400, 0, 0)
	if got, want := YearsBetween(a, far), (julianDate(far)-julianDate(a))/daysPerJYear; got != want {
		t.Errorf("YearsBetween() over 400 years = %v, want %v", got, want)
	}
}

func TestTimeDelta(t *testing.T) {
	a := time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC)
	b := a.Add(36*time.Hour + 90*time.Second)
	if got := TimeDelta(a, b); got != 36*time.Hour+90*time.Second {
		t.Errorf("TimeDelta() = %v", got)
	}
	if got := TimeDelta(b, a); got != -(36*time.Hour + 90*time.Second) {
		t.Errorf("TimeDelta() reversed = %v", got)
	}
	if got := NowPlus(a, time.Hour); !got.Equal(a.Add(time.Hour)) {
		t.Errorf("NowPlus() = %v", got)
	}
}

func TestJulianYears(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want float64
	}{
		{0, 0},
		{time.Duration(365.25 * 24 * float64(time.Hour)), 1},
		{-time.Duration(365.25 * 12 * float64(time.Hour)), -0.5},
	}
	for _, tt := range tests {
		if got := JulianYears(tt.d); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("JulianYears(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}
