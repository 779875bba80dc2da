package astro

import (
	"errors"
	"fmt"
	"strings"
)

// Frame names a celestial reference frame.
type Frame string

const (
	ICRS     Frame = "icrs"
	FK5      Frame = "fk5"
	Galactic Frame = "galactic"
)

// ErrUnknownFrame is returned for frames outside the supported set.
var ErrUnknownFrame = errors.New("unknown reference frame")

// ParseFrame parses a frame name. The empty string means ICRS.
func ParseFrame(s string) (Frame, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "icrs":
		return ICRS, nil
	case "fk5", "j2000":
		return FK5, nil
	case "galactic", "gal":
		return Galactic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFrame, s)
	}
}

func (f Frame) orDefault() Frame {
	if f == "" {
		return ICRS
	}
	return f
}

// icrsToGalactic is the Hipparcos ICRS to galactic rotation. meeus only
// offers the B1950 galactic pole, so the rotation is kept here.
var icrsToGalactic = Mat3{
	{-0.0548755604162154, -0.8734370902348850, -0.4838350155487132},
	{+0.4941094278755837, -0.4448296299600112, +0.7469822444972189},
	{-0.8676661490190047, -0.1980763734312015, +0.4559837761750669},
}

// ConvertFrame re-expresses a position in another frame. The equinox is only
// used when converting to FK5; zero means J2000.
//
// ICRS and FK5 J2000 are treated as identical (the ~20 mas frame bias is
// ignored). FK5 equinox changes use IAU 1976 precession.
func ConvertFrame(c SkyCoord, to Frame, equinox float64) (SkyCoord, error) {
	to = to.orDefault()
	if equinox == 0 {
		equinox = 2000.0
	}

	icrs, err := toICRS(c)
	if err != nil {
		return SkyCoord{}, err
	}

	switch to {
	case ICRS:
		return icrs, nil
	case FK5:
		ra, dec := Precess(icrs.RAdeg, icrs.DecDeg, 2000.0, equinox)
		return SkyCoord{RAdeg: ra, DecDeg: dec, Frame: FK5, Equinox: equinox}, nil
	case Galactic:
		l, b := icrsToGalactic.Apply(icrs.Vector()).Spherical()
		return SkyCoord{RAdeg: l, DecDeg: b, Frame: Galactic}, nil
	default:
		return SkyCoord{}, fmt.Errorf("%w: %q", ErrUnknownFrame, to)
	}
}

func toICRS(c SkyCoord) (SkyCoord, error) {
	switch c.Frame.orDefault() {
	case ICRS:
		out := c
		out.Frame = ICRS
		return out, nil
	case FK5:
		eq := c.Equinox
		if eq == 0 {
			eq = 2000.0
		}
		ra, dec := Precess(c.RAdeg, c.DecDeg, eq, 2000.0)
		return SkyCoord{RAdeg: ra, DecDeg: dec, Frame: ICRS}, nil
	case Galactic:
		ra, dec := icrsToGalactic.Transpose().Apply(c.Vector()).Spherical()
		return SkyCoord{RAdeg: ra, DecDeg: dec, Frame: ICRS}, nil
	default:
		return SkyCoord{}, fmt.Errorf("%w: %q", ErrUnknownFrame, c.Frame)
	}
}
