package astro

import (
	"math"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/precess"
	"github.com/soniakeys/unit"
)

// kmsPerParsecYear is one parsec per Julian year in km/s.
const kmsPerParsecYear = 977792.2216

// ProperMotion is an on-sky proper motion in arcsec per Julian year.
// PMRA is the RA rate already multiplied by cos(Dec).
type ProperMotion struct {
	PMRA  float64
	PMDec float64
}

// IsZero reports whether there is no proper motion.
func (pm ProperMotion) IsZero() bool {
	return pm.PMRA == 0 && pm.PMDec == 0
}

// ApplySpaceMotion moves a position along its linear space motion for
// dtYears Julian years. parallax is in arcsec and rv in km/s; radial velocity
// only matters when parallax is non-zero. The frame and equinox of pos are
// preserved.
func ApplySpaceMotion(pos SkyCoord, pm ProperMotion, parallax, rv, dtYears float64) SkyCoord {
	if dtYears == 0 || (pm.IsZero() && (parallax == 0 || rv == 0)) {
		return pos
	}

	// Without a distance only the direction matters, so any r works.
	r, mr := 1.0, 0.0
	if parallax > 0 {
		r = 1 / parallax
		mr = rv / kmsPerParsecYear
	}

	// meeus wants the rate of RA itself, not RA·cos(Dec).
	cosD := max(math.Cos(degToRad(pos.DecDeg)), 1e-12)
	mα := unit.HourAngle(unit.AngleFromSec(pm.PMRA / cosD).Rad())
	mδ := unit.AngleFromSec(pm.PMDec)

	from := equatorial(pos.RAdeg, pos.DecDeg)
	var to coord.Equatorial
	precess.ProperMotion3D(&from, &to, 0, dtYears, r, mr, mα, mδ)

	out := pos
	out.RAdeg, out.DecDeg = to.RA.Deg(), to.Dec.Deg()
	out.AzDeg, out.ElDeg = 0, 0
	return out
}

// Precess moves equatorial coordinates between two Julian equinoxes using
// the IAU 1976 (Lieske) angles.
func Precess(raDeg, decDeg, fromEquinox, toEquinox float64) (float64, float64) {
	if fromEquinox == toEquinox {
		return raDeg, decDeg
	}
	from := equatorial(raDeg, decDeg)
	var to coord.Equatorial
	precess.NewPrecessor(fromEquinox, toEquinox).Precess(&from, &to)
	return normalizeAngle360(to.RA.Deg()), to.Dec.Deg()
}

func equatorial(raDeg, decDeg float64) coord.Equatorial {
	return coord.Equatorial{RA: unit.RAFromDeg(raDeg), Dec: unit.AngleFromDeg(decDeg)}
}
