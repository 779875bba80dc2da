// Package target models sidereal telescope targets: a sky position with its
// reference epoch and space motion, plus the pointing hints a telescope
// operator needs (rotator mode, acquisition, offsets, magnitudes).
package target

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/litescript/ls-odl/internal/astro"
)

// RotMode is the rotator tracking mode.
type RotMode string

const (
	RotPA         RotMode = "pa"
	RotStationary RotMode = "stationary"
	RotVertical   RotMode = "vertical"
)

// Acquisition strategies.
const (
	AcqGuiderBright = "guider: bright"
	AcqGuiderFaint  = "guider: faint"
	AcqGuiderOffset = "guider: offset"
	AcqMaskAlign    = "mask align"
	AcqMaskOffset   = "mask align + offset"
	AcqBlind        = "blind"
	AcqNone         = "none"
)

// Object types.
const (
	TypeScience  = "science"
	TypeSky      = "sky"
	TypeFlux     = "flux standard"
	TypeTelluric = "telluric standard"
	TypeCal      = "cal"
	TypeCustom   = "custom"
)

var (
	rotModes     = []RotMode{RotPA, RotStationary, RotVertical}
	acquisitions = []string{AcqGuiderBright, AcqGuiderFaint, AcqGuiderOffset, AcqMaskAlign, AcqMaskOffset, AcqBlind, AcqNone}
	objectTypes  = []string{TypeScience, TypeSky, TypeFlux, TypeTelluric, TypeCal, TypeCustom}
	wraps        = []string{"n", "s", "north", "south", "shortest"}
)

// Target is an immutable description of where to point. Propagated
// positions are computed on demand and never stored back.
type Target struct {
	Name string

	// Position is nil for calibration positions such as dome flats.
	Position *astro.SkyCoord
	// Epoch is the decimal year at which Position is valid. Required when
	// proper motion is set.
	Epoch          *float64
	PM             astro.ProperMotion // arcsec/yr, PMRA includes cos(Dec)
	Parallax       float64            // arcsec
	RadialVelocity float64            // km/s

	RotMode     RotMode
	PA          float64 // degrees, 0-360
	Acquisition string
	ObjectType  string
	RAOffset    float64 // arcsec east of Position
	DecOffset   float64 // arcsec north of Position
	Wrap        string
	Mags        map[string]float64
	DRA         float64 // differential RA rate, arcsec/hr / 15
	DDec        float64 // differential Dec rate, arcsec/hr
	Comment     string
}

// New returns a target at the given position.
func New(name string, pos astro.SkyCoord) *Target {
	return &Target{Name: name, Position: &pos}
}

// DomeFlats returns the calibration position used for dome flat exposures.
func DomeFlats(pa float64) *Target {
	return &Target{
		Name:        "DomeFlats",
		RotMode:     RotStationary,
		PA:          pa,
		ObjectType:  TypeCal,
		Acquisition: AcqBlind,
	}
}

// WithProperMotion returns a copy carrying proper motion valid at epoch.
func (t *Target) WithProperMotion(pm astro.ProperMotion, epoch float64) *Target {
	c := t.Clone()
	c.PM = pm
	c.Epoch = &epoch
	return c
}

// Clone returns a deep copy.
func (t *Target) Clone() *Target {
	if t == nil {
		return nil
	}
	c := *t
	if t.Position != nil {
		p := *t.Position
		c.Position = &p
	}
	if t.Epoch != nil {
		e := *t.Epoch
		c.Epoch = &e
	}
	c.Mags = maps.Clone(t.Mags)
	return &c
}

// IsCalPosition reports whether the target is a named calibration position
// without sky coordinates.
func (t *Target) IsCalPosition() bool {
	switch strings.ToLower(t.Name) {
	case "none", "domeflat", "domeflats":
		return t.Position == nil
	}
	return false
}

// HasSpaceMotion reports whether the position changes with time.
func (t *Target) HasSpaceMotion() bool {
	return !t.PM.IsZero()
}

// Validate checks the target invariants and field ranges. Defaults are
// not applied; see Defaults.
func (t *Target) Validate() error {
	if t.Position == nil && !t.IsCalPosition() {
		return fmt.Errorf("%w: %q has no position", ErrInvalidTarget, t.Name)
	}
	if t.Position != nil {
		if math.IsNaN(t.Position.DecDeg) || t.Position.DecDeg < -90 || t.Position.DecDeg > 90 {
			return fmt.Errorf("%w: declination %.6f out of range", ErrInvalidTarget, t.Position.DecDeg)
		}
		if _, err := astro.ParseFrame(string(t.Position.Frame)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTarget, err)
		}
	}
	if t.HasSpaceMotion() && t.Epoch == nil {
		return fmt.Errorf("%w: %w", ErrInvalidTarget, ErrMissingEpoch)
	}
	if t.Epoch != nil {
		if err := astro.CheckYear(*t.Epoch); err != nil {
			return fmt.Errorf("%w: epoch: %w", ErrInvalidTarget, err)
		}
	}
	if t.Parallax < 0 {
		return fmt.Errorf("%w: negative parallax %g", ErrInvalidTarget, t.Parallax)
	}
	if t.RotMode != "" && !slices.Contains(rotModes, RotMode(strings.ToLower(string(t.RotMode)))) {
		return fmt.Errorf("%w: rotator mode %q", ErrInvalidTarget, t.RotMode)
	}
	if t.PA < 0 || t.PA > 360 {
		return fmt.Errorf("%w: PA %.1f not in [0, 360]", ErrInvalidTarget, t.PA)
	}
	if t.Acquisition != "" && !slices.Contains(acquisitions, strings.ToLower(t.Acquisition)) {
		return fmt.Errorf("%w: acquisition %q", ErrInvalidTarget, t.Acquisition)
	}
	if t.ObjectType != "" && !slices.Contains(objectTypes, strings.ToLower(t.ObjectType)) {
		return fmt.Errorf("%w: object type %q", ErrInvalidTarget, t.ObjectType)
	}
	if t.Wrap != "" && !slices.Contains(wraps, strings.ToLower(t.Wrap)) {
		return fmt.Errorf("%w: wrap %q", ErrInvalidTarget, t.Wrap)
	}
	return nil
}

// Defaults returns a copy with unset pointing hints filled in, and a note
// for each default applied so callers can surface them as warnings.
func (t *Target) Defaults() (*Target, []string) {
	c := t.Clone()
	var notes []string
	if c.RotMode == "" {
		c.RotMode = RotPA
		notes = append(notes, "no rotator mode given, assuming pa")
	}
	c.RotMode = RotMode(strings.ToLower(string(c.RotMode)))
	if c.Acquisition == "" {
		c.Acquisition = AcqGuiderBright
		notes = append(notes, `no acquisition given, assuming "guider: bright"`)
	}
	if c.ObjectType == "" {
		c.ObjectType = TypeScience
		notes = append(notes, `no object type given, assuming "science"`)
	}
	return c, notes
}

// Propagate returns the position at the given time. Targets without proper
// motion return their base position unchanged for any time.
func (t *Target) Propagate(at time.Time) (astro.SkyCoord, error) {
	if t.Position == nil {
		return astro.SkyCoord{}, &PropagationError{Target: t.Name, At: at, Err: ErrNoPosition}
	}
	if !t.HasSpaceMotion() {
		return *t.Position, nil
	}
	if t.Epoch == nil {
		return astro.SkyCoord{}, &PropagationError{Target: t.Name, At: at, Err: ErrMissingEpoch}
	}
	epoch, err := astro.FromDecimalYear(*t.Epoch)
	if err != nil {
		return astro.SkyCoord{}, &PropagationError{Target: t.Name, At: at, Err: err}
	}
	if err := astro.CheckTime(at); err != nil {
		return astro.SkyCoord{}, &PropagationError{Target: t.Name, At: at, Err: err}
	}

	if astro.DecimalYear(at) == *t.Epoch {
		return *t.Position, nil
	}
	dt := astro.YearsBetween(epoch, at)
	return astro.ApplySpaceMotion(*t.Position, t.PM, t.Parallax, t.RadialVelocity, dt), nil
}

// Observability is the sky situation of a target at one instant.
type Observability struct {
	Coord         astro.SkyCoord // propagated, with Az/El populated
	Airmass       float64
	SunSeparation float64 // degrees
}

// Observability computes elevation, airmass and Sun distance for the target
// as seen from obs at time at.
func (t *Target) Observability(obs astro.Observer, at time.Time) (Observability, error) {
	pos, err := t.Propagate(at)
	if err != nil {
		return Observability{}, err
	}
	icrs, err := astro.ConvertFrame(pos, astro.ICRS, 0)
	if err != nil {
		return Observability{}, &PropagationError{Target: t.Name, At: at, Err: err}
	}
	horiz := astro.EquatorialToHorizontal(icrs, obs, at)
	sep, err := astro.SunSeparation(icrs, at)
	if err != nil {
		return Observability{}, &PropagationError{Target: t.Name, At: at, Err: err}
	}
	return Observability{
		Coord:         horiz,
		Airmass:       astro.Airmass(horiz.ElDeg),
		SunSeparation: sep,
	}, nil
}

func (t *Target) String() string {
	if t == nil {
		return "<none>"
	}
	return t.Name
}
