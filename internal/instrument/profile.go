package instrument

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/litescript/ls-odl/internal/detector"
	"github.com/litescript/ls-odl/internal/offset"
)

//go:embed profiles/*.toml
var builtin embed.FS

var (
	// ErrNoProfile indicates no profile is known for an instrument.
	ErrNoProfile = errors.New("no instrument profile")
	// ErrUnknownFrame indicates a profile has no frame of that name.
	ErrUnknownFrame = errors.New("unknown instrument frame")
)

// Profile is the static description of one instrument, loaded from TOML:
//
//	instrument = "NIRES"
//
//	[[frames]]
//	name  = "slit"
//	scale = 0.15
//
//	[[detectors]]
//	name     = "spec"
//	max_mcds = 32
type Profile struct {
	Instrument string         `toml:"instrument"`
	Frames     []FrameSpec    `toml:"frames"`
	Detectors  []DetectorSpec `toml:"detectors"`
}

// FrameSpec is a named instrument offset frame.
type FrameSpec struct {
	Name  string  `toml:"name"`
	Scale float64 `toml:"scale"` // arcsec/pixel
	Angle float64 `toml:"angle"` // degrees
}

// DetectorSpec lists the hardware limits of one detector.
type DetectorSpec struct {
	Name         string   `toml:"name"`
	Width        int      `toml:"width"`
	Height       int      `toml:"height"`
	Binnings     []string `toml:"binnings"`
	ReadoutModes []string `toml:"readout_modes"`
	MaxMCDS      int      `toml:"max_mcds"` // adds CDS and MCDS1..MaxMCDS
	AmpModes     []string `toml:"amp_modes"`
	MaxCoadds    int      `toml:"max_coadds"`
	MinExpTime   float64  `toml:"min_exptime"`
	Overhead     float64  `toml:"overhead"`
}

// ParseProfile decodes a TOML profile and checks it.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProfile reads one TOML profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return p, nil
}

func (p *Profile) validate() error {
	if p.Instrument == "" {
		return errors.New("profile: instrument is required")
	}
	for _, f := range p.Frames {
		if err := p.frame(f).Validate(); err != nil {
			return fmt.Errorf("profile %s: %w", p.Instrument, err)
		}
	}
	for _, d := range p.Detectors {
		for _, b := range d.Binnings {
			if _, err := detector.ParseBinning(b); err != nil {
				return fmt.Errorf("profile %s detector %s: %w", p.Instrument, d.Name, err)
			}
		}
	}
	return nil
}

func (p *Profile) frame(f FrameSpec) offset.InstrumentFrame {
	return offset.InstrumentFrame{
		Label: p.Instrument + " " + f.Name,
		Scale: f.Scale,
		Angle: f.Angle,
	}
}

// Frame returns the named instrument frame.
func (p *Profile) Frame(name string) (offset.InstrumentFrame, error) {
	for _, f := range p.Frames {
		if strings.EqualFold(f.Name, name) {
			return p.frame(f), nil
		}
	}
	return offset.InstrumentFrame{}, fmt.Errorf("%w: %s %q", ErrUnknownFrame, p.Instrument, name)
}

// Limits returns the limits of the named detector, or nil when the profile
// does not describe it.
func (p *Profile) Limits(name string) *detector.Limits {
	for _, d := range p.Detectors {
		if strings.EqualFold(d.Name, name) {
			return d.limits()
		}
	}
	return nil
}

func (d DetectorSpec) limits() *detector.Limits {
	l := &detector.Limits{
		Width:        d.Width,
		Height:       d.Height,
		ReadoutModes: append([]string(nil), d.ReadoutModes...),
		AmpModes:     append([]string(nil), d.AmpModes...),
		MaxCoadds:    d.MaxCoadds,
		MinExpTime:   d.MinExpTime,
		Overhead:     d.Overhead,
	}
	if d.MaxMCDS > 0 {
		l.ReadoutModes = append(l.ReadoutModes, "CDS")
		for n := range d.MaxMCDS {
			l.ReadoutModes = append(l.ReadoutModes, fmt.Sprintf("MCDS%d", n+1))
		}
	}
	for _, s := range d.Binnings {
		b, _ := detector.ParseBinning(s) // checked in validate
		l.Binnings = append(l.Binnings, b)
	}
	return l
}

// Set is a collection of profiles keyed by lower-case instrument name.
type Set map[string]*Profile

// Builtin returns the profiles compiled into the binary.
func Builtin() Set {
	s, err := loadFS(builtin, "profiles")
	if err != nil {
		panic(fmt.Sprintf("builtin instrument profiles: %v", err))
	}
	return s
}

// LoadProfiles reads every *.toml file in dir on top of the builtin set.
// A file for an instrument that already exists replaces it.
func LoadProfiles(dir string) (Set, error) {
	s := Builtin()
	if dir == "" {
		return s, nil
	}
	extra, err := loadFS(os.DirFS(dir), ".")
	if err != nil {
		return nil, err
	}
	for k, p := range extra {
		s[k] = p
	}
	return s, nil
}

func loadFS(fsys fs.FS, dir string) (Set, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading profile directory: %w", err)
	}
	s := Set{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, e.Name())))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		p, err := ParseProfile(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		s[strings.ToLower(p.Instrument)] = p
	}
	return s, nil
}

// Lookup returns the profile for instrument.
func (s Set) Lookup(instrument string) (*Profile, error) {
	p, ok := s[strings.ToLower(instrument)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProfile, instrument)
	}
	return p, nil
}

// Frame returns an instrument frame by instrument and frame name.
func (s Set) Frame(instrument, name string) (offset.InstrumentFrame, error) {
	p, err := s.Lookup(instrument)
	if err != nil {
		return offset.InstrumentFrame{}, err
	}
	return p.Frame(name)
}

// Limits returns the limits for a detector config, or nil when its
// instrument or detector is not described.
func (s Set) Limits(c detector.Config) *detector.Limits {
	e := c.Common()
	p, ok := s[strings.ToLower(e.Instrument)]
	if !ok {
		return nil
	}
	return p.Limits(e.Detector)
}
