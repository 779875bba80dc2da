// Package alignment describes how the telescope is brought onto a target
// before the first exposure. A nil Alignment means the telescope is not
// moved at all, which is distinct from a Blind acquisition.
package alignment

import (
	"errors"
	"fmt"

	"github.com/litescript/ls-odl/internal/detector"
	"github.com/litescript/ls-odl/internal/header"
)

// ErrNoDetector indicates a mask alignment without its detector config.
var ErrNoDetector = errors.New("mask alignment needs a detector config")

// Alignment is one acquisition strategy. The set is closed: Blind, Guider
// and Mask.
type Alignment interface {
	Name() string
	Validate(limits *detector.Limits) error
	Header() header.Header
	isAlignment()
}

// Defaults holds site-configurable defaults for new alignments.
type Defaults struct {
	GuiderBright bool
}

// DefaultDefaults returns the built-in defaults.
func DefaultDefaults() Defaults {
	return Defaults{GuiderBright: true}
}

// Blind slews to the target with no feedback.
type Blind struct{}

// Name implements Alignment.
func (Blind) Name() string { return "Blind Align" }

// Validate implements Alignment.
func (Blind) Validate(*detector.Limits) error { return nil }

// Header implements Alignment.
func (a Blind) Header() header.Header { return nameHeader(a) }

func (Blind) isAlignment() {}

// Guider aligns the target on a slit-viewing guider. When Bright is false
// the operator may need longer guider exposures to see it.
type Guider struct {
	Bright bool
}

// NewGuider returns a guider alignment using the brightness default.
func (d Defaults) NewGuider() Guider {
	return Guider{Bright: d.GuiderBright}
}

// Name implements Alignment.
func (a Guider) Name() string {
	if !a.Bright {
		return "Guider Align, faint"
	}
	return "Guider Align"
}

// Validate implements Alignment.
func (Guider) Validate(*detector.Limits) error { return nil }

// Header implements Alignment.
func (a Guider) Header() header.Header {
	h := nameHeader(a)
	h.Add("ALBRIGHT", a.Bright, "Alignment Target Bright?")
	return h
}

func (Guider) isAlignment() {}

// Mask aligns a slit mask using science detector images, optionally with a
// sky frame and a dedicated filter.
type Mask struct {
	Bright    bool
	DetConfig detector.Config // required; used for the alignment images
	TakeSky   bool
	Filter    string
}

// Name implements Alignment.
func (a Mask) Name() string {
	if a.Bright {
		return "Mask Align, bright"
	}
	return "Mask Align"
}

// Validate implements Alignment. The alignment detector config is checked
// on its own, independent of the block's science configs.
func (a Mask) Validate(limits *detector.Limits) error {
	if a.DetConfig == nil {
		return fmt.Errorf("%s: %w", a.Name(), ErrNoDetector)
	}
	if err := a.DetConfig.Validate(limits); err != nil {
		return fmt.Errorf("%s: %w", a.Name(), err)
	}
	return nil
}

// Header implements Alignment.
func (a Mask) Header() header.Header {
	h := nameHeader(a)
	h.Add("ALBRIGHT", a.Bright, "Alignment Target Bright?")
	h.Add("ALSKY", a.TakeSky, "Alignment Take Sky?")
	if a.Filter != "" {
		h.Add("ALFILTER", a.Filter, "Alignment Filter")
	}
	if a.DetConfig != nil {
		h.Add("ALDCNAME", a.DetConfig.Name(), "Alignment Detector Config")
	}
	return h
}

func (Mask) isAlignment() {}

func nameHeader(a Alignment) header.Header {
	var h header.Header
	h.Add("ALNAME", a.Name(), "Alignment Name")
	return h
}

// Name returns a display name, "None" when a is nil.
func Name(a Alignment) string {
	if a == nil {
		return "None"
	}
	return a.Name()
}

// Moves reports whether executing a slews the telescope.
func Moves(a Alignment) bool {
	return a != nil
}
