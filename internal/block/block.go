// Package block composes targets, offset patterns, instrument and detector
// configurations and alignments into observing blocks, and validates them
// per observation kind.
package block

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/litescript/ls-odl/internal/alignment"
	"github.com/litescript/ls-odl/internal/detector"
	"github.com/litescript/ls-odl/internal/header"
	"github.com/litescript/ls-odl/internal/instrument"
	"github.com/litescript/ls-odl/internal/offset"
	"github.com/litescript/ls-odl/internal/target"
)

// State is the validation state of a block.
type State int

const (
	Unvalidated State = iota
	Valid
	Invalid
)

func (s State) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unvalidated"
	}
}

// Components are the parts a block is assembled from. Target and Alignment
// may be nil.
type Components struct {
	Target     *target.Target
	Pattern    offset.Pattern
	Instrument instrument.Config
	Detectors  []detector.Config
	Alignment  alignment.Alignment
}

// Block is an observing block. It is a value: the With methods return
// modified copies, and any modification resets the state to Unvalidated.
type Block struct {
	id    uuid.UUID
	kind  Kind
	c     Components
	state State
	err   *CompositionError
}

// New assembles an unvalidated block with a fresh ID.
func New(kind Kind, c Components) Block {
	return Block{id: uuid.New(), kind: kind, c: c.clone()}
}

func (c Components) clone() Components {
	out := c
	out.Target = c.Target.Clone()
	out.Detectors = slices.Clone(c.Detectors)
	return out
}

// ID is stable across modifications.
func (b Block) ID() uuid.UUID { return b.id }

// Kind returns the observation type.
func (b Block) Kind() Kind { return b.kind }

// State returns the validation state.
func (b Block) State() State { return b.state }

// Err returns the composition error of an Invalid block.
func (b Block) Err() error {
	if b.err == nil {
		return nil
	}
	return b.err
}

// Components returns a copy of the block's parts.
func (b Block) Components() Components { return b.c.clone() }

// Target returns a copy of the target, or nil.
func (b Block) Target() *target.Target { return b.c.Target.Clone() }

// Pattern returns the offset pattern.
func (b Block) Pattern() offset.Pattern { return b.c.Pattern }

// Instrument returns the instrument configuration.
func (b Block) Instrument() instrument.Config { return b.c.Instrument }

// Detectors returns a copy of the detector configurations.
func (b Block) Detectors() []detector.Config { return slices.Clone(b.c.Detectors) }

// Alignment returns the alignment, nil when the telescope is not moved.
func (b Block) Alignment() alignment.Alignment { return b.c.Alignment }

func (b Block) modified(c Components) Block {
	return Block{id: b.id, kind: b.kind, c: c}
}

// WithID returns a copy carrying id, used when loading stored blocks.
func (b Block) WithID(id uuid.UUID) Block {
	out := b.modified(b.c.clone())
	out.id = id
	return out
}

// WithTarget returns an unvalidated copy with t.
func (b Block) WithTarget(t *target.Target) Block {
	c := b.c.clone()
	c.Target = t.Clone()
	return b.modified(c)
}

// WithPattern returns an unvalidated copy with p.
func (b Block) WithPattern(p offset.Pattern) Block {
	c := b.c.clone()
	c.Pattern = p
	return b.modified(c)
}

// WithInstrument returns an unvalidated copy with ic.
func (b Block) WithInstrument(ic instrument.Config) Block {
	c := b.c.clone()
	c.Instrument = ic
	return b.modified(c)
}

// WithDetectors returns an unvalidated copy with configs.
func (b Block) WithDetectors(configs ...detector.Config) Block {
	c := b.c.clone()
	c.Detectors = slices.Clone(configs)
	return b.modified(c)
}

// WithAlignment returns an unvalidated copy with a; nil removes it.
func (b Block) WithAlignment(a alignment.Alignment) Block {
	c := b.c.clone()
	c.Alignment = a
	return b.modified(c)
}

// Name summarises the block as "Kind: target / pattern / instrument".
func (b Block) Name() string {
	parts := []string{b.c.Target.String(), b.c.Pattern.Title(), b.c.Instrument.String()}
	return fmt.Sprintf("%s: %s", b.kind, strings.Join(parts, " / "))
}

// Exposures counts the frames the block produces: every expanded offset
// takes NumExp exposures with each detector.
func (b Block) Exposures() int {
	n := 0
	for _, d := range b.c.Detectors {
		if d != nil {
			n += d.Common().NumExp
		}
	}
	return b.c.Pattern.Len() * n
}

// EstimateDuration is pattern length times the slowest detector config.
// Detectors read out in parallel. A nil limits ignores readout overheads,
// which yields the shutter-open time.
func (b Block) EstimateDuration(limits LimitsFunc) time.Duration {
	return time.Duration(b.c.Pattern.Len()) * detector.MaxDuration(b.c.Detectors, limits)
}

// Header returns the FITS cards for the whole block.
func (b Block) Header() header.Header {
	var h header.Header
	h.Add("OBTYPE", string(b.kind), "Observing Block Type")
	h.Add("OBID", b.id.String(), "Observing Block ID")
	if t := b.c.Target; t != nil {
		h.Add("TARGNAME", t.Name, "Target Name")
	}
	h = append(h, b.c.Pattern.Header()...)
	h = append(h, b.c.Instrument.Header()...)
	for _, d := range b.c.Detectors {
		if d != nil {
			h = append(h, d.Header()...)
		}
	}
	if b.c.Alignment != nil {
		h = append(h, b.c.Alignment.Header()...)
	}
	return h
}

// Dependency is an absolute offset whose sky position depends on the
// target position at execution time.
type Dependency struct {
	Index  int // position in the expanded pattern
	Offset offset.TelescopeOffset
	Target string
}

// Dependencies lists the absolute offsets that are applied relative to the
// target base position. They are resolved by Plan, not by Finalize.
func (b Block) Dependencies() []Dependency {
	if b.c.Target == nil || b.c.Target.Position == nil {
		return nil
	}
	var deps []Dependency
	i := 0
	for o := range b.c.Pattern.Expand() {
		if !o.Relative {
			deps = append(deps, Dependency{Index: i, Offset: o, Target: b.c.Target.Name})
		}
		i++
	}
	return deps
}

func (b Block) String() string {
	return fmt.Sprintf("%s [%s]", b.Name(), b.state)
}
