package offset

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/litescript/ls-odl/internal/header"
)

var (
	// ErrEmptyPattern indicates a pattern with no offsets.
	ErrEmptyPattern = errors.New("offset pattern has no offsets")
	// ErrRepeat indicates a repeat count below one.
	ErrRepeat = errors.New("offset pattern repeat must be >= 1")
	// ErrMixedFrames indicates offsets in one pattern use different frames.
	ErrMixedFrames = errors.New("all offsets in a pattern must share one frame")
)

// TelescopeOffset is one position in a pattern. DX and DY are in the units
// of Frame; DR is a rotator offset in degrees. Relative offsets are applied
// to the current position, absolute ones to the target base position.
type TelescopeOffset struct {
	DX       float64
	DY       float64
	DR       float64
	Frame    Frame
	Relative bool
	PosName  string
	Guide    bool
}

// Resolve translates the offset into keyword writes for its frame.
func (o TelescopeOffset) Resolve() (Command, error) {
	return Resolve(o)
}

// Pattern is an ordered, repeatable list of offsets. It is immutable once
// constructed with NewPattern.
type Pattern struct {
	name    string
	repeat  int
	offsets []TelescopeOffset
}

// NewPattern validates and builds a pattern. Every offset must carry a
// resolvable frame and all offsets must share it.
func NewPattern(name string, repeat int, offsets ...TelescopeOffset) (Pattern, error) {
	if len(offsets) == 0 {
		return Pattern{}, ErrEmptyPattern
	}
	if repeat < 1 {
		return Pattern{}, fmt.Errorf("%w: got %d", ErrRepeat, repeat)
	}
	for i, o := range offsets {
		if o.Frame == nil {
			return Pattern{}, fmt.Errorf("offset %d: %w", i+1, &FrameConfigError{Err: ErrUnsupportedFrame})
		}
		if err := o.Frame.Validate(); err != nil {
			return Pattern{}, fmt.Errorf("offset %d: %w", i+1, err)
		}
		if o.Frame != offsets[0].Frame {
			return Pattern{}, fmt.Errorf("offset %d: %w (%s vs %s)", i+1, ErrMixedFrames, o.Frame.Name(), offsets[0].Frame.Name())
		}
	}
	return Pattern{name: name, repeat: repeat, offsets: slices.Clone(offsets)}, nil
}

// Name returns the pattern name.
func (p Pattern) Name() string { return p.name }

// Repeat returns how many times the offset list is traversed.
func (p Pattern) Repeat() int { return p.repeat }

// Offsets returns a copy of the offsets in one traversal.
func (p Pattern) Offsets() []TelescopeOffset { return slices.Clone(p.offsets) }

// Frame returns the frame shared by every offset, or nil for the zero Pattern.
func (p Pattern) Frame() Frame {
	if len(p.offsets) == 0 {
		return nil
	}
	return p.offsets[0].Frame
}

// IsZero reports whether p was not built by NewPattern.
func (p Pattern) IsZero() bool { return len(p.offsets) == 0 }

// Len is the number of positions Expand yields: repeat × len(offsets).
func (p Pattern) Len() int { return p.repeat * len(p.offsets) }

// Title is the display name including the repeat count.
func (p Pattern) Title() string {
	return fmt.Sprintf("%s x%d", p.name, p.repeat)
}

// Expand yields every offset in execution order: the full list, repeat
// times. The sequence is lazy and can be iterated any number of times.
func (p Pattern) Expand() iter.Seq[TelescopeOffset] {
	return func(yield func(TelescopeOffset) bool) {
		for range p.repeat {
			for _, o := range p.offsets {
				if !yield(o) {
					return
				}
			}
		}
	}
}

// Validate re-checks the construction invariants.
func (p Pattern) Validate() error {
	_, err := NewPattern(p.name, p.repeat, p.offsets...)
	return err
}

// Equal reports whether two patterns describe the same moves.
func (p Pattern) Equal(q Pattern) bool {
	return p.name == q.name && p.repeat == q.repeat && slices.Equal(p.offsets, q.offsets)
}

// Header returns the OP* cards describing the pattern.
func (p Pattern) Header() header.Header {
	var h header.Header
	h.Add("OPNAME", p.Title(), "Offset Pattern Name")
	h.Add("OPREPEAT", p.repeat, "Offset Pattern Repeats")
	h.Add("OPLENGTH", len(p.offsets), "Number of Offset Positions")
	for i, o := range p.offsets {
		n := i + 1
		h.Add(fmt.Sprintf("OP%02dNAME", n), o.PosName, fmt.Sprintf("Position %02d Name", n))
		h.Add(fmt.Sprintf("OP%02dDX", n), o.DX, fmt.Sprintf("Position %02d dX", n))
		h.Add(fmt.Sprintf("OP%02dDY", n), o.DY, fmt.Sprintf("Position %02d dY", n))
		h.Add(fmt.Sprintf("OP%02dREL", n), o.Relative, fmt.Sprintf("Position %02d Relative?", n))
		h.Add(fmt.Sprintf("OP%02dFRM", n), o.Frame.Name(), fmt.Sprintf("Position %02d Frame", n))
		h.Add(fmt.Sprintf("OP%02dGUID", n), o.Guide, fmt.Sprintf("Position %02d Guide?", n))
	}
	return h
}

// Table renders the offsets as a fixed-width text table.
func (p Pattern) Table() string {
	var b strings.Builder
	if f := p.Frame(); f != nil {
		fmt.Fprintf(&b, "Frame: %s\n", f.Name())
	}
	fmt.Fprintf(&b, "Repeats: %d\n", p.repeat)
	b.WriteString(" dx(\")| dy(\")| dr(deg)|    name|guide?\n")
	b.WriteString("------|------|--------|--------|------\n")
	for _, o := range p.offsets {
		fmt.Fprintf(&b, "%+6.1f|%+6.1f|%+8.1f|%8s|%6t\n", o.DX, o.DY, o.DR, o.PosName, o.Guide)
	}
	return b.String()
}
