// Package offset translates abstract telescope moves into frame-specific
// control keywords, and groups moves into repeatable patterns.
package offset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Control keywords written by each frame.
const (
	KeywordRAOff    = "RAOFF"
	KeywordDecOff   = "DECOFF"
	KeywordInstX    = "INSTXOFF"
	KeywordInstY    = "INSTYOFF"
	KeywordInstAngl = "INSTANGL"
)

var (
	// ErrUnsupportedFrame indicates an offset carries no frame or one this
	// package does not know how to resolve.
	ErrUnsupportedFrame = errors.New("unsupported offset frame")
	// ErrMissingScale indicates an instrument frame without a plate scale.
	ErrMissingScale = errors.New("instrument frame requires a finite positive scale")
	// ErrNegativeScale indicates a sky frame scale that is negative or not finite.
	ErrNegativeScale = errors.New("frame scale must be finite and not negative")
)

// FrameConfigError reports a frame that cannot produce a move command.
type FrameConfigError struct {
	Frame string
	Err   error
}

func (e *FrameConfigError) Error() string {
	if e.Frame == "" {
		return "offset frame: " + e.Err.Error()
	}
	return "offset frame " + e.Frame + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *FrameConfigError) Unwrap() error {
	return e.Err
}

// Frame is a coordinate system in which telescope offsets are expressed.
// The set of frames is closed: SkyFrame and InstrumentFrame.
type Frame interface {
	Name() string
	Validate() error
	isFrame()
}

// SkyFrame offsets in sky coordinates (east/west, north/south).
type SkyFrame struct {
	// Scale converts input units to arcsec. Zero means the input is
	// already in arcsec.
	Scale float64
}

// Name implements Frame.
func (SkyFrame) Name() string { return "SkyFrame" }

// Validate implements Frame.
func (f SkyFrame) Validate() error {
	if !(f.Scale >= 0) || math.IsInf(f.Scale, 0) {
		return &FrameConfigError{Frame: f.Name(), Err: ErrNegativeScale}
	}
	return nil
}

func (SkyFrame) isFrame() {}

// InstrumentFrame offsets in a detector or slit coordinate system.
type InstrumentFrame struct {
	Label string  // e.g. "MOSFIRE slit"
	Scale float64 // arcsec per pixel, required
	Angle float64 // degrees between the instrument axes and INSTANGL
}

// Name implements Frame.
func (f InstrumentFrame) Name() string {
	if f.Label != "" {
		return f.Label
	}
	return "InstrumentFrame"
}

// Validate implements Frame.
func (f InstrumentFrame) Validate() error {
	if !(f.Scale > 0) || math.IsInf(f.Scale, 0) {
		return &FrameConfigError{Frame: f.Name(), Err: ErrMissingScale}
	}
	return nil
}

func (InstrumentFrame) isFrame() {}

// KeywordValue is one control keyword write.
type KeywordValue struct {
	Keyword string
	Value   float64
}

// Command is the resolved form of a TelescopeOffset.
type Command struct {
	Frame    string
	Values   []KeywordValue
	DR       float64 // rotator offset, degrees
	Relative bool
	Guide    bool
	PosName  string
}

// Value returns the value written to keyword.
func (c Command) Value(keyword string) (float64, bool) {
	for _, kv := range c.Values {
		if kv.Keyword == keyword {
			return kv.Value, true
		}
	}
	return 0, false
}

func (c Command) String() string {
	parts := make([]string, 0, len(c.Values)+1)
	for _, kv := range c.Values {
		parts = append(parts, kv.Keyword+"="+strconv.FormatFloat(kv.Value, 'f', 1, 64))
	}
	if c.Relative {
		parts = append(parts, "rel2curr")
	} else {
		parts = append(parts, "rel2base")
	}
	return strings.Join(parts, " ")
}

// Resolve translates an offset into the keyword writes for its frame.
// Instrument frames also report the frame angle on INSTANGL; no rotation is
// applied to the values themselves.
func Resolve(o TelescopeOffset) (Command, error) {
	cmd := Command{
		DR:       o.DR,
		Relative: o.Relative,
		Guide:    o.Guide,
		PosName:  o.PosName,
	}

	switch f := o.Frame.(type) {
	case SkyFrame:
		if err := f.Validate(); err != nil {
			return Command{}, err
		}
		scale := 1.0
		if f.Scale > 0 {
			scale = f.Scale
		}
		cmd.Frame = f.Name()
		cmd.Values = []KeywordValue{
			{Keyword: KeywordRAOff, Value: o.DX * scale},
			{Keyword: KeywordDecOff, Value: o.DY * scale},
		}
	case InstrumentFrame:
		if err := f.Validate(); err != nil {
			return Command{}, err
		}
		cmd.Frame = f.Name()
		cmd.Values = []KeywordValue{
			{Keyword: KeywordInstX, Value: o.DX * f.Scale},
			{Keyword: KeywordInstY, Value: o.DY * f.Scale},
			{Keyword: KeywordInstAngl, Value: f.Angle},
		}
	case nil:
		return Command{}, &FrameConfigError{Err: ErrUnsupportedFrame}
	default:
		return Command{}, &FrameConfigError{Frame: fmt.Sprintf("%T", f), Err: ErrUnsupportedFrame}
	}
	return cmd, nil
}
