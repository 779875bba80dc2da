package detector

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/litescript/ls-odl/internal/header"
)

// ErrFormat indicates an unparsable binning or window string.
var ErrFormat = errors.New("malformed detector geometry")

// Binning is the on-chip binning, columns by rows.
type Binning struct {
	X, Y int
}

// ParseBinning parses "2x2".
func ParseBinning(s string) (Binning, error) {
	xs, ys, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Binning{}, fmt.Errorf("%w: binning %q", ErrFormat, s)
	}
	x, err1 := strconv.Atoi(xs)
	y, err2 := strconv.Atoi(ys)
	if err1 != nil || err2 != nil {
		return Binning{}, fmt.Errorf("%w: binning %q", ErrFormat, s)
	}
	return Binning{X: x, Y: y}, nil
}

func (b Binning) String() string {
	return fmt.Sprintf("%dx%d", b.X, b.Y)
}

// Window is a detector region of interest in unbinned pixels, inclusive.
type Window struct {
	X1, X2, Y1, Y2 int
}

// ParseWindow parses "x1:x2,y1:y2".
func ParseWindow(s string) (*Window, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	xr, yr, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("%w: window %q", ErrFormat, s)
	}
	x1, x2, err := parseRange(xr)
	if err != nil {
		return nil, fmt.Errorf("%w: window %q", ErrFormat, s)
	}
	y1, y2, err := parseRange(yr)
	if err != nil {
		return nil, fmt.Errorf("%w: window %q", ErrFormat, s)
	}
	return &Window{X1: x1, X2: x2, Y1: y1, Y2: y2}, nil
}

func parseRange(s string) (int, int, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, ErrFormat
	}
	lo, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, err
	}
	hi, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func (w Window) String() string {
	return fmt.Sprintf("%d:%d,%d:%d", w.X1, w.X2, w.Y1, w.Y2)
}

// Visible is a CCD configuration.
type Visible struct {
	Exposure
	AmpMode string
	Dark    bool // keep the shutter closed
	Binning Binning
	Window  *Window // nil reads the full frame
}

// NewVisible returns an unbinned full-frame configuration with one exposure.
func NewVisible(instrument, detector string, exptime float64) Visible {
	return Visible{
		Exposure: Exposure{
			Instrument: instrument,
			Detector:   detector,
			ExpTime:    exptime,
			NumExp:     1,
		},
		Binning: Binning{X: 1, Y: 1},
	}
}

// Common implements Config.
func (c Visible) Common() Exposure { return c.Exposure }

// Name implements Config.
func (c Visible) Name() string {
	dark := ""
	if c.Dark {
		dark = " (Dark)"
	}
	return fmt.Sprintf("%s%s %.0fs%s x%d", c.Instrument, c.Detector, c.ExpTime, dark, c.NumExp)
}

// Validate implements Config.
func (c Visible) Validate(limits *Limits) error {
	name := c.Name()
	if err := c.Exposure.validate(name, limits); err != nil {
		return err
	}
	if c.Binning.X < 1 || c.Binning.Y < 1 {
		return &InvalidConfigError{Config: name, Field: "binning", Reason: fmt.Sprintf("%s must be positive", c.Binning)}
	}
	if limits != nil && len(limits.Binnings) > 0 && !slices.Contains(limits.Binnings, c.Binning) {
		return &InvalidConfigError{Config: name, Field: "binning", Reason: fmt.Sprintf("%s not supported", c.Binning)}
	}
	if limits != nil && len(limits.AmpModes) > 0 && !slices.Contains(limits.AmpModes, c.AmpMode) {
		return &InvalidConfigError{Config: name, Field: "ampmode", Reason: fmt.Sprintf("%q not one of %v", c.AmpMode, limits.AmpModes)}
	}
	if w := c.Window; w != nil {
		if w.X1 < 1 || w.Y1 < 1 || w.X2 < w.X1 || w.Y2 < w.Y1 {
			return &InvalidConfigError{Config: name, Field: "window", Reason: fmt.Sprintf("%s is not a valid region", w)}
		}
		if limits != nil && limits.Width > 0 && limits.Height > 0 && (w.X2 > limits.Width || w.Y2 > limits.Height) {
			return &InvalidConfigError{Config: name, Field: "window", Reason: fmt.Sprintf("%s exceeds %dx%d detector", w, limits.Width, limits.Height)}
		}
	}
	return nil
}

// Duration implements Config: NumExp × (ExpTime + per-exposure overhead).
func (c Visible) Duration(limits *Limits) time.Duration {
	per := c.ExpTime
	if limits != nil {
		per += limits.Overhead
	}
	return seconds(per * float64(c.NumExp))
}

// Header implements Config.
func (c Visible) Header() header.Header {
	h := c.Exposure.header(c.Name())
	h.Add("DCAMPMOD", c.AmpMode, "Detector Config Amplifier Mode")
	h.Add("DCDARK", c.Dark, "Detector Config Dark?")
	h.Add("DCBIN", c.Binning.String(), "Detector Config Binning")
	if c.Window != nil {
		h.Add("DCWINDOW", c.Window.String(), "Detector Config Window")
	}
	return h
}

func (Visible) isConfig() {}
