package detector

import (
	"fmt"
	"time"

	"github.com/litescript/ls-odl/internal/header"
)

// DefaultReadoutMode is the IR readout used when none is given.
const DefaultReadoutMode = "CDS"

// IR is an infrared array configuration. An empty ReadoutMode means
// DefaultReadoutMode.
type IR struct {
	Exposure
	Coadds int
}

// NewIR returns an IR configuration with CDS readout, one coadd and one
// exposure.
func NewIR(instrument, detector string, exptime float64) IR {
	return IR{
		Exposure: Exposure{
			Instrument:  instrument,
			Detector:    detector,
			ExpTime:     exptime,
			ReadoutMode: DefaultReadoutMode,
			NumExp:      1,
		},
		Coadds: 1,
	}
}

// Common implements Config.
func (c IR) Common() Exposure { return c.Exposure }

// Readout returns the readout mode in effect.
func (c IR) Readout() string {
	if c.ReadoutMode == "" {
		return DefaultReadoutMode
	}
	return c.ReadoutMode
}

func (c IR) effective() Exposure {
	e := c.Exposure
	e.ReadoutMode = c.Readout()
	return e
}

// Name implements Config.
func (c IR) Name() string {
	return fmt.Sprintf("%s %.0fs (%s, %d coadds) x%d", c.Instrument, c.ExpTime, c.Readout(), c.Coadds, c.NumExp)
}

// Validate implements Config.
func (c IR) Validate(limits *Limits) error {
	name := c.Name()
	if err := c.effective().validate(name, limits); err != nil {
		return err
	}
	if c.Coadds < 1 {
		return &InvalidConfigError{Config: name, Field: "coadds", Reason: fmt.Sprintf("must be >= 1, got %d", c.Coadds)}
	}
	if limits != nil && limits.MaxCoadds > 0 && c.Coadds > limits.MaxCoadds {
		return &InvalidConfigError{Config: name, Field: "coadds", Reason: fmt.Sprintf("%d exceeds maximum %d", c.Coadds, limits.MaxCoadds)}
	}
	return nil
}

// Duration implements Config: NumExp × (ExpTime × Coadds + per-exposure overhead).
func (c IR) Duration(limits *Limits) time.Duration {
	per := c.ExpTime * float64(max(c.Coadds, 1))
	if limits != nil {
		per += limits.Overhead
	}
	return seconds(per * float64(c.NumExp))
}

// Header implements Config.
func (c IR) Header() header.Header {
	h := c.effective().header(c.Name())
	h.Add("DCCOADDS", c.Coadds, "Detector Config Coadds")
	return h
}

func (IR) isConfig() {}
