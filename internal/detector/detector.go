// Package detector describes how a detector is read out for one exposure
// set: exposure time, readout mode, repeats and the IR or visible specifics.
package detector

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-odl/internal/header"
)

// ErrInvalidDetectorConfig is the sentinel behind every InvalidConfigError.
var ErrInvalidDetectorConfig = errors.New("invalid detector config")

// InvalidConfigError reports the first field that failed validation.
type InvalidConfigError struct {
	Config string
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("detector config %q: %s: %s", e.Config, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidDetectorConfig.
func (e *InvalidConfigError) Unwrap() error {
	return ErrInvalidDetectorConfig
}

// Config is a detector configuration. The set is closed: IR and Visible.
type Config interface {
	// Common returns the fields shared by every detector kind.
	Common() Exposure
	// Name is a human-readable summary such as "NIRES 300s (CDS, 1 coadds) x2".
	Name() string
	// Validate checks the configuration against optional detector limits.
	Validate(limits *Limits) error
	// Duration estimates wall time for all NumExp exposures.
	Duration(limits *Limits) time.Duration
	// Header returns the DC* cards describing the configuration.
	Header() header.Header
	isConfig()
}

// Exposure holds the fields common to every detector configuration.
type Exposure struct {
	Instrument  string
	Detector    string
	ExpTime     float64 // seconds, per coadd where applicable
	ReadoutMode string
	NumExp      int
}

func (e Exposure) validate(name string, limits *Limits) error {
	if !(e.ExpTime > 0) || math.IsInf(e.ExpTime, 0) {
		return &InvalidConfigError{Config: name, Field: "exptime", Reason: fmt.Sprintf("must be finite and > 0, got %g", e.ExpTime)}
	}
	if e.NumExp < 1 {
		return &InvalidConfigError{Config: name, Field: "nexp", Reason: fmt.Sprintf("must be >= 1, got %d", e.NumExp)}
	}
	if limits == nil {
		return nil
	}
	if limits.MinExpTime > 0 && e.ExpTime < limits.MinExpTime {
		return &InvalidConfigError{Config: name, Field: "exptime", Reason: fmt.Sprintf("%g below detector minimum %g", e.ExpTime, limits.MinExpTime)}
	}
	if len(limits.ReadoutModes) > 0 && !limits.hasReadoutMode(e.ReadoutMode) {
		return &InvalidConfigError{Config: name, Field: "readoutmode", Reason: fmt.Sprintf("%q not one of %v", e.ReadoutMode, limits.ReadoutModes)}
	}
	return nil
}

func (e Exposure) header(name string) header.Header {
	var h header.Header
	h.Add("DCNAME", name, "Detector Config Name")
	h.Add("DCINSTR", e.Instrument, "Detector Config Instrument Name")
	h.Add("DCDET", e.Detector, "Detector Config Detector Name")
	h.Add("DCEXPT", e.ExpTime, "Detector Config Exptime (sec)")
	h.Add("DCNEXP", e.NumExp, "Detector Config Number of Exposures")
	h.Add("DCRDMODE", e.ReadoutMode, "Detector Config Readout Mode")
	return h
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// MaxDuration returns the longest Duration among configs.
func MaxDuration(configs []Config, limits func(Config) *Limits) time.Duration {
	var longest time.Duration
	for _, c := range configs {
		if c == nil {
			continue
		}
		var l *Limits
		if limits != nil {
			l = limits(c)
		}
		longest = max(longest, c.Duration(l))
	}
	return longest
}
