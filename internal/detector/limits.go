package detector

import "slices"

// Limits are the hardware constraints of one detector. Zero values mean
// "unconstrained". Limits are loaded from instrument profiles.
type Limits struct {
	Width        int       // pixels
	Height       int       // pixels
	Binnings     []Binning // allowed binnings
	ReadoutModes []string  // e.g. CDS, MCDS1..MCDS32
	AmpModes     []string
	MaxCoadds    int
	MinExpTime   float64 // seconds
	Overhead     float64 // seconds added to every exposure
}

func (l *Limits) hasReadoutMode(mode string) bool {
	return slices.Contains(l.ReadoutModes, mode)
}
