package codec

// Document is the serialised form of a block list. Field names follow the
// observing block description language; unknown keys are ignored on input.
type Document struct {
	Name   string     `yaml:"name,omitempty" json:"name,omitempty"`
	Blocks []BlockDoc `yaml:"blocks" json:"blocks"`
}

// BlockDoc is one observing block.
type BlockDoc struct {
	Type             string         `yaml:"type" json:"type"`
	ID               string         `yaml:"id,omitempty" json:"id,omitempty"`
	Target           *TargetDoc     `yaml:"target,omitempty" json:"target,omitempty"`
	OffsetPattern    *PatternDoc    `yaml:"offset_pattern,omitempty" json:"offset_pattern,omitempty"`
	InstrumentConfig *InstrumentDoc `yaml:"instrument_config,omitempty" json:"instrument_config,omitempty"`
	DetectorConfigs  []DetectorDoc  `yaml:"detector_configs,omitempty" json:"detector_configs,omitempty"`
	Alignment        *AlignmentDoc  `yaml:"alignment,omitempty" json:"alignment,omitempty"`
}

// TargetDoc is a target. Coord is absent for calibration positions.
type TargetDoc struct {
	Name           string             `yaml:"name" json:"name"`
	Coord          *CoordDoc          `yaml:"coord,omitempty" json:"coord,omitempty"`
	Epoch          *float64           `yaml:"epoch,omitempty" json:"epoch,omitempty"`
	PMRA           float64            `yaml:"pm_ra,omitempty" json:"pm_ra,omitempty"`
	PMDec          float64            `yaml:"pm_dec,omitempty" json:"pm_dec,omitempty"`
	Parallax       float64            `yaml:"parallax,omitempty" json:"parallax,omitempty"`
	RadialVelocity float64            `yaml:"radial_velocity,omitempty" json:"radial_velocity,omitempty"`
	RotMode        string             `yaml:"rotmode,omitempty" json:"rotmode,omitempty"`
	PA             float64            `yaml:"pa,omitempty" json:"pa,omitempty"`
	Acquisition    string             `yaml:"acquisition,omitempty" json:"acquisition,omitempty"`
	ObjectType     string             `yaml:"object_type,omitempty" json:"object_type,omitempty"`
	RAOffset       float64            `yaml:"ra_offset,omitempty" json:"ra_offset,omitempty"`
	DecOffset      float64            `yaml:"dec_offset,omitempty" json:"dec_offset,omitempty"`
	Wrap           string             `yaml:"wrap,omitempty" json:"wrap,omitempty"`
	Mags           map[string]float64 `yaml:"mags,omitempty" json:"mags,omitempty"`
	DRA            float64            `yaml:"dra,omitempty" json:"dra,omitempty"`
	DDec           float64            `yaml:"ddec,omitempty" json:"ddec,omitempty"`
	Comment        string             `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// CoordDoc is a position in degrees.
type CoordDoc struct {
	RA      float64 `yaml:"ra" json:"ra"`
	Dec     float64 `yaml:"dec" json:"dec"`
	Frame   string  `yaml:"frame,omitempty" json:"frame,omitempty"`
	Equinox float64 `yaml:"equinox,omitempty" json:"equinox,omitempty"`
}

// PatternDoc is an offset pattern.
type PatternDoc struct {
	Name    string      `yaml:"name" json:"name"`
	Repeat  int         `yaml:"repeat" json:"repeat"`
	Offsets []OffsetDoc `yaml:"offsets" json:"offsets"`
}

// OffsetDoc is one telescope offset.
type OffsetDoc struct {
	DX       float64  `yaml:"dx" json:"dx"`
	DY       float64  `yaml:"dy" json:"dy"`
	DR       float64  `yaml:"dr,omitempty" json:"dr,omitempty"`
	Frame    FrameDoc `yaml:"frame" json:"frame"`
	Relative bool     `yaml:"relative,omitempty" json:"relative,omitempty"`
	PosName  string   `yaml:"posname,omitempty" json:"posname,omitempty"`
	Guide    bool     `yaml:"guide,omitempty" json:"guide,omitempty"`
}

// FrameDoc is an offset frame. An instrument frame with no scale is looked
// up by instrument and name in the instrument profiles.
type FrameDoc struct {
	Type       string  `yaml:"type" json:"type"`
	Name       string  `yaml:"name,omitempty" json:"name,omitempty"`
	Instrument string  `yaml:"instrument,omitempty" json:"instrument,omitempty"`
	Scale      float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
	Angle      float64 `yaml:"angle,omitempty" json:"angle,omitempty"`
}

// InstrumentDoc is an opaque instrument configuration.
type InstrumentDoc struct {
	Instrument string         `yaml:"instrument" json:"instrument"`
	Name       string         `yaml:"name,omitempty" json:"name,omitempty"`
	Params     map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// DetectorDoc is a detector configuration. NumExp and Coadds default to
// one when absent.
type DetectorDoc struct {
	Type        string  `yaml:"type" json:"type"`
	Instrument  string  `yaml:"instrument" json:"instrument"`
	Detector    string  `yaml:"detector,omitempty" json:"detector,omitempty"`
	ExpTime     float64 `yaml:"exptime" json:"exptime"`
	ReadoutMode string  `yaml:"readoutmode,omitempty" json:"readoutmode,omitempty"`
	NumExp      *int    `yaml:"nexp,omitempty" json:"nexp,omitempty"`
	Coadds      *int    `yaml:"coadds,omitempty" json:"coadds,omitempty"`
	AmpMode     string  `yaml:"ampmode,omitempty" json:"ampmode,omitempty"`
	Dark        bool    `yaml:"dark,omitempty" json:"dark,omitempty"`
	Binning     string  `yaml:"binning,omitempty" json:"binning,omitempty"`
	Window      string  `yaml:"window,omitempty" json:"window,omitempty"`
}

// AlignmentDoc is an alignment strategy. A block without an alignment key
// is not moved at all, which differs from type "blind".
type AlignmentDoc struct {
	Type           string       `yaml:"type" json:"type"`
	Bright         *bool        `yaml:"bright,omitempty" json:"bright,omitempty"`
	TakeSky        bool         `yaml:"takesky,omitempty" json:"takesky,omitempty"`
	Filter         string       `yaml:"filter,omitempty" json:"filter,omitempty"`
	DetectorConfig *DetectorDoc `yaml:"detector_config,omitempty" json:"detector_config,omitempty"`
}
