package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/litescript/ls-odl/internal/alignment"
	"github.com/litescript/ls-odl/internal/astro"
	"github.com/litescript/ls-odl/internal/block"
	"github.com/litescript/ls-odl/internal/detector"
	"github.com/litescript/ls-odl/internal/instrument"
	"github.com/litescript/ls-odl/internal/offset"
	"github.com/litescript/ls-odl/internal/target"
)

// ErrUnknownType indicates a type discriminator this codec does not know.
var ErrUnknownType = errors.New("unknown type")

// Discriminator values.
const (
	FrameSky        = "sky"
	FrameInstrument = "instrument"
	DetectorIR      = "ir"
	DetectorVisible = "visible"
	AlignBlind      = "blind"
	AlignGuider     = "guider"
	AlignMask       = "mask"
)

// FromList converts a block list to its document form.
func FromList(l block.List) Document {
	doc := Document{Name: l.Name, Blocks: make([]BlockDoc, 0, l.Len())}
	for _, b := range l.All() {
		doc.Blocks = append(doc.Blocks, FromBlock(b))
	}
	return doc
}

// FromBlock converts one block to its document form.
func FromBlock(b block.Block) BlockDoc {
	c := b.Components()
	doc := BlockDoc{
		Type:   string(b.Kind()),
		ID:     b.ID().String(),
		Target: FromTarget(c.Target),
	}
	if !c.Pattern.IsZero() {
		doc.OffsetPattern = fromPattern(c.Pattern)
	}
	if !c.Instrument.IsZero() {
		doc.InstrumentConfig = &InstrumentDoc{
			Instrument: c.Instrument.Instrument,
			Name:       c.Instrument.Name,
		}
		if len(c.Instrument.Params) > 0 {
			doc.InstrumentConfig.Params = c.Instrument.Params
		}
	}
	for _, d := range c.Detectors {
		if d != nil {
			doc.DetectorConfigs = append(doc.DetectorConfigs, fromDetector(d))
		}
	}
	doc.Alignment = fromAlignment(c.Alignment)
	return doc
}

// FromTarget converts a target to its document form. A nil target gives nil.
func FromTarget(t *target.Target) *TargetDoc {
	if t == nil {
		return nil
	}
	doc := &TargetDoc{
		Name:           t.Name,
		Epoch:          t.Epoch,
		PMRA:           t.PM.PMRA,
		PMDec:          t.PM.PMDec,
		Parallax:       t.Parallax,
		RadialVelocity: t.RadialVelocity,
		RotMode:        string(t.RotMode),
		PA:             t.PA,
		Acquisition:    t.Acquisition,
		ObjectType:     t.ObjectType,
		RAOffset:       t.RAOffset,
		DecOffset:      t.DecOffset,
		Wrap:           t.Wrap,
		Mags:           t.Mags,
		DRA:            t.DRA,
		DDec:           t.DDec,
		Comment:        t.Comment,
	}
	if p := t.Position; p != nil {
		doc.Coord = &CoordDoc{RA: p.RAdeg, Dec: p.DecDeg, Frame: string(p.Frame), Equinox: p.Equinox}
	}
	return doc
}

func fromPattern(p offset.Pattern) *PatternDoc {
	doc := &PatternDoc{Name: p.Name(), Repeat: p.Repeat()}
	for _, o := range p.Offsets() {
		doc.Offsets = append(doc.Offsets, OffsetDoc{
			DX:       o.DX,
			DY:       o.DY,
			DR:       o.DR,
			Frame:    fromFrame(o.Frame),
			Relative: o.Relative,
			PosName:  o.PosName,
			Guide:    o.Guide,
		})
	}
	return doc
}

func fromFrame(f offset.Frame) FrameDoc {
	switch f := f.(type) {
	case offset.SkyFrame:
		return FrameDoc{Type: FrameSky, Scale: f.Scale}
	case offset.InstrumentFrame:
		return FrameDoc{Type: FrameInstrument, Name: f.Label, Scale: f.Scale, Angle: f.Angle}
	}
	return FrameDoc{}
}

func fromDetector(d detector.Config) DetectorDoc {
	e := d.Common()
	nexp := e.NumExp
	doc := DetectorDoc{
		Instrument:  e.Instrument,
		Detector:    e.Detector,
		ExpTime:     e.ExpTime,
		ReadoutMode: e.ReadoutMode,
		NumExp:      &nexp,
	}
	switch d := d.(type) {
	case detector.IR:
		coadds := d.Coadds
		doc.Type = DetectorIR
		doc.Coadds = &coadds
	case detector.Visible:
		doc.Type = DetectorVisible
		doc.AmpMode = d.AmpMode
		doc.Dark = d.Dark
		doc.Binning = d.Binning.String()
		if d.Window != nil {
			doc.Window = d.Window.String()
		}
	}
	return doc
}

func fromAlignment(a alignment.Alignment) *AlignmentDoc {
	switch a := a.(type) {
	case alignment.Blind:
		return &AlignmentDoc{Type: AlignBlind}
	case alignment.Guider:
		bright := a.Bright
		return &AlignmentDoc{Type: AlignGuider, Bright: &bright}
	case alignment.Mask:
		bright := a.Bright
		doc := &AlignmentDoc{Type: AlignMask, Bright: &bright, TakeSky: a.TakeSky, Filter: a.Filter}
		if a.DetConfig != nil {
			dc := fromDetector(a.DetConfig)
			doc.DetectorConfig = &dc
		}
		return doc
	}
	return nil
}

// Decoder turns documents into blocks. Profiles resolve instrument frames
// given by name; Defaults fill in alignment fields left out.
type Decoder struct {
	Profiles instrument.Set
	Defaults alignment.Defaults
}

// NewDecoder returns a decoder with the builtin profiles and defaults.
func NewDecoder() *Decoder {
	return &Decoder{Profiles: instrument.Builtin(), Defaults: alignment.DefaultDefaults()}
}

// List converts a document into an unvalidated block list.
func (d *Decoder) List(doc Document) (block.List, error) {
	blocks := make([]block.Block, 0, len(doc.Blocks))
	for i, bd := range doc.Blocks {
		b, err := d.Block(bd)
		if err != nil {
			return block.List{}, fmt.Errorf("blocks[%d]: %w", i, err)
		}
		blocks = append(blocks, b)
	}
	return block.NewList(doc.Name, blocks...), nil
}

// Block converts one block document. Structural errors (bad types, bad
// pattern) fail here; composition rules are left to Finalize.
func (d *Decoder) Block(doc BlockDoc) (block.Block, error) {
	kind, err := block.ParseKind(doc.Type)
	if err != nil {
		return block.Block{}, fmt.Errorf("type: %w", err)
	}

	var c block.Components
	if c.Target, err = toTarget(doc.Target); err != nil {
		return block.Block{}, fmt.Errorf("target: %w", err)
	}
	if doc.OffsetPattern != nil {
		if c.Pattern, err = d.toPattern(*doc.OffsetPattern); err != nil {
			return block.Block{}, fmt.Errorf("offset_pattern: %w", err)
		}
	}
	if ic := doc.InstrumentConfig; ic != nil {
		c.Instrument = instrument.Config{Instrument: ic.Instrument, Name: ic.Name, Params: normalizeParams(ic.Params)}
	}
	for i, dd := range doc.DetectorConfigs {
		dc, err := toDetector(dd)
		if err != nil {
			return block.Block{}, fmt.Errorf("detector_configs[%d]: %w", i, err)
		}
		c.Detectors = append(c.Detectors, dc)
	}
	if c.Alignment, err = d.toAlignment(doc.Alignment); err != nil {
		return block.Block{}, fmt.Errorf("alignment: %w", err)
	}

	b := block.New(kind, c)
	if doc.ID != "" {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return block.Block{}, fmt.Errorf("id: %w", err)
		}
		b = b.WithID(id)
	}
	return b, nil
}

func toTarget(doc *TargetDoc) (*target.Target, error) {
	if doc == nil {
		return nil, nil
	}
	t := &target.Target{
		Name:           doc.Name,
		Epoch:          doc.Epoch,
		PM:             astro.ProperMotion{PMRA: doc.PMRA, PMDec: doc.PMDec},
		Parallax:       doc.Parallax,
		RadialVelocity: doc.RadialVelocity,
		RotMode:        target.RotMode(doc.RotMode),
		PA:             doc.PA,
		Acquisition:    doc.Acquisition,
		ObjectType:     doc.ObjectType,
		RAOffset:       doc.RAOffset,
		DecOffset:      doc.DecOffset,
		Wrap:           doc.Wrap,
		Mags:           doc.Mags,
		DRA:            doc.DRA,
		DDec:           doc.DDec,
		Comment:        doc.Comment,
	}
	if cd := doc.Coord; cd != nil {
		t.Position = &astro.SkyCoord{RAdeg: cd.RA, DecDeg: cd.Dec, Equinox: cd.Equinox}
		// An absent frame stays unset and reads as ICRS.
		if cd.Frame != "" {
			frame, err := astro.ParseFrame(cd.Frame)
			if err != nil {
				return nil, err
			}
			t.Position.Frame = frame
		}
	}
	return t.Clone(), nil
}

func (d *Decoder) toPattern(doc PatternDoc) (offset.Pattern, error) {
	offsets := make([]offset.TelescopeOffset, 0, len(doc.Offsets))
	for i, od := range doc.Offsets {
		f, err := d.toFrame(od.Frame)
		if err != nil {
			return offset.Pattern{}, fmt.Errorf("offsets[%d]: %w", i, err)
		}
		offsets = append(offsets, offset.TelescopeOffset{
			DX:       od.DX,
			DY:       od.DY,
			DR:       od.DR,
			Frame:    f,
			Relative: od.Relative,
			PosName:  od.PosName,
			Guide:    od.Guide,
		})
	}
	return offset.NewPattern(doc.Name, doc.Repeat, offsets...)
}

func (d *Decoder) toFrame(doc FrameDoc) (offset.Frame, error) {
	switch strings.ToLower(doc.Type) {
	case FrameSky, "":
		return offset.SkyFrame{Scale: doc.Scale}, nil
	case FrameInstrument:
		if doc.Scale == 0 && doc.Instrument != "" && d.Profiles != nil {
			return d.Profiles.Frame(doc.Instrument, doc.Name)
		}
		return offset.InstrumentFrame{Label: doc.Name, Scale: doc.Scale, Angle: doc.Angle}, nil
	}
	return nil, fmt.Errorf("%w: frame %q", ErrUnknownType, doc.Type)
}

func toDetector(doc DetectorDoc) (detector.Config, error) {
	e := detector.Exposure{
		Instrument:  doc.Instrument,
		Detector:    doc.Detector,
		ExpTime:     doc.ExpTime,
		ReadoutMode: doc.ReadoutMode,
		NumExp:      intOr(doc.NumExp, 1),
	}
	switch strings.ToLower(doc.Type) {
	case DetectorIR:
		return detector.IR{Exposure: e, Coadds: intOr(doc.Coadds, 1)}, nil
	case DetectorVisible:
		c := detector.Visible{Exposure: e, AmpMode: doc.AmpMode, Dark: doc.Dark, Binning: detector.Binning{X: 1, Y: 1}}
		if doc.Binning != "" {
			b, err := detector.ParseBinning(doc.Binning)
			if err != nil {
				return nil, err
			}
			c.Binning = b
		}
		w, err := detector.ParseWindow(doc.Window)
		if err != nil {
			return nil, err
		}
		c.Window = w
		return c, nil
	}
	return nil, fmt.Errorf("%w: detector %q", ErrUnknownType, doc.Type)
}

func (d *Decoder) toAlignment(doc *AlignmentDoc) (alignment.Alignment, error) {
	if doc == nil {
		return nil, nil
	}
	switch strings.ToLower(doc.Type) {
	case AlignBlind:
		return alignment.Blind{}, nil
	case AlignGuider:
		g := d.Defaults.NewGuider()
		if doc.Bright != nil {
			g.Bright = *doc.Bright
		}
		return g, nil
	case AlignMask:
		m := alignment.Mask{TakeSky: doc.TakeSky, Filter: doc.Filter}
		if doc.Bright != nil {
			m.Bright = *doc.Bright
		}
		if doc.DetectorConfig != nil {
			dc, err := toDetector(*doc.DetectorConfig)
			if err != nil {
				return nil, fmt.Errorf("detector_config: %w", err)
			}
			m.DetConfig = dc
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: alignment %q", ErrUnknownType, doc.Type)
}

// normalizeParams turns the numbers a decoder produced into int when
// integral and float64 otherwise, at any depth.
func normalizeParams(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(v.String(), 10, 0); err == nil {
			return int(i)
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case int64:
		return int(v)
	case uint64:
		if v <= math.MaxInt {
			return int(v)
		}
		return float64(v)
	case map[string]any:
		return normalizeParams(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalizeValue(e)
		}
		return out
	}
	return v
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
