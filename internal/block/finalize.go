package block

import (
	"fmt"
	"strings"

	"github.com/litescript/ls-odl/internal/alignment"
	"github.com/litescript/ls-odl/internal/detector"
	"github.com/litescript/ls-odl/internal/offset"
)

// LimitsFunc returns the hardware limits for a detector config, or nil when
// none are known.
type LimitsFunc func(detector.Config) *detector.Limits

// Options tune Finalize.
type Options struct {
	// ExpectInstrument, when set, is the instrument every block must target.
	ExpectInstrument string
	// Limits supplies per-detector limits, typically instrument.Set.Limits.
	Limits LimitsFunc
}

func (o Options) limits(c detector.Config) *detector.Limits {
	if o.Limits == nil || c == nil {
		return nil
	}
	return o.Limits(c)
}

// Finalize validates the block and returns a copy in the Valid or Invalid
// state. Every violated rule is reported in one *CompositionError.
// Finalizing an already finalized block returns it unchanged together with
// its original outcome; Invalid is terminal until a component is replaced.
func (b Block) Finalize(opts Options) (Block, error) {
	if b.state != Unvalidated {
		return b, b.Err()
	}

	violations := b.check(opts)
	out := b
	out.c = b.c.clone()
	if len(violations) == 0 {
		out.state = Valid
		return out, nil
	}
	out.state = Invalid
	out.err = &CompositionError{Kind: b.kind, Block: b.id.String(), Violations: violations}
	return out, out.err
}

func (b Block) check(opts Options) []Violation {
	var vs []Violation
	add := func(rule, component string, err error) {
		vs = append(vs, Violation{Rule: rule, Component: component, Err: err})
	}

	req, ok := b.kind.Requires()
	if !ok {
		add(RuleKind, "type", fmt.Errorf("unknown kind %q", b.kind))
	}

	switch t := b.c.Target; {
	case t == nil && req.Target:
		add(RuleTarget, "target", fmt.Errorf("%w: %s blocks require a target", ErrMissingComponent, b.kind))
	case t != nil:
		if err := t.Validate(); err != nil {
			add(RuleTarget, "target", err)
		}
	}

	if b.c.Pattern.IsZero() {
		add(RulePattern, "offset_pattern", offset.ErrEmptyPattern)
	} else if err := b.c.Pattern.Validate(); err != nil {
		add(RulePattern, "offset_pattern", err)
	}

	ic := b.c.Instrument
	switch {
	case ic.IsZero():
		add(RuleInstrument, "instrument_config", fmt.Errorf("%w: instrument config", ErrMissingComponent))
	case opts.ExpectInstrument != "" && !strings.EqualFold(ic.Instrument, opts.ExpectInstrument):
		add(RuleInstrumentMismatch, "instrument_config",
			fmt.Errorf("%w: block is for %s, expected %s", ErrInstrumentMismatch, ic.Instrument, opts.ExpectInstrument))
	}

	if len(b.c.Detectors) == 0 {
		add(RuleDetector, "detector_configs", fmt.Errorf("%w: at least one detector config", ErrMissingComponent))
	}
	for i, d := range b.c.Detectors {
		component := fmt.Sprintf("detector_configs[%d]", i)
		if d == nil {
			add(RuleDetector, component, fmt.Errorf("%w: nil detector config", ErrMissingComponent))
			continue
		}
		if err := d.Validate(opts.limits(d)); err != nil {
			add(RuleDetector, component, err)
		}
		if inst := d.Common().Instrument; inst != "" && !ic.IsZero() && !strings.EqualFold(inst, ic.Instrument) {
			add(RuleInstrumentMismatch, component,
				fmt.Errorf("%w: detector is for %s, block is for %s", ErrInstrumentMismatch, inst, ic.Instrument))
		}
	}

	switch a := b.c.Alignment.(type) {
	case nil:
		if req.Alignment {
			add(RuleAlignment, "alignment", fmt.Errorf("%w: %s blocks require an alignment", ErrMissingComponent, b.kind))
		}
	case alignment.Mask:
		if err := a.Validate(opts.limits(a.DetConfig)); err != nil {
			add(RuleAlignmentDetector, "alignment", err)
		}
	default:
		if err := a.Validate(nil); err != nil {
			add(RuleAlignment, "alignment", err)
		}
	}

	return vs
}
