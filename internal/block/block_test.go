package block

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/litescript/ls-odl/internal/alignment"
	"github.com/litescript/ls-odl/internal/astro"
	"github.com/litescript/ls-odl/internal/detector"
	"github.com/litescript/ls-odl/internal/instrument"
	"github.com/litescript/ls-odl/internal/offset"
	"github.com/litescript/ls-odl/internal/target"
)

var planTime = time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)

func stare(t *testing.T, repeat int) offset.Pattern {
	t.Helper()
	p, err := offset.Stare(repeat, true)
	if err != nil {
		t.Fatalf("Stare() error = %v", err)
	}
	return p
}

func scienceComponents(t *testing.T) Components {
	t.Helper()
	p, err := offset.StarSkyStar(offset.DefaultSkyDX, offset.DefaultSkyDY, 1)
	if err != nil {
		t.Fatalf("StarSkyStar() error = %v", err)
	}
	ir := detector.NewIR("NIRES", "spec", 300)
	ir.NumExp = 2
	return Components{
		Target:     target.New("HD 84937", astro.NewICRS(147.2337, 13.7444)),
		Pattern:    p,
		Instrument: instrument.NewConfig("NIRES", "default"),
		Detectors:  []detector.Config{ir},
		Alignment:  alignment.Guider{Bright: true},
	}
}

func TestCalibrationWithoutTargetIsValid(t *testing.T) {
	b := New(Calibration, Components{
		Pattern:    stare(t, 1),
		Instrument: instrument.NewConfig("KCWI", "arcs"),
		Detectors:  []detector.Config{detector.NewVisible("KCWI", "blue", 10)},
	})

	fb, err := b.Finalize(Options{})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if fb.State() != Valid {
		t.Errorf("State() = %v, want valid", fb.State())
	}
	if b.State() != Unvalidated {
		t.Errorf("receiver State() = %v, want unvalidated", b.State())
	}
}

func TestScienceCollectsAllViolations(t *testing.T) {
	b := New(Science, Components{
		Pattern:    stare(t, 1),
		Instrument: instrument.NewConfig("KCWI", "BL"),
		Detectors:  []detector.Config{detector.NewVisible("KCWI", "blue", 10)},
	})

	fb, err := b.Finalize(Options{})
	if fb.State() != Invalid {
		t.Fatalf("State() = %v, want invalid", fb.State())
	}
	if !errors.Is(err, ErrComposition) || !errors.Is(err, ErrMissingComponent) {
		t.Fatalf("Finalize() error = %v, want ErrComposition and ErrMissingComponent", err)
	}
	var ce *CompositionError
	if !errors.As(err, &ce) {
		t.Fatalf("Finalize() error = %T, want *CompositionError", err)
	}
	if got, want := ce.Rules(), []string{RuleTarget, RuleAlignment}; !slices.Equal(got, want) {
		t.Errorf("Rules() = %v, want %v", got, want)
	}
}

func TestTargetAndAlignmentRequirements(t *testing.T) {
	for _, k := range Kinds() {
		t.Run(string(k), func(t *testing.T) {
			c := scienceComponents(t)
			c.Target = nil
			c.Alignment = nil
			_, err := New(k, c).Finalize(Options{})

			req, _ := k.Requires()
			if req.Target != (err != nil) {
				t.Errorf("Finalize() error = %v, target required = %v", err, req.Target)
			}
		})
	}
}

func TestZeroExpTimeFailsEveryKind(t *testing.T) {
	for _, k := range Kinds() {
		for _, d := range []detector.Config{detector.NewIR("NIRES", "spec", 0), detector.NewVisible("NIRES", "x", 0)} {
			t.Run(string(k)+"/"+d.Name(), func(t *testing.T) {
				b := New(k, scienceComponents(t)).WithDetectors(d)
				_, err := b.Finalize(Options{})
				if !errors.Is(err, detector.ErrInvalidDetectorConfig) {
					t.Errorf("Finalize() error = %v, want ErrInvalidDetectorConfig", err)
				}
			})
		}
	}
}

func TestGeneralRules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Components)
		opts     Options
		wantRule string
	}{
		{"no pattern", func(c *Components) { c.Pattern = offset.Pattern{} }, Options{}, RulePattern},
		{"no detectors", func(c *Components) { c.Detectors = nil }, Options{}, RuleDetector},
		{"nil detector", func(c *Components) { c.Detectors = []detector.Config{nil} }, Options{}, RuleDetector},
		{"no instrument", func(c *Components) { c.Instrument = instrument.Config{} }, Options{}, RuleInstrument},
		{"unexpected instrument", func(*Components) {}, Options{ExpectInstrument: "KCWI"}, RuleInstrumentMismatch},
		{"detector for other instrument", func(c *Components) {
			c.Detectors = []detector.Config{detector.NewIR("MOSFIRE", "h2rg", 10)}
		}, Options{}, RuleInstrumentMismatch},
		{"mask detector", func(c *Components) {
			c.Alignment = alignment.Mask{DetConfig: detector.NewIR("NIRES", "spec", -1)}
		}, Options{}, RuleAlignmentDetector},
		{"mask without detector", func(c *Components) { c.Alignment = alignment.Mask{} }, Options{}, RuleAlignmentDetector},
		{"invalid target", func(c *Components) { c.Target.PA = 400 }, Options{}, RuleTarget},
		{"unknown kind", nil, Options{}, RuleKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := scienceComponents(t)
			kind := Science
			if tt.mutate == nil {
				kind = "Survey"
			} else {
				tt.mutate(&c)
			}
			_, err := New(kind, c).Finalize(tt.opts)
			var ce *CompositionError
			if !errors.As(err, &ce) {
				t.Fatalf("Finalize() error = %v, want *CompositionError", err)
			}
			if !slices.Contains(ce.Rules(), tt.wantRule) {
				t.Errorf("Rules() = %v, want %s", ce.Rules(), tt.wantRule)
			}
		})
	}
}

func TestLimitsApplied(t *testing.T) {
	c := scienceComponents(t)
	ir := detector.NewIR("NIRES", "spec", 300)
	ir.ReadoutMode = "MCDS64"
	c.Detectors = []detector.Config{ir}
	b := New(Science, c)

	if _, err := b.Finalize(Options{}); err != nil {
		t.Fatalf("Finalize() without limits error = %v", err)
	}
	_, err := b.Finalize(Options{Limits: instrument.Builtin().Limits})
	if !errors.Is(err, detector.ErrInvalidDetectorConfig) {
		t.Errorf("Finalize() with limits error = %v, want ErrInvalidDetectorConfig", err)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	valid, err := New(Science, scienceComponents(t)).Finalize(Options{})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	again, err := valid.Finalize(Options{ExpectInstrument: "KCWI"})
	if err != nil || again.State() != Valid {
		t.Errorf("second Finalize() = %v, %v, want valid, nil", again.State(), err)
	}

	c := scienceComponents(t)
	c.Target = nil
	invalid, first := New(Science, c).Finalize(Options{})
	_, second := invalid.Finalize(Options{})
	if first == nil || second != first {
		t.Errorf("second Finalize() error = %v, want %v", second, first)
	}
}

func TestModificationResetsState(t *testing.T) {
	c := scienceComponents(t)
	c.Alignment = nil
	invalid, _ := New(Science, c).Finalize(Options{})

	fixed := invalid.WithAlignment(alignment.Blind{})
	if fixed.State() != Unvalidated {
		t.Fatalf("State() = %v, want unvalidated", fixed.State())
	}
	if fixed.ID() != invalid.ID() {
		t.Error("ID changed on modification")
	}
	if fixed.Err() != nil {
		t.Errorf("Err() = %v, want nil", fixed.Err())
	}
	if _, err := fixed.Finalize(Options{}); err != nil {
		t.Errorf("Finalize() error = %v", err)
	}
}

func TestBlockDoesNotAliasInputs(t *testing.T) {
	c := scienceComponents(t)
	b := New(Science, c)
	c.Target.Name = "changed"
	c.Detectors[0] = nil

	if b.Target().Name != "HD 84937" {
		t.Errorf("Target().Name = %q after caller mutation", b.Target().Name)
	}
	if b.Detectors()[0] == nil {
		t.Error("Detectors() aliased caller slice")
	}
}

func TestPlanOrder(t *testing.T) {
	b, err := New(Science, scienceComponents(t)).Finalize(Options{})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	steps, err := b.Plan(planTime)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	var actions []Action
	for _, s := range steps {
		actions = append(actions, s.Action)
	}
	want := []Action{
		ActionAlign, ActionConfigure,
		ActionMove, ActionExpose,
		ActionMove, ActionExpose,
		ActionMove, ActionExpose,
	}
	if !slices.Equal(actions, want) {
		t.Fatalf("actions = %v, want %v", actions, want)
	}

	if steps[0].Coord == nil || steps[0].Target != "HD 84937" {
		t.Errorf("align step = %+v", steps[0])
	}
	if steps[3].Count != 2 {
		t.Errorf("expose Count = %d, want 2", steps[3].Count)
	}
	if got := steps[4].Command.PosName; got != offset.PosSky {
		t.Errorf("second move PosName = %q, want %q", got, offset.PosSky)
	}
	if steps[4].Base == nil {
		t.Error("absolute move has no base position")
	}
	if got := b.Exposures(); got != 6 {
		t.Errorf("Exposures() = %d, want 6", got)
	}
}

func TestPlanMaskAlignCarriesDetector(t *testing.T) {
	c := scienceComponents(t)
	c.Alignment = alignment.Mask{DetConfig: detector.NewIR("NIRES", "spec", 10), Filter: "Ks"}
	b, err := New(Science, c).Finalize(Options{})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	steps, err := b.Plan(planTime)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	want := "NIRES 10s (CDS, 1 coadds) x1"
	if steps[0].Action != ActionAlign || steps[0].Detector != want {
		t.Errorf("align step = %+v, want detector %q", steps[0], want)
	}
	if got := steps[0].String(); !strings.HasSuffix(got, " with "+want) {
		t.Errorf("align step String() = %q", got)
	}
}

func TestPlanWithoutAlignmentDoesNotMove(t *testing.T) {
	b, err := New(Calibration, Components{
		Pattern:    stare(t, 2),
		Instrument: instrument.NewConfig("KCWI", "arcs"),
		Detectors:  []detector.Config{detector.NewVisible("KCWI", "blue", 10)},
	}).Finalize(Options{})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	steps, err := b.Plan(planTime)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if steps[0].Action != ActionConfigure {
		t.Errorf("first action = %s, want configure", steps[0].Action)
	}
	if len(steps) != 5 {
		t.Errorf("len(steps) = %d, want 5", len(steps))
	}
}

func TestPlanRequiresValidBlock(t *testing.T) {
	b := New(Science, scienceComponents(t))
	if _, err := b.Plan(planTime); !errors.Is(err, ErrNotFinalized) {
		t.Errorf("Plan() error = %v, want ErrNotFinalized", err)
	}
	invalid, _ := b.WithTarget(nil).Finalize(Options{})
	if _, err := invalid.Plan(planTime); !errors.Is(err, ErrComposition) {
		t.Errorf("Plan() error = %v, want ErrComposition", err)
	}
}

func TestPlanPropagationError(t *testing.T) {
	c := scienceComponents(t)
	c.Target = c.Target.WithProperMotion(astro.ProperMotion{PMRA: 0.1}, 2000)
	b, err := New(Science, c).Finalize(Options{})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	_, err = b.Plan(time.Date(3500, 1, 1, 0, 0, 0, 0, time.UTC))
	var pe *target.PropagationError
	if !errors.As(err, &pe) || !errors.Is(err, astro.ErrTimeOutOfRange) {
		t.Errorf("Plan() error = %v, want PropagationError wrapping ErrTimeOutOfRange", err)
	}
}

func TestDependencies(t *testing.T) {
	b := New(Science, scienceComponents(t))
	if got := len(b.Dependencies()); got != 3 {
		t.Errorf("len(Dependencies()) = %d, want 3", got)
	}
	if deps := b.WithTarget(nil).Dependencies(); deps != nil {
		t.Errorf("Dependencies() without target = %v, want nil", deps)
	}
}

func TestEstimateDuration(t *testing.T) {
	c := scienceComponents(t)
	vis := detector.NewVisible("NIRES", "x", 100)
	c.Detectors = append(c.Detectors, vis)
	b := New(Science, c)

	// 3 offsets x max(2 x 300s, 100s)
	if got, want := b.EstimateDuration(nil), 30*time.Minute; got != want {
		t.Errorf("EstimateDuration() = %v, want %v", got, want)
	}
}

func TestHeader(t *testing.T) {
	b := New(Focus, Components{
		Pattern:    stare(t, 1),
		Instrument: instrument.NewConfig("MOSFIRE", "focus"),
		Detectors:  []detector.Config{detector.NewIR("MOSFIRE", "h2rg", 5)},
	})
	h := b.Header()
	if v, _ := h.Get("OBTYPE"); v != "Focus" {
		t.Errorf("OBTYPE = %v, want Focus", v)
	}
	for _, key := range []string{"OBID", "OPNAME", "ICNAME", "DCNAME"} {
		if _, ok := h.Get(key); !ok {
			t.Errorf("header missing %s", key)
		}
	}
	if _, ok := h.Get("ALNAME"); ok {
		t.Error("ALNAME present without alignment")
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"science":       Science,
		"standard_star": StandardStar,
		"StandardStar":  StandardStar,
		"TELLURIC":      Telluric,
	}
	for in, want := range tests {
		if got, err := ParseKind(in); err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("dark"); err == nil {
		t.Error("ParseKind(dark) error = nil")
	}
}

func TestListPreservesOrder(t *testing.T) {
	sci := New(Science, scienceComponents(t))
	cal := New(Calibration, Components{
		Pattern:    stare(t, 1),
		Instrument: instrument.NewConfig("NIRES", "flats"),
		Detectors:  []detector.Config{detector.NewIR("NIRES", "spec", 10)},
	})
	bad := sci.WithTarget(nil)

	l := NewList("night1", sci, cal, sci, bad)
	fl, err := l.FinalizeAll(context.Background(), Options{})

	var ie *ItemError
	if !errors.As(err, &ie) || ie.Index != 3 {
		t.Fatalf("FinalizeAll() error = %v, want ItemError at index 3", err)
	}
	if fl.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", fl.Len())
	}
	for i, b := range fl.All() {
		if b.ID() != l.At(i).ID() {
			t.Errorf("block %d ID = %v, want %v", i, b.ID(), l.At(i).ID())
		}
	}
	if fl.At(0).ID() != fl.At(2).ID() {
		t.Error("duplicate entries not preserved")
	}

	tot := fl.Totals(nil)
	if tot.Blocks != 4 || tot.Valid != 3 || tot.Invalid != 1 {
		t.Errorf("Totals() = %+v", tot)
	}
	if tot.Exposures != 6+1+6+6 {
		t.Errorf("Exposures = %d, want 19", tot.Exposures)
	}
}

func TestFinalizeAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewList("", New(Science, scienceComponents(t)))
	fl, err := l.FinalizeAll(ctx, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("FinalizeAll() error = %v, want context.Canceled", err)
	}
	if fl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", fl.Len())
	}
}

func TestListAppendDoesNotAlias(t *testing.T) {
	a := NewList("a", New(Focus, Components{}))
	b := a.Append(New(Focus, Components{}))
	if a.Len() != 1 || b.Len() != 2 {
		t.Errorf("Len() = %d, %d, want 1, 2", a.Len(), b.Len())
	}
}
