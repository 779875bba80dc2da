package offset

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
)

func TestResolveSkyFrame(t *testing.T) {
	tests := []struct {
		name   string
		frame  SkyFrame
		dx, dy float64
		wantX  float64
		wantY  float64
	}{
		{"no scale", SkyFrame{}, 3, -4, 3, -4},
		{"with scale", SkyFrame{Scale: 1.5}, 2, 2, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := TelescopeOffset{DX: tt.dx, DY: tt.dy, Frame: tt.frame}.Resolve()
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if x, _ := cmd.Value(KeywordRAOff); x != tt.wantX {
				t.Errorf("RAOFF = %v, want %v", x, tt.wantX)
			}
			if y, _ := cmd.Value(KeywordDecOff); y != tt.wantY {
				t.Errorf("DECOFF = %v, want %v", y, tt.wantY)
			}
			if _, ok := cmd.Value(KeywordInstAngl); ok {
				t.Error("sky frame wrote INSTANGL")
			}
		})
	}
}

func TestResolveInstrumentFrame(t *testing.T) {
	f := InstrumentFrame{Label: "slit", Scale: 0.5, Angle: 4.0}
	cmd, err := Resolve(TelescopeOffset{DX: 4, DY: -2, DR: 1, Frame: f, Relative: true, PosName: "A"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []KeywordValue{
		{KeywordInstX, 2.0},
		{KeywordInstY, -1.0},
		{KeywordInstAngl, 4.0},
	}
	if !slices.Equal(cmd.Values, want) {
		t.Errorf("Values = %v, want %v", cmd.Values, want)
	}
	if cmd.Frame != "slit" || !cmd.Relative || cmd.PosName != "A" || cmd.DR != 1 {
		t.Errorf("Command = %+v", cmd)
	}
	if !strings.Contains(cmd.String(), "INSTXOFF=2.0") || !strings.Contains(cmd.String(), "rel2curr") {
		t.Errorf("String() = %q", cmd.String())
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		offset  TelescopeOffset
		wantErr error
	}{
		{"instrument frame without scale", TelescopeOffset{DX: 1, Frame: InstrumentFrame{}}, ErrMissingScale},
		{"negative sky scale", TelescopeOffset{Frame: SkyFrame{Scale: -1}}, ErrNegativeScale},
		{"NaN sky scale", TelescopeOffset{Frame: SkyFrame{Scale: math.NaN()}}, ErrNegativeScale},
		{"infinite sky scale", TelescopeOffset{Frame: SkyFrame{Scale: math.Inf(1)}}, ErrNegativeScale},
		{"infinite instrument scale", TelescopeOffset{DX: 1, Frame: InstrumentFrame{Scale: math.Inf(1)}}, ErrMissingScale},
		{"nil frame", TelescopeOffset{DX: 1}, ErrUnsupportedFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.offset)
			var fe *FrameConfigError
			if !errors.As(err, &fe) {
				t.Fatalf("error = %v, want *FrameConfigError", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewPattern(t *testing.T) {
	o := TelescopeOffset{Frame: SkyFrame{}}
	inst := TelescopeOffset{Frame: InstrumentFrame{Scale: 0.2}}

	tests := []struct {
		name    string
		repeat  int
		offsets []TelescopeOffset
		wantErr error
	}{
		{"empty", 1, nil, ErrEmptyPattern},
		{"zero repeat", 0, []TelescopeOffset{o}, ErrRepeat},
		{"mixed frames", 1, []TelescopeOffset{o, inst}, ErrMixedFrames},
		{"missing frame", 1, []TelescopeOffset{{}}, ErrUnsupportedFrame},
		{"bad instrument frame", 1, []TelescopeOffset{{Frame: InstrumentFrame{}}}, ErrMissingScale},
		{"NaN sky scale", 1, []TelescopeOffset{{Frame: SkyFrame{Scale: math.NaN()}}, {Frame: SkyFrame{Scale: math.NaN()}}}, ErrNegativeScale},
		{"ok", 3, []TelescopeOffset{o, o}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPattern("p", tt.repeat, tt.offsets...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewPattern() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	a := TelescopeOffset{PosName: "a", Frame: SkyFrame{}}
	b := TelescopeOffset{PosName: "b", DX: 5, Frame: SkyFrame{}}
	p, err := NewPattern("ab", 3, a, b)
	if err != nil {
		t.Fatalf("NewPattern() error = %v", err)
	}

	first := slices.Collect(p.Expand())
	if len(first) != p.Len() || p.Len() != 6 {
		t.Fatalf("len(Expand()) = %d, Len() = %d, want 6", len(first), p.Len())
	}
	var names []string
	for _, o := range first {
		names = append(names, o.PosName)
	}
	if got := strings.Join(names, ""); got != "ababab" {
		t.Errorf("order = %q, want ababab", got)
	}

	// Restartable: a second traversal yields the same sequence.
	if second := slices.Collect(p.Expand()); !slices.Equal(first, second) {
		t.Error("second Expand() differs from first")
	}

	// Early break stops the sequence.
	n := 0
	for range p.Expand() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("break after %d, want 2", n)
	}
}

func TestPatternIsImmutable(t *testing.T) {
	offsets := []TelescopeOffset{{PosName: "x", Frame: SkyFrame{}}}
	p, err := NewPattern("p", 1, offsets...)
	if err != nil {
		t.Fatal(err)
	}
	offsets[0].PosName = "changed"
	got := p.Offsets()
	got[0].DX = 100

	if o := p.Offsets()[0]; o.PosName != "x" || o.DX != 0 {
		t.Errorf("pattern mutated through caller slices: %+v", o)
	}
}

func TestFactories(t *testing.T) {
	for _, guide := range []bool{true, false} {
		stare, err := Stare(1, guide)
		if err != nil {
			t.Fatal(err)
		}
		if stare.Len() != 1 {
			t.Errorf("Stare(1, %t).Len() = %d, want 1", guide, stare.Len())
		}
		o := stare.Offsets()[0]
		if o.DX != 0 || o.DY != 0 || o.DR != 0 || o.Relative || o.PosName != PosBase || o.Guide != guide || o.Frame != (SkyFrame{}) {
			t.Errorf("Stare(1, %t) offset = %+v", guide, o)
		}
	}

	tests := []struct {
		name      string
		build     func(dx, dy float64, repeat int) (Pattern, error)
		wantNames []string
		wantGuide []bool
	}{
		{"StarSky", StarSky, []string{"star", "sky"}, []bool{true, false}},
		{"SkyStar", SkyStar, []string{"sky", "star"}, []bool{false, true}},
		{"StarSkyStar", StarSkyStar, []string{"star", "sky", "star"}, []bool{true, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.build(DefaultSkyDX, DefaultSkyDY, 2)
			if err != nil {
				t.Fatal(err)
			}
			if p.Len() != 2*len(tt.wantNames) {
				t.Errorf("Len() = %d, want %d", p.Len(), 2*len(tt.wantNames))
			}
			for i, o := range p.Offsets() {
				if o.PosName != tt.wantNames[i] || o.Guide != tt.wantGuide[i] || o.Relative || o.DR != 0 {
					t.Errorf("offset %d = %+v", i, o)
				}
				wantDX := 0.0
				if o.PosName == PosSky {
					wantDX = DefaultSkyDX
				}
				if o.DX != wantDX {
					t.Errorf("offset %d DX = %v, want %v", i, o.DX, wantDX)
				}
			}
			if !strings.HasPrefix(p.Title(), tt.name+" (10 10) x2") {
				t.Errorf("Title() = %q", p.Title())
			}
		})
	}

	if _, err := StarSky(10, 10, 0); !errors.Is(err, ErrRepeat) {
		t.Errorf("StarSky repeat 0 error = %v, want ErrRepeat", err)
	}
}

func TestPatternHeader(t *testing.T) {
	p, err := StarSkyStar(5, -5, 1)
	if err != nil {
		t.Fatal(err)
	}
	h := p.Header()
	if len(h) != 3+6*3 {
		t.Fatalf("len(Header()) = %d, want 21", len(h))
	}
	if v, _ := h.Get("OPLENGTH"); v != 3 {
		t.Errorf("OPLENGTH = %v, want 3", v)
	}
	if v, _ := h.Get("OP02NAME"); v != "sky" {
		t.Errorf("OP02NAME = %v, want sky", v)
	}
	if v, _ := h.Get("OP02GUID"); v != false {
		t.Errorf("OP02GUID = %v, want false", v)
	}
	if v, _ := h.Get("OP03FRM"); v != "SkyFrame" {
		t.Errorf("OP03FRM = %v, want SkyFrame", v)
	}

	table := p.Table()
	if !strings.Contains(table, "Frame: SkyFrame") || strings.Count(table, "\n") != 7 {
		t.Errorf("Table() = %q", table)
	}
}
