package block

import (
	"fmt"
	"strings"
	"time"

	"github.com/litescript/ls-odl/internal/alignment"
	"github.com/litescript/ls-odl/internal/astro"
	"github.com/litescript/ls-odl/internal/offset"
)

// Action is the kind of a plan step.
type Action string

const (
	ActionAlign     Action = "align"
	ActionConfigure Action = "configure"
	ActionMove      Action = "move"
	ActionExpose    Action = "expose"
)

// Step is one instruction handed to a sequencer. Only the fields relevant
// to Action are set.
type Step struct {
	Action Action

	Alignment string          `json:",omitempty"`
	Target    string          `json:",omitempty"`
	Coord     *astro.SkyCoord `json:",omitempty"` // target position at plan time

	Instrument string `json:",omitempty"`

	Index   int             `json:",omitempty"` // expanded offset index
	Command *offset.Command `json:",omitempty"`
	Base    *astro.SkyCoord `json:",omitempty"` // absolute offsets only

	Detector string `json:",omitempty"` // expose, or the mask alignment images
	Count    int    `json:",omitempty"`
}

func (s Step) String() string {
	switch s.Action {
	case ActionAlign:
		line := "align   " + s.Alignment
		if s.Coord != nil {
			line += fmt.Sprintf(" on %s (%s %s)", s.Target,
				astro.FormatHMS(s.Coord.RAdeg, 2), astro.FormatDMS(s.Coord.DecDeg, 1))
		}
		if s.Detector != "" {
			line += " with " + s.Detector
		}
		return line
	case ActionConfigure:
		return "config  " + s.Instrument
	case ActionMove:
		return fmt.Sprintf("move    %d: %s", s.Index+1, s.Command)
	case ActionExpose:
		return fmt.Sprintf("expose  %s x%d", s.Detector, s.Count)
	}
	return string(s.Action)
}

// Plan expands a valid block into its execution steps, in order: align,
// configure the instrument, then for every expanded offset one move
// followed by one expose step per detector config. The target is
// propagated to at, which is when absolute offsets get their base
// position.
func (b Block) Plan(at time.Time) ([]Step, error) {
	switch b.state {
	case Unvalidated:
		return nil, ErrNotFinalized
	case Invalid:
		return nil, b.Err()
	}

	var steps []Step
	var coord *astro.SkyCoord
	if t := b.c.Target; t != nil && t.Position != nil {
		pos, err := t.Propagate(at)
		if err != nil {
			return nil, fmt.Errorf("planning %s: %w", b.id, err)
		}
		coord = &pos
	}

	if alignment.Moves(b.c.Alignment) {
		s := Step{Action: ActionAlign, Alignment: b.c.Alignment.Name(), Coord: coord}
		if b.c.Target != nil {
			s.Target = b.c.Target.Name
		}
		if m, ok := b.c.Alignment.(alignment.Mask); ok && m.DetConfig != nil {
			s.Detector = m.DetConfig.Name()
		}
		steps = append(steps, s)
	}

	steps = append(steps, Step{Action: ActionConfigure, Instrument: b.c.Instrument.String()})

	i := 0
	for o := range b.c.Pattern.Expand() {
		cmd, err := o.Resolve()
		if err != nil {
			return nil, fmt.Errorf("planning %s offset %d: %w", b.id, i+1, err)
		}
		move := Step{Action: ActionMove, Index: i, Command: &cmd}
		if !o.Relative {
			move.Base = coord
		}
		steps = append(steps, move)
		for _, d := range b.c.Detectors {
			steps = append(steps, Step{Action: ActionExpose, Index: i, Detector: d.Name(), Count: d.Common().NumExp})
		}
		i++
	}
	return steps, nil
}

// FormatPlan renders steps one per line.
func FormatPlan(steps []Step) string {
	var b strings.Builder
	for _, s := range steps {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}
