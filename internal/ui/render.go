// Package ui renders observing block lists for the terminal: printed
// reports and an interactive Bubble Tea browser.
package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-odl/internal/alignment"
	"github.com/litescript/ls-odl/internal/block"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	validStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
)

func stateMark(s block.State) string {
	switch s {
	case block.Valid:
		return validStyle.Render("✓")
	case block.Invalid:
		return invalidStyle.Render("✗")
	}
	return pendingStyle.Render("·")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	return d.Round(time.Second).String()
}

// WriteSummary prints one row per block followed by the list totals.
func WriteSummary(w io.Writer, l block.List, limits block.LimitsFunc) error {
	var b strings.Builder
	if l.Name != "" {
		b.WriteString(titleStyle.Render(l.Name))
		b.WriteString("\n")
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%3s %s %-56s %5s %9s", "#", " ", "Block", "Exp", "Time")))
	b.WriteString("\n")

	for i, blk := range l.All() {
		row := fmt.Sprintf("%3d %s %-56s %5d %9s",
			i+1, stateMark(blk.State()), truncate(blk.Name(), 56),
			blk.Exposures(), formatDuration(blk.EstimateDuration(limits)))
		b.WriteString(rowStyle.Render(row))
		b.WriteString("\n")
	}

	t := l.Totals(limits)
	fmt.Fprintf(&b, "%d blocks (%d valid, %d invalid), %d exposures, %s shutter, %s total\n",
		t.Blocks, t.Valid, t.Invalid, t.Exposures, formatDuration(t.ShutterTime), formatDuration(t.Duration))

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteViolations prints the errors returned by List.FinalizeAll or
// Block.Finalize, one violation per line.
func WriteViolations(w io.Writer, err error) error {
	var b strings.Builder
	for _, e := range splitErrors(err) {
		var item *block.ItemError
		var ce *block.CompositionError
		switch {
		case errors.As(e, &item) && errors.As(item.Err, &ce):
			b.WriteString(invalidStyle.Render(fmt.Sprintf("block %d: %s", item.Index+1, violationCount(ce))))
			b.WriteString("\n")
			writeViolationLines(&b, ce)
		case errors.As(e, &ce):
			b.WriteString(invalidStyle.Render(violationCount(ce)))
			b.WriteString("\n")
			writeViolationLines(&b, ce)
		default:
			b.WriteString(errorStyle.Render(e.Error()))
			b.WriteString("\n")
		}
	}
	_, werr := io.WriteString(w, b.String())
	return werr
}

// splitErrors unpacks an errors.Join result. A CompositionError also
// unwraps to many errors but is reported as one.
func splitErrors(err error) []error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*block.CompositionError); ok {
		return []error{err}
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func violationCount(ce *block.CompositionError) string {
	if len(ce.Violations) == 1 {
		return fmt.Sprintf("%s block, 1 violation", ce.Kind)
	}
	return fmt.Sprintf("%s block, %d violations", ce.Kind, len(ce.Violations))
}

func writeViolationLines(b *strings.Builder, ce *block.CompositionError) {
	for _, v := range ce.Violations {
		fmt.Fprintf(b, "  - %-20s %s\n", v.Rule, v.Error())
	}
}

// blockDetail is the summary pane of the browser and the body of
// "summary --verbose".
func blockDetail(blk block.Block, limits block.LimitsFunc) string {
	var b strings.Builder
	field := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-11s", label)))
		b.WriteString(" ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	field("Kind", string(blk.Kind()))
	field("ID", blk.ID().String())
	field("State", stateMark(blk.State())+" "+blk.State().String())
	field("Target", blk.Target().String())
	field("Pattern", blk.Pattern().Title())
	field("Instrument", blk.Instrument().String())
	dets := blk.Detectors()
	if len(dets) == 0 {
		field("Detectors", "<none>")
	}
	for i, d := range dets {
		label := ""
		if i == 0 {
			label = "Detectors"
		}
		name := "<nil>"
		if d != nil {
			name = d.Name()
		}
		field(label, name)
	}
	field("Alignment", alignment.Name(blk.Alignment()))
	field("Exposures", fmt.Sprint(blk.Exposures()))
	field("Time", formatDuration(blk.EstimateDuration(limits)))
	if deps := blk.Dependencies(); len(deps) > 0 {
		field("Absolute", fmt.Sprintf("%d offsets from target base", len(deps)))
	}

	if p := blk.Pattern(); !p.IsZero() {
		b.WriteString("\n")
		b.WriteString(p.Table())
	}

	var ce *block.CompositionError
	if errors.As(blk.Err(), &ce) {
		b.WriteString("\n")
		b.WriteString(invalidStyle.Render(violationCount(ce)))
		b.WriteString("\n")
		writeViolationLines(&b, ce)
	}
	return b.String()
}

// WriteDetail prints the full description of every block.
func WriteDetail(w io.Writer, l block.List, limits block.LimitsFunc) error {
	var b strings.Builder
	for i, blk := range l.All() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(titleStyle.Render(fmt.Sprintf("Block %d", i+1)))
		b.WriteString("\n")
		b.WriteString(blockDetail(blk, limits))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
