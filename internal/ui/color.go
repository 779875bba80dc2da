package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// DisableColor renders every style as plain text. Used when output is not
// a terminal or --no-color is set.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
