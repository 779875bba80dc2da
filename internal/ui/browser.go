package ui

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-odl/internal/block"
	"github.com/litescript/ls-odl/internal/version"
)

// Pane is the detail view shown beside the block list.
type Pane int

const (
	PaneSummary Pane = iota
	PanePlan
	PaneHeader
)

var paneTabs = []string{"[1] Summary", "[2] Plan", "[3] Header"}

type (
	// AnimTickMsg advances the spinner while validation runs.
	AnimTickMsg time.Time

	// validatedMsg carries the result of List.FinalizeAll.
	validatedMsg struct {
		list block.List
		err  error
	}
)

// Browser is the Bubble Tea model for browsing an observing block list.
type Browser struct {
	list   block.List
	opts   block.Options
	limits block.LimitsFunc
	at     time.Time

	pane       Pane
	cursor     int
	width      int
	height     int
	ready      bool
	validating bool
	animTick   int
	statusMsg  string
}

// NewBrowser returns a browser over l. Blocks are finalized with opts when
// the program starts and again on "v". Plans are computed for time at.
func NewBrowser(l block.List, opts block.Options, at time.Time) Browser {
	return Browser{
		list:       l,
		opts:       opts,
		limits:     opts.Limits,
		at:         at,
		validating: true,
	}
}

// List returns the list as last validated.
func (m Browser) List() block.List { return m.list }

// Selected returns the block under the cursor.
func (m Browser) Selected() (block.Block, bool) {
	if m.cursor < 0 || m.cursor >= m.list.Len() {
		return block.Block{}, false
	}
	return m.list.At(m.cursor), true
}

// Init implements tea.Model.
func (m Browser) Init() tea.Cmd {
	return tea.Batch(m.validateCmd(), animTickCmd())
}

func (m Browser) validateCmd() tea.Cmd {
	list, opts := m.list, m.opts
	return func() tea.Msg {
		l, err := list.FinalizeAll(context.Background(), opts)
		return validatedMsg{list: l, err: err}
	}
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// Update implements tea.Model.
func (m Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < m.list.Len()-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(m.list.Len()-1, 0)
		case "tab":
			m.pane = (m.pane + 1) % Pane(len(paneTabs))
		case "1":
			m.pane = PaneSummary
		case "2":
			m.pane = PanePlan
		case "3":
			m.pane = PaneHeader
		case "v":
			if !m.validating {
				m.validating = true
				m.statusMsg = ""
				return m, tea.Batch(m.validateCmd(), animTickCmd())
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case AnimTickMsg:
		if m.validating {
			m.animTick++
			return m, animTickCmd()
		}

	case validatedMsg:
		m.list = msg.list
		m.validating = false
		t := m.list.Totals(m.limits)
		m.statusMsg = fmt.Sprintf("%d valid, %d invalid", t.Valid, t.Invalid)
		if msg.err != nil && t.Invalid == 0 {
			m.statusMsg = "validation interrupted: " + msg.err.Error()
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Browser) View() string {
	if !m.ready {
		return "Initializing..."
	}
	listWidth := max(m.width/3, 30)
	detailWidth := max(m.width-listWidth-3, 30)

	left := lipgloss.NewStyle().Width(listWidth).Render(m.renderBlocks(listWidth))
	right := lipgloss.NewStyle().Width(detailWidth).Render(m.renderDetail())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, dimStyle.Render(" │ "), right)

	return m.renderTitle() + "\n" + m.renderTabs() + "\n\n" + body + "\n" + m.renderFooter()
}

func (m Browser) renderTitle() string {
	title := fmt.Sprintf("  ls-odl · %s", m.list.Name)
	runes := []rune(title)
	var b strings.Builder
	for col, r := range runes {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(gradientColor(col, len(runes))))
		b.WriteString(style.Render(string(r)))
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  v%s", version.Version)))
	return b.String()
}

// gradientColor returns a hex color along a blue, purple, magenta, pink
// gradient.
func gradientColor(col, width int) string {
	x := float64(col) / float64(max(width, 1))
	var r, g, b float64
	switch {
	case x < 0.33:
		t := x / 0.33
		r, g, b = 59+t*(139-59), 130+t*(92-130), 246
	case x < 0.66:
		t := (x - 0.33) / 0.33
		r, g, b = 139+t*(217-139), 92+t*(70-92), 246+t*(239-246)
	default:
		t := (x - 0.66) / 0.34
		r, g, b = 217+t*(236-217), 70+t*(72-70), 239+t*(153-239)
	}
	clamp := func(v float64) int { return min(max(int(math.Round(v)), 0), 255) }
	return fmt.Sprintf("#%02X%02X%02X", clamp(r), clamp(g), clamp(b))
}

func (m Browser) renderTabs() string {
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	var parts []string
	for i, tab := range paneTabs {
		if Pane(i) == m.pane {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Browser) renderBlocks(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Blocks (%d)", m.list.Len())))
	b.WriteString("\n")
	if m.list.Len() == 0 {
		b.WriteString("  No blocks\n")
		return b.String()
	}

	maxRows := max(m.height-8, 5)
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}
	end := min(start+maxRows, m.list.Len())

	for i := start; i < end; i++ {
		blk := m.list.At(i)
		label := truncate(fmt.Sprintf("%2d %s %s", i+1, blk.Kind(), blk.Target().String()), width-4)
		if i == m.cursor {
			b.WriteString(stateMark(blk.State()) + " " + selectedRowStyle.Render(label))
		} else {
			b.WriteString(stateMark(blk.State()) + " " + rowStyle.Render(label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Browser) renderDetail() string {
	blk, ok := m.Selected()
	if !ok {
		return ""
	}
	switch m.pane {
	case PanePlan:
		steps, err := blk.Plan(m.at)
		if err != nil {
			return errorStyle.Render(err.Error())
		}
		return block.FormatPlan(steps)
	case PaneHeader:
		var buf bytes.Buffer
		if _, err := blk.Header().WriteTo(&buf); err != nil {
			return errorStyle.Render(err.Error())
		}
		return buf.String()
	default:
		return blockDetail(blk, m.limits)
	}
}

func (m Browser) renderFooter() string {
	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	var status string
	if m.validating {
		status = spinnerFrames[m.animTick%len(spinnerFrames)] + dimStyle.Render(" validating...")
	} else {
		status = dimStyle.Render(m.statusMsg)
	}
	help := dimStyle.Render("↑↓: block | tab/1-3: pane | v: revalidate | q: quit")
	return "  " + status + "  " + dimStyle.Render("|") + "  " + help
}
