// Package ui renders live build progress while cues are synthesized.
//
// The model is fed through a channel of tea.Msg values so the assembly
// loop never blocks on rendering: the producer drops events when the
// buffer is full and closes the channel when the build is over.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/subvox/internal/subtitle"
)

const maxBarWidth = 60

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	cueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// CueMsg reports that synthesis of a cue has started. Index is the
// zero-based position in the build order; Count is the total number of
// cues.
type CueMsg struct {
	Index int
	Count int
	Cue   subtitle.Cue
}

// DoneMsg reports that the build finished. A closed event channel is
// treated the same as an explicit DoneMsg without an error.
type DoneMsg struct {
	Err error
}

// BuildModel is the bubbletea model shown during a build on a TTY.
type BuildModel struct {
	events <-chan tea.Msg

	spinner spinner.Model
	bar     progress.Model

	index int
	count int
	cue   subtitle.Cue
	width int

	err         error
	done        bool
	interrupted bool
}

// NewBuildModel returns a model that renders events received on the
// given channel.
func NewBuildModel(events <-chan tea.Msg) BuildModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return BuildModel{
		events:  events,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
		width:   80,
	}
}

// Err returns the error carried by the final DoneMsg, if any.
func (m BuildModel) Err() error { return m.err }

// Interrupted reports whether the user aborted the build with ctrl+c.
func (m BuildModel) Interrupted() bool { return m.interrupted }

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return DoneMsg{}
		}
		return msg
	}
}

func (m BuildModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m BuildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := msg.Width - 4
		if w > maxBarWidth {
			w = maxBarWidth
		}
		if w > 0 {
			m.bar.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.interrupted = true
			return m, tea.Quit
		}
		return m, nil

	case tea.InterruptMsg:
		m.interrupted = true
		return m, tea.Quit

	case CueMsg:
		m.index = msg.Index
		m.count = msg.Count
		m.cue = msg.Cue
		var cmd tea.Cmd
		if m.count > 0 {
			cmd = m.bar.SetPercent(float64(m.index) / float64(m.count))
		}
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case DoneMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m BuildModel) View() string {
	if m.done || m.interrupted {
		return ""
	}

	label := "Preparing…"
	if m.count > 0 {
		label = fmt.Sprintf("Synthesizing cue %d of %d", m.index+1, m.count)
	}

	var lines []string
	lines = append(lines, m.spinner.View()+labelStyle.Render(label))
	if m.count > 0 {
		lines = append(lines, m.bar.View())
		lines = append(lines, cueStyle.Render(m.cueLine()))
	}
	return strings.Join(lines, "\n")
}

func (m BuildModel) cueLine() string {
	text := strings.TrimSpace(strings.ReplaceAll(m.cue.Text, "\n", " "))
	line := fmt.Sprintf("%s → %s  %s",
		subtitle.FormatTimestamp(m.cue.Start),
		subtitle.FormatTimestamp(m.cue.End),
		text,
	)
	if m.width <= 0 {
		return line
	}
	return truncate.StringWithTail(line, uint(m.width), "…") //nolint:gosec
}
