// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"shottimer/internal/config"
	"shottimer/internal/detector"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F2B705")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E0475B"))
)

// statusInterval is how often the model polls whether the session is still running.
const statusInterval = 500 * time.Millisecond

// Controller is the part of the pipeline the timer screen drives.
type Controller interface {
	Start(ctx context.Context) (degraded bool, err error)
	End()
	Running() bool
	SessionID() string
	Settings() config.Settings
	SetSensitivity(sensitivity int) error
}

// ShotMsg carries one detected shot into the program.
type ShotMsg struct {
	SessionID string
	Event     detector.ShotEvent
}

// FaultMsg reports a failure that ended the session.
type FaultMsg struct {
	Err error
}

type startedMsg struct {
	sessionID string
	degraded  bool
	err       error
}

type endedMsg struct{}

type statusMsg struct {
	running bool
}

type keyMap struct {
	Start key.Binding
	End   key.Binding
	Up    key.Binding
	Down  key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Start: key.NewBinding(key.WithKeys("b")),
	End:   key.NewBinding(key.WithKeys("e")),
	Up:    key.NewBinding(key.WithKeys("+", "=")),
	Down:  key.NewBinding(key.WithKeys("-")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// Model is the Bubble Tea model of the shot timer screen.
type Model struct {
	ctx  context.Context
	ctrl Controller

	shots     []ShotMsg
	sessionID string
	starting  bool
	running   bool
	degraded  bool
	err       error

	viewport viewport.Model
	ready    bool
}

// NewModel creates the timer screen. Sessions started from it are bounded by ctx.
func NewModel(ctx context.Context, ctrl Controller) Model {
	return Model{ctx: ctx, ctrl: ctrl}
}

// Init starts polling the session state.
func (m Model) Init() tea.Cmd {
	return m.pollStatus()
}

// Update handles input and pipeline messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-8)
			m.viewport.Style = lipgloss.NewStyle()
			m.viewport.KeyMap.PageUp = key.NewBinding(key.WithKeys("pgup"))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 8
		}
		m.refresh()

	case ShotMsg:
		// Shots of the new session may arrive before Start returns its ID.
		if m.starting || msg.SessionID == m.sessionID {
			m.shots = append(m.shots, msg)
			m.refresh()
		}

	case startedMsg:
		m.starting = false
		if msg.err != nil {
			m.err = msg.err
			break
		}
		m.sessionID = msg.sessionID
		m.running = true
		m.degraded = msg.degraded
		kept := m.shots[:0]
		for _, s := range m.shots {
			if s.SessionID == m.sessionID {
				kept = append(kept, s)
			}
		}
		m.shots = kept
		m.refresh()

	case endedMsg:
		m.running = false

	case FaultMsg:
		m.running = false
		m.err = msg.Err

	case statusMsg:
		if !m.starting {
			m.running = msg.running
		}
		cmds = append(cmds, m.pollStatus())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Start):
			if m.starting {
				break
			}
			m.starting = true
			m.err = nil
			m.shots = nil
			m.refresh()
			cmds = append(cmds, m.startSession())

		case key.Matches(msg, keys.End):
			cmds = append(cmds, m.endSession())

		case key.Matches(msg, keys.Up):
			m.err = m.ctrl.SetSensitivity(m.ctrl.Settings().Sensitivity + 1)

		case key.Matches(msg, keys.Down):
			m.err = m.ctrl.SetSensitivity(m.ctrl.Settings().Sensitivity - 1)
		}
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// startSession runs Start off the event loop; ending the previous session
// waits for its worker, which may be sending shots to the program.
func (m Model) startSession() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		degraded, err := ctrl.Start(ctx)
		return startedMsg{sessionID: ctrl.SessionID(), degraded: degraded, err: err}
	}
}

func (m Model) endSession() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.End()
		return endedMsg{}
	}
}

func (m Model) pollStatus() tea.Cmd {
	ctrl := m.ctrl
	return tea.Tick(statusInterval, func(time.Time) tea.Msg {
		return statusMsg{running: ctrl.Running()}
	})
}

func (m *Model) refresh() {
	if m.ready {
		m.viewport.SetContent(m.renderShots())
		m.viewport.GotoBottom()
	}
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Shot Timer"))
	sb.WriteString("  ")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.renderSummary())
	sb.WriteString("\n")
	if m.err != nil {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		sb.WriteString("\n")
	}
	sb.WriteString(infoStyle.Render(fmt.Sprintf("b: Start • e: End • +/-: Sensitivity (%d) • q: Quit",
		m.ctrl.Settings().Sensitivity)))
	return sb.String()
}

func (m Model) renderStatus() string {
	switch {
	case m.starting:
		return infoStyle.Render("Starting...")
	case m.running && m.degraded:
		return warningStyle.Render("RUNNING (no microphone: synthetic shots)")
	case m.running:
		return highlightStyle.Render("RUNNING")
	default:
		return infoStyle.Render("Stopped")
	}
}

// renderShots formats the shot table
func (m Model) renderShots() string {
	if len(m.shots) == 0 {
		return "No shots."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%5s %10s %10s\n", "Shot", "Time", "Split"))
	for i, s := range m.shots {
		line := fmt.Sprintf("%5d %10.2f %10.2f",
			s.Event.ShotNumber, s.Event.Time().Seconds(), s.Event.Split().Seconds())
		if i == len(m.shots)-1 {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderSummary() string {
	events := make([]detector.ShotEvent, len(m.shots))
	for i, s := range m.shots {
		events[i] = s.Event
	}
	sum := detector.Summarize(events)
	if sum.Shots == 0 {
		return infoStyle.Render("Press b to start.")
	}
	return infoStyle.Render(fmt.Sprintf("Shots: %d  Total: %.2f  First: %.2f  Avg split: %.2f  Best split: %.2f",
		sum.Shots, sum.Total.Seconds(), sum.FirstShot.Seconds(), sum.MeanSplit.Seconds(), sum.FastestSplit.Seconds()))
}
