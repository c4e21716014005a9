package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/0xlemi/xentuner/internal/engine"
	"github.com/0xlemi/xentuner/internal/meter"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// How often the display polls for a new snapshot
const pollInterval = 50 * time.Millisecond

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	degreeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333")).
			Padding(1, 4).
			MarginBottom(1)

	// Meter cells
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	centerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AF00"))
	needleStyle = lipgloss.NewStyle().Bold(true)

	// Needle colors by distance from the center
	inTuneColor = lipgloss.Color("#00FF00")
	closeColor  = lipgloss.Color("#FFFF00")
	farColor    = lipgloss.Color("#FF0000")
	idleColor   = lipgloss.Color("#7D56F4")
)

// Source is where the display reads analysis snapshots from.
type Source interface {
	Read() (engine.Snapshot, bool)
}

// Action is run when the user asks to reload or reset the scale. The
// returned text is shown in the status line.
type Action func() (string, error)

// TickMsg represents a timer tick
type TickMsg time.Time

// StatusMsg replaces the status line. Errors are shown highlighted.
type StatusMsg struct {
	Text string
	Err  error
}

type keyMap struct {
	Reload  key.Binding
	Default key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Reload, k.Default, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultKeys = keyMap{
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload scale"),
	),
	Default: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "default scale"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Model represents the UI state
type Model struct {
	source Source
	reload Action
	reset  Action
	keys   keyMap
	help   help.Model
	snap   engine.Snapshot
	status StatusMsg
	width  int
	height int
}

// NewModel creates a display reading from source. reload and reset may be
// nil, in which case their keys are disabled.
func NewModel(source Source, reload, reset Action) Model {
	keys := defaultKeys
	keys.Reload.SetEnabled(reload != nil)
	keys.Default.SetEnabled(reset != nil)

	return Model{
		source: source,
		reload: reload,
		reset:  reset,
		keys:   keys,
		help:   help.New(),
	}
}

// WithStatus returns a copy of m showing s in the status line.
func (m Model) WithStatus(s StatusMsg) Model {
	m.status = s
	return m
}

// Snapshot returns the snapshot currently on screen.
func (m Model) Snapshot() engine.Snapshot {
	return m.snap
}

// Status returns the current status line.
func (m Model) Status() StatusMsg {
	return m.status
}

// Init initializes the UI model
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func run(a Action) tea.Cmd {
	return func() tea.Msg {
		text, err := a()
		return StatusMsg{Text: text, Err: err}
	}
}

// Update updates the UI model based on messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reload):
			return m, run(m.reload)
		case key.Matches(msg, m.keys.Default):
			return m, run(m.reset)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		if m.source != nil {
			if snap, fresh := m.source.Read(); fresh {
				m.snap = snap
			}
		}
		return m, tick()

	case StatusMsg:
		m.status = msg
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	var b strings.Builder

	title := "xentuner"
	if m.snap.ScaleLabel != "" {
		title = fmt.Sprintf("xentuner - %s (%d notes)", m.snap.ScaleLabel, m.snap.Notes)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if m.snap.Deviation.Voiced {
		b.WriteString(degreeStyle.
			Background(needleColor(m.snap.MeterPosition(), true)).
			Render(m.snap.DegreeText()))
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(fmt.Sprintf("Frequency: %s | Deviation: %s",
			m.snap.FrequencyText(), m.snap.CentsText())))
	} else {
		b.WriteString(infoStyle.Render("Listening for audio..."))
	}
	b.WriteString("\n\n")

	b.WriteString(renderMeter(m.snap.MeterPosition(), m.snap.Deviation.Voiced))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(levelText(m.snap)))
	b.WriteString("\n\n")

	if m.status.Err != nil {
		b.WriteString(errorStyle.Render(m.status.Err.Error()))
		b.WriteString("\n")
	} else if m.status.Text != "" {
		b.WriteString(infoStyle.Render(m.status.Text))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderMeter draws one cell per needle position with the center marked.
func renderMeter(pos int, voiced bool) string {
	var b strings.Builder
	b.WriteString(infoStyle.Render("flat "))
	for i := 0; i < meter.Positions; i++ {
		switch {
		case i == pos:
			b.WriteString(needleStyle.Foreground(needleColor(pos, voiced)).Render("█"))
		case i == meter.CenterPosition:
			b.WriteString(centerStyle.Render("│"))
		default:
			b.WriteString(cellStyle.Render("·"))
		}
	}
	b.WriteString(infoStyle.Render(" sharp"))
	return b.String()
}

func needleColor(pos int, voiced bool) lipgloss.Color {
	if !voiced {
		return idleColor
	}
	switch d := abs(pos - meter.CenterPosition); {
	case d == 0:
		return inTuneColor
	case d <= 8:
		return closeColor
	default:
		return farColor
	}
}

func levelText(s engine.Snapshot) string {
	if s.Empty() || math.IsInf(s.LevelDB, -1) {
		return "Level: --"
	}
	return fmt.Sprintf("Level: %.1f dB", s.LevelDB)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
