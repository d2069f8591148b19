package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LogChunkMsg carries bytes appended to the followed log
type LogChunkMsg []byte

// StreamEndedMsg reports that the tail stream finished. Err is nil when the
// server closed it normally.
type StreamEndedMsg struct {
	Err error
}

type tailKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Bottom key.Binding
	Quit   key.Binding
}

// ShortHelp implements help.KeyMap
func (k tailKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Bottom, k.Quit}
}

// FullHelp implements help.KeyMap
func (k tailKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newTailKeyMap() tailKeyMap {
	return tailKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k", "pgup"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j", "pgdown"),
			key.WithHelp("↓/j", "scroll down"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "follow"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// TailModel is a Bubble Tea model showing a live log in a scrollable
// viewport. New data keeps the view pinned to the bottom unless the user
// has scrolled up.
type TailModel struct {
	source   string
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     tailKeyMap
	log      []byte
	ready    bool
	ended    bool
	err      error
}

// NewTailModel creates a tail view for the stream at source
func NewTailModel(source string) TailModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return TailModel{
		source:  source,
		spinner: s,
		help:    help.New(),
		keys:    newTailKeyMap(),
	}
}

// Log returns everything received so far
func (m TailModel) Log() []byte {
	return m.log
}

// Err returns the error that ended the stream, if any
func (m TailModel) Err() error {
	return m.err
}

// Init implements tea.Model
func (m TailModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m TailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Bottom):
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		height := msg.Height - lipgloss.Height(m.statusBar())
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.viewport.SetContent(RenderLog(m.log))
		m.viewport.GotoBottom()
		return m, nil

	case LogChunkMsg:
		atBottom := !m.ready || m.viewport.AtBottom()
		m.log = append(m.log, msg...)
		if m.ready {
			m.viewport.SetContent(RenderLog(m.log))
			if atBottom {
				m.viewport.GotoBottom()
			}
		}
		return m, nil

	case StreamEndedMsg:
		m.ended = true
		m.err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if m.ended {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m TailModel) View() string {
	if !m.ready {
		return m.spinner.View() + " Connecting to " + m.source + "..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.statusBar())
}

func (m TailModel) statusBar() string {
	client, stamps := CountRecords(m.log)

	state := m.spinner.View() + " following"
	switch {
	case m.err != nil:
		state = FailureMarker + " " + m.err.Error()
	case m.ended:
		state = SuccessMarker + " stream closed"
	}

	info := fmt.Sprintf("%s  %s  %d records  %d timestamps", m.source, state, client, stamps)
	return StatusBarStyle.Render(lipgloss.JoinVertical(lipgloss.Left, info, m.help.View(m.keys)))
}
