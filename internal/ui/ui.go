// Package ui is a thin terminal front-end over the playback controller. It
// renders state snapshots and translates keys into player actions; no core
// logic lives here.
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"songbird/internal/structures"
	"songbird/internal/systems"
)

type tickMsg time.Time

// Model is the bubbletea model for the queue view.
type Model struct {
	sys      *systems.Systems
	state    structures.PlayerState
	selected int
	width    int
	height   int

	styleNormal   lipgloss.Style
	styleSelected lipgloss.Style
	stylePlaying  lipgloss.Style
	styleBorder   lipgloss.Style
}

// New creates the UI model.
func New(sys *systems.Systems) Model {
	theme := sys.Config.Theme

	return Model{
		sys:           sys,
		styleNormal:   lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Foreground)),
		styleSelected: lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Selected)).Bold(true),
		stylePlaying:  lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Playing)),
		styleBorder:   lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Border)),
	}
}

// Run starts the UI event loop and blocks until quit.
func Run(sys *systems.Systems) error {
	p := tea.NewProgram(New(sys), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.state = m.sys.Controller.GetState()
		if m.selected >= len(m.state.Items) {
			m.selected = len(m.state.Items) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.sys.Controller.SendAction(structures.PlayPauseAction{})
		case "n":
			m.sys.Controller.SendAction(structures.NextAction{})
		case "b":
			m.sys.Controller.SendAction(structures.PreviousAction{})
		case "s":
			m.sys.Controller.SendAction(structures.ToggleShuffleAction{})
		case "r":
			m.sys.Controller.SendAction(structures.CycleRepeatAction{})
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected+1 < len(m.state.Items) {
				m.selected++
			}
		case "enter", "l":
			m.sys.Controller.SendAction(structures.JumpToIndexAction{Index: m.selected})
		}
	}

	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var out string

	out += m.styleBorder.Render("songbird") + "\n\n"

	maxRows := m.height - 6
	if maxRows < 1 {
		maxRows = 1
	}

	for i, item := range m.state.Items {
		if i >= maxRows {
			out += m.styleBorder.Render(fmt.Sprintf("  … %d more", len(m.state.Items)-maxRows)) + "\n"
			break
		}

		line := runewidth.Truncate(fmt.Sprintf("%s — %s", item.Title, item.ArtistName), m.width-4, "…")

		switch {
		case i == m.state.Current:
			out += m.stylePlaying.Render("▶ "+line) + "\n"
		case i == m.selected:
			out += m.styleSelected.Render("> "+line) + "\n"
		default:
			out += m.styleNormal.Render("  "+line) + "\n"
		}
	}

	out += "\n" + m.styleBorder.Render(m.statusLine())

	return out
}

func (m Model) statusLine() string {
	mode := "▮▮"
	if m.state.IsPlaying {
		mode = "▶"
	}

	shuffle := "shuffle off"
	if m.state.ShuffleOn {
		shuffle = "shuffle on"
	}

	repeat := [...]string{"repeat off", "repeat one", "repeat all"}[m.state.Repeat]

	return fmt.Sprintf("%s  %d/%d  %s  %s  [space] play  [n/b] next/prev  [s] shuffle  [r] repeat  [q] quit",
		mode, m.state.Current+1, len(m.state.Items), shuffle, repeat)
}
