// ABOUTME: Bubbletea model for the zone dashboard TUI
// ABOUTME: Renders every zone of one amplifier and routes key presses to commands
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Action is a control command triggered from the keyboard.
type Action int

const (
	ActionVolumeUp Action = iota
	ActionVolumeDown
	ActionMuteToggle
	ActionPlayPause
	ActionStop
	ActionNext
	ActionPrev
)

// Command is one keyboard action aimed at a zone.
type Command struct {
	ZoneID int
	Action Action
}

// ZoneStatus is the display state of one zone.
type ZoneStatus struct {
	ID       int
	Name     string
	Volume   int
	Muted    bool
	State    string
	Source   string
	Title    string
	Artist   string
	Album    string
	Progress string
	Group    string
}

// StatusMsg replaces the displayed state. Zones are a full snapshot; empty
// device fields keep their previous value.
type StatusMsg struct {
	DeviceName string
	Model      string
	Serial     string
	SWVersion  string
	Zones      []ZoneStatus
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Model is the TUI state.
type Model struct {
	deviceName string
	model      string
	serial     string
	swVersion  string
	zones      []ZoneStatus

	selected int
	quitting bool

	controls *Controls

	width  int
	height int
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}
	return m, nil
}

// handleKey routes key presses. Zone commands go out on the control channel;
// the state on screen only moves when device feedback comes back.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.controls.quit()
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.zones)-1 {
			m.selected++
		}
	case "+", "=":
		m.send(ActionVolumeUp)
	case "-":
		m.send(ActionVolumeDown)
	case "m":
		m.send(ActionMuteToggle)
	case " ":
		m.send(ActionPlayPause)
	case "s":
		m.send(ActionStop)
	case "n":
		m.send(ActionNext)
	case "b":
		m.send(ActionPrev)
	}
	return m, nil
}

func (m Model) send(action Action) {
	if m.selected >= len(m.zones) {
		return
	}
	m.controls.command(Command{ZoneID: m.zones[m.selected].ID, Action: action})
}

func (m *Model) applyStatus(msg StatusMsg) {
	if msg.DeviceName != "" {
		m.deviceName = msg.DeviceName
	}
	if msg.Model != "" {
		m.model = msg.Model
	}
	if msg.Serial != "" {
		m.serial = msg.Serial
	}
	if msg.SWVersion != "" {
		m.swVersion = msg.SWVersion
	}
	if msg.Zones != nil {
		m.zones = msg.Zones
		if m.selected >= len(m.zones) {
			m.selected = len(m.zones) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
	}
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return "Disconnecting...\n"
	}

	var b strings.Builder

	name := m.deviceName
	if name == "" {
		name = "VSSL"
	}
	b.WriteString(titleStyle.Render(name))
	if m.model != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s", m.model)))
	}
	b.WriteString("\n")
	if m.serial != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s  fw %s", m.serial, m.swVersion)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.zones) == 0 {
		b.WriteString(valueStyle.Render("No zones connected"))
		b.WriteString("\n")
	}

	for i, z := range m.zones {
		b.WriteString(m.renderZone(z, i == m.selected))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("↑/↓:Zone  +/-:Volume  m:Mute  space:Play/Pause  s:Stop  n/b:Track  q:Quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderZone(z ZoneStatus, selected bool) string {
	var b strings.Builder

	marker := "  "
	nameStyle := headerStyle
	if selected {
		marker = "> "
		nameStyle = selectedStyle
	}

	mute := ""
	if z.Muted {
		mute = " muted"
	}

	b.WriteString(marker)
	b.WriteString(nameStyle.Render(fmt.Sprintf("%d %s", z.ID, z.Name)))
	b.WriteString(valueStyle.Render(fmt.Sprintf("  [%s] %d%%%s  %s",
		renderBar(z.Volume, 100, 10), z.Volume, mute, z.State)))
	if z.Group != "" {
		b.WriteString(dimStyle.Render("  " + z.Group))
	}
	b.WriteString("\n")

	if z.Title != "" {
		line := fmt.Sprintf("    %s - %s", truncate(z.Title, 40), truncate(z.Artist, 30))
		if z.Progress != "" {
			line += "  " + z.Progress
		}
		b.WriteString(valueStyle.Render(line))
		b.WriteString("\n")
	} else if z.Source != "" {
		b.WriteString(dimStyle.Render("    " + z.Source))
		b.WriteString("\n")
	}

	return b.String()
}

func renderBar(value, max, width int) string {
	if value < 0 {
		value = 0
	}
	if value > max {
		value = max
	}
	filled := (value * width) / max
	var bar strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			bar.WriteString("█")
		} else {
			bar.WriteString("░")
		}
	}
	return bar.String()
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
