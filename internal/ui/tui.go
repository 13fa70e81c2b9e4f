// ABOUTME: TUI initialization and control channels
// ABOUTME: Wraps the bubbletea program around the zone dashboard model
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Controls carries keyboard commands out of the TUI. A nil Controls is valid
// and drops everything, which keeps the model testable without a consumer.
type Controls struct {
	Commands chan Command
	Quit     chan struct{}
}

// NewControls creates the control channels.
func NewControls() *Controls {
	return &Controls{
		Commands: make(chan Command, 16),
		Quit:     make(chan struct{}, 1),
	}
}

func (c *Controls) command(cmd Command) {
	if c == nil {
		return
	}
	select {
	case c.Commands <- cmd:
	default:
	}
}

func (c *Controls) quit() {
	if c == nil {
		return
	}
	select {
	case c.Quit <- struct{}{}:
	default:
	}
}

// NewModel creates the dashboard model.
func NewModel(controls *Controls) Model {
	return Model{controls: controls}
}

// Run builds the bubbletea program. The caller starts it with program.Run and
// feeds it StatusMsg updates with program.Send.
func Run(controls *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(controls), tea.WithAltScreen())
	return p, nil
}
