// ABOUTME: Tests for the zone dashboard model
// ABOUTME: Covers status updates, zone selection and keyboard command routing
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func twoZones() StatusMsg {
	return StatusMsg{
		DeviceName: "Living Room Amp",
		Model:      "A.3x",
		Zones: []ZoneStatus{
			{ID: 1, Name: "Kitchen", Volume: 40, State: "play"},
			{ID: 2, Name: "Dining", Volume: 25, State: "stop"},
		},
	}
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil)

	if model.deviceName != "" {
		t.Errorf("device name = %q initially", model.deviceName)
	}
	if len(model.zones) != 0 {
		t.Errorf("zones = %d initially", len(model.zones))
	}
	if model.quitting {
		t.Error("quitting should be false initially")
	}
}

func TestApplyStatusZonesSnapshot(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(twoZones())

	if model.deviceName != "Living Room Amp" {
		t.Errorf("device name = %q", model.deviceName)
	}
	if len(model.zones) != 2 {
		t.Fatalf("zones = %d, want 2", len(model.zones))
	}
	if model.zones[1].Name != "Dining" {
		t.Errorf("zone 2 name = %q", model.zones[1].Name)
	}
}

func TestApplyStatusKeepsDeviceFields(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(twoZones())

	// A zone-only refresh must not blank the device header.
	model.applyStatus(StatusMsg{Zones: []ZoneStatus{{ID: 1, Name: "Kitchen"}}})

	if model.deviceName != "Living Room Amp" {
		t.Errorf("device name lost: %q", model.deviceName)
	}
	if model.model != "A.3x" {
		t.Errorf("model lost: %q", model.model)
	}
}

func TestApplyStatusClampsSelection(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(twoZones())
	model.selected = 1

	model.applyStatus(StatusMsg{Zones: []ZoneStatus{{ID: 1, Name: "Kitchen"}}})

	if model.selected != 0 {
		t.Errorf("selected = %d after shrink, want 0", model.selected)
	}
}

func TestZoneSelectionKeys(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(twoZones())

	next, _ := model.Update(key("j"))
	model = next.(Model)
	if model.selected != 1 {
		t.Errorf("selected = %d after down, want 1", model.selected)
	}

	// Cannot move past the last zone.
	next, _ = model.Update(key("j"))
	model = next.(Model)
	if model.selected != 1 {
		t.Errorf("selected = %d, want 1", model.selected)
	}

	next, _ = model.Update(key("k"))
	model = next.(Model)
	if model.selected != 0 {
		t.Errorf("selected = %d after up, want 0", model.selected)
	}
}

func TestKeyCommandsTargetSelectedZone(t *testing.T) {
	controls := NewControls()
	model := NewModel(controls)
	model.applyStatus(twoZones())
	model.selected = 1

	cases := []struct {
		key  string
		want Action
	}{
		{"+", ActionVolumeUp},
		{"-", ActionVolumeDown},
		{"m", ActionMuteToggle},
		{" ", ActionPlayPause},
		{"s", ActionStop},
		{"n", ActionNext},
		{"b", ActionPrev},
	}

	for _, c := range cases {
		model.Update(key(c.key))
		select {
		case cmd := <-controls.Commands:
			if cmd.ZoneID != 2 {
				t.Errorf("key %q targeted zone %d, want 2", c.key, cmd.ZoneID)
			}
			if cmd.Action != c.want {
				t.Errorf("key %q sent action %d, want %d", c.key, cmd.Action, c.want)
			}
		default:
			t.Errorf("key %q sent no command", c.key)
		}
	}
}

func TestCommandsWithoutZonesDropped(t *testing.T) {
	controls := NewControls()
	model := NewModel(controls)

	model.Update(key("+"))
	select {
	case cmd := <-controls.Commands:
		t.Errorf("command %+v sent with no zones", cmd)
	default:
	}
}

func TestQuitKeySignals(t *testing.T) {
	controls := NewControls()
	model := NewModel(controls)

	next, cmd := model.Update(key("q"))
	model = next.(Model)

	if !model.quitting {
		t.Error("quitting not set")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
	select {
	case <-controls.Quit:
	default:
		t.Error("quit channel not signalled")
	}
}

func TestNilControlsSafe(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(twoZones())

	// Must not panic.
	model.Update(key("+"))
	model.Update(key("q"))
}

func TestRenderBar(t *testing.T) {
	cases := []struct {
		value int
		want  string
	}{
		{0, "░░░░░░░░░░"},
		{50, "█████░░░░░"},
		{100, "██████████"},
		{150, "██████████"},
		{-10, "░░░░░░░░░░"},
	}
	for _, c := range cases {
		if got := renderBar(c.value, 100, 10); got != c.want {
			t.Errorf("renderBar(%d) = %q, want %q", c.value, got, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in     string
		length int
		want   string
	}{
		{"short", 10, "short"},
		{"this is longer than allowed", 10, "this is..."},
		{"", 10, ""},
		{"abcd", 4, "abcd"},
		{"abcde", 4, "a..."},
	}
	for _, c := range cases {
		if got := truncate(c.in, c.length); got != c.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", c.in, c.length, got, c.want)
		}
	}
}

func TestViewShowsZones(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(twoZones())
	model.width = 80

	view := model.View()
	for _, want := range []string{"Kitchen", "Dining", "Living Room Amp"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
