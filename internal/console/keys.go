package console

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rpint/rpint/internal/input"
)

// keyMap binds terminal keys to the same events the hardware buttons send.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Refresh  key.Binding
	Shutdown key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh lldp"),
	),
	Shutdown: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "long press"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Refresh, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Refresh, k.Shutdown},
		{k.Help, k.Quit},
	}
}

// eventFor maps a key press to an input event. ok is false for keys that
// are not button stand-ins.
func eventFor(k tea.KeyMsg) (input.Event, bool) {
	switch {
	case key.Matches(k, keys.Up):
		return input.EventUp, true
	case key.Matches(k, keys.Down):
		return input.EventDown, true
	case key.Matches(k, keys.Left):
		return input.EventLeft, true
	case key.Matches(k, keys.Right):
		return input.EventRight, true
	case key.Matches(k, keys.Refresh):
		return input.EventRefresh, true
	case key.Matches(k, keys.Shutdown):
		return input.EventShutdown, true
	}
	return 0, false
}
