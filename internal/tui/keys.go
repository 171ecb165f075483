package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up             key.Binding
	Down           key.Binding
	Left           key.Binding
	Right          key.Binding
	MoveLeft       key.Binding
	MoveRight      key.Binding
	Enter          key.Binding
	Add            key.Binding
	Delete         key.Binding
	FilterProject  key.Binding
	FilterStatus   key.Binding
	FilterAssignee key.Binding
	FilterPriority key.Binding
	ResetFilters   key.Binding
	Refresh        key.Binding
	Help           key.Binding
	Quit           key.Binding
	Escape         key.Binding
	Tab            key.Binding
	ShiftTab       key.Binding
	Yes            key.Binding
	No             key.Binding
}

var keys = keyMap{
	Up:             key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:           key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:           key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left column")),
	Right:          key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right column")),
	MoveLeft:       key.NewBinding(key.WithKeys("H", "<"), key.WithHelp("H/<", "move card left")),
	MoveRight:      key.NewBinding(key.WithKeys("L", ">"), key.WithHelp("L/>", "move card right")),
	Enter:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
	Add:            key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
	Delete:         key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	FilterProject:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "filter project")),
	FilterStatus:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "filter status")),
	FilterAssignee: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "filter assignee")),
	FilterPriority: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "filter priority")),
	ResetFilters:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset filters")),
	Refresh:        key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
	Help:           key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Tab:            key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	ShiftTab:       key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
	Yes:            key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
	No:             key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "cancel")),
}
