package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	nextBoard     key.Binding
	prevBoard     key.Binding
	focusLeft     key.Binding
	focusRight    key.Binding
	focusUp       key.Binding
	focusDown     key.Binding
	openTask      key.Binding
	moveTaskLeft  key.Binding
	moveTaskRight key.Binding
	copyTaskID    key.Binding
	cancel        key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		nextBoard:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next board")),
		prevBoard:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous board")),
		focusLeft:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		focusRight:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		focusUp:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		focusDown:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		openTask:      key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "task details")),
		moveTaskLeft:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move task left")),
		moveTaskRight: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move task right")),
		copyTaskID:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task id")),
		cancel:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag / close")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.openTask, k.moveTaskLeft, k.moveTaskRight, k.nextBoard, k.reload, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.openTask, k.copyTaskID, k.cancel, k.reload, k.toggleHelp, k.quit},
		{k.focusLeft, k.focusRight, k.focusUp, k.focusDown},
		{k.moveTaskLeft, k.moveTaskRight, k.nextBoard, k.prevBoard},
	}
}
