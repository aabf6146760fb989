package tui

import tea "github.com/charmbracelet/bubbletea"

// ItemsChangedMsg signals that the controller appended items.
type ItemsChangedMsg struct{}

// waitForUpdate blocks until the controller reports new items.
func waitForUpdate(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return ItemsChangedMsg{}
	}
}
