// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the transport UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// NewModel creates a new TUI model
func NewModel(ctl Controller) Model {
	m := Model{ctl: ctl}
	m.refresh()
	return m
}

// Run creates the TUI program for ctl
func Run(ctl Controller) *tea.Program {
	return tea.NewProgram(NewModel(ctl), tea.WithAltScreen())
}
