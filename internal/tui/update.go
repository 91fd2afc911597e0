package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PhaseMsg:
		m.advanceTo(msg.Event.Phase)
		if msg.Event.Targets > 0 {
			m.targets = msg.Event.Targets
		}
		if msg.Event.Phase == "done" {
			m.finished = true
		}
		return m, nil
	case DoneMsg:
		m.err = msg.Err
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// advanceTo marks the named phase running and everything before it done.
func (m *Model) advanceTo(id string) {
	reached := false
	for _, p := range runPhases {
		if reached {
			break
		}
		if p.id == id {
			reached = true
			m.status[p.id] = statusRunning
			continue
		}
		if m.status[p.id] != statusDone {
			m.status[p.id] = statusDone
			m.completed++
		}
	}
	if !reached {
		return
	}
	if id == "done" {
		m.status[id] = statusDone
		m.completed = len(runPhases)
	}
}
