package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("rrboss • run %s", m.runID)))
	sections = append(sections, newPhaseBar().render(m.completed))

	var lines []string
	for _, p := range runPhases {
		line := fmt.Sprintf(" %s %s", statusIcon(m.status[p.id]), p.label)
		if p.id == "zfind" && m.targets > 0 {
			line = fmt.Sprintf("%s (%d targets)", line, m.targets)
		}
		lines = append(lines, line)
	}
	sections = append(sections, strings.Join(lines, "\n"))

	switch {
	case m.cancelled:
		sections = append(sections, failureStyle.Render("cancelled"))
	case m.err != nil:
		sections = append(sections, failureStyle.Render(fmt.Sprintf("run failed: %v", m.err)))
	case m.finished:
		sections = append(sections, successStyle.Render("run complete"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func statusIcon(status string) string {
	switch status {
	case statusDone:
		return successStyle.Render("✓")
	case statusRunning:
		return runningStyle.Render("⏳")
	default:
		return pendingStyle.Render("…")
	}
}
