// Package tui renders interactive run progress on rank 0. Pipeline events
// arrive as messages; the view tracks the serial phases of a run.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ebosslab/rrboss/internal/pipeline"
)

// PhaseMsg carries a pipeline progress event into the model.
type PhaseMsg struct {
	Event pipeline.Event
}

// DoneMsg reports that the run finished, successfully or not.
type DoneMsg struct {
	Err error
}

const (
	statusPending = "pending"
	statusRunning = "running"
	statusDone    = "done"
)

type phase struct {
	id    string
	label string
}

var runPhases = []phase{
	{"load-targets", "Loading targets"},
	{"distribute", "Distributing targets"},
	{"zfind", "Computing redshifts"},
	{"done", "Writing outputs"},
}

// Model contains the Bubbletea state for a run's progress display.
type Model struct {
	runID     string
	status    map[string]string
	targets   int
	completed int
	finished  bool
	cancelled bool
	err       error
}

// NewModel constructs a progress model for the given run.
func NewModel(runID string) Model {
	status := make(map[string]string, len(runPhases))
	for _, p := range runPhases {
		status[p.id] = statusPending
	}
	return Model{runID: runID, status: status}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Finished reports whether the run has completed.
func (m Model) Finished() bool {
	return m.finished
}

// Err returns the run error, if any.
func (m Model) Err() error {
	return m.err
}
