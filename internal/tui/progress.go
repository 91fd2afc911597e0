package tui

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/progress"
)

// phaseBar renders overall completion across the serial run phases.
type phaseBar struct {
	bar progress.Model
}

func newPhaseBar() phaseBar {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30
	return phaseBar{bar: bar}
}

// render draws the bar for completed-of-total phases with a counter label.
func (p phaseBar) render(completed int) string {
	total := len(runPhases)
	ratio := math.Min(1.0, float64(completed)/float64(total))
	label := runningStyle.Bold(true).Render(fmt.Sprintf("%d/%d", completed, total))
	return fmt.Sprintf("%s %s", label, p.bar.ViewAs(ratio))
}
