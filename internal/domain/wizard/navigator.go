package wizard

import (
	"fmt"
	"net/url"
	"sync"
)

// View receives the side effects of rendering the wizard. Implementations
// must tolerate being called any number of times with the same state.
type View interface {
	ShowStep(index int, active bool)
	SetProgress(p Progress)
	ReportValidity(v Violation)
}

// Navigator tracks the active step of one mounted form. Next is the only
// operation that changes the active index.
type Navigator struct {
	mu      sync.Mutex
	steps   []Step
	current int
}

// NewNavigator mounts a form at step 0 and renders it once.
func NewNavigator(steps []Step, view View) (*Navigator, error) {
	return Resume(steps, 0, view)
}

// Resume mounts a form at a step reached earlier in the same session.
func Resume(steps []Step, current int, view View) (*Navigator, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("wizard: form has no steps")
	}
	if current < 0 || current >= len(steps) {
		return nil, fmt.Errorf("wizard: step %d out of range [0,%d]", current, len(steps)-1)
	}
	n := &Navigator{steps: steps, current: current}
	n.Render(view)
	return n, nil
}

// Current returns the zero-based active step index.
func (n *Navigator) Current() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Len returns the number of steps.
func (n *Navigator) Len() int {
	return len(n.steps)
}

// Step returns the step at index i.
func (n *Navigator) Step(i int) Step {
	return n.steps[i]
}

// ActiveStep returns the currently active step.
func (n *Navigator) ActiveStep() Step {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.steps[n.current]
}

// OnLastStep reports whether the active step carries the submit action.
func (n *Navigator) OnLastStep() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current == len(n.steps)-1
}

// Progress returns the indicator for the active step.
func (n *Navigator) Progress() Progress {
	n.mu.Lock()
	defer n.mu.Unlock()
	return ComputeProgress(n.current, len(n.steps))
}

// Render shows the active panel, hides the others and updates the progress
// indicator. It never changes state.
func (n *Navigator) Render(view View) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.renderLocked(view)
}

func (n *Navigator) renderLocked(view View) {
	if view == nil {
		return
	}
	for i := range n.steps {
		view.ShowStep(i, i == n.current)
	}
	view.SetProgress(ComputeProgress(n.current, len(n.steps)))
}

// Next validates the active step against values and advances one step when
// every field passes. The first violation is reported to the view. The last
// step never advances; its action is submission.
func (n *Navigator) Next(values url.Values, view View) (Report, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	report := ValidateStep(n.steps[n.current], values)
	if !report.Valid() {
		if first, ok := report.First(); ok && view != nil {
			view.ReportValidity(first)
		}
		return report, false
	}
	if n.current >= len(n.steps)-1 {
		return report, false
	}
	n.current++
	n.renderLocked(view)
	return report, true
}
