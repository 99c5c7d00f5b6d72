// Package onboarding implements the profile wizard: gender, date of birth,
// languages, then bio and photo, ending in registration.
package onboarding

import (
	"errors"
	"fmt"
	"sync"

	"karmatch/internal/shared/logging"
)

// Step names a wizard screen. The string values match the route names the
// backend and the front ends use.
type Step string

const (
	StepGender    Step = "age"
	StepDOB       Step = "dob"
	StepLanguages Step = "languages"
	StepBio       Step = "bio"
	StepDone      Step = "done"
)

// Steps lists the interactive steps in order.
var Steps = []Step{StepGender, StepDOB, StepLanguages, StepBio}

// ErrInvalidTransition is returned for any edge outside the forward chain.
var ErrInvalidTransition = errors.New("onboarding: invalid step transition")

var transitions = map[Step]Step{
	StepGender:    StepDOB,
	StepDOB:       StepLanguages,
	StepLanguages: StepBio,
	StepBio:       StepDone,
}

// Next returns the single successor of s.
func (s Step) Next() (Step, bool) {
	next, ok := transitions[s]
	return next, ok
}

// Index returns the 1-based position of s among Steps, or 0 for StepDone and
// unknown values.
func (s Step) Index() int {
	for i, step := range Steps {
		if step == s {
			return i + 1
		}
	}
	return 0
}

func (s Step) Title() string {
	switch s {
	case StepGender:
		return "Gender"
	case StepDOB:
		return "Date of birth"
	case StepLanguages:
		return "Languages"
	case StepBio:
		return "Profile"
	case StepDone:
		return "Done"
	default:
		return string(s)
	}
}

// Capabilities is what a step may do to the wizard: read the draft, merge
// into it and request the next step. Discard is only used once the flow ends.
type Capabilities interface {
	Current() Step
	Draft() Draft
	Merge(func(*Draft))
	Advance(to Step) error
	Discard()
}

// Wizard holds the current step and the shared draft. There is no history,
// so a step can never be revisited.
type Wizard struct {
	mu      sync.Mutex
	current Step
	draft   Draft
	logger  logging.Logger
}

var _ Capabilities = (*Wizard)(nil)

// NewWizard starts at the gender step with an empty draft.
func NewWizard(logger logging.Logger) *Wizard {
	return &Wizard{current: StepGender, draft: NewDraft(), logger: logging.OrNop(logger)}
}

func (w *Wizard) Current() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Draft returns a copy of the draft.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Clone()
}

func (w *Wizard) Merge(fn func(*Draft)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.draft)
}

// Advance moves to to when it is the successor of the current step.
func (w *Wizard) Advance(to Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, ok := w.current.Next()
	if !ok || next != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, w.current, to)
	}
	w.logger.Debug("onboarding step %s -> %s", w.current, to)
	w.current = to
	return nil
}

// Discard drops the draft once registration finishes or the user gives up.
func (w *Wizard) Discard() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = NewDraft()
}

// commit checks that the wizard is on from, applies fn and advances. Nothing
// is merged when the wizard is elsewhere.
func commit(w Capabilities, from Step, fn func(*Draft)) error {
	if current := w.Current(); current != from {
		return fmt.Errorf("%w: expected %s, at %s", ErrInvalidTransition, from, current)
	}
	next, _ := from.Next()
	w.Merge(fn)
	return w.Advance(next)
}
