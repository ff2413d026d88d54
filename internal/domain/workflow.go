package domain

import (
	"fmt"
	"time"
)

// Mode selects the intake flow.
type Mode int

const (
	// ModeGuided is the 4-step structured flow.
	ModeGuided Mode = iota
	// ModeQuick is the single free-text shortcut.
	ModeQuick
)

// String returns a human-readable mode.
func (m Mode) String() string {
	switch m {
	case ModeGuided:
		return "guided"
	case ModeQuick:
		return "quick"
	default:
		return "unknown"
	}
}

// Step is a page of the guided flow.
type Step int

const (
	Step1 Step = iota + 1 // basics: name, description, servings
	Step2                 // meal type and flavor controls
	Step3                 // optional constraints
	Step4                 // review and confirm
)

// FirstStep and LastStep bound the guided flow.
const (
	FirstStep = Step1
	LastStep  = Step4
)

// Valid reports whether s is one of the four steps.
func (s Step) Valid() bool { return s >= FirstStep && s <= LastStep }

// String returns a human-readable step.
func (s Step) String() string {
	switch s {
	case Step1:
		return "basics"
	case Step2:
		return "style"
	case Step3:
		return "constraints"
	case Step4:
		return "review"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// StepCompletion records which steps were passed with Next. Marks are
// monotonic until an explicit reset.
type StepCompletion map[Step]bool

// Clone returns a copy of the completion marks.
func (c StepCompletion) Clone() StepCompletion {
	out := make(StepCompletion, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Transition is emitted every time the step machine lands on a step.
type Transition struct {
	From Step
	To   Step
	At   time.Time
}

// Phase is the terminal-state axis of a session, orthogonal to the step.
type Phase int

const (
	PhaseEditing Phase = iota
	PhaseSubmitting
	PhaseFailed
	PhaseDone
)

// String returns a human-readable phase.
func (p Phase) String() string {
	switch p {
	case PhaseEditing:
		return "editing"
	case PhaseSubmitting:
		return "submitting"
	case PhaseFailed:
		return "failed"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// SubmitStatus is the state of the submission orchestrator.
type SubmitStatus int

const (
	SubmitIdle SubmitStatus = iota
	SubmitLoading
	SubmitSucceeded
	SubmitFailed
)

// String returns a human-readable submission status.
func (s SubmitStatus) String() string {
	switch s {
	case SubmitIdle:
		return "idle"
	case SubmitLoading:
		return "loading"
	case SubmitSucceeded:
		return "succeeded"
	case SubmitFailed:
		return "failed"
	default:
		return "unknown"
	}
}
