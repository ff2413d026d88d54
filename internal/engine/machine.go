package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/logger"
	"github.com/hammamikhairi/ottointake/internal/timer"
)

// Errors returned by the step machine.
var (
	ErrNoNextStep     = errors.New("already on the last step")
	ErrNoPreviousStep = errors.New("already on the first step")
	ErrUnknownStep    = errors.New("no such step")
)

// EventKind names a step machine transition.
type EventKind int

const (
	EventNext EventKind = iota
	EventPrevious
	EventGoTo
	EventSettle // internal: the transition dwell has elapsed
	EventReset
)

// String returns a human-readable event kind.
func (k EventKind) String() string {
	switch k {
	case EventNext:
		return "next"
	case EventPrevious:
		return "previous"
	case EventGoTo:
		return "goto"
	case EventSettle:
		return "settle"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is an input to the step machine. To is used by EventGoTo.
type Event struct {
	Kind EventKind
	To   domain.Step
}

// Guard decides whether Next may leave the given step.
type Guard func(step domain.Step) bool

// Machine is the guided flow's step state machine. Next is gated by the
// guard and passes through a transitioning substate that lasts for the
// dwell; while it lasts every event except Settle and Reset is refused.
// Events fired from a transition subscriber are queued and handled in
// order after the current one.
type Machine struct {
	clock timer.Clock
	dwell time.Duration
	guard Guard
	log   *logger.Logger

	mu            sync.Mutex
	step          domain.Step
	target        domain.Step
	transitioning bool
	completion    domain.StepCompletion
	settle        timer.Timer
	processing    bool
	queue         []Event
	subs          map[int]func(domain.Transition)
	nextSub       int
}

// NewMachine creates a machine on step 1.
func NewMachine(guard Guard, clock timer.Clock, dwell time.Duration, log *logger.Logger) *Machine {
	return &Machine{
		clock:      clock,
		dwell:      dwell,
		guard:      guard,
		log:        log,
		step:       domain.Step1,
		completion: domain.StepCompletion{},
		subs:       make(map[int]func(domain.Transition)),
	}
}

// Step returns the current step. While transitioning this is the step
// being left.
func (m *Machine) Step() domain.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

// Transitioning reports whether a Next is waiting for its dwell.
func (m *Machine) Transitioning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitioning
}

// Completion returns a copy of the completion marks.
func (m *Machine) Completion() domain.StepCompletion {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completion.Clone()
}

// Subscribe registers fn to receive every landing. Returns a function
// that removes the subscription.
func (m *Machine) Subscribe(fn func(domain.Transition)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Next asks to advance one step.
func (m *Machine) Next() error { return m.Fire(Event{Kind: EventNext}) }

// Previous goes back one step.
func (m *Machine) Previous() error { return m.Fire(Event{Kind: EventPrevious}) }

// GoTo jumps to a step without checking the guard.
func (m *Machine) GoTo(step domain.Step) error { return m.Fire(Event{Kind: EventGoTo, To: step}) }

// Reset returns to step 1, clears completion and cancels a pending landing.
func (m *Machine) Reset() error { return m.Fire(Event{Kind: EventReset}) }

// Restore puts the machine on a step with the given completion marks, as
// when a draft is resumed. It cancels any pending landing.
func (m *Machine) Restore(step domain.Step, completion domain.StepCompletion) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownStep, int(step))
	}
	m.mu.Lock()
	m.cancelSettleLocked()
	from := m.step
	m.step = step
	m.completion = completion.Clone()
	t := domain.Transition{From: from, To: step, At: m.clock.Now()}
	subs := m.subscribersLocked()
	m.mu.Unlock()

	m.log.Debug("restored to step %d", int(step))
	emit(subs, []domain.Transition{t})
	return nil
}

// Fire handles an event. When called while another event is being
// handled (from a subscriber) the event is queued and nil is returned;
// errors of queued events are logged.
func (m *Machine) Fire(ev Event) error {
	m.mu.Lock()
	if m.processing {
		m.queue = append(m.queue, ev)
		m.mu.Unlock()
		m.log.Debug("queued %s event", ev.Kind)
		return nil
	}
	m.processing = true

	first := true
	var result error
	for {
		landed, err := m.handleLocked(ev)
		if first {
			result = err
			first = false
		} else if err != nil {
			m.log.Debug("queued %s event refused: %v", ev.Kind, err)
		}

		subs := m.subscribersLocked()
		m.mu.Unlock()
		emit(subs, landed)
		m.mu.Lock()

		if len(m.queue) == 0 {
			break
		}
		ev = m.queue[0]
		m.queue = m.queue[1:]
	}
	m.processing = false
	m.mu.Unlock()
	return result
}

func (m *Machine) handleLocked(ev Event) ([]domain.Transition, error) {
	if ev.Kind == EventReset {
		m.cancelSettleLocked()
		m.completion = domain.StepCompletion{}
		return m.landLocked(domain.Step1), nil
	}
	if ev.Kind == EventSettle {
		if !m.transitioning {
			return nil, nil
		}
		m.transitioning = false
		m.settle = nil
		return m.landLocked(m.target), nil
	}
	if m.transitioning {
		return nil, domain.ErrTransitioning
	}

	switch ev.Kind {
	case EventNext:
		if m.step >= domain.LastStep {
			return nil, ErrNoNextStep
		}
		if m.guard != nil && !m.guard(m.step) {
			return nil, fmt.Errorf("step %d: %w", int(m.step), domain.ErrStepInvalid)
		}
		m.completion[m.step] = true
		m.target = m.step + 1
		if m.dwell <= 0 {
			return m.landLocked(m.target), nil
		}
		m.transitioning = true
		m.settle = m.clock.AfterFunc(m.dwell, func() {
			_ = m.Fire(Event{Kind: EventSettle})
		})
		m.log.Debug("transitioning %d -> %d (dwell=%s)", int(m.step), int(m.target), m.dwell)
		return nil, nil

	case EventPrevious:
		if m.step <= domain.FirstStep {
			return nil, ErrNoPreviousStep
		}
		return m.landLocked(m.step - 1), nil

	case EventGoTo:
		if !ev.To.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownStep, int(ev.To))
		}
		return m.landLocked(ev.To), nil

	default:
		return nil, fmt.Errorf("unknown event %d", int(ev.Kind))
	}
}

func (m *Machine) landLocked(to domain.Step) []domain.Transition {
	from := m.step
	m.step = to
	m.log.Debug("landed on step %d (from %d)", int(to), int(from))
	return []domain.Transition{{From: from, To: to, At: m.clock.Now()}}
}

func (m *Machine) cancelSettleLocked() {
	if m.settle != nil {
		m.settle.Stop()
		m.settle = nil
	}
	m.transitioning = false
}

func (m *Machine) subscribersLocked() []func(domain.Transition) {
	out := make([]func(domain.Transition), 0, len(m.subs))
	for i := 0; i < m.nextSub; i++ {
		if fn, ok := m.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func emit(subs []func(domain.Transition), landed []domain.Transition) {
	for _, t := range landed {
		for _, fn := range subs {
			fn(t)
		}
	}
}
