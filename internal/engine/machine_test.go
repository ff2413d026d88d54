package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/logger"
	"github.com/hammamikhairi/ottointake/internal/timer"
)

var epoch = time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)

func newTestMachine(guard Guard, dwell time.Duration) (*Machine, *timer.FakeClock) {
	clock := timer.NewFakeClock(epoch)
	return NewMachine(guard, clock, dwell, logger.New(logger.LevelOff, nil)), clock
}

func TestMachineGuardBlocksNext(t *testing.T) {
	valid := false
	m, _ := newTestMachine(func(domain.Step) bool { return valid }, 0)

	if err := m.Next(); !errors.Is(err, domain.ErrStepInvalid) {
		t.Fatalf("expected ErrStepInvalid, got %v", err)
	}
	if m.Step() != domain.Step1 {
		t.Fatalf("expected step 1, got %d", m.Step())
	}
	if m.Completion()[domain.Step1] {
		t.Fatal("a refused step must not be marked complete")
	}

	valid = true
	if err := m.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Step() != domain.Step2 {
		t.Fatalf("expected step 2, got %d", m.Step())
	}
	if !m.Completion()[domain.Step1] {
		t.Fatal("expected step 1 complete")
	}
}

func TestMachineDwell(t *testing.T) {
	m, clock := newTestMachine(nil, 250*time.Millisecond)

	if err := m.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Transitioning() {
		t.Fatal("expected transitioning after Next")
	}
	if m.Step() != domain.Step1 {
		t.Fatalf("step must not change before the dwell ends, got %d", m.Step())
	}

	for _, fire := range []func() error{m.Next, m.Previous, func() error { return m.GoTo(domain.Step4) }} {
		if err := fire(); !errors.Is(err, domain.ErrTransitioning) {
			t.Fatalf("expected ErrTransitioning, got %v", err)
		}
	}

	clock.Advance(249 * time.Millisecond)
	if m.Step() != domain.Step1 {
		t.Fatalf("landed too early on %d", m.Step())
	}
	clock.Advance(time.Millisecond)
	if m.Step() != domain.Step2 || m.Transitioning() {
		t.Fatalf("expected to land on step 2, got %d (transitioning=%v)", m.Step(), m.Transitioning())
	}
}

func TestMachineBounds(t *testing.T) {
	m, _ := newTestMachine(nil, 0)

	if err := m.Previous(); !errors.Is(err, ErrNoPreviousStep) {
		t.Fatalf("expected ErrNoPreviousStep, got %v", err)
	}
	if err := m.GoTo(domain.Step4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Next(); !errors.Is(err, ErrNoNextStep) {
		t.Fatalf("expected ErrNoNextStep, got %v", err)
	}
	if err := m.GoTo(domain.Step(5)); !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}
	if err := m.Previous(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Step() != domain.Step3 {
		t.Fatalf("expected step 3, got %d", m.Step())
	}
	if len(m.Completion()) != 0 {
		t.Fatal("GoTo and Previous must not mark completion")
	}
}

func TestMachineResetCancelsLanding(t *testing.T) {
	m, clock := newTestMachine(nil, 250*time.Millisecond)

	_ = m.Next()
	if err := m.Reset(); err != nil {
		t.Fatalf("reset during transition: %v", err)
	}
	clock.Advance(time.Second)

	if m.Step() != domain.Step1 || m.Transitioning() {
		t.Fatalf("expected idle on step 1, got %d (transitioning=%v)", m.Step(), m.Transitioning())
	}
	if len(m.Completion()) != 0 {
		t.Fatal("reset must clear completion")
	}
	if clock.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", clock.Pending())
	}
}

func TestMachineQueuesEventsFromSubscribers(t *testing.T) {
	m, _ := newTestMachine(nil, 0)

	var landed []domain.Step
	m.Subscribe(func(tr domain.Transition) {
		landed = append(landed, tr.To)
		if tr.To == domain.Step2 {
			if err := m.Next(); err != nil {
				t.Errorf("queued Next returned %v", err)
			}
		}
	})

	if err := m.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Step() != domain.Step3 {
		t.Fatalf("expected the queued Next to land on 3, got %d", m.Step())
	}
	if len(landed) != 2 || landed[0] != domain.Step2 || landed[1] != domain.Step3 {
		t.Fatalf("unexpected landings %v", landed)
	}
}

func TestMachineUnsubscribe(t *testing.T) {
	m, _ := newTestMachine(nil, 0)

	calls := 0
	unsubscribe := m.Subscribe(func(domain.Transition) { calls++ })
	_ = m.Next()
	unsubscribe()
	_ = m.Next()

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestMachineRestore(t *testing.T) {
	m, _ := newTestMachine(nil, 0)

	err := m.Restore(domain.Step3, domain.StepCompletion{domain.Step1: true, domain.Step2: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Step() != domain.Step3 {
		t.Fatalf("expected step 3, got %d", m.Step())
	}
	c := m.Completion()
	if !c[domain.Step1] || !c[domain.Step2] || c[domain.Step3] {
		t.Fatalf("unexpected completion %v", c)
	}
	if err := m.Restore(domain.Step(0), nil); !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}
}
