// Package engine runs a recipe intake session: the live form, the guided
// step machine, the quick-mode shortcut, touched-field error gating,
// smart defaults, draft persistence and submission.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hammamikhairi/ottointake/internal/catalog"
	"github.com/hammamikhairi/ottointake/internal/defaults"
	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/draft"
	"github.com/hammamikhairi/ottointake/internal/logger"
	"github.com/hammamikhairi/ottointake/internal/summary"
	"github.com/hammamikhairi/ottointake/internal/timer"
	"github.com/hammamikhairi/ottointake/internal/validate"
)

// DefaultDwell is how long a step transition holds before landing.
const DefaultDwell = 250 * time.Millisecond

// ErrNotOnReview is returned by Submit in guided mode before step 4.
var ErrNotOnReview = errors.New("confirm on the review step before submitting")

// DraftStore persists the guided form.
type DraftStore interface {
	Schedule(snapshot draft.SnapshotFunc)
	Flush() bool
	Load(ctx context.Context) (*domain.Draft, error)
	Clear(ctx context.Context) error
}

// Submitter sends a finished form.
type Submitter interface {
	Submit(ctx context.Context, mode domain.Mode, form domain.IntakeForm) (*domain.SubmissionResult, error)
	Retry(ctx context.Context) (*domain.SubmissionResult, error)
	Status() domain.SubmitStatus
	Outcome() (*domain.SubmissionResult, error)
}

// StepRejectedError is returned when Next (or a guided Submit) is refused
// because fields are invalid. Errors holds the message of each failing field.
type StepRejectedError struct {
	Step   domain.Step
	Errors domain.FieldErrors
}

func (e *StepRejectedError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, f := range domain.Fields {
		if m, ok := e.Errors[f]; ok {
			msgs = append(msgs, m)
		}
	}
	return fmt.Sprintf("step %d: %s", int(e.Step), strings.Join(msgs, "; "))
}

func (e *StepRejectedError) Unwrap() error { return domain.ErrStepInvalid }

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used for transition dwells.
func WithClock(c timer.Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithDwell sets the transition dwell. Zero lands immediately.
func WithDwell(d time.Duration) Option {
	return func(s *Session) {
		s.dwell = d
	}
}

// WithEventBuffer sets the capacity of the Events channel.
func WithEventBuffer(n int) Option {
	return func(s *Session) {
		s.buffer = n
	}
}

// Session is one intake session. All methods are safe for concurrent use;
// mutations are serialised.
type Session struct {
	id        string
	catalog   *catalog.Catalog
	drafts    DraftStore
	submitter Submitter
	log       *logger.Logger
	clock     timer.Clock
	dwell     time.Duration
	buffer    int

	machine     *Machine
	resolver    *defaults.Resolver
	memo        summary.Memo
	events      chan domain.Transition
	unsubscribe func()

	mu       sync.Mutex
	mode     domain.Mode
	form     domain.IntakeForm
	quick    string
	touched  map[domain.Field]bool
	errors   domain.FieldErrors
	phase    domain.Phase
	awaiting bool
	sentMode domain.Mode // mode of the last submission
	result   *domain.SubmissionResult
	lastErr  error
}

// New creates a session in guided mode on step 1 with an empty form.
func New(cat *catalog.Catalog, drafts DraftStore, submitter Submitter, log *logger.Logger, opts ...Option) *Session {
	s := &Session{
		id:        generateID(),
		catalog:   cat,
		drafts:    drafts,
		submitter: submitter,
		log:       log,
		clock:     timer.Real(),
		dwell:     DefaultDwell,
		buffer:    16,
		resolver:  defaults.NewResolver(cat),
		mode:      domain.ModeGuided,
		touched:   make(map[domain.Field]bool),
		errors:    domain.FieldErrors{},
	}
	for _, opt := range opts {
		opt(s)
	}

	// The guard runs inside Next, which holds s.mu.
	s.machine = NewMachine(func(step domain.Step) bool {
		return validate.StepValid(step, s.form)
	}, s.clock, s.dwell, log.Named("steps"))

	s.events = make(chan domain.Transition, s.buffer)
	s.unsubscribe = s.machine.Subscribe(func(t domain.Transition) {
		select {
		case s.events <- t:
		default:
			s.log.Warn("transition event dropped (%d -> %d), nobody is reading", int(t.From), int(t.To))
		}
	})

	s.log.Info("session %s started", s.id)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Events delivers every step landing.
func (s *Session) Events() <-chan domain.Transition { return s.events }

// Close stops event delivery and writes any pending draft.
func (s *Session) Close() {
	s.unsubscribe()
	s.drafts.Flush()
}

// ── Field input ──────────────────────────────────────────────────

// SetField writes a guided-mode field. Meal type and the flavor-control
// fields go through SelectMealType and SetFlavorControl.
func (s *Session) SetField(field domain.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guidedInputLocked(); err != nil {
		return err
	}
	switch field {
	case domain.FieldMealType:
		return s.selectMealTypeLocked(value)
	case domain.FieldSkillLevel:
		return s.setControlLocked(domain.CategorySkillLevel, value)
	case domain.FieldFlavor:
		return s.setControlLocked(domain.CategoryFlavor, value)
	}
	if !s.form.Set(field, value) {
		return fmt.Errorf("unknown field %q", field)
	}
	s.afterEditLocked()
	return nil
}

// SelectMealType sets the meal type and applies smart defaults to its
// flavor controls.
func (s *Session) SelectMealType(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guidedInputLocked(); err != nil {
		return err
	}
	return s.selectMealTypeLocked(value)
}

// SetFlavorControl sets one flavor-control category of the current meal
// type. An empty value clears it.
func (s *Session) SetFlavorControl(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guidedInputLocked(); err != nil {
		return err
	}
	return s.setControlLocked(key, value)
}

// Blur marks a field as touched so its error becomes visible.
func (s *Session) Blur(field domain.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touched[field] = true
	s.recomputeErrorsLocked()
}

// SetQuickDescription writes the quick-mode text. It is never persisted.
func (s *Session) SetQuickDescription(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reconcileLocked()
	if err := s.editableLocked(); err != nil {
		return err
	}
	if s.mode != domain.ModeQuick {
		return domain.ErrWrongMode
	}
	s.quick = text
	s.recomputeErrorsLocked()
	return nil
}

func (s *Session) selectMealTypeLocked(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		s.form.MealType = ""
		s.afterEditLocked()
		return nil
	}
	mt, ok := s.catalog.Lookup(value)
	if !ok {
		return &validate.FieldError{
			Field:   domain.FieldMealType,
			Message: "Choose one of: " + strings.Join(s.catalog.Names(), ", "),
		}
	}
	if s.form.MealType == mt.Name {
		return nil
	}

	s.form.MealType = mt.Name
	filled := s.resolver.Apply(&s.form, mt.Name)
	if len(filled) > 0 {
		s.log.Debug("meal type %s: defaulted %v", mt.Name, filled)
	}
	s.afterEditLocked()
	return nil
}

func (s *Session) setControlLocked(key, value string) error {
	field := controlField(key)
	mt, ok := s.catalog.Lookup(s.form.MealType)
	if !ok {
		return &validate.FieldError{Field: domain.FieldMealType, Message: validate.MsgMealTypeRequired}
	}
	cat, ok := mt.Category(key)
	if !ok {
		return fmt.Errorf("%s has no %q options", mt.Name, key)
	}

	value = strings.TrimSpace(value)
	if value != "" {
		if !cat.HasOption(value) {
			return &validate.FieldError{
				Field:   field,
				Message: fmt.Sprintf("Choose a %s from: %s", strings.ToLower(cat.Label), strings.Join(cat.Options, ", ")),
			}
		}
		value = cat.Canonical(value)
	}
	s.form.SetControl(key, value)
	s.resolver.MarkExplicit(key)
	s.afterEditLocked()
	return nil
}

func controlField(key string) domain.Field {
	switch key {
	case domain.CategorySkillLevel:
		return domain.FieldSkillLevel
	case domain.CategoryFlavor:
		return domain.FieldFlavor
	default:
		return domain.Field(key)
	}
}

// afterEditLocked revalidates touched fields and schedules a draft write
// that reads the form when it fires.
func (s *Session) afterEditLocked() {
	s.recomputeErrorsLocked()
	s.drafts.Schedule(s.snapshot)
}

// snapshot is the draft store's view of the live form. It runs on the
// debounce timer or inside Flush, never with s.mu held.
func (s *Session) snapshot() (domain.IntakeForm, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == domain.PhaseDone {
		return domain.IntakeForm{}, false
	}
	return s.form.Clone(), true
}

func (s *Session) recomputeErrorsLocked() {
	errs := domain.FieldErrors{}
	if s.mode == domain.ModeQuick {
		if s.touched[domain.FieldDescription] {
			if err := validate.Quick(s.quick); err != nil {
				errs[domain.FieldDescription] = validate.Message(err)
			}
		}
		s.errors = errs
		return
	}
	for f := range s.touched {
		if err := validate.Field(f, s.form.Value(f)); err != nil {
			errs[f] = validate.Message(err)
		}
	}
	s.errors = errs
}

func (s *Session) markTouchedLocked(fields []domain.Field) {
	for _, f := range fields {
		s.touched[f] = true
	}
	s.recomputeErrorsLocked()
}

// editableLocked refuses input while a submission runs, after success,
// and during a step transition.
func (s *Session) editableLocked() error {
	switch s.phase {
	case domain.PhaseDone:
		return domain.ErrSessionDone
	case domain.PhaseSubmitting:
		return domain.ErrSubmissionInFlight
	}
	if s.machine.Transitioning() {
		return domain.ErrTransitioning
	}
	return nil
}

func (s *Session) guidedInputLocked() error {
	s.reconcileLocked()
	if err := s.editableLocked(); err != nil {
		return err
	}
	if s.mode != domain.ModeGuided {
		return domain.ErrWrongMode
	}
	return nil
}

// ── Steps ────────────────────────────────────────────────────────

// Next advances to the next step. When the step is invalid every field on
// it is marked touched and a *StepRejectedError is returned.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guidedInputLocked(); err != nil {
		return err
	}
	step := s.machine.Step()
	err := s.machine.Next()
	if errors.Is(err, domain.ErrStepInvalid) {
		s.markTouchedLocked(validate.FieldsOn(step))
		rejected := &StepRejectedError{Step: step, Errors: validate.Step(step, s.form)}
		s.log.Debug("next refused: %v", rejected)
		return rejected
	}
	return err
}

// Previous goes back one step.
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guidedInputLocked(); err != nil {
		return err
	}
	return s.machine.Previous()
}

// GoTo jumps to any step without checking it.
func (s *Session) GoTo(step domain.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guidedInputLocked(); err != nil {
		return err
	}
	return s.machine.GoTo(step)
}

// ── Modes ────────────────────────────────────────────────────────

// SwitchToQuick leaves guided mode. Step state, touched fields and errors
// are cleared; the pending draft write is flushed so the draft stays
// available for a later resume.
func (s *Session) SwitchToQuick() error {
	s.mu.Lock()
	s.reconcileLocked()
	if s.phase == domain.PhaseSubmitting {
		s.mu.Unlock()
		return domain.ErrSubmissionInFlight
	}
	if s.phase == domain.PhaseDone {
		s.mu.Unlock()
		return domain.ErrSessionDone
	}
	if s.mode == domain.ModeQuick {
		s.mu.Unlock()
		return nil
	}
	s.clearTransientLocked()
	s.clearOutcomeLocked()
	s.mode = domain.ModeQuick
	s.mu.Unlock()

	s.drafts.Flush()
	s.log.Info("switched to quick mode")
	return nil
}

// ResumeGuided enters guided mode with the saved draft, if any, and lands
// on the first step that is not valid yet (step 3 when 1 and 2 are both
// valid). Steps before the landing step are marked complete. Reports
// whether a draft was loaded. An unreadable draft is discarded and the
// current form kept.
func (s *Session) ResumeGuided(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reconcileLocked()
	if s.phase == domain.PhaseSubmitting {
		return false, domain.ErrSubmissionInFlight
	}
	if s.phase == domain.PhaseDone {
		return false, domain.ErrSessionDone
	}

	resumed := false
	d, err := s.drafts.Load(ctx)
	switch {
	case err == nil:
		s.form = d.Form.Clone()
		s.resolver.Reset()
		if s.form.MealType != "" {
			s.resolver.MarkDefaulted(s.form.MealType)
		}
		for key := range s.form.FlavorControls {
			s.resolver.MarkExplicit(key)
		}
		resumed = true
	case errors.Is(err, domain.ErrNotFound):
	case errors.Is(err, domain.ErrDraftIncompatible):
		s.log.Warn("saved draft discarded: %v", err)
	default:
		return false, err
	}

	s.clearTransientLocked()
	if s.mode != domain.ModeGuided {
		s.clearOutcomeLocked()
	}
	s.quick = ""
	s.mode = domain.ModeGuided

	landing := domain.Step3
	switch {
	case !validate.StepValid(domain.Step1, s.form):
		landing = domain.Step1
	case !validate.StepValid(domain.Step2, s.form):
		landing = domain.Step2
	}
	completion := domain.StepCompletion{}
	for st := domain.Step1; st < landing; st++ {
		completion[st] = true
	}
	if err := s.machine.Restore(landing, completion); err != nil {
		return false, err
	}

	s.log.Info("guided mode resumed on step %d (draft=%v)", int(landing), resumed)
	return resumed, nil
}

// StartNewGuided enters guided mode with an empty form and deletes the
// draft.
func (s *Session) StartNewGuided(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reconcileLocked()
	if s.phase == domain.PhaseSubmitting {
		return domain.ErrSubmissionInFlight
	}
	s.mode = domain.ModeGuided
	return s.resetLocked(ctx)
}

// Reset clears the current mode's input. In guided mode this empties the
// form, forgets defaults, returns to step 1 and deletes the draft; in
// quick mode only the quick text is cleared.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reconcileLocked()
	if s.phase == domain.PhaseSubmitting {
		return domain.ErrSubmissionInFlight
	}
	if s.mode == domain.ModeQuick {
		s.quick = ""
		s.touched = make(map[domain.Field]bool)
		s.errors = domain.FieldErrors{}
		return nil
	}
	return s.resetLocked(ctx)
}

func (s *Session) resetLocked(ctx context.Context) error {
	s.form = domain.IntakeForm{}
	s.quick = ""
	s.resolver.Reset()
	s.clearTransientLocked()
	s.clearOutcomeLocked()
	if err := s.drafts.Clear(ctx); err != nil {
		return fmt.Errorf("clearing draft: %w", err)
	}
	s.log.Info("form reset")
	return nil
}

// clearOutcomeLocked forgets a failed submission so it cannot be retried
// from another mode.
func (s *Session) clearOutcomeLocked() {
	s.phase = domain.PhaseEditing
	s.result = nil
	s.lastErr = nil
}

func (s *Session) clearTransientLocked() {
	s.touched = make(map[domain.Field]bool)
	s.errors = domain.FieldErrors{}
	_ = s.machine.Reset()
}

// ── Submission ───────────────────────────────────────────────────

// Submit sends the form. Guided mode must be on step 4 with a fully valid
// form; quick mode needs a description of at least 10 characters. Local
// failures never reach the network.
//
// When ctx ends before the response, Submit returns ctx.Err() while the
// call carries on; the session picks up its outcome later.
func (s *Session) Submit(ctx context.Context) (*domain.SubmissionResult, error) {
	s.mu.Lock()
	s.reconcileLocked()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	mode := s.mode
	var form domain.IntakeForm
	if mode == domain.ModeGuided {
		if s.machine.Step() != domain.Step4 {
			s.mu.Unlock()
			return nil, ErrNotOnReview
		}
		if errs := validate.Form(s.form); len(errs) > 0 {
			fields := make([]domain.Field, 0, len(errs))
			for f := range errs {
				fields = append(fields, f)
			}
			s.markTouchedLocked(fields)
			s.mu.Unlock()
			return nil, &StepRejectedError{Step: domain.Step4, Errors: errs}
		}
		form = s.form.Clone()
	} else {
		if err := validate.Quick(s.quick); err != nil {
			s.markTouchedLocked([]domain.Field{domain.FieldDescription})
			s.mu.Unlock()
			return nil, err
		}
		form = domain.IntakeForm{Description: s.quick}
	}

	s.phase = domain.PhaseSubmitting
	s.awaiting = true
	s.sentMode = mode
	s.mu.Unlock()

	s.log.Info("submitting (%s)", mode)
	res, err := s.submitter.Submit(ctx, mode, form)
	return s.finish(ctx, res, err, domain.PhaseEditing)
}

// Retry re-sends the payload of the last failed submission.
func (s *Session) Retry(ctx context.Context) (*domain.SubmissionResult, error) {
	s.mu.Lock()
	s.reconcileLocked()
	if s.phase != domain.PhaseFailed || s.sentMode != s.mode {
		s.mu.Unlock()
		return nil, domain.ErrNothingToRetry
	}
	s.phase = domain.PhaseSubmitting
	s.awaiting = true
	s.mu.Unlock()

	res, err := s.submitter.Retry(ctx)
	return s.finish(ctx, res, err, domain.PhaseFailed)
}

// finish records a submission outcome. Errors that are not submission
// failures (throttling, local refusals) put the session back in fallback.
func (s *Session) finish(ctx context.Context, res *domain.SubmissionResult, err error, fallback domain.Phase) (*domain.SubmissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaiting = false

	var se *domain.SubmitError
	switch {
	case err == nil:
		s.phase = domain.PhaseDone
		s.result = res
		s.lastErr = nil
		s.log.Info("submission done, recipe %s", res.RecipeID)
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// The call continues without us; reconcileLocked settles it.
		s.log.Debug("submission detached from caller")
	case errors.As(err, &se):
		s.phase = domain.PhaseFailed
		s.lastErr = err
	default:
		s.phase = fallback
	}
	return res, err
}

// reconcileLocked settles a submission whose caller went away.
func (s *Session) reconcileLocked() {
	if s.phase != domain.PhaseSubmitting || s.awaiting {
		return
	}
	switch s.submitter.Status() {
	case domain.SubmitSucceeded:
		res, _ := s.submitter.Outcome()
		s.phase = domain.PhaseDone
		s.result = res
		s.lastErr = nil
	case domain.SubmitFailed:
		_, err := s.submitter.Outcome()
		s.phase = domain.PhaseFailed
		s.lastErr = err
	}
}

// ── Views ────────────────────────────────────────────────────────

// Snapshot is a read-only view of the session.
type Snapshot struct {
	ID            string
	Mode          domain.Mode
	Step          domain.Step
	Transitioning bool
	Completion    domain.StepCompletion
	Form          domain.IntakeForm
	QuickText     string
	Errors        domain.FieldErrors // touched fields only
	Phase         domain.Phase
	Result        *domain.SubmissionResult
	LastError     error
	Summary       string
	Categories    []catalog.Category // of the selected meal type
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconcileLocked()

	snap := Snapshot{
		ID:            s.id,
		Mode:          s.mode,
		Step:          s.machine.Step(),
		Transitioning: s.machine.Transitioning(),
		Completion:    s.machine.Completion(),
		Form:          s.form.Clone(),
		QuickText:     s.quick,
		Errors:        s.errors.Clone(),
		Phase:         s.phase,
		Result:        s.result,
		LastError:     s.lastErr,
		Summary:       s.summaryLocked(),
	}
	if mt, ok := s.catalog.Lookup(s.form.MealType); ok {
		snap.Categories = mt.Categories
	}
	return snap
}

// VisibleErrors returns the errors of touched fields.
func (s *Session) VisibleErrors() domain.FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors.Clone()
}

// Summary returns the live one-line preview.
func (s *Session) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Session) summaryLocked() string {
	if s.mode == domain.ModeQuick {
		return s.memo.Get(domain.ModeQuick, domain.IntakeForm{Description: s.quick})
	}
	return s.memo.Get(domain.ModeGuided, s.form)
}

// Mode returns the current mode.
func (s *Session) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Step returns the current guided step.
func (s *Session) Step() domain.Step { return s.machine.Step() }

// MealTypes lists the selectable meal types.
func (s *Session) MealTypes() []string { return s.catalog.Names() }
