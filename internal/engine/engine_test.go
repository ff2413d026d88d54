package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/ottointake/internal/auth"
	"github.com/hammamikhairi/ottointake/internal/catalog"
	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/draft"
	"github.com/hammamikhairi/ottointake/internal/logger"
	"github.com/hammamikhairi/ottointake/internal/storage"
	"github.com/hammamikhairi/ottointake/internal/submit"
	"github.com/hammamikhairi/ottointake/internal/summary"
	"github.com/hammamikhairi/ottointake/internal/timer"
	"github.com/hammamikhairi/ottointake/internal/validate"
)

type fakeGenerator struct {
	mu   sync.Mutex
	err  error
	reqs []domain.GenerationRequest
}

func (g *fakeGenerator) Generate(_ context.Context, _ string, req domain.GenerationRequest) (*domain.GenerationResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return nil, g.err
	}
	return &domain.GenerationResponse{RecipeID: "recipe-1", Recipe: []byte(`{"title":"Curry"}`)}, nil
}

func (g *fakeGenerator) setErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *fakeGenerator) requests() []domain.GenerationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.GenerationRequest(nil), g.reqs...)
}

type fixture struct {
	session *Session
	drafts  *draft.Store
	kv      *storage.MemoryStore
	clock   *timer.FakeClock
	gen     *fakeGenerator
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	clock := timer.NewFakeClock(epoch)
	kv := storage.NewMemoryStore(log)
	drafts := draft.New(kv, log, draft.WithClock(clock))
	gen := &fakeGenerator{}
	identity := auth.Static{Identity: domain.Identity{UserID: "user-1", Token: "token"}}

	orch, err := submit.New(gen, identity, drafts, nil, log, submit.WithCatalog(catalog.Default()))
	if err != nil {
		t.Fatalf("creating orchestrator: %v", err)
	}
	opts = append([]Option{WithClock(clock), WithDwell(0)}, opts...)
	s := New(catalog.Default(), drafts, orch, log, opts...)
	t.Cleanup(s.Close)

	return &fixture{session: s, drafts: drafts, kv: kv, clock: clock, gen: gen}
}

func mustSet(t *testing.T, s *Session, field domain.Field, value string) {
	t.Helper()
	if err := s.SetField(field, value); err != nil {
		t.Fatalf("set %s=%q: %v", field, value, err)
	}
}

func fillBasics(t *testing.T, s *Session) {
	t.Helper()
	mustSet(t, s, domain.FieldMealName, "Spicy Chicken Curry")
	mustSet(t, s, domain.FieldDescription, "A spicy curry with vegetables and rice")
	mustSet(t, s, domain.FieldServingSize, "2")
}

func TestGuidedCurryEndToEnd(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	fillBasics(t, s)
	if err := s.Next(); err != nil {
		t.Fatalf("step 1: %v", err)
	}
	if err := s.SelectMealType("dinner"); err != nil {
		t.Fatalf("meal type: %v", err)
	}

	snap := s.Snapshot()
	if snap.Form.MealType != "Dinner" {
		t.Fatalf("expected canonical meal type, got %q", snap.Form.MealType)
	}
	if got := snap.Form.Control(domain.CategorySkillLevel); got != "Intermediate" {
		t.Fatalf("expected skill level default Intermediate, got %q", got)
	}
	if got := snap.Form.Control(domain.CategoryFlavor); got != "" {
		t.Fatalf("flavor must not be defaulted, got %q", got)
	}

	for i := 0; i < 2; i++ {
		if err := s.Next(); err != nil {
			t.Fatalf("next from %d: %v", s.Step(), err)
		}
	}
	if s.Step() != domain.Step4 {
		t.Fatalf("expected review step, got %d", s.Step())
	}

	res, err := s.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.RecipeID != "recipe-1" || res.Mode != domain.ModeGuided {
		t.Fatalf("unexpected result %+v", res)
	}

	reqs := f.gen.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	req := reqs[0]
	if req.MealType == nil || *req.MealType != "Dinner" {
		t.Fatalf("unexpected meal_type %v", req.MealType)
	}
	if req.CookingSkillLevel == nil || *req.CookingSkillLevel != "Intermediate" {
		t.Fatalf("unexpected cooking_skill_level %v", req.CookingSkillLevel)
	}
	if req.FlavorControls != nil {
		t.Fatalf("expected null flavor_controls, got %v", req.FlavorControls)
	}

	if s.Snapshot().Phase != domain.PhaseDone {
		t.Fatalf("expected done, got %s", s.Snapshot().Phase)
	}
	if _, err := f.drafts.Load(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("draft must be cleared after a guided success, got %v", err)
	}
	if err := s.SetField(domain.FieldMealName, "Other"); !errors.Is(err, domain.ErrSessionDone) {
		t.Fatalf("expected ErrSessionDone, got %v", err)
	}
}

func TestNextRejectionRevealsStepErrors(t *testing.T) {
	f := newFixture(t)
	s := f.session

	mustSet(t, s, domain.FieldMealName, "A")
	if len(s.VisibleErrors()) != 0 {
		t.Fatalf("untouched fields must not show errors, got %v", s.VisibleErrors())
	}

	err := s.Next()
	var rejected *StepRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected *StepRejectedError, got %v", err)
	}
	if !errors.Is(err, domain.ErrStepInvalid) {
		t.Fatal("rejection must wrap ErrStepInvalid")
	}
	if rejected.Step != domain.Step1 {
		t.Fatalf("expected step 1, got %d", rejected.Step)
	}

	visible := s.VisibleErrors()
	tests := map[domain.Field]string{
		domain.FieldMealName:    validate.MsgMealNameShort,
		domain.FieldDescription: validate.MsgDescriptionRequired,
		domain.FieldServingSize: validate.MsgServingSize,
	}
	for field, want := range tests {
		if visible[field] != want {
			t.Errorf("%s: expected %q, got %q", field, want, visible[field])
		}
	}
	if s.Step() != domain.Step1 {
		t.Fatalf("expected to stay on step 1, got %d", s.Step())
	}

	mustSet(t, s, domain.FieldMealName, "Ab")
	if _, ok := s.VisibleErrors()[domain.FieldMealName]; ok {
		t.Fatal("fixed field must drop its error")
	}
}

func TestBlurRevealsFieldError(t *testing.T) {
	f := newFixture(t)
	s := f.session

	mustSet(t, s, domain.FieldCalorieRange, "600-400")
	if len(s.VisibleErrors()) != 0 {
		t.Fatal("expected no visible errors before blur")
	}
	s.Blur(domain.FieldCalorieRange)
	if got := s.VisibleErrors()[domain.FieldCalorieRange]; got != validate.MsgCalorieOrder {
		t.Fatalf("expected %q, got %q", validate.MsgCalorieOrder, got)
	}
}

func TestMealTypeSwitchKeepsFlavor(t *testing.T) {
	f := newFixture(t)
	s := f.session

	if err := s.SelectMealType("Dinner"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFlavorControl(domain.CategoryFlavor, "spicy"); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectMealType("Snack"); err != nil {
		t.Fatal(err)
	}

	form := s.Snapshot().Form
	if form.Control(domain.CategoryFlavor) != "Spicy" {
		t.Fatalf("flavor must survive a meal-type change, got %q", form.Control(domain.CategoryFlavor))
	}
	if form.Control(domain.CategorySkillLevel) != "Intermediate" {
		t.Fatalf("existing skill level must not be overwritten, got %q", form.Control(domain.CategorySkillLevel))
	}
	if form.Control("portion") != "Moderate" {
		t.Fatalf("expected portion default on first visit, got %q", form.Control("portion"))
	}

	if err := s.SelectMealType("Dinner"); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Form.Control("portion"); got != "" {
		t.Fatalf("categories the meal type lacks must be dropped, got %q", got)
	}
}

func TestFlavorControlInputErrors(t *testing.T) {
	f := newFixture(t)
	s := f.session

	var fe *validate.FieldError
	if err := s.SetFlavorControl(domain.CategoryFlavor, "Spicy"); !errors.As(err, &fe) {
		t.Fatalf("expected a field error before a meal type is chosen, got %v", err)
	}
	if err := s.SelectMealType("Brunch"); !errors.As(err, &fe) || fe.Field != domain.FieldMealType {
		t.Fatalf("expected meal type field error, got %v", err)
	}
	if err := s.SelectMealType("Dessert"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetField(domain.FieldSkillLevel, "Grandmaster"); !errors.As(err, &fe) {
		t.Fatalf("expected option error, got %v", err)
	}
	if err := s.SetFlavorControl("portion", "Hearty"); err == nil {
		t.Fatal("expected error for a category dessert lacks")
	}
	if err := s.SetField(domain.FieldSkillLevel, "expert"); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Form.Control(domain.CategorySkillLevel); got != "Expert" {
		t.Fatalf("expected canonical option, got %q", got)
	}
}

func TestQuickModeDescriptionLength(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	if err := s.SwitchToQuick(); err != nil {
		t.Fatal(err)
	}
	if err := s.SetField(domain.FieldMealName, "Toast"); !errors.Is(err, domain.ErrWrongMode) {
		t.Fatalf("expected ErrWrongMode, got %v", err)
	}

	if err := s.SetQuickDescription("Pasta dis"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Submit(ctx); err == nil {
		t.Fatal("expected 9 characters to be refused")
	}
	if len(f.gen.requests()) != 0 {
		t.Fatal("a local failure must not reach the network")
	}
	if got := s.VisibleErrors()[domain.FieldDescription]; got != validate.MsgDescriptionShort {
		t.Fatalf("expected %q, got %q", validate.MsgDescriptionShort, got)
	}

	if err := s.SetQuickDescription("Pasta dish"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Submit(ctx); err != nil {
		t.Fatalf("10 characters must pass: %v", err)
	}
	reqs := f.gen.requests()
	if len(reqs) != 1 || reqs[0].Description != "Pasta dish" || reqs[0].MealName != nil {
		t.Fatalf("unexpected quick request %+v", reqs)
	}
}

func TestSwitchToQuickKeepsDraft(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	fillBasics(t, s)
	if err := s.Next(); err != nil {
		t.Fatal(err)
	}
	s.Blur(domain.FieldMealType)

	if err := s.SwitchToQuick(); err != nil {
		t.Fatal(err)
	}
	d, err := f.drafts.Load(ctx)
	if err != nil {
		t.Fatalf("pending write must be flushed on leaving guided mode: %v", err)
	}
	if d.Form.MealName != "Spicy Chicken Curry" {
		t.Fatalf("unexpected draft %+v", d.Form)
	}

	snap := s.Snapshot()
	if snap.Step != domain.Step1 || len(snap.Completion) != 0 || len(snap.Errors) != 0 {
		t.Fatalf("guided state must be cleared, got step=%d completion=%v errors=%v", snap.Step, snap.Completion, snap.Errors)
	}
}

func TestResumeGuidedLanding(t *testing.T) {
	basics := domain.IntakeForm{
		MealName:    "Spicy Chicken Curry",
		Description: "A spicy curry with vegetables and rice",
		ServingSize: "2",
	}
	styled := basics.Clone()
	styled.MealType = "Dinner"
	styled.SetControl(domain.CategorySkillLevel, "Beginner")

	tests := []struct {
		name string
		form domain.IntakeForm
		want domain.Step
	}{
		{"partial basics", domain.IntakeForm{MealName: "Toast"}, domain.Step1},
		{"basics done", basics, domain.Step2},
		{"style done", styled, domain.Step3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			if err := f.drafts.Save(ctx, tt.form); err != nil {
				t.Fatal(err)
			}
			if err := f.session.SwitchToQuick(); err != nil {
				t.Fatal(err)
			}

			resumed, err := f.session.ResumeGuided(ctx)
			if err != nil || !resumed {
				t.Fatalf("expected resume, got %v %v", resumed, err)
			}
			snap := f.session.Snapshot()
			if snap.Mode != domain.ModeGuided || snap.Step != tt.want {
				t.Fatalf("expected guided step %d, got %s step %d", tt.want, snap.Mode, snap.Step)
			}
			for st := domain.Step1; st < tt.want; st++ {
				if !snap.Completion[st] {
					t.Errorf("step %d should be complete", st)
				}
			}
			if snap.Form.MealName != tt.form.MealName {
				t.Fatalf("form not restored: %+v", snap.Form)
			}
		})
	}
}

func TestResumeKeepsResumedSelections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	form := domain.IntakeForm{MealName: "Cake", MealType: "Dessert"}
	form.SetControl(domain.CategorySkillLevel, "Beginner")
	if err := f.drafts.Save(ctx, form); err != nil {
		t.Fatal(err)
	}
	if _, err := f.session.ResumeGuided(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.session.SelectMealType("Snack"); err != nil {
		t.Fatal(err)
	}
	if err := f.session.SelectMealType("Dessert"); err != nil {
		t.Fatal(err)
	}
	got := f.session.Snapshot().Form
	if got.Control(domain.CategorySkillLevel) != "Beginner" {
		t.Fatalf("resumed skill level overwritten: %q", got.Control(domain.CategorySkillLevel))
	}
	if got.Control("sweetness") != "" {
		t.Fatalf("a resumed meal type counts as visited, got sweetness %q", got.Control("sweetness"))
	}
}

func TestResumeWithoutUsableDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resumed, err := f.session.ResumeGuided(ctx)
	if err != nil || resumed {
		t.Fatalf("expected no draft, got %v %v", resumed, err)
	}

	if err := f.kv.Set(ctx, draft.DefaultKey, []byte(`{"schemaVersion":"9.0.0"}`)); err != nil {
		t.Fatal(err)
	}
	resumed, err = f.session.ResumeGuided(ctx)
	if err != nil || resumed {
		t.Fatalf("an incompatible draft must be skipped, got %v %v", resumed, err)
	}
	if f.session.Step() != domain.Step1 {
		t.Fatalf("expected step 1, got %d", f.session.Step())
	}
}

func TestStartNewGuidedClearsDraft(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	fillBasics(t, s)
	f.clock.Advance(time.Second)
	if _, err := f.drafts.Load(ctx); err != nil {
		t.Fatalf("expected a saved draft: %v", err)
	}

	if err := s.StartNewGuided(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.drafts.Load(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected draft removed, got %v", err)
	}
	if !s.Snapshot().Form.IsEmpty() {
		t.Fatal("expected an empty form")
	}
}

func TestDraftWritesAreDebounced(t *testing.T) {
	f := newFixture(t)
	s := f.session

	for _, name := range []string{"C", "Cu", "Cur", "Curry"} {
		mustSet(t, s, domain.FieldMealName, name)
		f.clock.Advance(50 * time.Millisecond)
	}
	if f.drafts.Writes() != 0 {
		t.Fatalf("expected no writes inside the window, got %d", f.drafts.Writes())
	}
	f.clock.Advance(draft.DefaultDebounce)
	if f.drafts.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", f.drafts.Writes())
	}

	d, err := f.drafts.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if d.Form.MealName != "Curry" {
		t.Fatalf("expected the last value, got %q", d.Form.MealName)
	}
}

func TestTransitionDwellBlocksInput(t *testing.T) {
	f := newFixture(t, WithDwell(250*time.Millisecond))
	s := f.session

	fillBasics(t, s)
	if err := s.Next(); err != nil {
		t.Fatal(err)
	}
	if !s.Snapshot().Transitioning {
		t.Fatal("expected transitioning")
	}
	if err := s.SetField(domain.FieldMealName, "Other"); !errors.Is(err, domain.ErrTransitioning) {
		t.Fatalf("expected ErrTransitioning, got %v", err)
	}
	if err := s.Next(); !errors.Is(err, domain.ErrTransitioning) {
		t.Fatalf("expected ErrTransitioning, got %v", err)
	}

	f.clock.Advance(250 * time.Millisecond)
	if s.Step() != domain.Step2 {
		t.Fatalf("expected step 2, got %d", s.Step())
	}
	select {
	case tr := <-s.Events():
		if tr.From != domain.Step1 || tr.To != domain.Step2 {
			t.Fatalf("unexpected transition %+v", tr)
		}
	default:
		t.Fatal("expected a transition event")
	}
}

func TestRetryAfterFailure(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	if _, err := s.Retry(ctx); !errors.Is(err, domain.ErrNothingToRetry) {
		t.Fatalf("expected ErrNothingToRetry, got %v", err)
	}

	f.gen.setErr(&domain.SubmitError{Kind: domain.SubmitRetryable, Message: "service unavailable"})
	if err := s.SwitchToQuick(); err != nil {
		t.Fatal(err)
	}
	if err := s.SetQuickDescription("A hearty lentil soup"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Submit(ctx); err == nil {
		t.Fatal("expected failure")
	}
	snap := s.Snapshot()
	if snap.Phase != domain.PhaseFailed || snap.LastError == nil {
		t.Fatalf("expected failed phase with error, got %s %v", snap.Phase, snap.LastError)
	}

	f.gen.setErr(nil)
	if _, err := s.Retry(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s.Snapshot().Phase != domain.PhaseDone {
		t.Fatalf("expected done, got %s", s.Snapshot().Phase)
	}
	reqs := f.gen.requests()
	if len(reqs) != 2 || reqs[1].Description != reqs[0].Description {
		t.Fatalf("retry must resend the same payload, got %+v", reqs)
	}
}

func TestModeSwitchForgetsFailedSubmission(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	fillBasics(t, s)
	if err := s.Next(); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectMealType("Dinner"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Next(); err != nil {
			t.Fatal(err)
		}
	}

	f.gen.setErr(&domain.SubmitError{Kind: domain.SubmitRetryable, Message: "service unavailable"})
	if _, err := s.Submit(ctx); err == nil {
		t.Fatal("expected failure")
	}
	if s.Snapshot().Phase != domain.PhaseFailed {
		t.Fatalf("expected failed phase, got %s", s.Snapshot().Phase)
	}

	if err := s.SwitchToQuick(); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.Phase != domain.PhaseEditing || snap.LastError != nil || snap.Result != nil {
		t.Fatalf("expected a clean editing phase, got %s %v %v", snap.Phase, snap.LastError, snap.Result)
	}

	f.gen.setErr(nil)
	if _, err := s.Retry(ctx); !errors.Is(err, domain.ErrNothingToRetry) {
		t.Fatalf("expected ErrNothingToRetry in quick mode, got %v", err)
	}
	if n := len(f.gen.requests()); n != 1 {
		t.Fatalf("the guided payload must not be resent, got %d requests", n)
	}
	d, err := f.drafts.Load(ctx)
	if err != nil {
		t.Fatalf("guided draft must survive: %v", err)
	}
	if d.Form.MealName != "Spicy Chicken Curry" {
		t.Fatalf("unexpected draft %+v", d.Form)
	}

	// Back in guided mode the old failure is gone as well.
	if _, err := s.ResumeGuided(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Retry(ctx); !errors.Is(err, domain.ErrNothingToRetry) {
		t.Fatalf("expected ErrNothingToRetry after resuming, got %v", err)
	}
}

func TestDraftWritesFollowEditPauses(t *testing.T) {
	f := newFixture(t)
	s := f.session

	// Edits at 0, 50, 100 and 500ms with a 300ms window.
	mustSet(t, s, domain.FieldMealName, "C")
	f.clock.Advance(50 * time.Millisecond)
	mustSet(t, s, domain.FieldMealName, "Cu")
	f.clock.Advance(50 * time.Millisecond)
	mustSet(t, s, domain.FieldMealName, "Cur")

	f.clock.Advance(300 * time.Millisecond) // t=400, the window after the third edit closed at 400
	if f.drafts.Writes() != 1 {
		t.Fatalf("expected 1 write after the first pause, got %d", f.drafts.Writes())
	}
	d, err := f.drafts.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if d.Form.MealName != "Cur" {
		t.Fatalf("expected %q in the first write, got %q", "Cur", d.Form.MealName)
	}

	f.clock.Advance(100 * time.Millisecond) // t=500
	mustSet(t, s, domain.FieldMealName, "Curry")
	f.clock.Advance(299 * time.Millisecond)
	if f.drafts.Writes() != 1 {
		t.Fatalf("expected no write inside the second window, got %d", f.drafts.Writes())
	}
	f.clock.Advance(time.Millisecond) // t=800
	if f.drafts.Writes() != 2 {
		t.Fatalf("expected 2 writes, got %d", f.drafts.Writes())
	}
	if d, _ = f.drafts.Load(context.Background()); d.Form.MealName != "Curry" {
		t.Fatalf("expected the last value, got %q", d.Form.MealName)
	}
}

func TestSubmitRequiresReviewStep(t *testing.T) {
	f := newFixture(t)
	s := f.session

	fillBasics(t, s)
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrNotOnReview) {
		t.Fatalf("expected ErrNotOnReview, got %v", err)
	}

	if err := s.GoTo(domain.Step4); err != nil {
		t.Fatal(err)
	}
	_, err := s.Submit(context.Background())
	var rejected *StepRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected *StepRejectedError, got %v", err)
	}
	if _, ok := s.VisibleErrors()[domain.FieldMealType]; !ok {
		t.Fatal("a refused submit must reveal the failing fields")
	}
	if len(f.gen.requests()) != 0 {
		t.Fatal("a local failure must not reach the network")
	}
}

func TestSummaryFollowsMode(t *testing.T) {
	f := newFixture(t)
	s := f.session

	fillBasics(t, s)
	if got, want := s.Summary(), summary.Generate(domain.ModeGuided, s.Snapshot().Form); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	if err := s.SwitchToQuick(); err != nil {
		t.Fatal(err)
	}
	if got := s.Summary(); got != summary.QuickPrompt {
		t.Fatalf("expected the quick prompt, got %q", got)
	}
}
