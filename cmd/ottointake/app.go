package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hammamikhairi/ottointake/internal/catalog"
	"github.com/hammamikhairi/ottointake/internal/conversation"
	"github.com/hammamikhairi/ottointake/internal/display"
	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/engine"
	"github.com/hammamikhairi/ottointake/internal/logger"
	"github.com/hammamikhairi/ottointake/internal/recipe"
	"github.com/hammamikhairi/ottointake/internal/submit"
	"github.com/hammamikhairi/ottointake/internal/validate"
)

type cliApp struct {
	session  *engine.Session
	catalog  *catalog.Catalog
	inbox    *recipe.Inbox
	parser   domain.IntentParser
	notifier *conversation.CLINotifier
	log      *logger.Logger
	ui       *display.UI
}

func (a *cliApp) run(ctx context.Context) {
	go a.watchSteps(ctx)

	resumed, err := a.session.ResumeGuided(ctx)
	switch {
	case err != nil:
		a.log.Error("loading draft: %v", err)
	case resumed:
		a.ui.PrintChat("Welcome back. Your saved answers are restored.")
	default:
		a.ui.PrintChat("Let's plan a recipe. Answer a few questions, or type 'quick' to describe it in one go.")
	}
	// A resume past step 1 is announced by watchSteps.
	if step := a.session.Step(); !resumed || step == domain.Step1 {
		a.showStep(step)
	}

	uiCh := a.ui.InputChan()
	for {
		var input string
		select {
		case <-ctx.Done():
			return
		case v, ok := <-uiCh:
			if !ok {
				return
			}
			input = strings.TrimSpace(v)
		}
		if input == "" {
			continue
		}

		intent, err := a.parser.Parse(ctx, input, a.session.Mode())
		if err != nil {
			a.log.Error("parsing input: %v", err)
			continue
		}
		a.log.Debug("intent: %s (field=%s payload=%q)", intent.Type, intent.Field, intent.Payload)
		if intent.Type == domain.IntentQuit {
			a.ui.PrintChat("Bye. Your guided answers are saved as a draft.")
			return
		}
		a.handleIntent(ctx, intent)
	}
}

// watchSteps prints the fields of every step the guided flow lands on.
func (a *cliApp) watchSteps(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-a.session.Events():
			if t.From != t.To {
				a.showStep(t.To)
			}
		}
	}
}

func (a *cliApp) handleIntent(ctx context.Context, intent *domain.Intent) {
	var err error
	switch intent.Type {
	case domain.IntentHelp:
		a.showHelp()
	case domain.IntentNext:
		err = a.session.Next()
	case domain.IntentPrevious:
		err = a.session.Previous()
	case domain.IntentGoTo:
		err = a.session.GoTo(intent.Step)
	case domain.IntentSetField:
		err = a.setField(intent.Field, intent.Payload)
	case domain.IntentQuickText:
		err = a.setQuickText(intent.Payload)
	case domain.IntentSwitchQuick:
		if err = a.session.SwitchToQuick(); err == nil {
			a.ui.PrintStep("Quick mode")
			a.ui.PrintChat("Describe what you want to cook in a sentence or two.")
		}
	case domain.IntentResumeGuided:
		var resumed bool
		if resumed, err = a.session.ResumeGuided(ctx); err == nil && !resumed {
			a.ui.PrintHint("No saved draft; starting where the form stands.")
		}
	case domain.IntentStartNew:
		if err = a.session.StartNewGuided(ctx); err == nil {
			a.ui.PrintChat("Fresh form. The old draft is gone.")
		}
	case domain.IntentReset:
		if err = a.session.Reset(ctx); err == nil {
			a.ui.PrintHint("Cleared.")
		}
	case domain.IntentSubmit:
		a.submit(ctx, false)
	case domain.IntentRetry:
		a.submit(ctx, true)
	case domain.IntentStatus:
		if intent.Payload != "" {
			a.showRecipes(ctx, intent.Payload)
		} else {
			a.showStatus()
		}
	case domain.IntentOptions:
		a.showOptions()
	default:
		if a.session.Mode() == domain.ModeGuided {
			a.ui.PrintChat("I didn't catch that. Use 'set <field> <value>' or '<field>: <value>', or type 'help'.")
		} else {
			a.ui.PrintChat("I didn't catch that. Type 'help' for commands.")
		}
	}
	if err != nil {
		a.report(ctx, err)
	}
}

// setField applies one typed edit. Each line is a focus and leave of the
// field, so the field is blurred and its error, if any, shown right away.
func (a *cliApp) setField(field domain.Field, value string) error {
	var err error
	if conversation.IsFormField(field) {
		err = a.session.SetField(field, value)
	} else {
		err = a.session.SetFlavorControl(string(field), value)
	}

	var fe *validate.FieldError
	if err != nil && !errors.As(err, &fe) {
		return err
	}
	if conversation.IsFormField(field) {
		a.session.Blur(field)
	}
	if err != nil {
		return err
	}
	if msg, ok := a.session.VisibleErrors()[field]; ok {
		a.ui.PrintUrgent(field.Label() + ": " + msg)
		return nil
	}
	a.ui.PrintHint(a.session.Summary())
	return nil
}

func (a *cliApp) setQuickText(text string) error {
	if err := a.session.SetQuickDescription(text); err != nil {
		return err
	}
	a.session.Blur(domain.FieldDescription)
	if msg, ok := a.session.VisibleErrors()[domain.FieldDescription]; ok {
		a.ui.PrintUrgent(msg)
		return nil
	}
	a.ui.PrintHint(a.session.Summary())
	a.ui.PrintHint("Type 'submit' when it reads right.")
	return nil
}

func (a *cliApp) submit(ctx context.Context, retry bool) {
	a.ui.PrintHint("Generating your recipe...")

	var res *domain.SubmissionResult
	var err error
	if retry {
		res, err = a.session.Retry(ctx)
	} else {
		res, err = a.session.Submit(ctx)
	}
	if err != nil {
		a.report(ctx, err)
		return
	}

	title := res.RecipeID
	if e, err := a.inbox.Get(ctx, res.RecipeID); err == nil && e.Title != "" {
		title = e.Title
		if len(e.Tags) > 0 {
			defer a.ui.PrintHint("Tags: " + strings.Join(e.Tags, ", "))
		}
	}
	a.ui.PrintStep("Recipe ready: " + title)
	a.ui.PrintHint("id " + res.RecipeID)
}

// report shows an error the way the user can act on it.
func (a *cliApp) report(ctx context.Context, err error) {
	var rejected *engine.StepRejectedError
	var fe *validate.FieldError
	var se *domain.SubmitError
	switch {
	case errors.As(err, &rejected):
		_ = a.notifier.NotifyFieldErrors(ctx, rejected.Errors)
	case errors.As(err, &fe):
		_ = a.notifier.NotifyUrgent(ctx, fe.Field.Label()+": "+fe.Message)
	case errors.As(err, &se):
		msg := se.Error()
		if se.Retryable() {
			msg += " (type 'retry')"
		}
		_ = a.notifier.NotifyUrgent(ctx, msg)
	case errors.Is(err, domain.ErrTransitioning):
		a.ui.PrintHint("One moment...")
	case errors.Is(err, domain.ErrWrongMode):
		if a.session.Mode() == domain.ModeQuick {
			a.ui.PrintHint("You're in quick mode. Just type the description, or 'guided' to go back.")
		} else {
			a.ui.PrintHint("That only works in quick mode.")
		}
	case errors.Is(err, domain.ErrSessionDone):
		a.ui.PrintHint("This intake is submitted. Type 'new' to plan another recipe.")
	case errors.Is(err, domain.ErrNothingToRetry):
		a.ui.PrintHint("Nothing to retry.")
	case errors.Is(err, submit.ErrRetryThrottled), errors.Is(err, domain.ErrSubmissionInFlight),
		errors.Is(err, engine.ErrNotOnReview), errors.Is(err, engine.ErrNoNextStep),
		errors.Is(err, engine.ErrNoPreviousStep), errors.Is(err, engine.ErrUnknownStep):
		a.ui.PrintHint(capitalize(err.Error()) + ".")
	case errors.Is(err, context.Canceled):
	default:
		a.log.Error("%v", err)
		_ = a.notifier.NotifyUrgent(ctx, "Something went wrong: "+err.Error())
	}
}

func (a *cliApp) showStep(step domain.Step) {
	if a.session.Mode() != domain.ModeGuided {
		return
	}
	a.ui.PrintStep(fmt.Sprintf("Step %d/%d · %s", int(step), int(domain.LastStep), step))
	switch step {
	case domain.Step1:
		a.ui.PrintInstruction("name: <meal name>   description: <what it is>   servings: <1-50>")
	case domain.Step2:
		a.ui.PrintInstruction("type <" + strings.Join(a.catalog.Names(), "|") + ">")
		a.ui.PrintHint("then 'flavor <option>' and 'skill <option>'; 'options' lists them")
	case domain.Step3:
		a.ui.PrintInstruction("All optional: time: <text>   calories: <min-max>   protein: <grams>")
	case domain.Step4:
		a.ui.PrintInstruction(a.session.Summary())
		a.ui.PrintHint("Type 'submit' to generate, or 'back' to change something.")
	}
}

func (a *cliApp) showOptions() {
	snap := a.session.Snapshot()
	if len(snap.Categories) == 0 {
		a.ui.PrintInstruction("Meal types: " + strings.Join(a.catalog.Names(), ", "))
		return
	}
	a.ui.PrintStep(snap.Form.MealType)
	for _, c := range snap.Categories {
		line := fmt.Sprintf("%s (%s): %s", c.Label, c.Key, strings.Join(c.Options, ", "))
		if v := snap.Form.Control(c.Key); v != "" {
			line += "  [" + v + "]"
		}
		a.ui.PrintInstruction(line)
	}
}

func (a *cliApp) showStatus() {
	snap := a.session.Snapshot()
	a.ui.PrintStep(fmt.Sprintf("%s mode · %s", snap.Mode, snap.Phase))
	a.ui.PrintInstruction(snap.Summary)

	if snap.Mode == domain.ModeGuided {
		a.ui.PrintHint(fmt.Sprintf("Step %d/%d", int(snap.Step), int(domain.LastStep)))
		for _, f := range domain.Fields {
			if v := snap.Form.Value(f); v != "" {
				a.ui.PrintHint(fmt.Sprintf("%s: %s", f.Label(), v))
			}
		}
	}
	if snap.LastError != nil {
		a.ui.PrintUrgent("Last error: " + snap.LastError.Error())
	}
	if received := a.inbox.List(context.Background()); len(received) > 0 {
		a.ui.PrintHint(fmt.Sprintf("%d recipe(s) received this session", len(received)))
	}
}

func (a *cliApp) showRecipes(ctx context.Context, query string) {
	var found []recipe.Entry
	if query == "*" {
		found = a.inbox.List(ctx)
	} else {
		found = a.inbox.Search(ctx, query)
	}
	if len(found) == 0 {
		a.ui.PrintHint("No recipes received yet.")
		return
	}
	for _, e := range found {
		a.ui.PrintInstruction(fmt.Sprintf("%s  %s  [%s]", e.SubmittedAt.Format("15:04"), e.Title, strings.Join(e.Tags, ", ")))
	}
}

func (a *cliApp) showHelp() {
	a.ui.PrintStep("Commands")
	for _, line := range []string{
		"next / back / goto <1-4>     move between steps",
		"set <field> <value>          or '<field>: <value>'",
		"type / flavor / skill <v>    meal type and flavor controls",
		"options                      list the choices of the meal type",
		"quick / guided               switch mode (guided resumes the draft)",
		"new / reset                  start over (deletes the draft)",
		"submit / retry               generate the recipe",
		"recipes [query]              list or search received recipes",
		"status / help / quit",
	} {
		a.ui.PrintInstruction(line)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
