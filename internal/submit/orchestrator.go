// Package submit sends the finished intake to the generation service.
// It allows one call at a time, keeps the exact payload of a failed call
// for retry, and on success clears the draft and hands the recipe on.
package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/hammamikhairi/ottointake/internal/catalog"
	"github.com/hammamikhairi/ottointake/internal/domain"
	"github.com/hammamikhairi/ottointake/internal/logger"
)

const instrumentationName = "github.com/hammamikhairi/ottointake/internal/submit"

// ErrRetryThrottled is returned when retries come faster than allowed.
var ErrRetryThrottled = errors.New("retrying too quickly, wait a moment")

// User-facing messages of failures that carry no backend text.
const (
	MsgSignedOut   = "You are signed out. Sign in again, then submit."
	MsgUnreachable = "Could not reach the recipe service. Your answers are kept; try again."
)

// DraftClearer deletes the persisted draft.
type DraftClearer interface {
	Clear(ctx context.Context) error
}

// Handoff receives the recipe of a successful submission.
type Handoff interface {
	Deliver(ctx context.Context, result domain.SubmissionResult) error
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithRetryLimit sets how often Retry may send. The default allows one
// retry per second with a burst of two.
func WithRetryLimit(every time.Duration, burst int) Option {
	return func(o *Orchestrator) {
		o.limiter = rate.NewLimiter(rate.Every(every), burst)
	}
}

// WithNow overrides the time source of SubmittedAt.
func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithCatalog sets the catalog used to pick the flavor controls sent.
func WithCatalog(c *catalog.Catalog) Option {
	return func(o *Orchestrator) {
		o.catalog = c
	}
}

// Orchestrator performs submissions. Safe for concurrent use.
type Orchestrator struct {
	gen      domain.Generator
	identity domain.IdentityProvider
	drafts   DraftClearer
	handoff  Handoff
	catalog  *catalog.Catalog
	contract *Contract
	limiter  *rate.Limiter
	now      func() time.Time
	log      *logger.Logger

	tracer   trace.Tracer
	attempts metric.Int64Counter
	failures metric.Int64Counter

	mu       sync.Mutex
	status   domain.SubmitStatus
	inFlight bool
	settled  chan struct{}
	lastMode domain.Mode
	lastReq  *domain.GenerationRequest
	result   *domain.SubmissionResult
	lastErr  error
}

// New creates an orchestrator. drafts and handoff may be nil.
func New(gen domain.Generator, identity domain.IdentityProvider, drafts DraftClearer, handoff Handoff, log *logger.Logger, opts ...Option) (*Orchestrator, error) {
	contract, err := NewContract()
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		gen:      gen,
		identity: identity,
		drafts:   drafts,
		handoff:  handoff,
		contract: contract,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 2),
		now:      time.Now,
		log:      log,
		tracer:   otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(o)
	}

	meter := otel.Meter(instrumentationName)
	if o.attempts, err = meter.Int64Counter("intake.submissions",
		metric.WithDescription("Generation calls started"),
	); err != nil {
		return nil, fmt.Errorf("creating submissions counter: %w", err)
	}
	if o.failures, err = meter.Int64Counter("intake.submission_failures",
		metric.WithDescription("Generation calls that failed, by kind"),
	); err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}

	settled := make(chan struct{})
	close(settled)
	o.settled = settled
	return o, nil
}

// Status returns the current submission status.
func (o *Orchestrator) Status() domain.SubmitStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Outcome returns the result and error of the last settled call.
func (o *Orchestrator) Outcome() (*domain.SubmissionResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result, o.lastErr
}

// Settled returns a channel closed once the current call, if any, has
// finished with all its side effects.
func (o *Orchestrator) Settled() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settled
}

// Submit validates the form, builds the request for the mode and sends
// it. Invalid forms fail locally with *InvalidFormError.
//
// The call runs on a context detached from ctx: when ctx ends first,
// Submit returns ctx.Err() and the call carries on, still clearing the
// draft and delivering the recipe if it succeeds.
func (o *Orchestrator) Submit(ctx context.Context, mode domain.Mode, form domain.IntakeForm) (*domain.SubmissionResult, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, domain.ErrSubmissionInFlight
	}
	o.mu.Unlock()

	req, err := BuildRequest(mode, form, o.catalog)
	if err != nil {
		return nil, err
	}
	if err := o.contract.Check(req); err != nil {
		return nil, err
	}
	return o.send(ctx, mode, req)
}

// Retry sends the payload of the last failed call again, unchanged.
func (o *Orchestrator) Retry(ctx context.Context) (*domain.SubmissionResult, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, domain.ErrSubmissionInFlight
	}
	var se *domain.SubmitError
	if o.status != domain.SubmitFailed || o.lastReq == nil ||
		(errors.As(o.lastErr, &se) && !se.Retryable()) {
		o.mu.Unlock()
		return nil, domain.ErrNothingToRetry
	}
	req, mode := *o.lastReq, o.lastMode
	o.mu.Unlock()

	if !o.limiter.Allow() {
		return nil, ErrRetryThrottled
	}
	o.log.Info("retrying %s submission", mode)
	return o.send(ctx, mode, req)
}

type outcome struct {
	result *domain.SubmissionResult
	err    error
}

func (o *Orchestrator) send(ctx context.Context, mode domain.Mode, req domain.GenerationRequest) (*domain.SubmissionResult, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, domain.ErrSubmissionInFlight
	}
	o.inFlight = true
	o.status = domain.SubmitLoading
	o.lastMode = mode
	o.lastReq = &req
	settled := make(chan struct{})
	o.settled = settled
	o.mu.Unlock()

	done := make(chan outcome, 1)
	go func() {
		defer close(settled)
		res, err := o.call(context.WithoutCancel(ctx), mode, req)
		o.settle(res, err)
		done <- outcome{res, err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		o.log.Warn("caller left during %s submission, the call continues", mode)
		return nil, ctx.Err()
	}
}

func (o *Orchestrator) call(ctx context.Context, mode domain.Mode, req domain.GenerationRequest) (*domain.SubmissionResult, error) {
	ctx, span := o.tracer.Start(ctx, "intake.submit",
		trace.WithAttributes(attribute.String("intake.mode", mode.String())),
	)
	defer span.End()

	modeAttr := metric.WithAttributes(attribute.String("mode", mode.String()))
	o.attempts.Add(ctx, 1, modeAttr)

	fail := func(err *domain.SubmitError) (*domain.SubmissionResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Kind.String())
		o.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("mode", mode.String()),
			attribute.String("kind", err.Kind.String()),
		))
		o.log.Error("%s submission failed (%s): %v", mode, err.Kind, err)
		return nil, err
	}

	id, err := o.identity.Current(ctx)
	if err != nil {
		return fail(&domain.SubmitError{Kind: domain.SubmitFatal, Message: MsgSignedOut, Err: err})
	}
	span.SetAttributes(attribute.String("intake.user", id.UserID))

	resp, err := o.gen.Generate(ctx, id.Token, req)
	if err != nil {
		var se *domain.SubmitError
		if !errors.As(err, &se) {
			se = &domain.SubmitError{Kind: domain.SubmitRetryable, Message: MsgUnreachable, Err: err}
		}
		return fail(se)
	}

	res := &domain.SubmissionResult{
		RecipeID:    resp.RecipeID,
		Recipe:      resp.Recipe,
		Mode:        mode,
		SubmittedAt: o.now(),
	}
	span.SetAttributes(attribute.String("intake.recipe_id", res.RecipeID))

	if mode == domain.ModeGuided && o.drafts != nil {
		if err := o.drafts.Clear(ctx); err != nil {
			o.log.Error("clearing draft after submission: %v", err)
		}
	}
	if o.handoff != nil {
		if err := o.handoff.Deliver(ctx, *res); err != nil {
			o.log.Error("handing off recipe %s: %v", res.RecipeID, err)
		}
	}
	o.log.Info("%s submission succeeded, recipe %s", mode, res.RecipeID)
	return res, nil
}

func (o *Orchestrator) settle(res *domain.SubmissionResult, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false
	o.result = res
	o.lastErr = err
	if err != nil {
		o.status = domain.SubmitFailed
		return
	}
	o.status = domain.SubmitSucceeded
	o.lastReq = nil
}
