package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/eduforge/internal/content"
	"github.com/abhisek/eduforge/internal/generator"
	"github.com/abhisek/eduforge/internal/logging"
	"github.com/abhisek/eduforge/internal/observability"
	"github.com/abhisek/eduforge/internal/reviewer"
)

// OutcomeError labels runs that ended in an error.
const OutcomeError = "error"

// Pipeline sequences generation, review and at most one refinement. It holds
// no per-run state and is safe for concurrent use.
type Pipeline struct {
	gen     generator.Generator
	rev     reviewer.Reviewer
	log     *logging.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for stage transitions.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithTracer overrides the tracer used for run and stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// New creates a Pipeline over the given generator and reviewer.
func New(gen generator.Generator, rev reviewer.Reviewer, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:    gen,
		rev:    rev,
		log:    logging.Nop(),
		tracer: observability.Tracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one generate/review/refine cycle. Any stage failure ends the
// run with a typed error and no partial result.
func (p *Pipeline) Run(ctx context.Context, grade int, topic string) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.Int("grade", grade),
		attribute.String("topic", topic),
	))
	defer span.End()

	log := p.log.With("grade", grade, "topic", topic)

	res, err := p.run(ctx, log, content.Request{Grade: grade, Topic: topic})
	if err != nil {
		kind := content.Kind(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		p.metrics.IncRun(OutcomeError)
		log.Warn("pipeline run failed", "kind", kind, "error", err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("review.status", res.Outcome()),
		attribute.Bool("was_refined", res.WasRefined),
	)
	p.metrics.IncRun(res.Outcome())
	log.Info("pipeline run complete", "status", res.Outcome(), "was_refined", res.WasRefined)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, log *logging.Logger, req content.Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var initial *content.Content
	err := p.stage(ctx, log, content.StageGenerate, func(ctx context.Context) error {
		var err error
		initial, err = p.gen.Generate(ctx, req, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	var verdict *content.Verdict
	err = p.stage(ctx, log, content.StageReview, func(ctx context.Context) error {
		var err error
		verdict, err = p.rev.Review(ctx, *initial, req.Grade, req.Topic)
		return err
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Grade:          req.Grade,
		Topic:          req.Topic,
		InitialContent: *initial,
		ReviewResult:   *verdict,
	}

	if !verdict.Actionable() {
		if !verdict.Passed() {
			log.Info("review failed without feedback; skipping refinement")
		}
		return res, nil
	}

	// One refinement, never re-reviewed.
	var refined *content.Content
	err = p.stage(ctx, log, content.StageRefine, func(ctx context.Context) error {
		var err error
		refined, err = p.gen.Generate(ctx, req, verdict.Feedback)
		return err
	})
	if err != nil {
		return nil, err
	}

	p.metrics.IncRefinement()
	res.RefinedContent = refined
	res.WasRefined = true
	return res, nil
}

// stage runs fn inside a span and records its duration and failure kind.
func (p *Pipeline) stage(ctx context.Context, log *logging.Logger, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	log.Debug("stage start", "stage", name)
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		kind := string(content.Kind(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		p.metrics.ObserveStage(name, "error", elapsed)
		p.metrics.IncStageFailure(name, kind)
		return err
	}

	p.metrics.ObserveStage(name, "ok", elapsed)
	log.Debug("stage done", "stage", name, "elapsed_ms", elapsed.Milliseconds())
	return nil
}
