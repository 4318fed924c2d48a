// Package pipeline orchestrates detection, deduplication, optional LLM
// validation and de-identification into a single Report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/omargawdat/pii-shield/internal/detector"
	psotel "github.com/omargawdat/pii-shield/internal/otel"
	"github.com/omargawdat/pii-shield/internal/pii"
	"github.com/omargawdat/pii-shield/internal/strategy"
	"github.com/omargawdat/pii-shield/internal/validation"
)

var tracer = psotel.Tracer("github.com/omargawdat/pii-shield/internal/pipeline")

// ErrNoStrategy is returned by Anonymize when the processor has no strategy.
var ErrNoStrategy = errors.New("no de-identification strategy configured")

// Validator re-scores matches below a threshold. *validation.Validator
// implements it.
type Validator interface {
	ValidateLowConfidence(ctx context.Context, text string, matches []pii.Match, threshold float64) []validation.Result
}

// Processor runs the pipeline. It holds no per-request state and is safe
// for concurrent use.
type Processor struct {
	detectors     []detector.Detector
	strategy      strategy.Strategy
	validator     Validator
	threshold     float64
	minConfidence float64
	normalize     bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithDetectors sets the detectors, run in the given order.
func WithDetectors(ds ...detector.Detector) Option {
	return func(p *Processor) { p.detectors = ds }
}

// WithStrategy sets the de-identification strategy. nil disables rewriting.
func WithStrategy(s strategy.Strategy) Option {
	return func(p *Processor) { p.strategy = s }
}

// WithValidator enables LLM validation of matches below threshold.
// A nil validator disables it.
func WithValidator(v Validator, threshold float64) Option {
	return func(p *Processor) {
		p.validator = v
		p.threshold = threshold
	}
}

// WithMinConfidence drops matches below c after validation.
func WithMinConfidence(c float64) Option {
	return func(p *Processor) { p.minConfidence = c }
}

// WithNormalization enables NFC and whitespace normalization before detection.
func WithNormalization(enabled bool) Option {
	return func(p *Processor) { p.normalize = enabled }
}

// New builds a Processor. Without WithDetectors it uses the rule-based
// default set.
func New(opts ...Option) *Processor {
	p := &Processor{threshold: validation.DefaultThreshold}
	for _, o := range opts {
		o(p)
	}
	if p.detectors == nil {
		// Default only fails on unknown filter names and none are passed.
		p.detectors, _ = detector.Default()
	}
	return p
}

// With returns a copy of p with opts applied on top.
func (p *Processor) With(opts ...Option) *Processor {
	cp := *p
	for _, o := range opts {
		o(&cp)
	}
	return &cp
}

// Detectors returns the configured detector names in run order.
func (p *Processor) Detectors() []string {
	names := make([]string, len(p.detectors))
	for i, d := range p.detectors {
		names[i] = d.Name()
	}
	return names
}

// Process detects PII in text and, when a strategy is set, de-identifies the
// accepted matches.
func (p *Processor) Process(ctx context.Context, text string) *Report {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "pipeline.process")
	defer span.End()

	if p.normalize {
		text = Normalize(text)
	}

	var found []pii.Match
	for _, d := range p.detectors {
		found = append(found, runDetector(ctx, d, text)...)
	}
	matches := Deduplicate(found)

	var notes map[pii.Span]Note
	if p.validator != nil && len(matches) > 0 {
		matches, notes = ApplyVerdicts(p.validator.ValidateLowConfidence(ctx, text, matches, p.threshold))
	}
	if p.minConfidence > 0 {
		matches = filterConfidence(matches, p.minConfidence)
	}

	r := &Report{
		ID:           uuid.NewString(),
		OriginalText: text,
		Matches:      matches,
		notes:        notes,
	}
	r.ProcessedText = text
	if p.strategy != nil {
		r.Strategy = p.strategy.Name()
		if accepted := r.Accepted(); len(accepted) > 0 {
			r.ProcessedText = p.strategy.Apply(text, accepted)
		}
	}
	r.ProcessingTime = time.Since(start)

	span.SetAttributes(
		psotel.PIIMatchCount.Int(len(matches)),
		attribute.Int("piishield.accepted_count", r.PIICount()),
		psotel.PIIStrategy.String(r.Strategy),
	)
	recordReport(ctx, r, "process")
	log.Debug().Str("report_id", r.ID).Int("matches", len(matches)).Int("accepted", r.PIICount()).
		Dur("duration", r.ProcessingTime).Func(psotel.LogTraceFields(ctx)).Msg("process_completed")
	return r
}

func runDetector(ctx context.Context, d detector.Detector, text string) []pii.Match {
	ctx, span := tracer.Start(ctx, "pipeline.detect",
		trace.WithAttributes(psotel.PIIDetector.String(d.Name())))
	defer span.End()
	found := d.Detect(ctx, text)
	span.SetAttributes(psotel.PIIMatchCount.Int(len(found)))
	return found
}

// Anonymize applies the strategy to a caller-reviewed match list. Each match
// must lie inside text; an empty Text is filled from the span, a non-empty
// Text must equal it.
func (p *Processor) Anonymize(ctx context.Context, text string, matches []pii.Match) (*Report, error) {
	if p.strategy == nil {
		return nil, ErrNoStrategy
	}
	start := time.Now()
	ctx, span := tracer.Start(ctx, "pipeline.anonymize",
		trace.WithAttributes(
			psotel.PIIMatchCount.Int(len(matches)),
			psotel.PIIStrategy.String(p.strategy.Name()),
		))
	defer span.End()

	checked := make([]pii.Match, 0, len(matches))
	for i, m := range matches {
		m, err := resolveSpan(text, m)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("match %d: %w", i, err)
		}
		checked = append(checked, m)
	}
	checked = Deduplicate(checked)

	r := &Report{
		ID:            uuid.NewString(),
		OriginalText:  text,
		ProcessedText: p.strategy.Apply(text, checked),
		Matches:       checked,
		Strategy:      p.strategy.Name(),
	}
	r.ProcessingTime = time.Since(start)
	recordReport(ctx, r, "anonymize")
	log.Debug().Str("report_id", r.ID).Int("matches", len(checked)).Str("strategy", r.Strategy).
		Func(psotel.LogTraceFields(ctx)).Msg("anonymize_completed")
	return r, nil
}

func resolveSpan(text string, m pii.Match) (pii.Match, error) {
	if err := m.Validate(); err != nil {
		return m, err
	}
	if m.End > len(text) {
		return m, fmt.Errorf("end %d beyond text length %d: %w", m.End, len(text), pii.ErrInvalidSpan)
	}
	span := text[m.Start:m.End]
	switch {
	case m.Text == "":
		m.Text = span
	case m.Text != span:
		return m, fmt.Errorf("text %q does not match span %q: %w", m.Text, span, pii.ErrInvalidSpan)
	}
	if m.Kind == "" {
		m.Kind = pii.KindUnknown
	}
	if m.Source == "" {
		m.Source = pii.SourceManual
	}
	return m, nil
}

func filterConfidence(matches []pii.Match, floor float64) []pii.Match {
	out := matches[:0:0]
	for _, m := range matches {
		if m.Confidence >= floor {
			out = append(out, m)
		}
	}
	return out
}
