// Package validation re-scores low-confidence PII matches with an LLM.
//
// Matches at or above the threshold are approved without a call. The rest
// are grouped by the sentence they occur in, the sentence groups are packed
// into batches, and each batch costs exactly one LLM request. Every failure
// mode (no credentials, network error, unparseable reply) degrades to
// accepting the match unchanged with an explanatory reason; validation never
// returns an error.
package validation

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/omargawdat/pii-shield/internal/llm"
	psotel "github.com/omargawdat/pii-shield/internal/otel"
	"github.com/omargawdat/pii-shield/internal/pii"
)

var tracer = psotel.Tracer("github.com/omargawdat/pii-shield/internal/validation")

// Defaults.
const (
	DefaultThreshold      = 0.90
	DefaultBatchSize      = 10
	DefaultMaxConcurrency = 4
)

// Verdict reasons for matches that were not judged by the LLM.
const (
	ReasonAutoApproved  = "High confidence - auto-approved"
	ReasonUnavailable   = "LLM validation unavailable"
	ReasonNotInResponse = "Match not in LLM response"
	ReasonParseFailure  = "Failed to parse LLM response"
	ReasonNoReason      = "No reason provided"
	reasonErrorPrefix   = "LLM error: "
)

// Result pairs a match with its verdict.
type Result struct {
	Match   pii.Match
	Verdict pii.ValidationResult
}

// ClientSource hands out an LLM provider for a model name.
// *llm.ClientCache implements it.
type ClientSource interface {
	Get(name string) (llm.Provider, llm.Model, error)
}

// Validator batches low-confidence matches into LLM calls.
type Validator struct {
	clients        ClientSource
	model          string
	batchSize      int
	maxConcurrency int
}

// Option configures a Validator.
type Option func(*Validator)

// WithModel selects the model name or alias (default "haiku").
func WithModel(name string) Option {
	return func(v *Validator) {
		if name != "" {
			v.model = name
		}
	}
}

// WithBatchSize sets how many sentences share one call.
func WithBatchSize(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.batchSize = n
		}
	}
}

// WithMaxConcurrency bounds the number of calls in flight.
func WithMaxConcurrency(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.maxConcurrency = n
		}
	}
}

// New creates a Validator. clients may be nil, in which case every
// low-confidence match falls back to ReasonUnavailable.
func New(clients ClientSource, opts ...Option) *Validator {
	v := &Validator{
		clients:        clients,
		model:          llm.DefaultModel,
		batchSize:      DefaultBatchSize,
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Model returns the configured model name.
func (v *Validator) Model() string { return v.model }

// WithModelOverride returns a copy of v using a different model, sharing the
// client source. An empty name returns v itself.
func (v *Validator) WithModelOverride(name string) *Validator {
	if name == "" || name == v.model {
		return v
	}
	cp := *v
	cp.model = name
	return &cp
}

// ValidateLowConfidence returns one result per input match: auto-approved
// matches first (input order), then the LLM-reviewed ones in batch order.
func (v *Validator) ValidateLowConfidence(ctx context.Context, text string, matches []pii.Match, threshold float64) []Result {
	results := make([]Result, 0, len(matches))
	var low []pii.Match
	for _, m := range matches {
		if m.Confidence >= threshold {
			results = append(results, Result{Match: m, Verdict: fallback(m, ReasonAutoApproved)})
			continue
		}
		low = append(low, m)
	}
	if len(low) == 0 {
		return results
	}

	ctx, span := tracer.Start(ctx, "validation.validate_low_confidence",
		trace.WithAttributes(psotel.PIIMatchCount.Int(len(low))))
	defer span.End()

	provider, model, err := v.provider()
	if err != nil {
		log.Warn().Err(err).Str("model", v.model).Int("matches", len(low)).
			Func(psotel.LogTraceFields(ctx)).Msg("llm_validation_unavailable")
		for _, m := range low {
			results = append(results, Result{Match: m, Verdict: fallback(m, ReasonUnavailable)})
		}
		return results
	}

	batches := chunk(groupBySentence(text, low), v.batchSize)
	batchResults := make([][]Result, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.maxConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			batchResults[i] = v.validateBatch(gctx, provider, model, batch)
			return nil
		})
	}
	_ = g.Wait()

	for _, br := range batchResults {
		results = append(results, br...)
	}
	return results
}

func (v *Validator) provider() (llm.Provider, llm.Model, error) {
	if v.clients == nil {
		return nil, llm.Model{}, llm.ErrProviderNotAvailable
	}
	return v.clients.Get(v.model)
}

func (v *Validator) validateBatch(ctx context.Context, provider llm.Provider, model llm.Model, batch []sentenceGroup) []Result {
	prompt, matches := buildPrompt(batch)

	ctx, span := tracer.Start(ctx, "validation.batch",
		trace.WithAttributes(
			psotel.PIIBatchItems.Int(len(matches)),
			psotel.GenAIRequestModel.String(model.ID),
		))
	defer span.End()

	log.Debug().Int("items", len(matches)).Int("sentences", len(batch)).Str("model", model.ID).
		Func(psotel.LogTraceFields(ctx)).Msg("llm_batch_started")

	resp, err := provider.Generate(ctx, &llm.Request{
		Model:       model.ID,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: 0,
		MaxTokens:   tokensPerItem * len(matches),
	})
	if err != nil {
		span.RecordError(err)
		llm.RecordCallMetrics(ctx, provider.Name(), model.ID, "error", 0)
		log.Warn().Err(err).Int("items", len(matches)).Str("model", model.ID).
			Func(psotel.LogTraceFields(ctx)).Msg("llm_batch_failed")
		return fallbackAll(matches, reasonErrorPrefix+err.Error())
	}

	entries, err := parseVerdicts(resp.Content)
	if err != nil {
		span.RecordError(err)
		llm.RecordCallMetrics(ctx, provider.Name(), model.ID, "parse_error", 0)
		log.Warn().Err(err).Int("items", len(matches)).Int("response_bytes", len(resp.Content)).
			Func(psotel.LogTraceFields(ctx)).Msg("llm_batch_unparseable")
		return fallbackAll(matches, ReasonParseFailure)
	}

	cost := provider.EstimateCost(model.ID, resp.InputTokens, resp.OutputTokens)
	llm.RecordCallMetrics(ctx, provider.Name(), model.ID, "ok", cost)
	results := assignVerdicts(matches, entries)
	log.Debug().Int("items", len(matches)).Int("entries", len(entries)).
		Float64("cost_eur", cost).
		Func(psotel.LogTraceFields(ctx)).Msg("llm_batch_completed")
	return results
}

func fallback(m pii.Match, reason string) pii.ValidationResult {
	return pii.ValidationResult{IsPII: true, Confidence: m.Confidence, Reason: reason}
}

func fallbackAll(matches []pii.Match, reason string) []Result {
	out := make([]Result, len(matches))
	for i, m := range matches {
		out[i] = Result{Match: m, Verdict: fallback(m, reason)}
	}
	return out
}
