// Package mcp exposes the PII pipeline as Model Context Protocol tools:
// detect_pii and anonymize_text. The same server runs over stdio for local
// agents and over streamable HTTP behind the API's auth middleware.
package mcp

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	psotel "github.com/omargawdat/pii-shield/internal/otel"
	"github.com/omargawdat/pii-shield/internal/pii"
	"github.com/omargawdat/pii-shield/internal/pipeline"
	"github.com/omargawdat/pii-shield/internal/strategy"
	"github.com/omargawdat/pii-shield/internal/validation"
)

var tracer = psotel.Tracer("github.com/omargawdat/pii-shield/internal/mcp")

// ServerName is reported in the MCP initialize handshake.
const ServerName = "pii-shield"

var errTextRequired = errors.New("text is required")

// MetadataDetectPII describes the detect_pii tool.
var MetadataDetectPII = &mcp.Tool{
	Name: "detect_pii",
	Description: "Detect personally identifiable information in German or English text. " +
		"Returns every match with its type (EMAIL, PHONE, IBAN, CREDIT_CARD, GERMAN_ID, IP_ADDRESS, " +
		"NAME, ADDRESS, DATE_OF_BIRTH), character offsets, confidence and the detector that found it. " +
		"The text is not modified. Set use_llm to have low-confidence matches reviewed by an LLM.",
	InputSchema: map[string]any{
		"type":     "object",
		"required": []string{"text"},
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "Text to analyze",
			},
			"use_llm": map[string]any{
				"type":        "boolean",
				"description": "Review matches below the confidence threshold with an LLM",
			},
		},
	},
}

// MetadataAnonymizeText describes the anonymize_text tool.
var MetadataAnonymizeText = &mcp.Tool{
	Name: "anonymize_text",
	Description: "Detect PII and return a de-identified copy of the text. " +
		"Strategies: redaction replaces each value with a [TYPE] placeholder, masking keeps the " +
		"first and last characters, hashing substitutes a stable salted pseudonym.",
	InputSchema: map[string]any{
		"type":     "object",
		"required": []string{"text"},
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "Text to de-identify",
			},
			"strategy": map[string]any{
				"type":        "string",
				"description": "De-identification strategy. Defaults to redaction.",
				"enum":        strategy.Names(),
			},
		},
	},
}

// InputDetectPII is the input for the detect_pii tool.
type InputDetectPII struct {
	Text   string `json:"text"`
	UseLLM bool   `json:"use_llm"`
}

// OutputDetectPII is the output for the detect_pii tool.
type OutputDetectPII struct {
	Matches []Match          `json:"matches"`
	Summary pipeline.Summary `json:"summary"`
}

// InputAnonymizeText is the input for the anonymize_text tool.
type InputAnonymizeText struct {
	Text     string `json:"text"`
	Strategy string `json:"strategy"`
}

// OutputAnonymizeText is the output for the anonymize_text tool.
type OutputAnonymizeText struct {
	ProcessedText string           `json:"processed_text"`
	Strategy      string           `json:"strategy"`
	Matches       []Match          `json:"matches"`
	Summary       pipeline.Summary `json:"summary"`
}

// Match is a detected PII instance as returned by the tools.
type Match struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Detector   string  `json:"detector"`
	Rejected   bool    `json:"rejected,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// Tools implements the MCP tool handlers on top of a pipeline.Processor.
type Tools struct {
	processor    *pipeline.Processor
	validator    pipeline.Validator
	threshold    float64
	strategyOpts strategy.Options
}

// Option configures Tools.
type Option func(*Tools)

// WithValidator enables use_llm on detect_pii.
func WithValidator(v pipeline.Validator, threshold float64) Option {
	return func(t *Tools) {
		t.validator = v
		t.threshold = threshold
	}
}

// WithStrategyOptions sets the parameters used to build strategies.
func WithStrategyOptions(o strategy.Options) Option {
	return func(t *Tools) { t.strategyOpts = o }
}

// NewTools builds the tool handlers.
func NewTools(processor *pipeline.Processor, opts ...Option) *Tools {
	t := &Tools{processor: processor, threshold: validation.DefaultThreshold}
	for _, o := range opts {
		o(t)
	}
	return t
}

// NewServer returns an MCP server with both tools registered.
func NewServer(version string, tools *Tools) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	mcp.AddTool(s, MetadataDetectPII, tools.DetectPII)
	mcp.AddTool(s, MetadataAnonymizeText, tools.AnonymizeText)
	return s
}

// HTTPHandler serves s over the streamable HTTP transport.
func HTTPHandler(s *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s }, nil)
}

// ServeStdio runs s on stdin/stdout until ctx is cancelled or the client
// disconnects.
func ServeStdio(ctx context.Context, s *mcp.Server) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

// DetectPII runs detection without rewriting the text.
func (t *Tools) DetectPII(ctx context.Context, _ *mcp.CallToolRequest, input InputDetectPII) (*mcp.CallToolResult, OutputDetectPII, error) {
	if input.Text == "" {
		return nil, OutputDetectPII{}, errTextRequired
	}
	ctx, span := tracer.Start(ctx, "mcp.detect_pii",
		trace.WithAttributes(attribute.Bool("piishield.use_llm", input.UseLLM)))
	defer span.End()

	opts := []pipeline.Option{pipeline.WithStrategy(nil), pipeline.WithValidator(nil, t.threshold)}
	if input.UseLLM {
		v := t.validator
		if v == nil {
			v = validation.New(nil)
		}
		opts = append(opts, pipeline.WithValidator(v, t.threshold))
	}
	report := t.processor.With(opts...).Process(ctx, input.Text)

	log.Debug().Str("report_id", report.ID).Int("pii_count", report.PIICount()).
		Func(psotel.LogTraceFields(ctx)).Msg("mcp_detect_completed")
	return nil, OutputDetectPII{
		Matches: toMatches(report),
		Summary: report.Summary(),
	}, nil
}

// AnonymizeText detects PII and de-identifies it with the chosen strategy.
func (t *Tools) AnonymizeText(ctx context.Context, _ *mcp.CallToolRequest, input InputAnonymizeText) (*mcp.CallToolResult, OutputAnonymizeText, error) {
	if input.Text == "" {
		return nil, OutputAnonymizeText{}, errTextRequired
	}
	name := input.Strategy
	if name == "" {
		name = strategy.NameRedaction
	}
	st, err := strategy.New(name, t.strategyOpts)
	if err != nil {
		return nil, OutputAnonymizeText{}, err
	}
	ctx, span := tracer.Start(ctx, "mcp.anonymize_text",
		trace.WithAttributes(psotel.PIIStrategy.String(st.Name())))
	defer span.End()

	report := t.processor.With(pipeline.WithStrategy(st), pipeline.WithValidator(nil, t.threshold)).Process(ctx, input.Text)

	log.Debug().Str("report_id", report.ID).Int("pii_count", report.PIICount()).Str("strategy", st.Name()).
		Func(psotel.LogTraceFields(ctx)).Msg("mcp_anonymize_completed")
	return nil, OutputAnonymizeText{
		ProcessedText: report.ProcessedText,
		Strategy:      report.Strategy,
		Matches:       toMatches(report),
		Summary:       report.Summary(),
	}, nil
}

func toMatches(r *pipeline.Report) []Match {
	offsets := pii.NewOffsets(r.OriginalText)
	out := make([]Match, 0, len(r.Matches))
	for _, m := range r.Matches {
		out = append(out, toMatch(r, offsets, m))
	}
	return out
}

func toMatch(r *pipeline.Report, offsets *pii.Offsets, m pii.Match) Match {
	start, end := offsets.CharSpan(m)
	out := Match{
		Type:       string(m.Kind),
		Text:       m.Text,
		Start:      start,
		End:        end,
		Confidence: m.Confidence,
		Detector:   m.Source,
		Rejected:   r.Rejected(m),
	}
	if note, ok := r.Note(m); ok && note.Reason != validation.ReasonAutoApproved {
		out.Reason = note.Reason
	}
	return out
}
