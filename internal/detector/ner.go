package detector

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/omargawdat/pii-shield/internal/pii"
	psotel "github.com/omargawdat/pii-shield/internal/otel"
)

// Entity is one span reported by a contextual NER service. Offsets are UTF-8
// byte offsets into the analysed text.
type Entity struct {
	Type  string
	Start int
	End   int
	Score float64
}

// Recognizer is a black-box NER service.
type Recognizer interface {
	Analyze(ctx context.Context, text, language string, entities []string) ([]Entity, error)
}

// nerEntities maps the NER entity classes we request to PII kinds. Structured
// identifiers (e-mail, IBAN, ...) are left to the rule-based detectors.
var nerEntities = map[string]pii.Kind{
	"PERSON":    pii.KindName,
	"LOCATION":  pii.KindAddress,
	"DATE_TIME": pii.KindDateOfBirth,
}

var nerRequested = []string{"PERSON", "LOCATION", "DATE_TIME"}

// DefaultLanguage is the language code sent to the NER service.
const DefaultLanguage = "de"

// NERDetector adapts a Recognizer to the Detector interface.
type NERDetector struct {
	recognizer Recognizer
	language   string
}

// NewNERDetector creates a detector backed by the given recognizer.
func NewNERDetector(r Recognizer, language string) *NERDetector {
	if language == "" {
		language = DefaultLanguage
	}
	return &NERDetector{recognizer: r, language: language}
}

// Name returns the detector identifier.
func (d *NERDetector) Name() string { return NamePresidio }

// Detect asks the recognizer for person, location and date entities and
// passes the model score through unchanged. A failing or absent service
// yields no matches.
func (d *NERDetector) Detect(ctx context.Context, text string) []pii.Match {
	if d.recognizer == nil || text == "" {
		return nil
	}
	ctx, span := tracer.Start(ctx, "detector.ner",
		trace.WithAttributes(psotel.PIIDetector.String(NamePresidio)))
	defer span.End()

	entities, err := d.recognizer.Analyze(ctx, text, d.language, nerRequested)
	if err != nil {
		span.RecordError(err)
		log.Warn().Err(err).Func(psotel.LogTraceFields(ctx)).Msg("ner_analyze_failed")
		return nil
	}

	var matches []pii.Match
	for _, e := range entities {
		kind, ok := nerEntities[e.Type]
		if !ok {
			continue
		}
		if e.Start < 0 || e.End > len(text) || e.Start > e.End {
			log.Debug().Str("entity_type", e.Type).Int("start", e.Start).Int("end", e.End).Msg("ner_entity_out_of_range")
			continue
		}
		if m, ok := newMatch(kind, text, e.Start, e.End, clampScore(e.Score), NamePresidio); ok {
			matches = append(matches, m)
		}
	}
	span.SetAttributes(attribute.Int("ner.entity_count", len(matches)))
	return matches
}

func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
