package server

import (
	"fmt"

	"github.com/omargawdat/pii-shield/internal/pii"
	"github.com/omargawdat/pii-shield/internal/pipeline"
	"github.com/omargawdat/pii-shield/internal/validation"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime,omitempty"`
}

type strategiesResponse struct {
	Strategies []string `json:"strategies"`
	Default    string   `json:"default"`
}

// matchJSON is the wire form of a match. Confidence and Detector are
// optional on input so reviewers can submit bare spans.
type matchJSON struct {
	Type       string   `json:"type"`
	Text       string   `json:"text"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Confidence *float64 `json:"confidence,omitempty"`
	Detector   string   `json:"detector"`
}

type detectMatchJSON struct {
	matchJSON
	ReviewRequired bool   `json:"review_required"`
	Rejected       bool   `json:"rejected,omitempty"`
	LLMReason      string `json:"llm_reason,omitempty"`
}

type detectRequest struct {
	Text         string   `json:"text"`
	UseLLM       bool     `json:"use_llm"`
	LLMModel     string   `json:"llm_model"`
	LLMThreshold *float64 `json:"llm_threshold"`
}

type detectResponse struct {
	ID               string            `json:"id"`
	Matches          []detectMatchJSON `json:"matches"`
	Summary          pipeline.Summary  `json:"summary"`
	ProcessingTimeMS float64           `json:"processing_time_ms"`
}

type anonymizeRequest struct {
	Text     string      `json:"text"`
	Matches  []matchJSON `json:"matches"`
	Strategy string      `json:"strategy"`
}

type processRequest struct {
	Text          string   `json:"text"`
	Strategy      string   `json:"strategy"`
	MinConfidence *float64 `json:"min_confidence"`
}

type anonymizeResponse struct {
	ID               string           `json:"id"`
	OriginalText     string           `json:"original_text"`
	ProcessedText    string           `json:"processed_text"`
	Strategy         string           `json:"strategy"`
	Matches          []matchJSON      `json:"matches"`
	Summary          pipeline.Summary `json:"summary"`
	ProcessingTimeMS float64          `json:"processing_time_ms"`
}

// toMatchJSON converts m to its wire form. Wire offsets count characters
// (code points) of the original text.
func toMatchJSON(offsets *pii.Offsets, m pii.Match) matchJSON {
	c := m.Confidence
	start, end := offsets.CharSpan(m)
	return matchJSON{
		Type:       string(m.Kind),
		Text:       m.Text,
		Start:      start,
		End:        end,
		Confidence: &c,
		Detector:   m.Source,
	}
}

// fromMatchJSON converts a submitted match whose character offsets refer to
// text.
func fromMatchJSON(offsets *pii.Offsets, j matchJSON) (pii.Match, error) {
	start, okStart := offsets.Byte(j.Start)
	end, okEnd := offsets.Byte(j.End)
	if !okStart || !okEnd {
		return pii.Match{}, fmt.Errorf("%w: [%d,%d) outside text of %d characters",
			pii.ErrInvalidSpan, j.Start, j.End, offsets.Len())
	}
	conf := 1.0
	if j.Confidence != nil {
		conf = *j.Confidence
	}
	src := j.Detector
	if src == "" {
		src = pii.SourceManual
	}
	return pii.Match{
		Kind:       pii.ParseKind(j.Type),
		Text:       j.Text,
		Start:      start,
		End:        end,
		Confidence: conf,
		Source:     src,
	}, nil
}

func detectMatches(r *pipeline.Report, threshold float64) []detectMatchJSON {
	offsets := pii.NewOffsets(r.OriginalText)
	out := make([]detectMatchJSON, 0, len(r.Matches))
	for _, m := range r.Matches {
		dm := detectMatchJSON{matchJSON: toMatchJSON(offsets, m)}
		dm.Rejected = r.Rejected(m)
		dm.ReviewRequired = !dm.Rejected && m.Confidence < threshold
		if note, ok := r.Note(m); ok && note.Reason != validation.ReasonAutoApproved {
			dm.LLMReason = note.Reason
		}
		out = append(out, dm)
	}
	return out
}

func anonymizeResult(r *pipeline.Report) anonymizeResponse {
	offsets := pii.NewOffsets(r.OriginalText)
	matches := make([]matchJSON, 0, len(r.Matches))
	for _, m := range r.Matches {
		matches = append(matches, toMatchJSON(offsets, m))
	}
	return anonymizeResponse{
		ID:               r.ID,
		OriginalText:     r.OriginalText,
		ProcessedText:    r.ProcessedText,
		Strategy:         r.Strategy,
		Matches:          matches,
		Summary:          r.Summary(),
		ProcessingTimeMS: r.ProcessingTimeMS(),
	}
}
