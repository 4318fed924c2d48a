package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/omargawdat/pii-shield/internal/pii"
)

// ErrMalformedResponse is returned when the LLM reply holds no usable verdict array.
var ErrMalformedResponse = errors.New("malformed llm response")

const verdictSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["text"],
    "properties": {
      "text":       {"type": "string"},
      "is_pii":     {"type": "boolean"},
      "confidence": {"type": "number"},
      "reason":     {"type": "string"}
    }
  }
}`

var verdictSchemaLoader = gojsonschema.NewStringLoader(verdictSchema)

// verdictEntry is one element of the LLM's answer. Missing optional fields
// fall back to: is_pii true, the match's own confidence, a generic reason.
type verdictEntry struct {
	Text       string   `json:"text"`
	IsPII      *bool    `json:"is_pii"`
	Confidence *float64 `json:"confidence"`
	Reason     *string  `json:"reason"`
}

// parseVerdicts extracts and validates the JSON array in an LLM reply.
// Markdown fences and any prose around the array are ignored.
func parseVerdicts(content string) ([]verdictEntry, error) {
	body := stripFences(content)
	first := strings.IndexByte(body, '[')
	last := strings.LastIndexByte(body, ']')
	if first < 0 || last < first {
		return nil, fmt.Errorf("no json array: %w", ErrMalformedResponse)
	}
	body = body[first : last+1]

	result, err := gojsonschema.Validate(verdictSchemaLoader, gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, fmt.Errorf("decoding verdicts: %v: %w", err, ErrMalformedResponse)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("schema: %s: %w", strings.Join(msgs, "; "), ErrMalformedResponse)
	}

	var entries []verdictEntry
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		return nil, fmt.Errorf("decoding verdicts: %v: %w", err, ErrMalformedResponse)
	}
	return entries, nil
}

func stripFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}

// assignVerdicts pairs each match with the first unused entry whose text
// equals the match text case-insensitively. Each entry is used at most once,
// so two identical matches need two entries.
func assignVerdicts(matches []pii.Match, entries []verdictEntry) []Result {
	used := make([]bool, len(entries))
	out := make([]Result, 0, len(matches))
	for _, m := range matches {
		verdict := fallback(m, ReasonNotInResponse)
		for i, e := range entries {
			if used[i] || !strings.EqualFold(e.Text, m.Text) {
				continue
			}
			used[i] = true
			verdict = e.toResult(m)
			break
		}
		out = append(out, Result{Match: m, Verdict: verdict})
	}
	return out
}

func (e verdictEntry) toResult(m pii.Match) pii.ValidationResult {
	r := pii.ValidationResult{
		IsPII:      true,
		Confidence: m.Confidence,
		Reason:     ReasonNoReason,
		Validated:  true,
	}
	if e.IsPII != nil {
		r.IsPII = *e.IsPII
	}
	if e.Confidence != nil {
		r.Confidence = *e.Confidence
	}
	if e.Reason != nil && *e.Reason != "" {
		r.Reason = *e.Reason
	}
	return r
}
