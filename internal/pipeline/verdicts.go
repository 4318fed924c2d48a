package pipeline

import (
	"github.com/omargawdat/pii-shield/internal/pii"
	"github.com/omargawdat/pii-shield/internal/validation"
)

// ApplyVerdicts folds validator results back into matches.
//
// Rejected matches stay in the list with zero confidence and an "+llm"
// source so the decision is auditable. Matches the LLM approved take its
// confidence. Auto-approved and fallback verdicts leave the match as is.
// The returned matches are sorted by position.
func ApplyVerdicts(results []validation.Result) ([]pii.Match, map[pii.Span]Note) {
	matches := make([]pii.Match, 0, len(results))
	notes := make(map[pii.Span]Note, len(results))
	for _, r := range results {
		m := r.Match
		v := r.Verdict
		switch {
		case !v.IsPII:
			m = m.WithConfidence(0).WithLLMSource()
		case v.Validated:
			m = m.WithConfidence(v.Confidence).WithLLMSource()
		}
		matches = append(matches, m)
		notes[m.Span()] = Note{Reason: v.Reason, Rejected: !v.IsPII, Validated: v.Validated}
	}
	sortMatches(matches)
	return matches, notes
}
