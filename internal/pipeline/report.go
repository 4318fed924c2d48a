package pipeline

import (
	"time"

	"github.com/omargawdat/pii-shield/internal/pii"
)

// Note is the review trail for one match.
type Note struct {
	Reason   string
	Rejected bool
	// Validated is true when the LLM answered for this match.
	Validated bool
}

// Report is the outcome of one pipeline run. It is not modified after
// the processor returns it.
type Report struct {
	ID             string
	OriginalText   string
	ProcessedText  string
	Matches        []pii.Match
	Strategy       string
	ProcessingTime time.Duration

	notes map[pii.Span]Note
}

// Summary is the aggregate view returned by the API.
type Summary struct {
	PIIFound   bool           `json:"pii_found"`
	TotalCount int            `json:"total_count"`
	ByType     map[string]int `json:"by_type"`
}

// Note returns the review note recorded for m, if any.
func (r *Report) Note(m pii.Match) (Note, bool) {
	n, ok := r.notes[m.Span()]
	return n, ok
}

// Rejected reports whether the LLM rejected m.
func (r *Report) Rejected(m pii.Match) bool {
	return r.notes[m.Span()].Rejected
}

// Accepted returns the matches that were not rejected, in report order.
func (r *Report) Accepted() []pii.Match {
	out := make([]pii.Match, 0, len(r.Matches))
	for _, m := range r.Matches {
		if !r.Rejected(m) {
			out = append(out, m)
		}
	}
	return out
}

// PIIFound reports whether any accepted match exists.
func (r *Report) PIIFound() bool {
	return r.PIICount() > 0
}

// PIICount counts accepted matches.
func (r *Report) PIICount() int {
	n := 0
	for _, m := range r.Matches {
		if !r.Rejected(m) {
			n++
		}
	}
	return n
}

// CountByKind counts accepted matches per kind.
func (r *Report) CountByKind() map[pii.Kind]int {
	counts := make(map[pii.Kind]int)
	for _, m := range r.Matches {
		if !r.Rejected(m) {
			counts[m.Kind]++
		}
	}
	return counts
}

// Summary condenses the report for API responses.
func (r *Report) Summary() Summary {
	byType := make(map[string]int)
	for k, n := range r.CountByKind() {
		byType[string(k)] = n
	}
	return Summary{
		PIIFound:   r.PIIFound(),
		TotalCount: r.PIICount(),
		ByType:     byType,
	}
}

// ProcessingTimeMS returns the processing time in fractional milliseconds.
func (r *Report) ProcessingTimeMS() float64 {
	return float64(r.ProcessingTime.Microseconds()) / 1000
}
