package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/omargawdat/pii-shield/internal/pii"
	"github.com/omargawdat/pii-shield/internal/pipeline"
)

const maxDisplayText = 40

// formatConfidence renders a confidence score with two decimals.
func formatConfidence(c float64) string {
	return fmt.Sprintf("%.2f", c)
}

// truncateText shortens s to at most n runes, marking the cut with "...".
func truncateText(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// renderReport prints the matches of r one per line, followed by counts per
// kind. threshold marks accepted matches that still need human review.
func renderReport(w io.Writer, r *pipeline.Report, threshold float64) {
	if len(r.Matches) == 0 {
		fmt.Fprintln(w, "No PII found.")
		return
	}
	fmt.Fprintf(w, "PII matches (%d accepted, %d total):\n\n", r.PIICount(), len(r.Matches))
	offsets := pii.NewOffsets(r.OriginalText)
	for _, m := range r.Matches {
		start, end := offsets.CharSpan(m)
		fmt.Fprintf(w, "  %s %-12s | %5d-%-5d | %s | %-11s | %s%s\n",
			statusMark(r, m, threshold), m.Kind, start, end,
			formatConfidence(m.Confidence), m.Source, truncateText(m.Text, maxDisplayText), noteSuffix(r, m))
	}

	counts := r.CountByKind()
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	fmt.Fprintln(w)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-12s %d\n", k, counts[pii.Kind(k)])
	}
	if r.ProcessedText != "" && r.ProcessedText != r.OriginalText {
		fmt.Fprintf(w, "\nProcessed text (%s):\n%s\n", r.Strategy, r.ProcessedText)
	}
}

func statusMark(r *pipeline.Report, m pii.Match, threshold float64) string {
	switch {
	case r.Rejected(m):
		return "✗"
	case m.Confidence < threshold:
		return "?"
	default:
		return "✓"
	}
}

func noteSuffix(r *pipeline.Report, m pii.Match) string {
	n, ok := r.Note(m)
	if !ok || !n.Validated || n.Reason == "" {
		return ""
	}
	return " (" + n.Reason + ")"
}

// charMatches returns the matches of r with character offsets, the unit used
// in JSON output.
func charMatches(r *pipeline.Report) []pii.Match {
	offsets := pii.NewOffsets(r.OriginalText)
	out := make([]pii.Match, len(r.Matches))
	for i, m := range r.Matches {
		m.Start, m.End = offsets.CharSpan(m)
		out[i] = m
	}
	return out
}

func writeJSONOutput(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
