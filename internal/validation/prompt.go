package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/omargawdat/pii-shield/internal/pii"
)

// tokensPerItem is the response budget reserved for each verdict.
const tokensPerItem = 150

const promptTemplate = `Analyze these sentences for PII (Personal Identifiable Information):

%s

For each detected item, determine if it is genuine PII identifying a specific individual.
Consider: Could this be a business name, street name, product name, or non-personal reference?

Respond with a JSON array containing one object per detected item (across ALL sentences):
[
  {"text": "Hans Müller", "is_pii": true, "confidence": 0.95, "reason": "Personal name"},
  {"text": "SAP", "is_pii": false, "confidence": 0.1, "reason": "Company name"}
]

Return ONLY the JSON array, no markdown. Include results for every detected item.`

// buildPrompt renders one batch and returns the prompt together with the
// batch's matches in prompt order.
func buildPrompt(batch []sentenceGroup) (string, []pii.Match) {
	var (
		matches []pii.Match
		parts   = make([]string, 0, len(batch))
	)
	for i, g := range batch {
		var b strings.Builder
		fmt.Fprintf(&b, "SENTENCE_%d: %q\nITEMS_%d:", i+1, g.Sentence, i+1)
		for _, m := range g.Matches {
			fmt.Fprintf(&b, "\n  - %q (type: %s, confidence: %s)", m.Text, m.Kind, percent(m.Confidence))
			matches = append(matches, m)
		}
		parts = append(parts, b.String())
	}
	return fmt.Sprintf(promptTemplate, strings.Join(parts, "\n\n")), matches
}

func percent(c float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(c*100)))
}
