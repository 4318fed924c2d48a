package strategy

import (
	"strings"

	"github.com/omargawdat/pii-shield/internal/pii"
)

// DefaultPlaceholder renders e.g. "[EMAIL]".
const DefaultPlaceholder = "[{type}]"

// Redaction replaces each match with a placeholder naming its kind.
type Redaction struct {
	format string
}

// NewRedaction creates a redaction strategy. format must contain "{type}";
// an empty format selects DefaultPlaceholder.
func NewRedaction(format string) *Redaction {
	if format == "" {
		format = DefaultPlaceholder
	}
	return &Redaction{format: format}
}

// Name returns the strategy identifier.
func (r *Redaction) Name() string { return NameRedaction }

// Apply replaces every match with its placeholder.
func (r *Redaction) Apply(text string, matches []pii.Match) string {
	return rewrite(text, matches, func(m pii.Match) string {
		return strings.ReplaceAll(r.format, "{type}", string(m.Kind))
	})
}
