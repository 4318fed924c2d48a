package strategy

import (
	"strings"

	"github.com/omargawdat/pii-shield/internal/pii"
)

// Masking defaults.
const (
	DefaultMaskChar     = "*"
	DefaultVisibleChars = 3
	maskRun             = 3
)

// Masking keeps the first and last k characters of a value and replaces the
// middle with three mask characters. Values of 2k characters or fewer are
// masked completely, one mask per character. Lengths count runes, so
// "Jürgen" is six characters.
type Masking struct {
	mask    string
	visible int
}

// NewMasking creates a masking strategy.
func NewMasking(mask string, visible int) *Masking {
	if mask == "" {
		mask = DefaultMaskChar
	}
	if visible < 0 {
		visible = 0
	}
	return &Masking{mask: mask, visible: visible}
}

// Name returns the strategy identifier.
func (s *Masking) Name() string { return NameMasking }

// Apply masks every match.
func (s *Masking) Apply(text string, matches []pii.Match) string {
	return rewrite(text, matches, func(m pii.Match) string {
		return s.maskValue(m.Text)
	})
}

func (s *Masking) maskValue(v string) string {
	runes := []rune(v)
	if len(runes) <= 2*s.visible {
		return strings.Repeat(s.mask, len(runes))
	}
	return string(runes[:s.visible]) + strings.Repeat(s.mask, maskRun) + string(runes[len(runes)-s.visible:])
}
