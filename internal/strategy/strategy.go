// Package strategy rewrites detected PII spans in text: redaction to a type
// placeholder, partial masking, or salted hashing.
package strategy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/omargawdat/pii-shield/internal/pii"
)

// ErrUnknownStrategy is returned by New for an unrecognised name.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy names.
const (
	NameRedaction = "redaction"
	NameMasking   = "masking"
	NameHashing   = "hashing"
)

// Names lists the available strategies.
func Names() []string {
	return []string{NameRedaction, NameMasking, NameHashing}
}

// Strategy rewrites every match in text. Matches may arrive in any order;
// an empty list returns text unchanged.
type Strategy interface {
	Name() string
	Apply(text string, matches []pii.Match) string
}

// Options carries the tunables of all strategies. Zero values select defaults.
type Options struct {
	Placeholder   string // redaction, must contain {type}
	MaskChar      string // masking
	VisibleChars  int    // masking
	Salt          string // hashing
	HashLength    int    // hashing
	HashAlgorithm string // hashing: "sha256" or "blake2b"
}

// New builds the named strategy.
func New(name string, opts Options) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameRedaction:
		return NewRedaction(opts.Placeholder), nil
	case NameMasking:
		visible := opts.VisibleChars
		if visible <= 0 {
			visible = DefaultVisibleChars
		}
		return NewMasking(opts.MaskChar, visible), nil
	case NameHashing:
		h, err := NewHashing(opts.Salt, opts.HashLength, opts.HashAlgorithm)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownStrategy)
	}
}

// rewrite replaces each match with replace(m), right to left, so earlier
// offsets stay valid. Matches are taken by descending start (longer first on
// equal starts); a match reaching into a region already rewritten, or lying
// outside text, is skipped.
func rewrite(text string, matches []pii.Match, replace func(pii.Match) string) string {
	if len(matches) == 0 {
		return text
	}
	sorted := make([]pii.Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start > sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	floor := len(text)
	kept := sorted[:0]
	for _, m := range sorted {
		if m.Start < 0 || m.Start > m.End || m.End > floor {
			continue
		}
		kept = append(kept, m)
		floor = m.Start
	}

	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for i := len(kept) - 1; i >= 0; i-- {
		m := kept[i]
		b.WriteString(text[prev:m.Start])
		b.WriteString(replace(m))
		prev = m.End
	}
	b.WriteString(text[prev:])
	return b.String()
}
