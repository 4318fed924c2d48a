// Package pii holds the value types shared by detectors, the LLM validator,
// de-identification strategies and the pipeline.
package pii

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for match construction.
var (
	ErrInvalidSpan       = errors.New("invalid span")
	ErrInvalidConfidence = errors.New("confidence must be between 0.0 and 1.0")
)

// Kind is the category of a detected PII instance.
type Kind string

// Supported kinds. The set is closed; anything else parses to KindUnknown.
const (
	KindEmail       Kind = "EMAIL"
	KindPhone       Kind = "PHONE"
	KindIBAN        Kind = "IBAN"
	KindCreditCard  Kind = "CREDIT_CARD"
	KindGermanID    Kind = "GERMAN_ID"
	KindIPAddress   Kind = "IP_ADDRESS"
	KindName        Kind = "NAME"
	KindAddress     Kind = "ADDRESS"
	KindDateOfBirth Kind = "DATE_OF_BIRTH"
	KindUnknown     Kind = "UNKNOWN"
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	KindEmail, KindPhone, KindIBAN, KindCreditCard, KindGermanID,
	KindIPAddress, KindName, KindAddress, KindDateOfBirth, KindUnknown,
}

// ParseKind maps a wire string (case-insensitive) to a Kind.
func ParseKind(s string) Kind {
	up := Kind(strings.ToUpper(strings.TrimSpace(s)))
	for _, k := range Kinds {
		if k == up {
			return k
		}
	}
	return KindUnknown
}

// SourceManual marks matches confirmed by a human reviewer.
const SourceManual = "manual"

// llmSuffix is appended to the source of a match re-scored by the LLM.
const llmSuffix = "+llm"

// Span is a half-open [Start, End) range into a text.
type Span struct {
	Start int
	End   int
}

// Match is a single PII detection. Values are never mutated after
// construction; re-scoring returns a copy.
type Match struct {
	Kind       Kind    `json:"type"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"detector"`
}

// NewMatch validates and builds a Match.
func NewMatch(kind Kind, text string, start, end int, confidence float64, source string) (Match, error) {
	m := Match{
		Kind:       kind,
		Text:       text,
		Start:      start,
		End:        end,
		Confidence: confidence,
		Source:     source,
	}
	if err := m.Validate(); err != nil {
		return Match{}, err
	}
	return m, nil
}

// ManualMatch builds a user-confirmed match with full confidence.
func ManualMatch(kind Kind, text string, start, end int) (Match, error) {
	return NewMatch(kind, text, start, end, 1.0, SourceManual)
}

// Validate checks the span and confidence invariants.
func (m Match) Validate() error {
	if m.Start < 0 {
		return fmt.Errorf("start %d is negative: %w", m.Start, ErrInvalidSpan)
	}
	if m.End < m.Start {
		return fmt.Errorf("end %d before start %d: %w", m.End, m.Start, ErrInvalidSpan)
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		return fmt.Errorf("confidence %v: %w", m.Confidence, ErrInvalidConfidence)
	}
	return nil
}

// Len returns the span length.
func (m Match) Len() int {
	return m.End - m.Start
}

// Span returns the match position as a comparable key.
func (m Match) Span() Span {
	return Span{Start: m.Start, End: m.End}
}

// Overlaps reports whether the two spans share at least one position.
func (m Match) Overlaps(other Match) bool {
	return m.Start < other.End && other.Start < m.End
}

// WithConfidence returns a copy with the confidence replaced, clamped to [0, 1].
func (m Match) WithConfidence(c float64) Match {
	switch {
	case c < 0:
		c = 0
	case c > 1:
		c = 1
	}
	m.Confidence = c
	return m
}

// WithLLMSource returns a copy whose source records that the LLM re-scored it.
func (m Match) WithLLMSource() Match {
	if !strings.HasSuffix(m.Source, llmSuffix) {
		m.Source += llmSuffix
	}
	return m
}

// ValidationResult is the LLM verdict for one match.
type ValidationResult struct {
	IsPII      bool    `json:"is_pii"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	// Validated is true only when the verdict came from an LLM response
	// entry rather than auto-approval or a fallback.
	Validated bool `json:"-"`
}
