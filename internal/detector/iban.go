package detector

import (
	"context"
	"regexp"
	"strings"

	"github.com/omargawdat/pii-shield/internal/pii"
)

// ibanPattern is 2 letters + 2 check digits + the BBAN, written contiguously
// or in the printed form with single spaces between groups of four.
var ibanPattern = regexp.MustCompile(`(?i)[A-Z]{2}\d{2}(?: ?[A-Z0-9]{4}){1,7}(?: ?[A-Z0-9]{1,3})?`)

const (
	ibanConfValid   = 1.0
	ibanConfInvalid = 0.7
)

// IBANDetector finds IBANs and scores them by their mod-97 checksum.
type IBANDetector struct {
	lengths map[string]int
}

// NewIBANDetector creates an IBAN detector from the reference tables.
func NewIBANDetector(t *Tables) *IBANDetector {
	if t == nil {
		t = DefaultTables
	}
	lengths := make(map[string]int, len(t.IBAN.Lengths))
	for cc, n := range t.IBAN.Lengths {
		lengths[strings.ToUpper(cc)] = n
	}
	return &IBANDetector{lengths: lengths}
}

// Name returns the detector identifier.
func (d *IBANDetector) Name() string { return NameIBAN }

// Detect returns IBAN candidates. Spaces are ignored for validation but kept
// in the span; the grouped form is only accepted for known countries. For a
// known country, a grouped candidate that ran into the
// following word is cut back to the country's length; candidates that
// cannot fit it are dropped. The rest score 1.0 with a valid checksum and
// 0.7 otherwise.
func (d *IBANDetector) Detect(_ context.Context, text string) []pii.Match {
	var matches []pii.Match
	scan(ibanPattern, text, isWordRune, func(loc []int) {
		start, end := loc[0], loc[1]
		iban := compactIBAN(text[start:end])
		expected, known := d.lengths[iban[:2]]
		if !known && len(iban) != end-start {
			return
		}
		if known && len(iban) != expected {
			if len(iban) < expected {
				return
			}
			cut, ok := ibanEnd(text, start, expected)
			if !ok {
				return
			}
			end, iban = cut, iban[:expected]
		}
		confidence := ibanConfInvalid
		if ibanChecksumValid(iban) {
			confidence = ibanConfValid
		}
		if m, ok := newMatch(pii.KindIBAN, text, start, end, confidence, NameIBAN); ok {
			matches = append(matches, m)
		}
	})
	return matches
}

func compactIBAN(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}

// ibanEnd returns the offset just after the n-th non-space character from
// start, provided the IBAN can end there.
func ibanEnd(text string, start, n int) (int, bool) {
	seen := 0
	for i := start; i < len(text); i++ {
		if text[i] == ' ' {
			continue
		}
		seen++
		if seen == n {
			end := i + 1
			return end, !blockedAfter(text, end, isWordRune)
		}
	}
	return 0, false
}
