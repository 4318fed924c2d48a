package detector

import (
	"context"
	"regexp"

	"github.com/omargawdat/pii-shield/internal/pii"
)

// creditCardPattern accepts grouped (4-4-4-1..7 with optional space or
// hyphen) or contiguous 13-19 digit numbers.
var creditCardPattern = regexp.MustCompile(`\d{4}[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{1,7}|\d{13,19}`)

// CreditCardDetector finds Luhn-valid card numbers.
type CreditCardDetector struct{}

// NewCreditCardDetector creates a credit card detector.
func NewCreditCardDetector() *CreditCardDetector { return &CreditCardDetector{} }

// Name returns the detector identifier.
func (d *CreditCardDetector) Name() string { return NameCreditCard }

// Detect returns card numbers with 13-19 digits that pass the Luhn check.
// Numbers failing Luhn are not emitted at all.
func (d *CreditCardDetector) Detect(_ context.Context, text string) []pii.Match {
	var matches []pii.Match
	scan(creditCardPattern, text, isWordRune, func(loc []int) {
		digits := stripNonDigits(text[loc[0]:loc[1]])
		if len(digits) < 13 || len(digits) > 19 {
			return
		}
		if !luhnValid(digits) {
			return
		}
		if m, ok := newMatch(pii.KindCreditCard, text, loc[0], loc[1], 1.0, NameCreditCard); ok {
			matches = append(matches, m)
		}
	})
	return matches
}

// stripNonDigits removes all non-digit characters from s.
func stripNonDigits(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b = append(b, s[i])
		}
	}
	return string(b)
}
