package detector

import (
	"context"
	"regexp"

	"github.com/omargawdat/pii-shield/internal/pii"
)

// emailPattern accepts Unicode letters in the local part and domain so
// addresses such as "jürgen@müller.de" are found whole.
var emailPattern = regexp.MustCompile(`[\p{L}\p{N}._%+\-]+@[\p{L}\p{N}.\-]+\.\p{L}{2,}`)

// EmailDetector finds e-mail addresses.
type EmailDetector struct{}

// NewEmailDetector creates an e-mail detector.
func NewEmailDetector() *EmailDetector { return &EmailDetector{} }

// Name returns the detector identifier.
func (d *EmailDetector) Name() string { return NameEmail }

// Detect returns every e-mail address with confidence 1.0.
func (d *EmailDetector) Detect(_ context.Context, text string) []pii.Match {
	var matches []pii.Match
	scan(emailPattern, text, nil, func(loc []int) {
		if m, ok := newMatch(pii.KindEmail, text, loc[0], loc[1], 1.0, NameEmail); ok {
			matches = append(matches, m)
		}
	})
	return matches
}
