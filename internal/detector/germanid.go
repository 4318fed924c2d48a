package detector

import (
	"context"
	"regexp"
	"strings"

	"github.com/omargawdat/pii-shield/internal/pii"
)

const (
	germanIDConfValid   = 1.0
	germanIDConfInvalid = 0.6
	germanIDConfNoCheck = 0.8
	germanIDMinDigits   = 2
)

// GermanIDDetector finds German identity card numbers (Personalausweis):
// an issuing-authority letter, eight alphanumerics and an optional check digit.
type GermanIDDetector struct {
	pattern *regexp.Regexp
}

// NewGermanIDDetector creates a German ID detector from the reference tables.
func NewGermanIDDetector(t *Tables) *GermanIDDetector {
	if t == nil {
		t = DefaultTables
	}
	letters := strings.Join(t.GermanID.FirstLetters, "")
	if letters == "" {
		letters = "LMNPRTVWXY"
	}
	return &GermanIDDetector{
		pattern: regexp.MustCompile(`(?i)([` + letters + `][A-Z0-9]{8})(\d)?`),
	}
}

// Name returns the detector identifier.
func (d *GermanIDDetector) Name() string { return NameGermanID }

// Detect scores candidates by their check digit: 1.0 when correct, 0.6 when
// wrong, 0.8 when absent. Candidates with fewer than two digits in the first
// nine characters are ordinary words and are dropped.
func (d *GermanIDDetector) Detect(_ context.Context, text string) []pii.Match {
	var matches []pii.Match
	scan(d.pattern, text, isWordRune, func(loc []int) {
		id := strings.ToUpper(group(text, loc, 1))
		if countDigits(id) < germanIDMinDigits {
			return
		}
		confidence := germanIDConfNoCheck
		if check := group(text, loc, 2); check != "" {
			confidence = germanIDConfInvalid
			if int(check[0]-'0') == germanIDCheckDigit(id) {
				confidence = germanIDConfValid
			}
		}
		if m, ok := newMatch(pii.KindGermanID, text, loc[0], loc[1], confidence, NameGermanID); ok {
			matches = append(matches, m)
		}
	})
	return matches
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}
