package detector

import (
	"context"
	"regexp"
	"strings"

	"github.com/omargawdat/pii-shield/internal/pii"
)

// phonePattern covers the international (+49 / 0049) and national (0...)
// German formats. Separators between groups may be space, hyphen, dot or
// slash, and the area code may sit in parentheses.
//
// Groups: 1 international prefix, 2 area code (international),
// 3-4 subscriber parts, 5 area code (national), 6-7 subscriber parts.
var phonePattern = regexp.MustCompile(
	`(?:` +
		`(\+49|0049)[\s\-./]?\(?(\d{2,4})\)?[\s\-./]?(\d{3,8})(?:[\s\-./]?(\d{1,8}))?` +
		`|` +
		`\(?0(\d{2,5})\)?[\s\-./]?(\d{3,8})(?:[\s\-./]?(\d{1,8}))?` +
		`)`)

// Phone confidence levels.
const (
	phoneConfInternational = 1.0
	phoneConfKnownPrefix   = 0.95
	phoneConfAreaCode      = 0.9
	phoneConfOther         = 0.8
	phoneMinConfidence     = 0.7
)

// PhoneDetector finds German phone numbers.
type PhoneDetector struct {
	mobile  map[string]bool
	service map[string]bool
}

// NewPhoneDetector creates a phone detector from the reference tables.
func NewPhoneDetector(t *Tables) *PhoneDetector {
	if t == nil {
		t = DefaultTables
	}
	return &PhoneDetector{
		mobile:  toSet(t.Phone.MobilePrefixes),
		service: toSet(t.Phone.ServicePrefixes),
	}
}

// Name returns the detector identifier.
func (d *PhoneDetector) Name() string { return NamePhone }

// Detect returns German phone numbers. A candidate must not touch another
// digit on either side.
func (d *PhoneDetector) Detect(_ context.Context, text string) []pii.Match {
	var matches []pii.Match
	scan(phonePattern, text, isDigitRune, func(loc []int) {
		confidence := d.confidence(text, loc)
		if confidence < phoneMinConfidence {
			return
		}
		if m, ok := newMatch(pii.KindPhone, text, loc[0], loc[1], confidence, NamePhone); ok {
			matches = append(matches, m)
		}
	})
	return matches
}

func (d *PhoneDetector) confidence(text string, loc []int) float64 {
	if group(text, loc, 1) != "" {
		return phoneConfInternational
	}
	area := strings.TrimLeft(group(text, loc, 5), "0")
	if area == "" {
		return phoneConfOther
	}
	if len(area) >= 3 {
		prefix := area[:3]
		if d.mobile[prefix] || d.service[prefix] {
			return phoneConfKnownPrefix
		}
	}
	if n := len(group(text, loc, 5)); n >= 2 && n <= 5 {
		return phoneConfAreaCode
	}
	return phoneConfOther
}
