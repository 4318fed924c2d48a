// Package detector implements the rule-based and NER-backed PII detectors.
//
// Every detector scans the raw text independently and returns zero or more
// matches. Detectors never fail: malformed input yields no matches, and a
// failing NER service is logged and treated as "nothing found". Span offsets
// are UTF-8 byte offsets, so text[m.Start:m.End] == m.Text always holds.
package detector

import (
	"context"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/omargawdat/pii-shield/internal/pii"
	psotel "github.com/omargawdat/pii-shield/internal/otel"
)

var tracer = psotel.Tracer("github.com/omargawdat/pii-shield/internal/detector")

// Detector names, also used as the Match.Source of every emitted match.
const (
	NameEmail      = "email"
	NamePhone      = "phone"
	NameIBAN       = "iban"
	NameCreditCard = "credit_card"
	NameGermanID   = "german_id"
	NameIPAddress  = "ip_address"
	NamePresidio   = "presidio"
)

// Detector scans text for one family of PII.
type Detector interface {
	// Name returns the detector identifier (e.g. "email").
	Name() string
	// Detect returns every match found in text. It never returns an error.
	Detect(ctx context.Context, text string) []pii.Match
}

// boundaryFunc reports whether the rune adjacent to a candidate disqualifies it.
type boundaryFunc func(r rune) bool

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isDigitRune(r rune) bool {
	return r >= '0' && r <= '9'
}

// scan finds every non-overlapping match of re in text whose neighbours pass
// the boundary check. RE2 has no look-around, so the checks run on each
// candidate. A candidate blocked on its right is retried with shorter
// matches at the same start (dropping optional trailing groups, as a
// backtracking engine would); one blocked on its left is dropped and the
// search resumes one rune later. accept receives the submatch indexes
// relative to text.
func scan(re *regexp.Regexp, text string, blocked boundaryFunc, accept func(loc []int)) {
	pos := 0
	for pos <= len(text) {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			return
		}
		shift(loc, pos)
		start := loc[0]
		if blocked != nil {
			if blockedBefore(text, start, blocked) {
				pos = nextRune(text, start)
				continue
			}
			if blockedAfter(text, loc[1], blocked) {
				if loc = shorterMatch(re, text, loc, blocked); loc == nil {
					pos = nextRune(text, start)
					continue
				}
			}
		}
		end := loc[1]
		accept(loc)
		if end > start {
			pos = end
		} else {
			pos = nextRune(text, end)
		}
	}
}

// shorterMatch returns the preferred match of re that starts where loc
// starts, ends before loc ends and is not blocked on its right.
func shorterMatch(re *regexp.Regexp, text string, loc []int, blocked boundaryFunc) []int {
	start, limit := loc[0], prevRune(text, loc[1])
	for limit > start {
		sub := re.FindStringSubmatchIndex(text[start:limit])
		if sub == nil || sub[0] != 0 || sub[1] == 0 {
			return nil
		}
		shift(sub, start)
		if !blockedAfter(text, sub[1], blocked) {
			return sub
		}
		limit = prevRune(text, sub[1])
	}
	return nil
}

func shift(loc []int, by int) {
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += by
		}
	}
}

func prevRune(text string, i int) int {
	if i <= 0 {
		return 0
	}
	_, size := utf8.DecodeLastRuneInString(text[:i])
	return i - size
}

func blockedBefore(text string, start int, blocked boundaryFunc) bool {
	if start == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:start])
	return blocked(r)
}

func blockedAfter(text string, end int, blocked boundaryFunc) bool {
	if end >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[end:])
	return blocked(r)
}

func nextRune(text string, i int) int {
	if i >= len(text) {
		return len(text) + 1
	}
	_, size := utf8.DecodeRuneInString(text[i:])
	return i + size
}

// group returns the text of submatch n, or "" when it did not participate.
func group(text string, loc []int, n int) string {
	if 2*n+1 >= len(loc) || loc[2*n] < 0 {
		return ""
	}
	return text[loc[2*n]:loc[2*n+1]]
}

// newMatch builds a match from detector-produced offsets. Detectors only pass
// spans taken from the text itself, so the error path is unreachable in
// practice; a failure drops the candidate rather than panicking.
func newMatch(kind pii.Kind, text string, start, end int, confidence float64, source string) (pii.Match, bool) {
	m, err := pii.NewMatch(kind, text[start:end], start, end, confidence, source)
	if err != nil {
		return pii.Match{}, false
	}
	return m, true
}
