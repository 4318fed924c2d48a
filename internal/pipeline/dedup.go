package pipeline

import (
	"sort"

	"github.com/omargawdat/pii-shield/internal/pii"
)

// Deduplicate collapses matches that share an identical span, keeping the
// most confident one (first seen on ties). The result is sorted by Start,
// then End. Partially overlapping matches are left alone.
func Deduplicate(matches []pii.Match) []pii.Match {
	if len(matches) == 0 {
		return nil
	}
	best := make(map[pii.Span]int, len(matches))
	out := make([]pii.Match, 0, len(matches))
	for _, m := range matches {
		idx, seen := best[m.Span()]
		if !seen {
			best[m.Span()] = len(out)
			out = append(out, m)
			continue
		}
		if m.Confidence > out[idx].Confidence {
			out[idx] = m
		}
	}
	sortMatches(out)
	return out
}

func sortMatches(ms []pii.Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Start != ms[j].Start {
			return ms[i].Start < ms[j].Start
		}
		return ms[i].End < ms[j].End
	})
}
