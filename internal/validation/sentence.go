package validation

import (
	"strings"

	"github.com/omargawdat/pii-shield/internal/pii"
)

const sentenceTerminators = ".!?\n"

// sentenceGroup is one distinct sentence and the matches that fall inside it.
type sentenceGroup struct {
	Sentence string
	Start    int
	Matches  []pii.Match
}

// extractSentence returns the trimmed sentence around m and the offset where
// the untrimmed sentence starts. The sentence runs from just after the
// previous terminator (or the text start) through the next terminator
// inclusive (or the text end). Terminators are ASCII, so walking bytes never
// splits a rune.
func extractSentence(text string, m pii.Match) (string, int) {
	start := min(max(m.Start, 0), len(text))
	end := min(max(m.End, start), len(text))

	for start > 0 && !strings.ContainsRune(sentenceTerminators, rune(text[start-1])) {
		start--
	}
	for end < len(text) && !strings.ContainsRune(sentenceTerminators, rune(text[end])) {
		end++
	}
	if end < len(text) {
		end++
	}
	return strings.TrimSpace(text[start:end]), start
}

// groupBySentence groups matches by identical sentence text, keeping groups
// and the matches inside them in first-seen order.
func groupBySentence(text string, matches []pii.Match) []sentenceGroup {
	index := make(map[string]int)
	var groups []sentenceGroup
	for _, m := range matches {
		sentence, start := extractSentence(text, m)
		i, ok := index[sentence]
		if !ok {
			i = len(groups)
			index[sentence] = i
			groups = append(groups, sentenceGroup{Sentence: sentence, Start: start})
		}
		groups[i].Matches = append(groups[i].Matches, m)
	}
	return groups
}

// chunk splits groups into batches of at most size groups.
func chunk(groups []sentenceGroup, size int) [][]sentenceGroup {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]sentenceGroup
	for i := 0; i < len(groups); i += size {
		batches = append(batches, groups[i:min(i+size, len(groups))])
	}
	return batches
}
