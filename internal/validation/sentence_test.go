package validation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omargawdat/pii-shield/internal/pii"
)

func matchOf(t *testing.T, text, sub string, kind pii.Kind, conf float64) pii.Match {
	t.Helper()
	start := strings.Index(text, sub)
	require.GreaterOrEqual(t, start, 0, "%q not in text", sub)
	m, err := pii.NewMatch(kind, sub, start, start+len(sub), conf, "presidio")
	require.NoError(t, err)
	return m
}

func TestExtractSentence(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		sub       string
		want      string
		wantStart int
	}{
		{"middle sentence", "Hallo. Ich bin Hans Müller! Wie geht's?", "Hans Müller", "Ich bin Hans Müller!", 6},
		{"no terminators", "Hans ist da", "Hans", "Hans ist da", 0},
		{"last sentence without terminator", "Erster Satz. Grüße von Jörg", "Jörg", "Grüße von Jörg", 12},
		{"newline terminates", "Zeile eins\nKontakt: Anna\nEnde", "Anna", "Kontakt: Anna", 11},
		{"question mark", "Ist das Berlin? Ja.", "Berlin", "Ist das Berlin?", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, start := extractSentence(tt.text, matchOf(t, tt.text, tt.sub, pii.KindName, 0.5))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStart, start)
		})
	}
}

func TestGroupBySentence(t *testing.T) {
	text := "Hans und Anna wohnen in Köln. Peter nicht. Köln ist schön."
	hans := matchOf(t, text, "Hans", pii.KindName, 0.6)
	anna := matchOf(t, text, "Anna", pii.KindName, 0.6)
	peter := matchOf(t, text, "Peter", pii.KindName, 0.6)
	koeln := matchOf(t, text, "Köln", pii.KindAddress, 0.5)

	groups := groupBySentence(text, []pii.Match{peter, hans, koeln, anna})
	require.Len(t, groups, 2)

	assert.Equal(t, "Peter nicht.", groups[0].Sentence)
	assert.Equal(t, []pii.Match{peter}, groups[0].Matches)

	assert.Equal(t, "Hans und Anna wohnen in Köln.", groups[1].Sentence)
	assert.Equal(t, []pii.Match{hans, koeln, anna}, groups[1].Matches)
	assert.Equal(t, 0, groups[1].Start)
}

func TestChunk(t *testing.T) {
	groups := make([]sentenceGroup, 25)
	for i := range groups {
		groups[i] = sentenceGroup{Sentence: fmt.Sprintf("s%d", i)}
	}
	batches := chunk(groups, 10)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 10)
	assert.Len(t, batches[1], 10)
	assert.Len(t, batches[2], 5)
	assert.Equal(t, "s20", batches[2][0].Sentence)

	assert.Empty(t, chunk(nil, 10))
	assert.Len(t, chunk(groups, 0), 3, "non-positive size falls back to the default")
}

func TestBuildPrompt(t *testing.T) {
	text := "Ich bin Hans Müller. Wir nutzen SAP."
	hans := matchOf(t, text, "Hans Müller", pii.KindName, 0.85)
	sap := matchOf(t, text, "SAP", pii.KindName, 0.6)

	prompt, matches := buildPrompt(groupBySentence(text, []pii.Match{hans, sap}))

	assert.Equal(t, []pii.Match{hans, sap}, matches)
	assert.Contains(t, prompt, "SENTENCE_1: \"Ich bin Hans Müller.\"\nITEMS_1:\n  - \"Hans Müller\" (type: NAME, confidence: 85%)")
	assert.Contains(t, prompt, "SENTENCE_2: \"Wir nutzen SAP.\"\nITEMS_2:\n  - \"SAP\" (type: NAME, confidence: 60%)")
	assert.Contains(t, prompt, "Return ONLY the JSON array")
}
