package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omargawdat/pii-shield/internal/pii"
)

func TestParseVerdicts(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantLen  int
		wantErr  bool
		wantText string
	}{
		{
			name:     "plain array",
			content:  `[{"text":"Hans","is_pii":true,"confidence":0.9,"reason":"Name"}]`,
			wantLen:  1,
			wantText: "Hans",
		},
		{
			name:     "markdown fence",
			content:  "```json\n[{\"text\":\"SAP\",\"is_pii\":false,\"confidence\":0.1,\"reason\":\"Company\"}]\n```",
			wantLen:  1,
			wantText: "SAP",
		},
		{
			name:     "prose around array",
			content:  "Here you go:\n[{\"text\":\"Anna\"}, {\"text\":\"Köln\",\"is_pii\":true}]\nHope this helps.",
			wantLen:  2,
			wantText: "Anna",
		},
		{name: "empty array", content: `[]`, wantLen: 0},
		{name: "no array", content: `I cannot help with that.`, wantErr: true},
		{name: "invalid json", content: `[{"text": "Hans",}]`, wantErr: true},
		{name: "wrong type", content: `[{"text":"Hans","is_pii":"yes"}]`, wantErr: true},
		{name: "missing text", content: `[{"is_pii":true}]`, wantErr: true},
		{name: "array of strings", content: `["Hans"]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := parseVerdicts(tt.content)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			require.Len(t, entries, tt.wantLen)
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, entries[0].Text)
			}
		})
	}
}

func TestAssignVerdicts(t *testing.T) {
	text := "Hans trifft hans. SAP zahlt."
	hans1 := matchOf(t, text, "Hans", pii.KindName, 0.6)
	hans2 := matchOf(t, text, "hans", pii.KindName, 0.55)
	sap := matchOf(t, text, "SAP", pii.KindName, 0.5)

	entries, err := parseVerdicts(`[
		{"text":"HANS","is_pii":true,"confidence":0.97,"reason":"Personal name"},
		{"text":"SAP","is_pii":false,"confidence":0.05,"reason":"Company name"}
	]`)
	require.NoError(t, err)

	results := assignVerdicts([]pii.Match{hans1, hans2, sap}, entries)
	require.Len(t, results, 3)

	assert.Equal(t, hans1, results[0].Match)
	assert.True(t, results[0].Verdict.IsPII)
	assert.InDelta(t, 0.97, results[0].Verdict.Confidence, 1e-9)
	assert.Equal(t, "Personal name", results[0].Verdict.Reason)
	assert.True(t, results[0].Verdict.Validated)

	// The single HANS entry is consumed by the first occurrence.
	assert.Equal(t, ReasonNotInResponse, results[1].Verdict.Reason)
	assert.True(t, results[1].Verdict.IsPII)
	assert.InDelta(t, 0.55, results[1].Verdict.Confidence, 1e-9)
	assert.False(t, results[1].Verdict.Validated)

	assert.False(t, results[2].Verdict.IsPII)
	assert.Equal(t, "Company name", results[2].Verdict.Reason)
}

func TestAssignVerdicts_Defaults(t *testing.T) {
	text := "Anna"
	anna := matchOf(t, text, "Anna", pii.KindName, 0.7)
	entries, err := parseVerdicts(`[{"text":"anna"}]`)
	require.NoError(t, err)

	results := assignVerdicts([]pii.Match{anna}, entries)
	require.Len(t, results, 1)
	assert.True(t, results[0].Verdict.IsPII)
	assert.InDelta(t, 0.7, results[0].Verdict.Confidence, 1e-9)
	assert.Equal(t, ReasonNoReason, results[0].Verdict.Reason)
	assert.True(t, results[0].Verdict.Validated)
}

func TestAssignVerdicts_DuplicateEntriesServeDuplicateMatches(t *testing.T) {
	text := "Max und Max"
	first := matchOf(t, text, "Max", pii.KindName, 0.6)
	second, err := pii.NewMatch(pii.KindName, "Max", 8, 11, 0.6, "presidio")
	require.NoError(t, err)

	entries, err := parseVerdicts(`[{"text":"Max","is_pii":true,"reason":"a"},{"text":"Max","is_pii":false,"reason":"b"}]`)
	require.NoError(t, err)

	results := assignVerdicts([]pii.Match{first, second}, entries)
	assert.Equal(t, "a", results[0].Verdict.Reason)
	assert.Equal(t, "b", results[1].Verdict.Reason)
	assert.False(t, results[1].Verdict.IsPII)
}
