package pii

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatch_Validation(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		confidence float64
		wantErr    error
	}{
		{"valid", 0, 5, 1.0, nil},
		{"empty span", 3, 3, 0.5, nil},
		{"negative start", -1, 3, 1.0, ErrInvalidSpan},
		{"end before start", 5, 2, 1.0, ErrInvalidSpan},
		{"confidence above one", 0, 1, 1.2, ErrInvalidConfidence},
		{"confidence below zero", 0, 1, -0.1, ErrInvalidConfidence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatch(KindEmail, "x", tt.start, tt.end, tt.confidence, "email")
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMatch_Overlaps(t *testing.T) {
	a := Match{Start: 0, End: 5}
	assert.True(t, a.Overlaps(Match{Start: 4, End: 8}))
	assert.False(t, a.Overlaps(Match{Start: 5, End: 8}), "half-open spans that touch do not overlap")
	assert.True(t, a.Overlaps(Match{Start: 1, End: 2}))
	assert.Equal(t, 5, a.Len())
}

func TestManualMatch(t *testing.T) {
	m, err := ManualMatch(KindName, "Hans", 0, 4)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Confidence)
	assert.Equal(t, SourceManual, m.Source)
}

func TestMatch_RescoringReturnsCopy(t *testing.T) {
	m := Match{Kind: KindName, Text: "SAP", Start: 0, End: 3, Confidence: 0.8, Source: "presidio"}
	r := m.WithConfidence(0).WithLLMSource()

	assert.Equal(t, 0.8, m.Confidence)
	assert.Equal(t, "presidio", m.Source)
	assert.Equal(t, 0.0, r.Confidence)
	assert.Equal(t, "presidio+llm", r.Source)
	assert.Equal(t, "presidio+llm", r.WithLLMSource().Source, "suffix is not repeated")
	assert.Equal(t, 1.0, m.WithConfidence(3).Confidence)
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindEmail, ParseKind("email"))
	assert.Equal(t, KindDateOfBirth, ParseKind(" DATE_OF_BIRTH "))
	assert.Equal(t, KindUnknown, ParseKind("SSN"))
}
