package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omargawdat/pii-shield/internal/pipeline"
	"github.com/omargawdat/pii-shield/internal/strategy"
)

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "0.00", formatConfidence(0))
	assert.Equal(t, "0.85", formatConfidence(0.85))
	assert.Equal(t, "1.00", formatConfidence(1))
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"kurz", 10, "kurz"},
		{"Jürgen Müller aus Köln", 10, "Jürgen ..."},
		{"abcdef", 3, "abc"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateText(tt.in, tt.n), tt.in)
	}
}

func TestRenderReport(t *testing.T) {
	t.Run("no pii", func(t *testing.T) {
		r := pipeline.New().Process(context.Background(), "Guten Morgen")
		var buf bytes.Buffer
		renderReport(&buf, r, 0.9)
		assert.Equal(t, "No PII found.\n", buf.String())
	})

	t.Run("redacted email", func(t *testing.T) {
		p := pipeline.New(pipeline.WithStrategy(strategy.NewRedaction("")))
		r := p.Process(context.Background(), "Mail an hans@sap.com bitte")
		var buf bytes.Buffer
		renderReport(&buf, r, 0.9)
		out := buf.String()
		assert.Contains(t, out, "1 accepted")
		assert.Contains(t, out, "EMAIL")
		assert.Contains(t, out, "hans@sap.com")
		assert.Contains(t, out, "Mail an [EMAIL] bitte")
	})
}

func TestCharMatches(t *testing.T) {
	r := pipeline.New().Process(context.Background(), "Grüße an hans@sap.com")
	require.Len(t, r.Matches, 1)
	assert.Equal(t, 11, r.Matches[0].Start)

	got := charMatches(r)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].Start)
	assert.Equal(t, 21, got[0].End)
	assert.Equal(t, "hans@sap.com", got[0].Text)
	assert.Equal(t, 11, r.Matches[0].Start, "report is left untouched")
}
