package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omargawdat/pii-shield/internal/detector"
	"github.com/omargawdat/pii-shield/internal/pii"
	"github.com/omargawdat/pii-shield/internal/strategy"
	"github.com/omargawdat/pii-shield/internal/validation"
)

type fixedDetector struct {
	name    string
	matches []pii.Match
}

func (d fixedDetector) Name() string { return d.name }

func (d fixedDetector) Detect(context.Context, string) []pii.Match { return d.matches }

// rejectingValidator rejects every match below the threshold whose kind is
// listed and approves the rest unchanged.
type rejectingValidator struct {
	reject    map[pii.Kind]bool
	calls     int
	threshold float64
}

func (v *rejectingValidator) ValidateLowConfidence(_ context.Context, _ string, matches []pii.Match, threshold float64) []validation.Result {
	v.calls++
	v.threshold = threshold
	out := make([]validation.Result, 0, len(matches))
	for _, m := range matches {
		verdict := pii.ValidationResult{IsPII: true, Confidence: m.Confidence, Reason: validation.ReasonAutoApproved}
		if m.Confidence < threshold && v.reject[m.Kind] {
			verdict = pii.ValidationResult{IsPII: false, Confidence: 0.9, Reason: "looks like an order number", Validated: true}
		}
		out = append(out, validation.Result{Match: m, Verdict: verdict})
	}
	return out
}

func TestProcess_RedactsEmail(t *testing.T) {
	p := New(WithStrategy(strategy.NewRedaction("")))
	r := p.Process(context.Background(), "Contact hans@sap.com")

	assert.Equal(t, "Contact hans@sap.com", r.OriginalText)
	assert.Equal(t, "Contact [EMAIL]", r.ProcessedText)
	require.Len(t, r.Matches, 1)
	assert.Equal(t, pii.Match{Kind: pii.KindEmail, Text: "hans@sap.com", Start: 8, End: 20, Confidence: 1, Source: detector.NameEmail}, r.Matches[0])
	assert.Equal(t, strategy.NameRedaction, r.Strategy)
	assert.NotEmpty(t, r.ID)
}

func TestProcess_CreditCardLuhn(t *testing.T) {
	p := New()

	r := p.Process(context.Background(), "Karte 4111111111111111")
	require.Len(t, r.Matches, 1)
	assert.Equal(t, pii.KindCreditCard, r.Matches[0].Kind)
	assert.Equal(t, "Karte 4111111111111111", r.ProcessedText)

	r = p.Process(context.Background(), "Karte 4111111111111112")
	assert.Empty(t, r.Matches)
	assert.False(t, r.PIIFound())
}

func TestProcess_Masking(t *testing.T) {
	p := New(WithStrategy(strategy.NewMasking("", strategy.DefaultVisibleChars)))
	r := p.Process(context.Background(), "hans@example.com")
	assert.Equal(t, "han***com", r.ProcessedText)
}

func TestProcess_HashingDeterministicPerSalt(t *testing.T) {
	text := "Mail an max@example.de bitte"
	hashWith := func(salt string) string {
		h, err := strategy.NewHashing(salt, 0, "")
		require.NoError(t, err)
		return New(WithStrategy(h)).Process(context.Background(), text).ProcessedText
	}

	first := hashWith("salt-1")
	assert.Equal(t, first, hashWith("salt-1"))
	assert.NotEqual(t, first, hashWith("salt-2"))
	assert.NotContains(t, first, "max@example.de")
}

func TestProcess_DeduplicatesAcrossDetectors(t *testing.T) {
	text := "ID T220001293"
	low := pii.Match{Kind: pii.KindGermanID, Text: "T220001293", Start: 3, End: 13, Confidence: 0.5, Source: "weak"}
	p := New(WithDetectors(
		fixedDetector{name: "weak", matches: []pii.Match{low}},
		detector.NewGermanIDDetector(nil),
	))

	r := p.Process(context.Background(), text)
	require.Len(t, r.Matches, 1)
	assert.Equal(t, 1.0, r.Matches[0].Confidence)
	assert.Equal(t, detector.NameGermanID, r.Matches[0].Source)
}

func TestProcess_NoStrategyLeavesText(t *testing.T) {
	text := "Ruf 030 1234567 an"
	r := New().Process(context.Background(), text)
	assert.Equal(t, text, r.ProcessedText)
	assert.Equal(t, 1, r.PIICount())
	assert.Empty(t, r.Strategy)
}

func TestProcess_RejectedMatchesAreKeptButNotRedacted(t *testing.T) {
	text := "Ruf 030 1234567 an, Mail an max@example.de."
	v := &rejectingValidator{reject: map[pii.Kind]bool{pii.KindPhone: true}}
	p := New(
		WithStrategy(strategy.NewRedaction("")),
		WithValidator(v, 0.95),
	)

	r := p.Process(context.Background(), text)
	assert.Equal(t, 1, v.calls)
	assert.InDelta(t, 0.95, v.threshold, 1e-9)

	require.Len(t, r.Matches, 2)
	phone := r.Matches[0]
	assert.Equal(t, pii.KindPhone, phone.Kind)
	assert.Equal(t, 0.0, phone.Confidence)
	assert.Equal(t, "phone+llm", phone.Source)
	assert.True(t, r.Rejected(phone))
	note, ok := r.Note(phone)
	require.True(t, ok)
	assert.Equal(t, "looks like an order number", note.Reason)

	assert.Equal(t, 1, r.PIICount())
	assert.Equal(t, map[pii.Kind]int{pii.KindEmail: 1}, r.CountByKind())
	assert.Equal(t, "Ruf 030 1234567 an, Mail an [EMAIL].", r.ProcessedText)
}

func TestProcess_MinConfidenceDropsRejected(t *testing.T) {
	text := "Ruf 030 1234567 an, Mail an max@example.de."
	p := New(
		WithValidator(&rejectingValidator{reject: map[pii.Kind]bool{pii.KindPhone: true}}, 0.95),
		WithMinConfidence(0.5),
	)
	r := p.Process(context.Background(), text)
	require.Len(t, r.Matches, 1)
	assert.Equal(t, pii.KindEmail, r.Matches[0].Kind)
}

func TestProcess_MinConfidence(t *testing.T) {
	text := "Nr. T22000129 und T220001294"
	all := New().Process(context.Background(), text)
	require.Len(t, all.Matches, 2)

	r := New(WithMinConfidence(0.7)).Process(context.Background(), text)
	require.Len(t, r.Matches, 1)
	assert.Equal(t, "T22000129", r.Matches[0].Text)
}

func TestProcess_Normalization(t *testing.T) {
	text := "Herr  Jürgen\n\nmax@example.de"
	r := New(WithNormalization(true), WithStrategy(strategy.NewRedaction(""))).Process(context.Background(), text)

	assert.Equal(t, "Herr Jürgen max@example.de", r.OriginalText)
	require.Len(t, r.Matches, 1)
	assert.Equal(t, r.Matches[0].Text, r.OriginalText[r.Matches[0].Start:r.Matches[0].End])
	assert.Equal(t, "Herr Jürgen [EMAIL]", r.ProcessedText)
}

func TestProcess_EmptyText(t *testing.T) {
	r := New(WithStrategy(strategy.NewRedaction(""))).Process(context.Background(), "")
	assert.Empty(t, r.Matches)
	assert.Empty(t, r.ProcessedText)
}

func TestProcessor_WithCopies(t *testing.T) {
	base := New()
	masked := base.With(WithStrategy(strategy.NewMasking("#", 1)))

	text := "a@b.de"
	assert.Equal(t, text, base.Process(context.Background(), text).ProcessedText)
	assert.Equal(t, "a###e", masked.Process(context.Background(), text).ProcessedText)
	assert.Equal(t, base.Detectors(), masked.Detectors())
}

func TestAnonymize(t *testing.T) {
	text := "Hans Müller wohnt in Berlin"
	p := New(WithStrategy(strategy.NewRedaction("")))

	tests := []struct {
		name    string
		matches []pii.Match
		want    string
		wantErr error
	}{
		{
			name: "fills empty text",
			matches: []pii.Match{
				{Kind: pii.KindName, Start: 0, End: 12, Confidence: 1},
				{Kind: pii.KindAddress, Text: "Berlin", Start: 22, End: 28, Confidence: 1},
			},
			want: "[NAME] wohnt in [ADDRESS]",
		},
		{
			name:    "text mismatch",
			matches: []pii.Match{{Kind: pii.KindName, Text: "Hans", Start: 5, End: 9, Confidence: 1}},
			wantErr: pii.ErrInvalidSpan,
		},
		{
			name:    "out of range",
			matches: []pii.Match{{Kind: pii.KindName, Start: 20, End: 99, Confidence: 1}},
			wantErr: pii.ErrInvalidSpan,
		},
		{
			name:    "negative start",
			matches: []pii.Match{{Kind: pii.KindName, Start: -1, End: 3, Confidence: 1}},
			wantErr: pii.ErrInvalidSpan,
		},
		{
			name: "duplicates collapse",
			matches: []pii.Match{
				{Kind: pii.KindAddress, Start: 22, End: 28, Confidence: 0.4},
				{Kind: pii.KindAddress, Start: 22, End: 28, Confidence: 0.9},
			},
			want: "Hans Müller wohnt in [ADDRESS]",
		},
		{
			name: "no matches",
			want: text,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := p.Anonymize(context.Background(), text, tt.matches)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, text, r.OriginalText)
			assert.Equal(t, tt.want, r.ProcessedText)
			for _, m := range r.Matches {
				assert.Equal(t, m.Text, text[m.Start:m.End])
				assert.Equal(t, pii.SourceManual, m.Source)
			}
		})
	}
}

func TestAnonymize_NoStrategy(t *testing.T) {
	_, err := New().Anonymize(context.Background(), "x", nil)
	require.ErrorIs(t, err, ErrNoStrategy)
}
