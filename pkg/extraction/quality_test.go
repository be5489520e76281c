package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "empty", in: "", want: false},
		{name: "too short", in: "Short line of dialogue.", want: false},
		{name: "exactly fifty letters", in: strings.Repeat("a", 50), want: true},
		{name: "mostly symbols", in: strings.Repeat("#|.", 30) + "abc", want: false},
		{name: "letter ratio at threshold", in: strings.Repeat("a", 15) + strings.Repeat("1", 85), want: true},
		{name: "multibyte letters count once", in: strings.Repeat("é", 50), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultGate.Passes(tt.in))
		})
	}
}

func TestLetterRatio(t *testing.T) {
	assert.Equal(t, 0.0, LetterRatio(""))
	assert.Equal(t, 1.0, LetterRatio("abc"))
	assert.InDelta(t, 0.5, LetterRatio("ab12"), 1e-9)
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords("  ...  "))
	assert.Equal(t, 3, CountWords("INT. KITCHEN - NIGHT"))
	assert.Equal(t, 4, CountWords("Don't go, Alex! 2"))
}

func TestConfidencePolicy(t *testing.T) {
	p := DefaultConfidencePolicy
	assert.NoError(t, p.Validate())

	tests := []struct {
		wc   int
		want Confidence
	}{
		{0, ConfidenceLow},
		{150, ConfidenceLow},
		{151, ConfidenceMedium},
		{400, ConfidenceMedium},
		{401, ConfidenceHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Classify(tt.wc), "word count %d", tt.wc)
	}
}
