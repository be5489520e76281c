package extraction

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"
)

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}']+`)

// Gate rejects extraction output that is too short or mostly non-letters.
type Gate struct {
	MinChars       int
	MinLetterRatio float64
}

var DefaultGate = Gate{MinChars: 50, MinLetterRatio: 0.15}

// Passes reports whether s is usable text.
func (g Gate) Passes(s string) bool {
	if utf8.RuneCountInString(s) < g.MinChars {
		return false
	}
	return LetterRatio(s) >= g.MinLetterRatio
}

// LetterRatio is letters(s) / max(1, runes(s)).
func LetterRatio(s string) float64 {
	total, letters := 0, 0
	for _, r := range s {
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		total = 1
	}
	return float64(letters) / float64(total)
}

func CountWords(s string) int {
	return len(wordPattern.FindAllStringIndex(s, -1))
}

// ConfidencePolicy classifies text by word count. A count strictly above
// HighAbove is high, strictly above MediumAbove is medium, otherwise low.
type ConfidencePolicy struct {
	MediumAbove int
	HighAbove   int
}

var DefaultConfidencePolicy = ConfidencePolicy{MediumAbove: 150, HighAbove: 400}

func (p ConfidencePolicy) Validate() error {
	if p.MediumAbove < 0 || p.HighAbove <= p.MediumAbove {
		return fmt.Errorf("confidence thresholds must satisfy 0 <= medium < high, got medium=%d high=%d", p.MediumAbove, p.HighAbove)
	}
	return nil
}

func (p ConfidencePolicy) Classify(wordCount int) Confidence {
	switch {
	case wordCount > p.HighAbove:
		return ConfidenceHigh
	case wordCount > p.MediumAbove:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
