package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-sceneguide-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStrategy struct {
	name     string
	text     string
	err      error
	panics   bool
	mimeOnly string
	calls    int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Supports(mimeType string) bool {
	return s.mimeOnly == "" || s.mimeOnly == mimeType
}

func (s *stubStrategy) Extract(_ context.Context, _ Document) (string, error) {
	s.calls++
	if s.panics {
		panic("strategy exploded")
	}
	return s.text, s.err
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "line"
	}
	return strings.Join(parts, " ")
}

func pdfDoc() Document {
	return Document{Data: []byte("%PDF-1.4"), MimeType: "application/pdf", Filename: "sides.pdf"}
}

func TestExtract_FirstPassingStrategyWins(t *testing.T) {
	first := &stubStrategy{name: "document-ai", text: words(200)}
	second := &stubStrategy{name: "pdf-text-layer", text: words(500)}
	e := NewExtractor([]Strategy{first, second}, logger.NewNop())

	res, err := e.Extract(context.Background(), pdfDoc())
	require.NoError(t, err)
	assert.Equal(t, "document-ai", res.Method)
	assert.Equal(t, ConfidenceMedium, res.Confidence)
	assert.Equal(t, 200, res.WordCount)
	assert.True(t, res.GatePassed)
	assert.Equal(t, 0, second.calls)
}

func TestExtract_FailuresAreSkipped(t *testing.T) {
	e := NewExtractor([]Strategy{
		&stubStrategy{name: "document-ai", err: errors.New("quota exceeded")},
		&stubStrategy{name: "pdf-text-layer", panics: true},
		&stubStrategy{name: "gemini-vision-ocr", text: words(450)},
	}, logger.NewNop())

	res, err := e.Extract(context.Background(), pdfDoc())
	require.NoError(t, err)
	assert.Equal(t, "gemini-vision-ocr", res.Method)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
}

func TestExtract_GarbageIsRejected(t *testing.T) {
	garbage := strings.Repeat("|#_ 1.;", 20)
	e := NewExtractor([]Strategy{
		&stubStrategy{name: "pdf-text-layer", text: garbage},
		&stubStrategy{name: "gemini-vision-ocr", text: words(100)},
	}, logger.NewNop())

	res, err := e.Extract(context.Background(), pdfDoc())
	require.NoError(t, err)
	assert.Equal(t, "gemini-vision-ocr", res.Method)
	assert.Equal(t, ConfidenceLow, res.Confidence)
}

func TestExtract_ThreeWordScanStillReturnsText(t *testing.T) {
	e := NewExtractor([]Strategy{
		&stubStrategy{name: "document-ai", text: "INT. KITCHEN NIGHT"},
		&stubStrategy{name: "gemini-vision-ocr", err: errors.New("unavailable")},
	}, logger.NewNop())

	res, err := e.Extract(context.Background(), Document{Data: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "INT. KITCHEN NIGHT", res.Text)
	assert.Equal(t, ConfidenceLow, res.Confidence)
	assert.Equal(t, "document-ai", res.Method)
	assert.False(t, res.GatePassed)
}

func TestExtract_LastRejectedOutputIsReturned(t *testing.T) {
	e := NewExtractor([]Strategy{
		&stubStrategy{name: "document-ai", text: "first short"},
		&stubStrategy{name: "pdf-text-layer", text: "second short"},
		&stubStrategy{name: "gemini-vision-ocr", text: ""},
	}, logger.NewNop())

	res, err := e.Extract(context.Background(), pdfDoc())
	require.NoError(t, err)
	assert.Equal(t, "second short", res.Text)
	assert.Equal(t, "pdf-text-layer", res.Method)
}

func TestExtract_NothingProducedFails(t *testing.T) {
	e := NewExtractor([]Strategy{
		&stubStrategy{name: "document-ai", err: errors.New("auth")},
		&stubStrategy{name: "pdf-text-layer", text: "   "},
	}, logger.NewNop())

	_, err := e.Extract(context.Background(), pdfDoc())
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtract_UnsupportedStrategiesAreNotRun(t *testing.T) {
	pdfOnly := &stubStrategy{name: "pdf-text-layer", text: words(300), mimeOnly: "application/pdf"}
	e := NewExtractor([]Strategy{pdfOnly}, logger.NewNop())

	_, err := e.Extract(context.Background(), Document{Data: []byte("x"), MimeType: "image/png"})
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Equal(t, 0, pdfOnly.calls)
}

func TestExtract_EmptyDocument(t *testing.T) {
	e := NewExtractor(nil, logger.NewNop())
	_, err := e.Extract(context.Background(), Document{MimeType: "application/pdf"})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestExtract_PlainTextStrategy(t *testing.T) {
	e := NewExtractor([]Strategy{NewPlainTextStrategy()}, logger.NewNop())
	body := "\ufeffALEX: I told you the cake was for Tuesday.\r\nJORDAN: It is Tuesday.\r\n"

	res, err := e.Extract(context.Background(), Document{Data: []byte(body), MimeType: "text/plain; charset=utf-8"})
	require.NoError(t, err)
	assert.Equal(t, MethodPlainText, res.Method)
	assert.False(t, strings.HasPrefix(res.Text, "\ufeff"))
	assert.NotContains(t, res.Text, "\r")
}

func TestWithPolicy_RejectsNonMonotonicThresholds(t *testing.T) {
	e := NewExtractor(nil, logger.NewNop())

	_, err := e.WithPolicy(DefaultGate, ConfidencePolicy{MediumAbove: 300, HighAbove: 200})
	assert.Error(t, err)

	custom, err := e.WithPolicy(Gate{MinChars: 5, MinLetterRatio: 0.5}, ConfidencePolicy{MediumAbove: 2, HighAbove: 4})
	require.NoError(t, err)
	assert.NotSame(t, e, custom)
}
