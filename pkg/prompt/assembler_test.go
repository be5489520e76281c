package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"ai-sceneguide-be/pkg/methodology"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scene = "ALEX: You ate the whole cake?\nJORDAN: It was a small cake.\nALEX: It was my wedding cake."

func docs() []methodology.Result {
	return []methodology.Result{
		{Document: methodology.Document{ID: "a", SourceTag: "Example Guide", Category: methodology.CategoryExampleGuide, Content: strings.Repeat("x", 100)}, Score: 9},
		{Document: methodology.Document{ID: "b", SourceTag: "Comedy Timing", Category: methodology.CategoryComedy, Content: strings.Repeat("y", 100)}, Score: 6},
		{Document: methodology.Document{ID: "c", SourceTag: "Self Tape", Category: methodology.CategoryGeneral, Content: strings.Repeat("z", 100)}, Score: 2},
	}
}

func meta() Meta {
	return Meta{CharacterName: "Alex", ProductionTitle: "Pilot Season", ProductionType: "Single Cam Sitcom"}
}

func TestAssemble_PrimaryRequest(t *testing.T) {
	a := NewAssembler(DefaultConfig())

	req, err := a.Assemble(Extracted{Text: scene, Confidence: "high"}, docs(), meta())
	require.NoError(t, err)

	assert.Contains(t, req.SystemContext, "=== SOURCE: Example Guide [example-guide] ===")
	assert.Less(t,
		strings.Index(req.SystemContext, "Example Guide"),
		strings.Index(req.SystemContext, "Comedy Timing"))
	assert.Contains(t, req.UserContext, "Character: Alex")
	assert.Contains(t, req.UserContext, "Title: Pilot Season")
	assert.Contains(t, req.UserContext, scene)
	assert.NotContains(t, req.UserContext, "<primary_guide>")
	assert.Equal(t, DefaultMaxOutputTokens, req.MaxOutputTokens)
	assert.Equal(t, "Alex", req.Subject.CharacterName)
	assert.Equal(t, VariantPrimary, req.Subject.Variant)
}

func TestAssemble_SimplifiedIncludesPrimaryOutput(t *testing.T) {
	a := NewAssembler(DefaultConfig())
	m := meta()
	m.Variant = VariantSimplified
	m.PrimaryOutput = "<h1>Full guide</h1>"

	req, err := a.Assemble(Extracted{Text: scene}, docs(), m)
	require.NoError(t, err)
	assert.Contains(t, req.UserContext, "<primary_guide>\n<h1>Full guide</h1>\n</primary_guide>")
	assert.Equal(t, VariantSimplified, req.Subject.Variant)
}

func TestAssemble_Deterministic(t *testing.T) {
	a := NewAssembler(DefaultConfig())
	first, err := a.Assemble(Extracted{Text: scene}, docs(), meta())
	require.NoError(t, err)
	second, err := a.Assemble(Extracted{Text: scene}, docs(), meta())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssemble_InsufficientInput(t *testing.T) {
	a := NewAssembler(DefaultConfig())

	for _, text := range []string{"", "   ", "too short"} {
		_, err := a.Assemble(Extracted{Text: text}, docs(), meta())
		assert.ErrorIs(t, err, ErrInsufficientInput, "text %q", text)
	}
}

func TestAssemble_OutputTokensClamped(t *testing.T) {
	a := NewAssembler(Config{MaxOutputTokens: 50000, MaxOutputTokensCap: 16000})
	req, err := a.Assemble(Extracted{Text: scene}, nil, meta())
	require.NoError(t, err)
	assert.Equal(t, 16000, req.MaxOutputTokens)
}

func TestAssemble_NoMethodologyBlockWithoutDocs(t *testing.T) {
	a := NewAssembler(DefaultConfig())
	req, err := a.Assemble(Extracted{Text: scene}, nil, meta())
	require.NoError(t, err)
	assert.NotContains(t, req.SystemContext, "<methodology>")
}

func TestBuildContextBlock_WithinBudget(t *testing.T) {
	block := BuildContextBlock(docs(), 12000)
	assert.Equal(t, 3, strings.Count(block, "=== SOURCE:"))
}

func TestBuildContextBlock_TruncatesContentNotHeaders(t *testing.T) {
	header := BlockHeader(docs()[0].Document)
	headerLen := utf8.RuneCountInString(header)

	for budget := 1; budget < 400; budget++ {
		block := BuildContextBlock(docs(), budget)
		assert.LessOrEqual(t, utf8.RuneCountInString(block), budget, "budget %d", budget)

		for _, line := range strings.Split(block, "\n") {
			if strings.HasPrefix(line, "===") {
				assert.True(t, strings.HasSuffix(line, " ==="), "split header %q at budget %d", line, budget)
			}
		}
		if budget <= headerLen {
			assert.Empty(t, block, "budget %d", budget)
		}
	}
}

func TestBuildContextBlock_CutsLastAdmittedDocument(t *testing.T) {
	first := BlockHeader(docs()[0].Document)
	budget := utf8.RuneCountInString(first) + 40

	block := BuildContextBlock(docs(), budget)
	assert.Equal(t, first+strings.Repeat("x", 40), block)
}
