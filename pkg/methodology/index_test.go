package methodology

import (
	"testing"
	"testing/fstest"

	"ai-sceneguide-be/internal/pkg/logger"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ranked struct {
	ID    string
	Score int
}

func ranking(results []Result) []ranked {
	out := make([]ranked, 0, len(results))
	for _, r := range results {
		out = append(out, ranked{ID: r.Document.ID, Score: r.Score})
	}
	return out
}

func sitcomCorpus() []Document {
	return []Document{
		{ID: "generic", Category: CategoryGeneral, Keywords: []string{"character development"},
			Content: "Notes on character development."},
		{ID: "comedy", Category: CategoryComedy, Keywords: []string{"character development"},
			Content: "Comedy needs timing and character development."},
		{ID: "example", Category: CategoryExampleGuide, Keywords: []string{"character development"},
			Content: "Worked example of character development."},
		{ID: "stakes", Category: CategoryGeneral, Keywords: []string{"stakes"},
			Content: "Stakes."},
	}
}

func TestQuery_SitcomRanksBoostedDocumentsFirst(t *testing.T) {
	idx := NewIndex(sitcomCorpus(), 6, logger.NewNop())

	got := ranking(idx.Query("Alex", "Single Cam Sitcom", "ALEX: Hi."))
	want := []ranked{
		{ID: "example", Score: 9},
		{ID: "comedy", Score: 6},
		{ID: "generic", Score: 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}
}

func TestQuery_DefaultCorpusSitcom(t *testing.T) {
	docs, err := LoadCorpus("")
	require.NoError(t, err)
	idx := NewIndex(docs, DefaultTopK, logger.NewNop())

	results := idx.Query("Alex", "Single Cam Sitcom", "")
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), DefaultTopK)

	pos := make(map[string]int)
	for i, r := range results {
		pos[r.Document.ID] = i
	}
	require.Contains(t, pos, "comedy-timing")
	require.Contains(t, pos, "example-sitcom-guide")
	assert.Less(t, pos["example-sitcom-guide"], pos["comedy-timing"])
	assert.NotContains(t, pos, "self-tape-basics")
}

func TestQuery_Deterministic(t *testing.T) {
	docs, err := LoadCorpus("")
	require.NoError(t, err)
	idx := NewIndex(docs, DefaultTopK, logger.NewNop())

	first := idx.Query("Morgan", "Network Drama", "scene")
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(ranking(first), ranking(idx.Query("Morgan", "Network Drama", "scene"))); diff != "" {
			t.Fatalf("query %d differs (-first +got):\n%s", i, diff)
		}
	}
}

func TestQuery_SceneTextDoesNotAffectScores(t *testing.T) {
	idx := NewIndex(sitcomCorpus(), 6, logger.NewNop())
	a := ranking(idx.Query("Alex", "Sitcom", "comedy comedy comedy"))
	b := ranking(idx.Query("Alex", "Sitcom", ""))
	assert.Empty(t, cmp.Diff(a, b))
}

func TestQuery_NeverReturnsZeroScores(t *testing.T) {
	docs, err := LoadCorpus("")
	require.NoError(t, err)
	idx := NewIndex(docs, 100, logger.NewNop())

	queries := [][2]string{
		{"Alex", "Single Cam Sitcom"},
		{"", ""},
		{"Jordan", "Horror Feature"},
		{"Sam", "Broadway Musical"},
	}
	for _, q := range queries {
		for _, r := range idx.Query(q[0], q[1], "") {
			assert.Greater(t, r.Score, 0, "doc %s for %v", r.Document.ID, q)
		}
	}
}

func TestQuery_ExcludesUnmatchedDocuments(t *testing.T) {
	idx := NewIndex([]Document{
		{ID: "unrelated", Category: CategorySceneWork, Keywords: []string{"lighting"}, Content: "Set up two lamps."},
	}, 6, logger.NewNop())

	assert.Empty(t, idx.Query("Alex", "Sitcom", ""))
}

func TestQuery_TiesKeepCorpusOrderAndTruncate(t *testing.T) {
	var docs []Document
	for _, id := range []string{"a", "b", "c", "d"} {
		docs = append(docs, Document{ID: id, Category: CategorySceneWork, Keywords: []string{"objective"}, Content: "-"})
	}
	idx := NewIndex(docs, 3, logger.NewNop())

	got := ranking(idx.Query("", "", ""))
	want := []ranked{{ID: "a", Score: 3}, {ID: "b", Score: 3}, {ID: "c", Score: 3}}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestQueryTerms(t *testing.T) {
	terms := QueryTerms("  Alex ", "Single Cam Sitcom")
	assert.Equal(t, "alex", terms[0])
	assert.Equal(t, "single cam sitcom", terms[1])
	assert.Contains(t, terms, "character development")
	assert.Contains(t, terms, "timing")
	assert.NotContains(t, terms, "stakes")

	drama := QueryTerms("", "Medical Drama")
	assert.Contains(t, drama, "emotional truth")
	assert.NotContains(t, drama, "")
}

func TestLoadCorpusFS(t *testing.T) {
	fsys := fstest.MapFS{
		"corpus.yaml": {Data: []byte(`documents:
  - id: one
    file: one.md
    category: uta-hagen
    keywords: [objective]
  - id: two
    file: two.md
    source: Two Source
    category: mystery
`)},
		"one.md": {Data: []byte("  first body \n")},
		"two.md": {Data: []byte("second body")},
	}

	docs, err := LoadCorpusFS(fsys)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "first body", docs[0].Content)
	assert.Equal(t, "one", docs[0].SourceTag)
	assert.Equal(t, CategoryUtaHagen, docs[0].Category)
	assert.Equal(t, "Two Source", docs[1].SourceTag)
	assert.Equal(t, CategoryGeneral, docs[1].Category)
}

func TestLoadCorpusFS_Errors(t *testing.T) {
	tests := []struct {
		name string
		fs   fstest.MapFS
	}{
		{name: "missing manifest", fs: fstest.MapFS{}},
		{name: "empty manifest", fs: fstest.MapFS{"corpus.yaml": {Data: []byte("documents: []")}}},
		{name: "missing file", fs: fstest.MapFS{"corpus.yaml": {Data: []byte("documents:\n  - id: x\n    file: x.md\n")}}},
		{name: "duplicate id", fs: fstest.MapFS{
			"corpus.yaml": {Data: []byte("documents:\n  - id: x\n    file: x.md\n  - id: x\n    file: x.md\n")},
			"x.md":        {Data: []byte("body")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCorpusFS(tt.fs)
			assert.Error(t, err)
		})
	}
}
