package methodology

import (
	"sort"
	"strings"

	"ai-sceneguide-be/internal/pkg/logger"
)

const (
	module = "RETRIEVAL"

	DefaultTopK = 6

	keywordWeight = 3
	contentWeight = 1
)

type Category string

const (
	CategoryCharacterDevelopment Category = "character-development"
	CategorySceneWork            Category = "scene-work"
	CategoryComedy               Category = "comedy"
	CategoryUtaHagen             Category = "uta-hagen"
	CategoryExampleGuide         Category = "example-guide"
	CategoryGeneral              Category = "general"
)

var categoryBoost = map[Category]int{
	CategoryExampleGuide:         5,
	CategoryUtaHagen:             4,
	CategoryCharacterDevelopment: 3,
}

// ParseCategory maps unknown values to CategoryGeneral.
func ParseCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryCharacterDevelopment, CategorySceneWork, CategoryComedy,
		CategoryUtaHagen, CategoryExampleGuide, CategoryGeneral:
		return c
	default:
		return CategoryGeneral
	}
}

// Document is one methodology reference text.
type Document struct {
	ID        string
	Content   string
	SourceTag string
	Category  Category
	Keywords  []string
}

type Result struct {
	Document Document
	Score    int
}

var genericTerms = []string{
	"character development",
	"scene analysis",
	"objective",
	"given circumstances",
	"uta hagen",
}

type genreRule struct {
	triggers []string
	terms    []string
}

var genreRules = []genreRule{
	{triggers: []string{"comedy", "sitcom"}, terms: []string{"comedy", "timing", "humor"}},
	{triggers: []string{"drama"}, terms: []string{"drama", "stakes", "emotional truth"}},
	{triggers: []string{"musical"}, terms: []string{"musical", "song"}},
	{triggers: []string{"thriller", "horror"}, terms: []string{"tension", "suspense"}},
}

type indexedDocument struct {
	doc      Document
	content  string
	keywords map[string]struct{}
}

// Index scores a fixed corpus against query terms. It is read-only after
// construction and safe for concurrent use.
type Index struct {
	docs   []indexedDocument
	topK   int
	logger logger.ILogger
}

func NewIndex(docs []Document, topK int, log logger.ILogger) *Index {
	if topK <= 0 {
		topK = DefaultTopK
	}

	indexed := make([]indexedDocument, 0, len(docs))
	for _, d := range docs {
		keywords := make(map[string]struct{}, len(d.Keywords))
		for _, k := range d.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				keywords[k] = struct{}{}
			}
		}
		indexed = append(indexed, indexedDocument{
			doc:      d,
			content:  strings.ToLower(d.Content),
			keywords: keywords,
		})
	}

	return &Index{docs: indexed, topK: topK, logger: log}
}

func (i *Index) Len() int {
	return len(i.docs)
}

func (i *Index) TopK() int {
	return i.topK
}

// QueryTerms returns the deduplicated, lowercased term set for a query in a
// stable order.
func QueryTerms(characterName, productionType string) []string {
	var terms []string
	seen := make(map[string]bool)
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		terms = append(terms, t)
	}

	add(characterName)
	add(productionType)
	for _, t := range genericTerms {
		add(t)
	}

	pt := strings.ToLower(productionType)
	for _, rule := range genreRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(pt, trigger) {
				for _, t := range rule.terms {
					add(t)
				}
				break
			}
		}
	}
	return terms
}

// Query ranks the corpus for a character and production. Documents scoring
// zero are dropped; ties keep corpus order. sceneText is accepted for
// logging and does not affect scores.
func (i *Index) Query(characterName, productionType, sceneText string) []Result {
	terms := QueryTerms(characterName, productionType)

	results := make([]Result, 0, len(i.docs))
	for _, d := range i.docs {
		score := i.score(d, terms)
		if score == 0 {
			continue
		}
		results = append(results, Result{Document: d.doc, Score: score})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if len(results) > i.topK {
		results = results[:i.topK]
	}

	i.logger.Debug(module, "Methodology retrieved", map[string]interface{}{
		"terms":       len(terms),
		"matched":     len(results),
		"scene_chars": len(sceneText),
	})
	return results
}

func (i *Index) score(d indexedDocument, terms []string) int {
	score := 0
	for _, t := range terms {
		if _, ok := d.keywords[t]; ok {
			score += keywordWeight
		}
		if strings.Contains(d.content, t) {
			score += contentWeight
		}
	}
	return score + categoryBoost[d.doc.Category]
}
