package prompt

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"ai-sceneguide-be/pkg/llm"
	"ai-sceneguide-be/pkg/methodology"
)

const (
	VariantPrimary    = "primary"
	VariantSimplified = "simplified"
)

var ErrInsufficientInput = errors.New("extracted text is too short to build a prompt")

// DefaultMaxOutputTokens is the process-wide output budget used when a
// Config does not set one.
var DefaultMaxOutputTokens = 8000

// Extracted is the scene text handed over by the extraction stage.
type Extracted struct {
	Text       string
	Confidence string
	Method     string
}

// Meta carries the request metadata interpolated into the template.
type Meta struct {
	CharacterName   string
	ProductionTitle string
	ProductionType  string
	Variant         string
	// PrimaryOutput is the first pass result, used by the simplified variant.
	PrimaryOutput string
	ProviderHint  string
}

type Config struct {
	ContextCharBudget  int
	SceneCharBudget    int
	MinInputChars      int
	MaxOutputTokens    int
	MaxOutputTokensCap int
}

func DefaultConfig() Config {
	return Config{
		ContextCharBudget:  12000,
		SceneCharBudget:    40000,
		MinInputChars:      20,
		MaxOutputTokens:    DefaultMaxOutputTokens,
		MaxOutputTokensCap: 16000,
	}
}

// Assembler turns extracted text, retrieved methodology and metadata into a
// bounded generation request. It holds no state between calls.
type Assembler struct {
	cfg Config
}

func NewAssembler(cfg Config) *Assembler {
	def := DefaultConfig()
	if cfg.ContextCharBudget <= 0 {
		cfg.ContextCharBudget = def.ContextCharBudget
	}
	if cfg.SceneCharBudget <= 0 {
		cfg.SceneCharBudget = def.SceneCharBudget
	}
	if cfg.MinInputChars <= 0 {
		cfg.MinInputChars = def.MinInputChars
	}
	if cfg.MaxOutputTokensCap <= 0 {
		cfg.MaxOutputTokensCap = def.MaxOutputTokensCap
	}
	return &Assembler{cfg: cfg}
}

func (a *Assembler) maxOutputTokens() int {
	tokens := a.cfg.MaxOutputTokens
	if tokens <= 0 {
		tokens = DefaultMaxOutputTokens
	}
	if tokens > a.cfg.MaxOutputTokensCap {
		tokens = a.cfg.MaxOutputTokensCap
	}
	return tokens
}

// Assemble is deterministic for identical inputs.
func (a *Assembler) Assemble(ext Extracted, docs []methodology.Result, meta Meta) (llm.Request, error) {
	scene := strings.TrimSpace(ext.Text)
	if utf8.RuneCountInString(scene) < a.cfg.MinInputChars {
		return llm.Request{}, ErrInsufficientInput
	}
	scene = truncateRunes(scene, a.cfg.SceneCharBudget)

	variant := meta.Variant
	if variant != VariantSimplified {
		variant = VariantPrimary
	}

	var system strings.Builder
	writeRole(&system, variant)
	writeMethodology(&system, BuildContextBlock(docs, a.cfg.ContextCharBudget))
	writeOutputRules(&system, variant)

	var user strings.Builder
	writeProduction(&user, meta)
	writeScene(&user, scene, ext)
	if variant == VariantSimplified {
		writePrimaryGuide(&user, meta.PrimaryOutput)
	}
	writeTask(&user, meta.CharacterName, variant)

	return llm.Request{
		SystemContext:   system.String(),
		UserContext:     user.String(),
		MaxOutputTokens: a.maxOutputTokens(),
		ProviderHint:    meta.ProviderHint,
		Subject: llm.Subject{
			CharacterName:   meta.CharacterName,
			ProductionTitle: meta.ProductionTitle,
			ProductionType:  meta.ProductionType,
			SceneExcerpt:    scene,
			Variant:         variant,
		},
	}, nil
}

// BlockHeader is the tag line that opens each retrieved document.
func BlockHeader(doc methodology.Document) string {
	return fmt.Sprintf("=== SOURCE: %s [%s] ===\n", doc.SourceTag, doc.Category)
}

// BuildContextBlock concatenates documents in ranked order within budget
// runes. A header is written whole or not at all; only the content of the
// last admitted document may be cut.
func BuildContextBlock(docs []methodology.Result, budget int) string {
	var b strings.Builder
	used := 0

	for _, r := range docs {
		header := BlockHeader(r.Document)
		headerLen := utf8.RuneCountInString(header)
		if used+headerLen >= budget {
			break
		}
		b.WriteString(header)
		used += headerLen

		body := r.Document.Content + "\n\n"
		bodyLen := utf8.RuneCountInString(body)
		remaining := budget - used
		if bodyLen > remaining {
			b.WriteString(truncateRunes(body, remaining))
			break
		}
		b.WriteString(body)
		used += bodyLen
	}
	return b.String()
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
