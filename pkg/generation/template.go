package generation

import (
	"bytes"
	"regexp"
	"strings"
	"text/template"
	"unicode/utf8"

	"ai-sceneguide-be/pkg/llm"
)

const (
	VariantPrimary    = "primary"
	VariantSimplified = "simplified"

	excerptRunes = 600
)

const primaryTemplate = `<h1>Scene Guide: {{.CharacterName}}</h1>
<p><strong>Production:</strong> {{.ProductionTitle}}{{if .ProductionType}} ({{.ProductionType}}){{end}}</p>
<h2>Who is {{.CharacterName}}?</h2>
<p>Read the scene through once for story and once only for {{.CharacterName}}. Note every fact the text gives you about them and every choice they make.</p>
<h2>Given Circumstances</h2>
<ul>
<li>Who am I? What do I want from the other people in this scene?</li>
<li>Where am I, and what just happened before I walked in?</li>
<li>What is in my way, and what do I do to get past it?</li>
</ul>
<h2>Scene Breakdown</h2>
<p>Mark each shift in the scene where {{.CharacterName}} changes tactic. Give every beat an active verb.</p>
{{if .SceneExcerpt}}<h2>Scene Excerpt</h2>
<blockquote>{{.SceneExcerpt}}</blockquote>
{{end}}<h2>Before You Record</h2>
<p>Commit to one clear objective, keep the stakes personal, and listen to your reader.</p>
<p><em>This guide was prepared from a standard template because the analysis service was unavailable.</em></p>`

const simplifiedTemplate = `<h1>Quick Guide: {{.CharacterName}}</h1>
<p><strong>Production:</strong> {{.ProductionTitle}}{{if .ProductionType}} ({{.ProductionType}}){{end}}</p>
<ul>
<li>What does {{.CharacterName}} want in this scene?</li>
<li>Who is stopping them?</li>
<li>What changes by the end?</li>
</ul>
{{if .SceneExcerpt}}<blockquote>{{.SceneExcerpt}}</blockquote>
{{end}}<p><em>This guide was prepared from a standard template because the analysis service was unavailable.</em></p>`

// charRefPattern matches text a browser would decode as a character
// reference, e.g. "&amp;" or "&#39;".
var charRefPattern = regexp.MustCompile(`^&(#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)

// EscapeText escapes s for an HTML text node. Only '<', '>' and an '&' that
// would start a character reference are rewritten, so names such as
// "Dana O'Neil" or "Law & Order" appear unchanged in the output.
func EscapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			if charRefPattern.MatchString(s[i:]) {
				b.WriteString("&amp;")
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// TemplateGenerator renders deterministic guides from request metadata alone.
type TemplateGenerator struct {
	primary    *template.Template
	simplified *template.Template
}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{
		primary:    template.Must(template.New("primary").Parse(primaryTemplate)),
		simplified: template.Must(template.New("simplified").Parse(simplifiedTemplate)),
	}
}

// Render always returns non-empty HTML.
func (g *TemplateGenerator) Render(subject llm.Subject) string {
	data := subject
	if strings.TrimSpace(data.CharacterName) == "" {
		data.CharacterName = "Your Character"
	}
	if strings.TrimSpace(data.ProductionTitle) == "" {
		data.ProductionTitle = "Untitled Production"
	}
	data.SceneExcerpt = Excerpt(data.SceneExcerpt, excerptRunes)

	// Templates are text/template; every field is escaped here instead.
	data.CharacterName = EscapeText(data.CharacterName)
	data.ProductionTitle = EscapeText(data.ProductionTitle)
	data.ProductionType = EscapeText(data.ProductionType)
	data.SceneExcerpt = EscapeText(data.SceneExcerpt)

	tmpl := g.primary
	if subject.Variant == VariantSimplified {
		tmpl = g.simplified
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		// Static templates over plain strings; only reachable on a programming error.
		return "<h1>Scene Guide: " + data.CharacterName + "</h1>"
	}
	return buf.String()
}

// Excerpt shortens s to at most max runes, cutting on a word boundary.
func Excerpt(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:max])
	if i := strings.LastIndexAny(cut, " \n\t"); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
