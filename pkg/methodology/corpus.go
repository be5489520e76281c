package methodology

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const manifestName = "corpus.yaml"

//go:embed corpus
var defaultCorpus embed.FS

type manifest struct {
	Documents []manifestEntry `yaml:"documents"`
}

type manifestEntry struct {
	ID       string   `yaml:"id"`
	File     string   `yaml:"file"`
	Source   string   `yaml:"source"`
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// LoadCorpus reads the corpus manifest and documents from dir. An empty dir
// loads the corpus compiled into the binary.
func LoadCorpus(dir string) ([]Document, error) {
	if dir == "" {
		sub, err := fs.Sub(defaultCorpus, "corpus")
		if err != nil {
			return nil, err
		}
		return LoadCorpusFS(sub)
	}
	return LoadCorpusFS(os.DirFS(dir))
}

// LoadCorpusFS reads corpus.yaml at the root of fsys. Documents keep manifest
// order, which is the tie-break order at query time.
func LoadCorpusFS(fsys fs.FS) ([]Document, error) {
	raw, err := fs.ReadFile(fsys, manifestName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", manifestName, err)
	}

	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", manifestName, err)
	}
	if len(m.Documents) == 0 {
		return nil, fmt.Errorf("%s lists no documents", manifestName)
	}

	docs := make([]Document, 0, len(m.Documents))
	seen := make(map[string]bool, len(m.Documents))
	for _, entry := range m.Documents {
		if entry.ID == "" || entry.File == "" {
			return nil, fmt.Errorf("corpus entry missing id or file: %+v", entry)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("duplicate corpus id %q", entry.ID)
		}
		seen[entry.ID] = true

		content, err := fs.ReadFile(fsys, entry.File)
		if err != nil {
			return nil, fmt.Errorf("corpus %s: %w", entry.ID, err)
		}
		text := strings.TrimSpace(string(content))
		if text == "" {
			return nil, fmt.Errorf("corpus %s: file %s is empty", entry.ID, entry.File)
		}

		source := entry.Source
		if source == "" {
			source = entry.ID
		}

		docs = append(docs, Document{
			ID:        entry.ID,
			Content:   text,
			SourceTag: source,
			Category:  ParseCategory(entry.Category),
			Keywords:  entry.Keywords,
		})
	}
	return docs, nil
}
