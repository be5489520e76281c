// Ollama integration test against a local server.
// Run with: OLLAMA_BASE_URL=http://localhost:11434 go test ./test/integration -run Ollama -v

package integration

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"ai-sceneguide-be/pkg/llm"
	"ai-sceneguide-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultOllamaModel = "gemma:2b"

func ollamaProvider(t *testing.T) *ollama.OllamaProvider {
	t.Helper()
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		t.Skip("Skipping integration test: OLLAMA_BASE_URL not set")
	}
	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		model = defaultOllamaModel
	}
	return ollama.NewOllamaProvider(baseURL, model)
}

func TestOllama_SceneGuide(t *testing.T) {
	p := ollamaProvider(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	out, err := p.Call(ctx, llm.Request{
		SystemContext:   "You are an acting coach. Answer with a short HTML fragment.",
		UserContext:     "Character: Alex\nScene:\nALEX: You ate the whole cake?\nJORDAN: It was a small cake.\n\nGive Alex one objective.",
		MaxOutputTokens: 256,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
	t.Logf("ollama answered in %v: %d chars", time.Since(start), len(out))
}

func TestOllama_UnknownModelIsClassified(t *testing.T) {
	p := ollamaProvider(t)
	bad := ollama.NewOllamaProvider(os.Getenv("OLLAMA_BASE_URL"), "no-such-model:0b")
	assert.Equal(t, p.Name(), bad.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := bad.Call(ctx, llm.Request{UserContext: "ping", MaxOutputTokens: 8})
	require.Error(t, err)
	var perr *llm.ProviderError
	assert.True(t, errors.As(err, &perr), "expected a classified provider error, got %v", err)
}
