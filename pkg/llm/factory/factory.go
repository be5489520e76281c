package factory

import (
	"context"
	"fmt"

	"ai-sceneguide-be/pkg/llm"
	"ai-sceneguide-be/pkg/llm/anthropic"
	"ai-sceneguide-be/pkg/llm/gemini"
	"ai-sceneguide-be/pkg/llm/huggingface"
	"ai-sceneguide-be/pkg/llm/ollama"
	"ai-sceneguide-be/pkg/llm/openai"
)

// Settings carries the credentials and model names of every supported backend.
// A backend is only built when its credentials are present.
type Settings struct {
	AnthropicKey   string
	AnthropicModel string

	OpenAIKey   string
	OpenAIModel string

	GeminiKey   string
	GeminiModel string

	OllamaBaseURL string
	OllamaModel   string

	HuggingFaceKey     string
	HuggingFaceBaseURL string
	HuggingFaceModel   string
}

func NewLLMProvider(ctx context.Context, providerType string, s Settings) (llm.Provider, error) {
	switch providerType {
	case anthropic.ProviderName:
		return anthropic.NewAnthropicProvider(s.AnthropicKey, s.AnthropicModel)
	case openai.ProviderName:
		return openai.NewOpenAIProvider(s.OpenAIKey, s.OpenAIModel)
	case gemini.ProviderName:
		return gemini.NewGeminiProvider(ctx, s.GeminiKey, s.GeminiModel)
	case ollama.ProviderName:
		if s.OllamaBaseURL == "" {
			return nil, fmt.Errorf("ollama: base url required")
		}
		return ollama.NewOllamaProvider(s.OllamaBaseURL, s.OllamaModel), nil
	case huggingface.ProviderName:
		if s.HuggingFaceKey == "" {
			return nil, fmt.Errorf("huggingface: api key required")
		}
		return huggingface.NewHuggingFaceProvider(s.HuggingFaceKey, s.HuggingFaceBaseURL, s.HuggingFaceModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

// SupportedProviders lists every backend name in registration order.
func SupportedProviders() []string {
	return []string{
		anthropic.ProviderName,
		openai.ProviderName,
		gemini.ProviderName,
		ollama.ProviderName,
		huggingface.ProviderName,
	}
}

// NewLLMProviders builds every backend that has credentials. Backends that
// could not be built are reported in the returned map instead of failing.
func NewLLMProviders(ctx context.Context, s Settings) ([]llm.Provider, map[string]error) {
	var providers []llm.Provider
	skipped := make(map[string]error)
	for _, name := range SupportedProviders() {
		p, err := NewLLMProvider(ctx, name, s)
		if err != nil {
			skipped[name] = err
			continue
		}
		providers = append(providers, p)
	}
	return providers, skipped
}
