package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-sceneguide-be/pkg/llm"

	"google.golang.org/genai"
)

const (
	ProviderName = "gemini"
	defaultModel = "gemini-2.5-flash"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider generates through the Gemini API using google.golang.org/genai.
type GeminiProvider struct {
	models contentGenerator
	model  string
}

var _ llm.Provider = &GeminiProvider{}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProvider{
		models: client.Models,
		model:  model,
	}, nil
}

func (p *GeminiProvider) Name() string {
	return ProviderName
}

func (p *GeminiProvider) Call(ctx context.Context, req llm.Request) (string, error) {
	config := &genai.GenerateContentConfig{}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if strings.TrimSpace(req.SystemContext) != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemContext, genai.RoleUser)
	}

	resp, err := p.models.GenerateContent(ctx, p.model, genai.Text(req.UserContext), config)
	if err != nil {
		return "", Classify(ProviderName, err)
	}
	if resp == nil {
		return "", llm.NewProviderError(ProviderName, llm.ErrMalformedResponse, 0, errors.New("nil response"))
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", llm.NewProviderError(ProviderName, llm.ErrMalformedResponse, 0, errors.New("no text candidates in response"))
	}
	return text, nil
}

// Classify maps genai API errors onto the llm error kinds. Shared with the
// Gemini OCR extraction strategy.
func Classify(provider string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.NewProviderError(provider, llm.KindForStatus(apiErr.Code), apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return llm.NewProviderError(provider, llm.KindForStatus(apiErrPtr.Code), apiErrPtr.Code, err)
	}
	return llm.Classify(provider, err)
}
