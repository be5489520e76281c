package huggingface

import (
	"ai-sceneguide-be/pkg/llm"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const ProviderName = "huggingface"

type HuggingFaceProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ llm.Provider = &HuggingFaceProvider{}

// Request Payload Structure (OpenAI Compatible)
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []llm.Message `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewHuggingFaceProvider(apiKey, baseURL, model string) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/v1" // Default Router URL
	}
	return &HuggingFaceProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

func (p *HuggingFaceProvider) Name() string {
	return ProviderName
}

func (p *HuggingFaceProvider) Call(ctx context.Context, req llm.Request) (string, error) {
	if p.apiKey == "" {
		return "", llm.NewProviderError(ProviderName, llm.ErrAuth, 0, fmt.Errorf("api key not configured"))
	}

	reqBody := chatRequest{
		Model:     p.model,
		Messages:  req.Messages(),
		MaxTokens: req.MaxOutputTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", llm.NewProviderError(ProviderName, llm.ErrMalformedResponse, 0, fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/chat/completions", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", llm.NewProviderError(ProviderName, llm.ErrTransient, 0, fmt.Errorf("failed to create request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", llm.Classify(ProviderName, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", llm.NewProviderError(ProviderName, llm.KindForStatus(resp.StatusCode), resp.StatusCode,
			fmt.Errorf("huggingface api error: %s", string(bodyBytes)))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", llm.NewProviderError(ProviderName, llm.ErrMalformedResponse, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}

	if chatResp.Error != nil {
		return "", llm.NewProviderError(ProviderName, llm.ErrMalformedResponse, resp.StatusCode,
			fmt.Errorf("huggingface api returned error: %s", chatResp.Error.Message))
	}

	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", llm.NewProviderError(ProviderName, llm.ErrMalformedResponse, resp.StatusCode, fmt.Errorf("empty choices from huggingface api"))
	}

	return chatResp.Choices[0].Message.Content, nil
}
