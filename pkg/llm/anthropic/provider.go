package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-sceneguide-be/pkg/llm"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	ProviderName     = "anthropic"
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 4096
)

type messagesAPI interface {
	New(ctx context.Context, params anthropicsdk.MessageNewParams, opts ...option.RequestOption) (*anthropicsdk.Message, error)
}

// AnthropicProvider wires the anthropic-sdk-go Messages API into llm.Provider.
type AnthropicProvider struct {
	msgs  messagesAPI
	model string
}

var _ llm.Provider = &AnthropicProvider{}

func NewAnthropicProvider(apiKey, model string) (*AnthropicProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic: api key required")
	}
	if model == "" {
		model = defaultModel
	}

	// The orchestrator owns failure handling, so SDK retries stay low.
	client := anthropicsdk.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(1),
	)

	return &AnthropicProvider{
		msgs:  &client.Messages,
		model: model,
	}, nil
}

func (p *AnthropicProvider) Name() string {
	return ProviderName
}

func (p *AnthropicProvider) Call(ctx context.Context, req llm.Request) (string, error) {
	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(req.UserContext)),
		},
	}
	if strings.TrimSpace(req.SystemContext) != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: req.SystemContext}}
	}

	msg, err := p.msgs.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	var textParts []string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			textParts = append(textParts, block.Text)
		}
	}

	text := strings.Join(textParts, "")
	if strings.TrimSpace(text) == "" {
		return "", llm.NewProviderError(ProviderName, llm.ErrMalformedResponse, 0,
			fmt.Errorf("no text blocks in response (stop_reason=%s)", msg.StopReason))
	}
	return text, nil
}

func classify(err error) error {
	var apiErr *anthropicsdk.Error
	if errors.As(err, &apiErr) {
		return llm.NewProviderError(ProviderName, llm.KindForStatus(apiErr.StatusCode), apiErr.StatusCode, err)
	}
	return llm.Classify(ProviderName, err)
}
