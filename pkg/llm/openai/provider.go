package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-sceneguide-be/pkg/llm"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	ProviderName     = "openai"
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 4096
)

type chatCompletions interface {
	New(ctx context.Context, params openaisdk.ChatCompletionNewParams, opts ...option.RequestOption) (*openaisdk.ChatCompletion, error)
}

type OpenAIProvider struct {
	completions chatCompletions
	model       string
}

var _ llm.Provider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai: api key required")
	}
	if model == "" {
		model = defaultModel
	}

	client := openaisdk.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(1),
	)

	return &OpenAIProvider{
		completions: &client.Chat.Completions,
		model:       model,
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return ProviderName
}

func (p *OpenAIProvider) Call(ctx context.Context, req llm.Request) (string, error) {
	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(req.SystemContext) != "" {
		messages = append(messages, openaisdk.SystemMessage(req.SystemContext))
	}
	messages = append(messages, openaisdk.UserMessage(req.UserContext))

	completion, err := p.completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:               shared.ChatModel(p.model),
		MaxCompletionTokens: openaisdk.Int(int64(maxTokens)),
		Messages:            messages,
	})
	if err != nil {
		return "", classify(err)
	}

	if completion == nil || len(completion.Choices) == 0 {
		return "", llm.NewProviderError(ProviderName, llm.ErrMalformedResponse, 0, fmt.Errorf("empty choices"))
	}

	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", llm.NewProviderError(ProviderName, llm.ErrMalformedResponse, 0,
			fmt.Errorf("empty content (finish_reason=%s)", completion.Choices[0].FinishReason))
	}
	return content, nil
}

func classify(err error) error {
	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) {
		return llm.NewProviderError(ProviderName, llm.KindForStatus(apiErr.StatusCode), apiErr.StatusCode, err)
	}
	return llm.Classify(ProviderName, err)
}
