package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Request is a single generation call. It is built fresh per pass and never
// mutated after it has been handed to a provider.
type Request struct {
	SystemContext   string
	UserContext     string
	MaxOutputTokens int
	ProviderHint    string

	// Subject is not sent to providers. It lets fallbacks that cannot reach a
	// model still describe what was asked for.
	Subject Subject
}

// Subject is the request metadata available to offline fallbacks.
type Subject struct {
	CharacterName   string
	ProductionTitle string
	ProductionType  string
	SceneExcerpt    string
	Variant         string
}

// Messages renders the request as a system + user chat history for
// chat-completion style backends.
func (r Request) Messages() []Message {
	messages := make([]Message, 0, 2)
	if r.SystemContext != "" {
		messages = append(messages, Message{Role: "system", Content: r.SystemContext})
	}
	messages = append(messages, Message{Role: "user", Content: r.UserContext})
	return messages
}

// Provider defines the contract for any generation backend.
//
// Call returns plain text or a *ProviderError classified as one of
// ErrAuth, ErrQuota, ErrTransient or ErrMalformedResponse.
type Provider interface {
	Name() string
	Call(ctx context.Context, req Request) (string, error)
}
