package demo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Chat roles accepted by ChatCompleter implementations.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatMessage is one entry of a chat completion conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatRequest describes a single chat completion. Zero Temperature and
// MaxTokens leave the model defaults in place.
type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int
}

// ChatCompleter produces one completion for a conversation. The joke and
// search tools run on it; tests substitute a canned implementation.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// OpenAICompleter implements ChatCompleter on the OpenAI chat completions
// API. When the config carries an Azure endpoint it talks to that deployment
// instead of the public API.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter creates an OpenAICompleter from the demo configuration.
func NewOpenAICompleter(cfg Config) *OpenAICompleter {
	var clientCfg openai.ClientConfig
	if cfg.AzureEndpoint != "" {
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.AzureEndpoint)
		if cfg.AzureAPIVersion != "" {
			clientCfg.APIVersion = cfg.AzureAPIVersion
		}
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
	}

	return &OpenAICompleter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Complete implements ChatCompleter.
func (o *OpenAICompleter) Complete(ctx context.Context, req ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}

	res, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return strings.TrimSpace(res.Choices[0].Message.Content), nil
}
