package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/mohammad-safakhou/briefer/config"
	openai_provider "github.com/mohammad-safakhou/briefer/provider/openai"
	"github.com/sashabaranov/go-openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI Client = "openai"
)

var ErrMissingAPIKey = errors.New("llm api key not set")

// LLM is the interface that all chat model implementations must satisfy.
type LLM interface {
	Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool, temperature float32) (openai.ChatCompletionMessage, error)
	Model() string
}

// NewLLM creates a chat client from configuration.
func NewLLM(cfg config.LLMConfig) (LLM, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	return openai_provider.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.ChatModel, 0, cfg.Timeout), nil
}

// Ask runs a single system+user exchange and returns the trimmed reply.
func Ask(ctx context.Context, llm LLM, system, user string, temperature float32) (string, error) {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user})
	msg, err := llm.Chat(ctx, messages, nil, temperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(msg.Content), nil
}
