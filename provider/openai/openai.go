package openai_provider

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// client implements the chat interface using OpenAI's API
type client struct {
	api             *openai.Client
	completionModel string
	maxTokens       int
	logger          *log.Logger
}

// NewOpenAIClient creates a new OpenAI chat client. baseURL may be empty.
func NewOpenAIClient(apiKey, baseURL, completionModel string, maxTokens int, timeout time.Duration) *client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &client{
		api:             openai.NewClientWithConfig(cfg),
		completionModel: completionModel,
		maxTokens:       maxTokens,
		logger:          log.New(log.Writer(), "[OPENAI] ", log.LstdFlags),
	}
}

// Chat sends one chat completion round and returns the assistant message,
// which may carry tool calls instead of content.
func (c *client) Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool, temperature float32) (openai.ChatCompletionMessage, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.completionModel,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
	}
	// the API treats an omitted temperature as 1
	if temperature == 0 {
		req.Temperature = math.SmallestNonzeroFloat32
	}
	if len(tools) > 0 {
		req.Tools = tools
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion: %w", err)
	}
	c.logger.Printf("model=%s messages=%d tokens=%d took=%s", c.completionModel, len(messages), resp.Usage.TotalTokens, time.Since(start).Round(time.Millisecond))
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, errors.New("no choices in response")
	}
	return resp.Choices[0].Message, nil
}

func (c *client) Model() string { return c.completionModel }
