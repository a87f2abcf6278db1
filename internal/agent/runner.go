package agent

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/briefer/internal/telemetry"
	"github.com/mohammad-safakhou/briefer/provider"
	"github.com/sashabaranov/go-openai"
)

var ErrMaxIterations = errors.New("agent stopped after max iterations")

// Runner drives the function-calling loop: the model either answers or asks
// for tool calls, whose results are fed back until it answers.
type Runner struct {
	LLM           provider.LLM
	Tools         *Toolbox
	MaxIterations int
	Temperature   float32
	Metrics       *telemetry.Metrics
	Logger        *log.Logger
}

func (r *Runner) Run(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	limit := r.MaxIterations
	if limit <= 0 {
		limit = 5
	}
	logger := r.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	}
	var defs []openai.Tool
	if r.Tools != nil {
		defs = r.Tools.Definitions()
	}
	msgs := append([]openai.ChatCompletionMessage(nil), messages...)

	for i := 0; i < limit; i++ {
		reply, err := r.LLM.Chat(ctx, msgs, defs, r.Temperature)
		if err != nil {
			return "", fmt.Errorf("agent chat: %w", err)
		}
		if len(reply.ToolCalls) == 0 {
			return reply.Content, nil
		}
		msgs = append(msgs, reply)
		for _, call := range reply.ToolCalls {
			logger.Printf("tool %s %s", call.Function.Name, call.Function.Arguments)
			out, err := r.Tools.Call(ctx, call.Function.Name, call.Function.Arguments)
			r.Metrics.ToolCall(call.Function.Name, err)
			if err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				logger.Printf("tool %s failed: %v", call.Function.Name, err)
				out = "error: " + err.Error()
			}
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    out,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			})
		}
	}
	return "", ErrMaxIterations
}
