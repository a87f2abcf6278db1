package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sashabaranov/go-openai"
)

var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// Tool is a function the model may call. Parameters is a JSON schema object
// that arguments are validated against before Run is invoked.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Run         func(ctx context.Context, args map[string]any) (string, error)
}

// Toolbox holds tools with their compiled argument schemas.
type Toolbox struct {
	order   []string
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
}

func NewToolbox(tools ...Tool) (*Toolbox, error) {
	tb := &Toolbox{tools: map[string]Tool{}, schemas: map[string]*jsonschema.Schema{}}
	for _, t := range tools {
		if _, dup := tb.tools[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.Name)
		}
		raw, err := json.Marshal(t.Parameters)
		if err != nil {
			return nil, fmt.Errorf("marshal schema %s: %w", t.Name, err)
		}
		compiler := jsonschema.NewCompiler()
		res := t.Name + ".json"
		if err := compiler.AddResource(res, strings.NewReader(string(raw))); err != nil {
			return nil, fmt.Errorf("add schema resource %s: %w", t.Name, err)
		}
		schema, err := compiler.Compile(res)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", t.Name, err)
		}
		tb.order = append(tb.order, t.Name)
		tb.tools[t.Name] = t
		tb.schemas[t.Name] = schema
	}
	return tb, nil
}

// Definitions renders the tools for a chat completion request.
func (tb *Toolbox) Definitions() []openai.Tool {
	out := make([]openai.Tool, 0, len(tb.order))
	for _, name := range tb.order {
		t := tb.tools[name]
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// Call validates rawArgs and runs the named tool.
func (tb *Toolbox) Call(ctx context.Context, name, rawArgs string) (string, error) {
	t, ok := tb.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if strings.TrimSpace(rawArgs) == "" {
		rawArgs = "{}"
	}
	var doc interface{}
	if err := json.Unmarshal([]byte(rawArgs), &doc); err != nil {
		return "", fmt.Errorf("%w: %s is not valid JSON: %v", ErrInvalidArguments, name, err)
	}
	if err := tb.schemas[name].Validate(doc); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidArguments, name, err)
	}
	args, _ := doc.(map[string]any)
	return t.Run(ctx, args)
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(math.Round(v))
	case int:
		return v
	}
	return def
}
