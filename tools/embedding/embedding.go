package embedding

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/mohammad-safakhou/briefer/config"
	"github.com/sashabaranov/go-openai"
)

// Embedder turns texts into dense vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

type Provider string

const (
	OpenAIProvider      Provider = "openai"
	CohereProvider      Provider = "cohere"
	HuggingFaceProvider Provider = "huggingface"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
	ErrCountMismatch       = errors.New("embedding count mismatch")
)

// NewEmbedder builds the configured embedder. OpenAI reuses the llm credentials
// and HuggingFace the summarizer's Inference API settings.
func NewEmbedder(cfg config.EmbeddingConfig, llm config.LLMConfig, hf config.HuggingFaceConfig) (Embedder, error) {
	switch Provider(cfg.Provider) {
	case OpenAIProvider:
		oc := openai.DefaultConfig(llm.APIKey)
		if llm.BaseURL != "" {
			oc.BaseURL = llm.BaseURL
		}
		return NewOpenAI(openai.NewClientWithConfig(oc), cfg.Model), nil
	case CohereProvider:
		client := cohereclient.NewClient(
			cohereclient.WithToken(cfg.CohereAPIKey),
			cohereclient.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		)
		return NewCohere(client, cfg.Model), nil
	case HuggingFaceProvider:
		return NewHuggingFace(hf.Endpoint, hf.APIKey, cfg.Model, hf.Timeout), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, ErrCountMismatch
	}
	return vecs[0], nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty
// or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
