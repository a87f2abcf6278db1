package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/mohammad-safakhou/briefer/config"
	"github.com/sashabaranov/go-openai"
)

func TestCosine(t *testing.T) {
	if got := Cosine([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical vectors: %v", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors: %v", got)
	}
	if got := Cosine([]float32{1}, []float32{1, 2}); got != 0 {
		t.Fatalf("length mismatch should be 0, got %v", got)
	}
	if got := Cosine([]float32{0, 0}, []float32{1, 2}); got != 0 {
		t.Fatalf("zero vector should be 0, got %v", got)
	}
}

func TestOpenAIEmbedOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0, 1}},
				{"index": 0, "embedding": []float32{1, 0}},
			},
		})
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test")
	cfg.BaseURL = srv.URL
	e := NewOpenAI(openai.NewClientWithConfig(cfg), "text-embedding-3-small")
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Fatalf("unexpected order %v", vecs)
	}
}

func TestHuggingFaceEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sentence-transformers/mini/pipeline/feature-extraction" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer hf" {
			t.Errorf("missing auth header")
		}
		_, _ = w.Write([]byte(`[[0.1,0.2],[0.3,0.4]]`))
	}))
	defer srv.Close()

	e := NewHuggingFace(srv.URL+"/", "hf", "sentence-transformers/mini", time.Second)
	vecs, err := EmbedOne(context.Background(), e, "x")
	if err == nil {
		t.Fatalf("expected count mismatch for one text, got %v", vecs)
	}
	all, err := e.Embed(context.Background(), []string{"x", "y"})
	if err != nil || len(all) != 2 {
		t.Fatalf("Embed: %v %v", all, err)
	}
}

func TestNewEmbedderUnsupported(t *testing.T) {
	_, err := NewEmbedder(config.EmbeddingConfig{Provider: "faiss"}, config.LLMConfig{}, config.HuggingFaceConfig{})
	if err != ErrUnsupportedProvider {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestCohereEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["input_type"] != "search_document" {
			t.Errorf("unexpected input type %v", req["input_type"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"e1","texts":["a"],"embeddings":{"float":[[0.5,0.25]]}}`))
	}))
	defer srv.Close()

	client := cohereclient.NewClient(cohereclient.WithToken("k"), cohereclient.WithBaseURL(srv.URL))
	vecs, err := NewCohere(client, "embed-multilingual-v3.0").Embed(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 1 || vecs[0][0] != 0.5 {
		t.Fatalf("unexpected vectors %v", vecs)
	}
}
