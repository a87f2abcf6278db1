package index

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/briefer/models"
	"github.com/mohammad-safakhou/briefer/provider"
)

const minUsefulChars = 50

// Searcher is what the retriever needs from an index backend.
type Searcher interface {
	Count(ctx context.Context, source models.Kind) (int, error)
	MMR(ctx context.Context, q string, k, fetchK int, lambda float64, filter models.Kind) ([]Hit, error)
}

// Retriever answers questions from one source of the index.
type Retriever struct {
	Index       Searcher
	LLM         provider.LLM
	K           int
	FetchK      int
	Lambda      float64
	Temperature float32
	Logger      *log.Logger
}

func NewRetriever(idx Searcher, llm provider.LLM) *Retriever {
	return &Retriever{
		Index:       idx,
		LLM:         llm,
		K:           3,
		FetchK:      20,
		Lambda:      0.5,
		Temperature: 0.3,
		Logger:      log.New(log.Writer(), "[RAG] ", log.LstdFlags),
	}
}

func NoDocumentsMessage(source models.Kind) string {
	return fmt.Sprintf("⚠️ '%s' 소스에서 문서를 찾을 수 없습니다.", source)
}

func NoUsefulInfoMessage(source models.Kind) string {
	return fmt.Sprintf("🔎 '%s' 문서에서 유효한 정보를 찾지 못했습니다.", source)
}

// Answer runs retrieval restricted to source and asks the LLM to answer from
// the retrieved chunks. Missing or uninformative context yields a fixed
// message instead of an LLM call.
func (r *Retriever) Answer(ctx context.Context, query string, source models.Kind) (string, error) {
	if r.Index == nil {
		return NoDocumentsMessage(source), nil
	}
	n, err := r.Index.Count(ctx, source)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return NoDocumentsMessage(source), nil
	}
	hits, err := r.Index.MMR(ctx, query, r.K, r.FetchK, r.Lambda, source)
	if err != nil {
		return "", fmt.Errorf("retrieve %s: %w", source, err)
	}
	r.Logger.Printf("%d chunks retrieved for %s", len(hits), source)
	useful := false
	for _, h := range hits {
		if len([]rune(strings.TrimSpace(h.Text))) >= minUsefulChars {
			useful = true
			break
		}
	}
	if !useful {
		return NoUsefulInfoMessage(source), nil
	}

	var ctxText strings.Builder
	for i, h := range hits {
		if i > 0 {
			ctxText.WriteString("\n\n")
		}
		ctxText.WriteString(h.Text)
	}
	system := "Use the following pieces of context to answer the question at the end. " +
		"If you don't know the answer, just say that you don't know, don't try to make up an answer.\n\n" +
		ctxText.String()
	return provider.Ask(ctx, r.LLM, system, query, r.Temperature)
}
