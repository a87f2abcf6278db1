package summarize

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/briefer/tools/embedding"
)

var (
	ErrNotRelevant = errors.New("summary not relevant to keyword")
	ErrEmptyText   = errors.New("empty text")
)

// Model is a pretrained text-to-text model (summarization or translation).
type Model interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Options tune one Summarize call.
type Options struct {
	// FocusKeywords restricts the input to sentences mentioning any keyword.
	FocusKeywords []string
	// Dedupe removes repeated sentences from the final summary.
	Dedupe bool
	// RelevanceKeyword, when set, rejects summaries whose embedding is not
	// similar enough to the keyword.
	RelevanceKeyword string
}

// Hierarchical summarizes long texts by chunking them under a token budget,
// summarizing each chunk and then summarizing the joined chunk summaries.
type Hierarchical struct {
	Model      Model
	Counter    TokenCounter
	MaxTokens  int
	MaxDepth   int
	Embedder   embedding.Embedder
	Threshold  float64
	Translator Model

	logger *log.Logger
}

func NewHierarchical(model Model, maxTokens, maxDepth int) *Hierarchical {
	return &Hierarchical{
		Model:     model,
		Counter:   HeuristicCounter{},
		MaxTokens: maxTokens,
		MaxDepth:  maxDepth,
		logger:    log.New(log.Writer(), "[SUMMARIZE] ", log.LstdFlags),
	}
}

func (h *Hierarchical) log(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}

func (h *Hierarchical) Summarize(ctx context.Context, text string, opts Options) (string, error) {
	if len(opts.FocusKeywords) > 0 {
		text = ExtractKeywordSentences(text, opts.FocusKeywords)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	counter := h.counter()

	chunks := GroupByTokenLimit(SplitSentences(text), counter, h.MaxTokens)
	parts, err := h.summarizeAll(ctx, chunks, 0)
	if err != nil {
		return "", err
	}

	var final string
	if len(parts) == 1 {
		final = parts[0]
	} else {
		final, err = h.reduce(ctx, parts, counter, 1)
		if err != nil {
			return "", err
		}
	}

	if opts.Dedupe {
		final = RemoveDuplicateSentences(final)
	}
	final = strings.TrimSpace(strings.ReplaceAll(final, "\n", " "))

	if h.Translator != nil && final != "" {
		translated, err := h.Translator.Summarize(ctx, final)
		if err != nil {
			return "", fmt.Errorf("translate summary: %w", err)
		}
		final = strings.TrimSpace(strings.ReplaceAll(translated, "\n", " "))
	}

	if opts.RelevanceKeyword != "" && h.Embedder != nil {
		ok, score, err := h.relevant(ctx, final, opts.RelevanceKeyword)
		if err != nil {
			return "", err
		}
		h.log("similarity %.4f (keyword %q)", score, opts.RelevanceKeyword)
		if !ok {
			return "", ErrNotRelevant
		}
	}
	return final, nil
}

// reduce joins parts and summarizes the join when it fits the budget. An
// oversize join is re-split and summarized again until maxDepth is reached,
// after which the join is returned as is.
func (h *Hierarchical) reduce(ctx context.Context, parts []string, counter TokenCounter, depth int) (string, error) {
	combined := strings.Join(parts, " ")
	tokens := counter.Count(combined)
	h.log("depth %d: %d partial summaries, %d tokens", depth, len(parts), tokens)
	if tokens <= h.MaxTokens {
		return h.Model.Summarize(ctx, combined)
	}
	if depth >= h.MaxDepth {
		h.log("depth limit reached, keeping combined summary")
		return combined, nil
	}
	chunks := GroupByTokenLimit(SplitSentences(combined), counter, h.MaxTokens)
	next, err := h.summarizeAll(ctx, chunks, depth)
	if err != nil {
		return "", err
	}
	return h.reduce(ctx, next, counter, depth+1)
}

func (h *Hierarchical) summarizeAll(ctx context.Context, chunks []string, depth int) ([]string, error) {
	out := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		h.log("depth %d: chunk %d/%d", depth, i+1, len(chunks))
		chunk = truncateTokens(h.counter(), chunk, h.MaxTokens)
		s, err := h.Model.Summarize(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("summarize chunk %d: %w", i+1, err)
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, nil
}

func (h *Hierarchical) relevant(ctx context.Context, summary, keyword string) (bool, float64, error) {
	vecs, err := h.Embedder.Embed(ctx, []string{summary, keyword})
	if err != nil {
		return false, 0, fmt.Errorf("embed for relevance: %w", err)
	}
	if len(vecs) != 2 {
		return false, 0, embedding.ErrCountMismatch
	}
	score := embedding.Cosine(vecs[0], vecs[1])
	return score >= h.Threshold, score, nil
}

func (h *Hierarchical) counter() TokenCounter {
	if h.Counter == nil {
		return HeuristicCounter{}
	}
	return h.Counter
}

// truncateTokens cuts text to the longest rune prefix within maxTokens, the
// way a tokenizer with truncation enabled would.
func truncateTokens(counter TokenCounter, text string, maxTokens int) string {
	if maxTokens <= 0 || counter.Count(text) <= maxTokens {
		return text
	}
	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if counter.Count(string(runes[:mid])) <= maxTokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:lo])
}
