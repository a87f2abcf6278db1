package web_search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/briefer/config"
	"github.com/mohammad-safakhou/briefer/tools/web_search/brave"
	"github.com/mohammad-safakhou/briefer/tools/web_search/google"
	"github.com/mohammad-safakhou/briefer/tools/web_search/models"
	"github.com/mohammad-safakhou/briefer/tools/web_search/serper"
	"github.com/mohammad-safakhou/briefer/utils"
)

// WebSearcher discovers up to k results for q. sites restricts result hosts
// and recency limits results to the last n days (0 means unlimited).
type WebSearcher interface {
	Discover(ctx context.Context, q string, k int, sites []string, recency int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
	GoogleProvider Provider = "google"
)

type Error struct{ msg string }

func (e *Error) Error() string { return e.msg }

var ErrUnsupportedProvider = &Error{"unsupported provider"}

// NewWebSearcher builds the searcher used for general web queries.
func NewWebSearcher(provider Provider, cfg config.SourcesConfig) (WebSearcher, error) {
	client := utils.NewHTTPClient(cfg.WebSearch.Timeout, 1, 500*time.Millisecond)
	switch provider {
	case SerperProvider:
		return serper.Search{ApiKey: cfg.WebSearch.SerperAPIKey, HTTP: client}, nil
	case BraveProvider:
		return brave.Search{ApiKey: cfg.WebSearch.BraveAPIKey, HTTP: client}, nil
	case GoogleProvider:
		return NewBlogSearcher(cfg), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// NewBlogSearcher builds the Google Custom Search client used for blog discovery.
func NewBlogSearcher(cfg config.SourcesConfig) *google.Search {
	return &google.Search{
		ApiKey:   cfg.Google.APIKey,
		CX:       cfg.Google.CX,
		Endpoint: cfg.Google.Endpoint,
		HTTP:     utils.NewHTTPClient(cfg.WebSearch.Timeout, 1, 500*time.Millisecond),
		PageWait: time.Second,
	}
}

// FormatMarkdown renders results as "🔗 [title](url)" lines followed by the snippet.
func FormatMarkdown(results []models.Result) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("🔗 [%s](%s)\n%s", r.Title, r.URL, r.Snippet))
	}
	return strings.Join(blocks, "\n\n")
}
