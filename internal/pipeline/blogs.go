package pipeline

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/mohammad-safakhou/briefer/internal/helpers"
	"github.com/mohammad-safakhou/briefer/internal/summarize"
	"github.com/mohammad-safakhou/briefer/internal/telemetry"
	"github.com/mohammad-safakhou/briefer/models"
	"github.com/mohammad-safakhou/briefer/tools/web_fetch"
	"github.com/mohammad-safakhou/briefer/tools/web_search"
)

// Blogs searches blog hosts per keyword, fetches each post and keeps the
// summaries relevant to the keyword that found them.
type Blogs struct {
	Synonyms   SynonymFinder
	Search     web_search.WebSearcher
	Fetcher    web_fetch.WebFetcher
	Summarizer Summarizer
	Sites      []string
	PerKeyword int
	Delay      time.Duration
	Allowed    func(string) bool
	Metrics    *telemetry.Metrics
	Logger     *log.Logger
}

func (p *Blogs) Kind() models.Kind { return models.KindBlog }

func (p *Blogs) Run(ctx context.Context, req Request) ([]models.Item, error) {
	start := time.Now()
	defer func() { p.Metrics.ObserveRun(string(models.KindBlog), time.Since(start)) }()
	req = req.normalized()
	logger := p.logger()
	per := p.PerKeyword
	if per <= 0 {
		per = 20
	}

	var items []models.Item
	seen := map[string]struct{}{}
	for _, kw := range keywords(ctx, p.Synonyms, req, logger) {
		if ctx.Err() != nil {
			return items, ctx.Err()
		}
		results, err := p.Search.Discover(ctx, kw, per, p.Sites, req.Days)
		if err != nil {
			logger.Printf("search %q failed: %v", kw, err)
			continue
		}
		docs := make([]models.Document, 0, len(results))
		for _, r := range results {
			if _, dup := seen[helpers.DedupKey(r.URL)]; dup {
				continue
			}
			docs = append(docs, models.Document{Title: r.Title, URL: r.URL, Kind: models.KindBlog, Keyword: kw, Source: host(r.URL)})
		}
		p.Metrics.Items(string(models.KindBlog), telemetry.StageFetched, len(docs))
		docs = web_fetch.ProcessAll(ctx, p.Fetcher, docs, p.Delay, p.Allowed)

		for i, doc := range docs {
			text := strings.TrimSpace(doc.FullText)
			if text == "" {
				logger.Printf("[%d] %s: no body, skipped", i+1, doc.Title)
				p.Metrics.Item(string(models.KindBlog), telemetry.StageSkipped)
				continue
			}
			key := helpers.DedupKey(doc.URL)
			if _, dup := seen[key]; dup {
				logger.Printf("[%d] %s: already processed", i+1, doc.Title)
				continue
			}
			seen[key] = struct{}{}

			summary, err := p.Summarizer.Summarize(ctx, text, summarize.Options{RelevanceKeyword: kw})
			if errors.Is(err, summarize.ErrNotRelevant) {
				logger.Printf("[%d] %s: not related to %q", i+1, doc.Title, kw)
				p.Metrics.Item(string(models.KindBlog), telemetry.StageSkipped)
				continue
			}
			if err != nil {
				logger.Printf("[%d] summarize failed: %v", i+1, err)
				p.Metrics.Item(string(models.KindBlog), telemetry.StageFailed)
				continue
			}
			p.Metrics.Item(string(models.KindBlog), telemetry.StageSummarized)
			items = append(items, models.ItemFromDocument(doc, summary))
		}
	}
	return items, nil
}

var blogsLogger = log.New(log.Writer(), "[BLOGS] ", log.LstdFlags)

func (p *Blogs) logger() *log.Logger {
	if p.Logger == nil {
		return blogsLogger
	}
	return p.Logger
}

func host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
