package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/briefer/internal/summarize"
	"github.com/mohammad-safakhou/briefer/internal/telemetry"
	"github.com/mohammad-safakhou/briefer/models"
	"github.com/mohammad-safakhou/briefer/tools/web_fetch"
)

// NewsSource lists recent articles for keywords.
type NewsSource interface {
	Fetch(ctx context.Context, keywords []string, days int, language string) ([]models.Document, error)
}

// News collects articles, fetches their full text and summarizes them
// focused on the keyword sentences.
type News struct {
	Synonyms   SynonymFinder
	Source     NewsSource
	Fetcher    web_fetch.WebFetcher
	Summarizer Summarizer
	Language   string
	Delay      time.Duration
	Allowed    func(string) bool
	Metrics    *telemetry.Metrics
	Logger     *log.Logger
}

func (p *News) Kind() models.Kind { return models.KindNews }

func (p *News) Run(ctx context.Context, req Request) ([]models.Item, error) {
	start := time.Now()
	defer func() { p.Metrics.ObserveRun(string(models.KindNews), time.Since(start)) }()
	req = req.normalized()
	logger := p.logger()

	kws := keywords(ctx, p.Synonyms, req, logger)
	logger.Printf("keywords: %s", strings.Join(kws, ", "))
	docs, err := p.Source.Fetch(ctx, kws, req.Days, p.Language)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	p.Metrics.Items(string(models.KindNews), telemetry.StageFetched, len(docs))
	docs = web_fetch.ProcessAll(ctx, p.Fetcher, docs, p.Delay, p.Allowed)

	var items []models.Item
	for i, doc := range docs {
		if ctx.Err() != nil {
			return items, ctx.Err()
		}
		text := strings.TrimSpace(doc.FullText)
		if text == "" {
			logger.Printf("[%d] %s: no body, skipped", i+1, doc.Title)
			p.Metrics.Item(string(models.KindNews), telemetry.StageSkipped)
			continue
		}
		logger.Printf("[%d] %s (%d chars)", i+1, doc.Title, len([]rune(text)))
		summary, err := p.Summarizer.Summarize(ctx, text, summarize.Options{FocusKeywords: kws, Dedupe: true})
		if err != nil {
			logger.Printf("[%d] summarize failed: %v", i+1, err)
			p.Metrics.Item(string(models.KindNews), telemetry.StageFailed)
			continue
		}
		p.Metrics.Item(string(models.KindNews), telemetry.StageSummarized)
		items = append(items, models.ItemFromDocument(doc, summary))
	}
	return items, nil
}

var newsLogger = log.New(log.Writer(), "[NEWS] ", log.LstdFlags)

func (p *News) logger() *log.Logger {
	if p.Logger == nil {
		return newsLogger
	}
	return p.Logger
}
