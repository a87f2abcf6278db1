package pipeline

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/briefer/internal/summarize"
	"github.com/mohammad-safakhou/briefer/internal/telemetry"
	"github.com/mohammad-safakhou/briefer/models"
	"github.com/mohammad-safakhou/briefer/tools/paper/arxiv"
)

// PaperSource lists recent papers for a keyword.
type PaperSource interface {
	Recent(ctx context.Context, keyword string, days, maxResults int) ([]arxiv.Paper, error)
}

// BodyExtractor pulls the body text out of a paper PDF.
type BodyExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Papers downloads the newest papers per keyword and summarizes their bodies.
type Papers struct {
	Synonyms   SynonymFinder
	Source     PaperSource
	PDF        BodyExtractor
	Summarizer Summarizer
	PerKeyword int
	Metrics    *telemetry.Metrics
	Logger     *log.Logger
}

func (p *Papers) Kind() models.Kind { return models.KindPaper }

func (p *Papers) Run(ctx context.Context, req Request) ([]models.Item, error) {
	start := time.Now()
	defer func() { p.Metrics.ObserveRun(string(models.KindPaper), time.Since(start)) }()
	req = req.normalized()
	logger := p.logger()

	var items []models.Item
	seen := map[string]struct{}{}
	for _, kw := range keywords(ctx, p.Synonyms, req, logger) {
		if ctx.Err() != nil {
			return items, ctx.Err()
		}
		papers, err := p.Source.Recent(ctx, kw, req.Days, p.PerKeyword)
		if err != nil {
			logger.Printf("arxiv %q failed: %v", kw, err)
			continue
		}
		p.Metrics.Items(string(models.KindPaper), telemetry.StageFetched, len(papers))
		for i, paper := range papers {
			link := "https://arxiv.org/abs/" + paper.ID
			if _, dup := seen[link]; dup {
				logger.Printf("[%d] %s: already processed", i+1, paper.Title)
				continue
			}
			body, err := p.PDF.Extract(ctx, paper.PDFURL)
			if err != nil || strings.TrimSpace(body) == "" {
				logger.Printf("[%d] %s: no body, skipped (%v)", i+1, paper.Title, err)
				p.Metrics.Item(string(models.KindPaper), telemetry.StageSkipped)
				continue
			}
			seen[link] = struct{}{}

			summary, err := p.Summarizer.Summarize(ctx, body, summarize.Options{})
			if err != nil {
				logger.Printf("[%d] summarize failed: %v", i+1, err)
				p.Metrics.Item(string(models.KindPaper), telemetry.StageFailed)
				continue
			}
			p.Metrics.Item(string(models.KindPaper), telemetry.StageSummarized)
			doc := models.Document{
				Title:       strings.Join(strings.Fields(paper.Title), " "),
				URL:         link,
				Source:      "arXiv",
				Kind:        models.KindPaper,
				PublishedAt: paper.Published,
				Keyword:     kw,
			}
			items = append(items, models.ItemFromDocument(doc, summary))
		}
	}
	return items, nil
}

var papersLogger = log.New(log.Writer(), "[PAPERS] ", log.LstdFlags)

func (p *Papers) logger() *log.Logger {
	if p.Logger == nil {
		return papersLogger
	}
	return p.Logger
}
