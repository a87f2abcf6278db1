package pipeline

import (
	"context"
	"log"
	"strings"

	"github.com/mohammad-safakhou/briefer/internal/summarize"
	"github.com/mohammad-safakhou/briefer/models"
)

// Request is one crawl: keyword expanded to N synonyms, looking back Days.
type Request struct {
	Keyword string
	Days    int
	N       int
	Country string
}

func (r Request) normalized() Request {
	r.Keyword = strings.TrimSpace(r.Keyword)
	if r.Days <= 0 {
		r.Days = 1
	}
	if r.N <= 0 {
		r.N = 1
	}
	if r.Country == "" {
		r.Country = "Korea"
	}
	return r
}

// Pipeline crawls and summarizes one kind of source.
type Pipeline interface {
	Kind() models.Kind
	Run(ctx context.Context, req Request) ([]models.Item, error)
}

// SynonymFinder expands a keyword into search terms.
type SynonymFinder interface {
	Find(ctx context.Context, keyword string, n int, country string) ([]string, error)
}

// Summarizer turns a document body into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string, opts summarize.Options) (string, error)
}

// Set groups the pipelines by kind.
type Set map[models.Kind]Pipeline

func NewSet(ps ...Pipeline) Set {
	s := Set{}
	for _, p := range ps {
		if p != nil {
			s[p.Kind()] = p
		}
	}
	return s
}

// keywords falls back to the bare keyword when synonym expansion fails.
func keywords(ctx context.Context, f SynonymFinder, req Request, logger *log.Logger) []string {
	if f == nil || req.N <= 1 {
		return []string{req.Keyword}
	}
	kws, err := f.Find(ctx, req.Keyword, req.N, req.Country)
	if err != nil || len(kws) == 0 {
		logger.Printf("synonyms for %q failed, using keyword only: %v", req.Keyword, err)
		return []string{req.Keyword}
	}
	return kws
}
