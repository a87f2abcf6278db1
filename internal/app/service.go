package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mohammad-safakhou/briefer/internal/agent"
	"github.com/mohammad-safakhou/briefer/internal/index"
	"github.com/mohammad-safakhou/briefer/internal/pipeline"
	"github.com/mohammad-safakhou/briefer/models"
)

// Brief runs the briefing agent and saves the result. Refusals and answers
// without items are returned unsaved, with an empty ID.
func (a *App) Brief(ctx context.Context, prompt string, n int, country string) (models.Briefing, error) {
	res, err := a.Briefing.Run(ctx, prompt, n, country)
	if err != nil {
		return models.Briefing{}, err
	}
	b := models.Briefing{
		Prompt:    prompt,
		Country:   country,
		Answer:    res.Answer,
		Items:     res.Items,
		CreatedAt: time.Now().UTC(),
	}
	if res.Refused || len(b.Items) == 0 {
		return b, nil
	}
	id, err := a.Repo.Save(ctx, b)
	if err != nil {
		return b, fmt.Errorf("save briefing: %w", err)
	}
	b.ID = id
	return b, nil
}

func (a *App) List(ctx context.Context, limit int) ([]models.BriefingSummary, error) {
	return a.Repo.List(ctx, limit)
}

func (a *App) Get(ctx context.Context, id string) (models.Briefing, error) {
	return a.Repo.Get(ctx, id)
}

// Reply answers a chat message with the chat agent.
func (a *App) Reply(ctx context.Context, message string, history []agent.Turn) (string, error) {
	return a.Chat.Reply(ctx, message, history)
}

// Crawl runs a single pipeline directly, bypassing the agent.
func (a *App) Crawl(ctx context.Context, kind models.Kind, req pipeline.Request) ([]models.Item, error) {
	p, ok := a.Pipelines[kind]
	if !ok {
		return nil, fmt.Errorf("no pipeline for %s", kind)
	}
	return p.Run(ctx, req)
}

// SaveItems stores directly crawled items as a briefing.
func (a *App) SaveItems(ctx context.Context, prompt, country string, items []models.Item) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	return a.Repo.Save(ctx, models.Briefing{Prompt: prompt, Country: country, Items: items, CreatedAt: time.Now().UTC()})
}

// Rebuild re-chunks and re-embeds every saved briefing into the configured
// index backend and returns the chunk count.
func (a *App) Rebuild(ctx context.Context) (int, error) {
	ic := a.Config.Index
	splitter := index.NewCharacterSplitter(ic.ChunkSize, ic.ChunkOverlap)
	ix, err := index.BuildFromDir(ctx, a.Embedder, splitter, a.Config.General.DataDir)
	if errors.Is(err, index.ErrEmptyCorpus) {
		a.logger.Printf("warning: no documents under %s to index", a.Config.General.DataDir)
		return 0, err
	}
	if err != nil {
		return 0, err
	}
	n := len(ix.Chunks)
	if a.PGIndex != nil {
		defer ix.Close()
		if err := a.PGIndex.Replace(ctx, ix); err != nil {
			return 0, err
		}
		a.logger.Printf("indexed %d chunks into postgres", n)
		return n, nil
	}
	if err := ix.Save(ic.Path); err != nil {
		_ = ix.Close()
		return 0, err
	}
	a.Index.Swap(ix)
	a.logger.Printf("indexed %d chunks into %s", n, ic.Path)
	return n, nil
}

// LiveIndex lets a rebuilt file index replace the one in use while the
// retriever keeps serving.
type LiveIndex struct {
	mu sync.RWMutex
	ix *index.Index
}

// Swap installs ix and closes the previous index.
func (l *LiveIndex) Swap(ix *index.Index) {
	l.mu.Lock()
	old := l.ix
	l.ix = ix
	l.mu.Unlock()
	if old != nil && old != ix {
		_ = old.Close()
	}
}

func (l *LiveIndex) current() *index.Index {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ix
}

func (l *LiveIndex) Count(ctx context.Context, source models.Kind) (int, error) {
	ix := l.current()
	if ix == nil {
		return 0, nil
	}
	return ix.Count(ctx, source)
}

func (l *LiveIndex) MMR(ctx context.Context, q string, k, fetchK int, lambda float64, filter models.Kind) ([]index.Hit, error) {
	ix := l.current()
	if ix == nil {
		return nil, nil
	}
	return ix.MMR(ctx, q, k, fetchK, lambda, filter)
}
