// Package app wires the configured components into one briefing service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/briefer/config"
	"github.com/mohammad-safakhou/briefer/internal/agent"
	"github.com/mohammad-safakhou/briefer/internal/index"
	"github.com/mohammad-safakhou/briefer/internal/pipeline"
	"github.com/mohammad-safakhou/briefer/internal/store"
	"github.com/mohammad-safakhou/briefer/internal/summarize"
	"github.com/mohammad-safakhou/briefer/internal/synonym"
	"github.com/mohammad-safakhou/briefer/internal/telemetry"
	"github.com/mohammad-safakhou/briefer/news/newsapi"
	"github.com/mohammad-safakhou/briefer/provider"
	"github.com/mohammad-safakhou/briefer/repository"
	"github.com/mohammad-safakhou/briefer/repository/file_repository"
	"github.com/mohammad-safakhou/briefer/repository/redis_repository"
	"github.com/mohammad-safakhou/briefer/repository/s3_repository"
	"github.com/mohammad-safakhou/briefer/tools/embedding"
	"github.com/mohammad-safakhou/briefer/tools/paper/arxiv"
	"github.com/mohammad-safakhou/briefer/tools/paper/pdftext"
	"github.com/mohammad-safakhou/briefer/tools/web_fetch"
	"github.com/mohammad-safakhou/briefer/tools/web_search"
	"github.com/redis/go-redis/v9"
)

// App holds every long-lived component built from Config.
type App struct {
	Config    *config.Config
	Metrics   *telemetry.Metrics
	LLM       provider.LLM
	Embedder  embedding.Embedder
	Redis     *redis.Client
	Cache     *redis_repository.Cache
	Store     *store.Store
	Files     *file_repository.FileRepository
	Repo      repository.BriefingRepository
	Pipelines pipeline.Set
	Briefing  *agent.BriefingAgent
	Chat      *agent.ChatAgent
	Retriever *index.Retriever
	Index     *LiveIndex
	PGIndex   *index.PGIndex

	logger *log.Logger
}

// New builds the application. Redis, Postgres and S3 are optional and only
// connected when configured.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:  cfg,
		Metrics: telemetry.New(cfg.Telemetry),
		logger:  log.New(log.Writer(), "[APP] ", log.LstdFlags),
	}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	llm, err := provider.NewLLM(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	a.LLM = llm

	emb, err := embedding.NewEmbedder(cfg.Embedding, cfg.LLM, cfg.Summarizer.HuggingFace)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	a.Embedder = emb

	if cfg.Storage.Redis.Enabled() {
		rdb, err := redis_repository.Conn(ctx, cfg.Storage.Redis)
		if err != nil {
			return nil, err
		}
		a.Redis = rdb
		a.Cache = redis_repository.NewCache(rdb)
	}
	if cfg.Storage.Postgres.Enabled() {
		st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.Store = st
	}

	if err := a.buildRepository(ctx); err != nil {
		return nil, err
	}
	if err := a.buildPipelines(); err != nil {
		return nil, err
	}
	if err := a.buildIndex(); err != nil {
		return nil, err
	}
	if err := a.buildAgents(); err != nil {
		return nil, err
	}
	ok = true
	return a, nil
}

func (a *App) buildRepository(ctx context.Context) error {
	files, err := file_repository.NewFileRepository(a.Config.General.DataDir)
	if err != nil {
		return err
	}
	a.Files = files
	multi := repository.NewMulti(files)
	if a.Store != nil {
		multi.Secondaries = append(multi.Secondaries, repository.Postgres{Store: a.Store})
	}
	if a.Config.Storage.S3.Enabled() {
		mirror, err := s3_repository.NewS3Mirror(ctx, a.Config.Storage.S3)
		if err != nil {
			return fmt.Errorf("s3: %w", err)
		}
		multi.Mirrors = append(multi.Mirrors, mirror)
	}
	a.Repo = multi
	return nil
}

func (a *App) cache() (synonym.Cache, web_fetch.Cache) {
	if a.Cache == nil {
		return nil, nil
	}
	return a.Cache, a.Cache
}

func (a *App) model(name string, params config.GenerationConfig) summarize.Model {
	sc := a.Config.Summarizer
	if sc.Provider == "openai" {
		return summarize.LLM{Client: a.LLM, Language: a.Config.Agent.AnswerLanguage}
	}
	return summarize.NewHuggingFace(sc.HuggingFace, name, params)
}

func (a *App) buildPipelines() error {
	cfg := a.Config
	sc := cfg.Summarizer
	synCache, fetchCache := a.cache()
	synonyms := synonym.NewFinder(a.LLM, synCache)

	fetcher, err := web_fetch.NewWebFetcher(cfg.Sources.Fetch)
	if err != nil {
		return fmt.Errorf("fetcher: %w", err)
	}
	if fetchCache != nil {
		fetcher = web_fetch.CachedFetcher{Next: fetcher, Cache: fetchCache, TTL: cfg.Sources.Fetch.CacheTTL}
	}
	allowed := cfg.Sources.Policy.Allowed

	newsSum := summarize.NewHierarchical(a.model(sc.NewsModel, sc.Generation), sc.MaxInputTokens, sc.MaxDepth)

	blogSum := summarize.NewHierarchical(a.model(sc.BlogModel, sc.Generation), sc.MaxInputTokens, sc.MaxDepth)
	blogSum.Embedder = a.Embedder
	blogSum.Threshold = sc.RelevanceThreshold

	paperSum := summarize.NewHierarchical(a.model(sc.PaperModel, sc.PaperGeneration), sc.PaperMaxTokens, sc.MaxDepth)
	if sc.TranslationModel != "" {
		paperSum.Translator = a.model(sc.TranslationModel, config.GenerationConfig{})
	}

	a.Pipelines = pipeline.NewSet(
		&pipeline.News{
			Synonyms:   synonyms,
			Source:     newsapi.NewNewsAPI(cfg.Sources.NewsAPI.APIKey, cfg.Sources.NewsAPI.Endpoint),
			Fetcher:    fetcher,
			Summarizer: newsSum,
			Language:   cfg.Sources.NewsAPI.Language,
			Delay:      cfg.Sources.Fetch.Delay,
			Allowed:    allowed,
			Metrics:    a.Metrics,
		},
		&pipeline.Blogs{
			Synonyms:   synonyms,
			Search:     web_search.NewBlogSearcher(cfg.Sources),
			Fetcher:    fetcher,
			Summarizer: blogSum,
			Sites:      cfg.Sources.Policy.BlogDomains,
			PerKeyword: cfg.Sources.Google.BlogsPerQuery,
			Delay:      cfg.Sources.Fetch.Delay,
			Allowed:    allowed,
			Metrics:    a.Metrics,
		},
		&pipeline.Papers{
			Synonyms:   synonyms,
			Source:     arxiv.NewClient(cfg.Sources.Arxiv.Endpoint, cfg.Sources.Arxiv.PDFTimeout),
			PDF:        pdftext.NewExtractor(cfg.Sources.Arxiv.PDFTimeout),
			Summarizer: paperSum,
			PerKeyword: cfg.Sources.Arxiv.PapersPerKeyword,
			Metrics:    a.Metrics,
		},
	)
	return nil
}

func (a *App) buildIndex() error {
	ic := a.Config.Index
	var searcher index.Searcher
	switch ic.Backend {
	case "postgres":
		if a.Store == nil {
			return errors.New("index.backend postgres requires storage.postgres")
		}
		a.PGIndex = &index.PGIndex{Store: a.Store, Embedder: a.Embedder}
		searcher = a.PGIndex
	default:
		a.Index = &LiveIndex{}
		ix, err := index.Load(ic.Path, a.Embedder)
		if err != nil {
			a.logger.Printf("no saved index at %s yet: %v", ic.Path, err)
		} else {
			a.Index.Swap(ix)
		}
		searcher = a.Index
	}
	r := index.NewRetriever(searcher, a.LLM)
	r.K = ic.TopK
	r.FetchK = ic.FetchK
	r.Lambda = ic.MMRLambda
	r.Temperature = float32(a.Config.Agent.ChatTemperature)
	a.Retriever = r
	return nil
}

func (a *App) buildAgents() error {
	ac := a.Config.Agent
	a.Briefing = &agent.BriefingAgent{
		LLM:           a.LLM,
		Pipelines:     a.Pipelines,
		MaxIterations: ac.MaxIterations,
		DefaultDays:   a.Config.General.DefaultDays,
		Refusal:       ac.RefusalMessage,
		Metrics:       a.Metrics,
	}
	chat := &agent.ChatAgent{
		LLM:           a.LLM,
		Retriever:     a.Retriever,
		WebResults:    ac.WebSearchResults,
		Language:      ac.AnswerLanguage,
		MaxIterations: ac.MaxIterations,
		Temperature:   float32(ac.ChatTemperature),
		Metrics:       a.Metrics,
	}
	web, err := web_search.NewWebSearcher(web_search.Provider(a.Config.Sources.WebSearch.Provider), a.Config.Sources)
	if err != nil {
		a.logger.Printf("web search disabled: %v", err)
	} else {
		chat.Web = web
	}
	a.Chat = chat
	return nil
}

// Close releases connections and the in-memory lexical index.
func (a *App) Close() {
	if a.Index != nil {
		a.Index.Swap(nil)
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
