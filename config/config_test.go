package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
  "general": {"synonym_range": 4},
  "sources": {"policy": {"blog_domains": ["velog.io"]}},
  "storage": {"postgres": {"url": "postgres://u:p@localhost:5432/briefer?sslmode=disable"}}
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.General.SynonymRange != 4 {
		t.Fatalf("expected synonym range 4, got %d", cfg.General.SynonymRange)
	}
	if cfg.General.DataDir != "database" || cfg.General.DefaultCountry != "Korea" {
		t.Fatalf("unexpected general defaults: %+v", cfg.General)
	}
	if cfg.Summarizer.MaxInputTokens != 1024 || cfg.Summarizer.MaxDepth != 2 {
		t.Fatalf("unexpected summarizer defaults: %+v", cfg.Summarizer)
	}
	if cfg.Summarizer.RelevanceThreshold != 0.1 {
		t.Fatalf("expected relevance threshold 0.1, got %v", cfg.Summarizer.RelevanceThreshold)
	}
	if cfg.Index.ChunkSize != 500 || cfg.Index.ChunkOverlap != 50 || cfg.Index.TopK != 3 {
		t.Fatalf("unexpected index defaults: %+v", cfg.Index)
	}
	if cfg.Sources.Fetch.Timeout != 15*time.Second {
		t.Fatalf("unexpected fetch timeout %v", cfg.Sources.Fetch.Timeout)
	}
	if cfg.Sources.Fetch.Delay != time.Second {
		t.Fatalf("expected 1s fetch delay, got %v", cfg.Sources.Fetch.Delay)
	}
	if cfg.Index.MMRLambda != 0.5 {
		t.Fatalf("expected mmr lambda 0.5, got %v", cfg.Index.MMRLambda)
	}
	if got := cfg.Sources.Policy.BlogDomains; len(got) != 1 || got[0] != "velog.io" {
		t.Fatalf("unexpected blog domains %#v", got)
	}
	if cfg.Agent.MaxIterations != 5 {
		t.Fatalf("expected 5 agent iterations, got %d", cfg.Agent.MaxIterations)
	}
	if !cfg.Storage.Postgres.Enabled() || cfg.Storage.Redis.Enabled() {
		t.Fatalf("unexpected storage enablement")
	}
}

func TestLoadConfigReadsEnvWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("BRIEFER_SERVER_ADDRESS", ":9999")
	t.Setenv("BRIEFER_SOURCES_FETCH_DELAY", "250ms")
	t.Setenv("BRIEFER_STORAGE_REDIS_HOST", "cache")
	t.Setenv("BRIEFER_STORAGE_REDIS_PORT", "6380")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Address != ":9999" {
		t.Fatalf("expected address from env, got %q", cfg.Server.Address)
	}
	if cfg.Sources.Fetch.Delay != 250*time.Millisecond {
		t.Fatalf("expected 250ms delay from env, got %v", cfg.Sources.Fetch.Delay)
	}
	if cfg.Storage.Redis.Host != "cache" || cfg.Storage.Redis.Port != "6380" {
		t.Fatalf("unexpected redis config %+v", cfg.Storage.Redis)
	}
}

func TestFetchDelayNormalize(t *testing.T) {
	if got := (SourcesConfig{}).Normalize().Fetch.Delay; got != time.Second {
		t.Fatalf("unset delay = %v, want 1s", got)
	}
	neg := SourcesConfig{Fetch: FetchConfig{Delay: -time.Second}}
	if got := neg.Normalize().Fetch.Delay; got != 0 {
		t.Fatalf("negative delay = %v, want 0", got)
	}
}

func TestLoadConfigKeepsZeroMMRLambda(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"index": {"mmr_lambda": 0}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Index.MMRLambda != 0 {
		t.Fatalf("expected lambda 0 to be kept, got %v", cfg.Index.MMRLambda)
	}
	if got := (IndexConfig{MMRLambda: 1.5}).Normalize().MMRLambda; got != 0.5 {
		t.Fatalf("out of range lambda = %v, want 0.5", got)
	}
}

func TestLoadConfigRejectsBadSynonymRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"general": {"synonym_range": 9}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestSchedulerValidate(t *testing.T) {
	s := SchedulerConfig{Enabled: true, Jobs: []ScheduledJob{{Name: "daily", Cron: "0 8 * * *"}}}
	if err := s.Validate(); err == nil {
		t.Fatalf("expected missing prompt error")
	}
	s.Jobs[0].Prompt = "AI 뉴스 요약"
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", User: "u", Password: "p", DBName: "briefer"}
	want := "postgres://u:p@db:5432/briefer?sslmode=disable"
	if got := p.DSN(); got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
	if err := (PostgresConfig{Host: "db"}).Validate(); err == nil {
		t.Fatalf("expected dbname error")
	}
}
