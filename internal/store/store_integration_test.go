package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mohammad-safakhou/briefer/internal/store"
	"github.com/mohammad-safakhou/briefer/models"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestStoreAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("pgvector/pgvector:pg16"),
		tcPostgres.WithDatabase("briefer"),
		tcPostgres.WithUsername("briefer"),
		tcPostgres.WithPassword("briefer"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	defer func() { _ = pgC.Terminate(ctx) }()

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	_, file, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(file), "..", "..", "migrations")
	if err := store.Migrate(fmt.Sprintf("file://%s", dir), dsn, "up", 0); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	defer st.Close()

	id, err := st.SaveBriefing(ctx, models.Briefing{
		Prompt:  "AI news",
		Country: "Korea",
		Items:   []models.Item{{Title: "t", URL: "https://a", Source: models.KindNews, Summary: "s"}},
	})
	if err != nil {
		t.Fatalf("save briefing: %v", err)
	}
	got, err := st.GetBriefing(ctx, id)
	if err != nil {
		t.Fatalf("get briefing: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Title != "t" {
		t.Fatalf("unexpected briefing %+v", got)
	}

	err = st.ReplaceChunks(ctx, []store.ChunkRecord{
		{Source: "news", Text: "alpha", Model: "m", Vector: []float32{1, 0}},
		{Source: "blog", Text: "beta", Model: "m", Vector: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("replace chunks: %v", err)
	}
	hits, err := st.SearchChunks(ctx, []float32{0.9, 0.1}, "", 2)
	if err != nil {
		t.Fatalf("search chunks: %v", err)
	}
	if len(hits) != 2 || hits[0].Text != "alpha" {
		t.Fatalf("unexpected hits %+v", hits)
	}
	hits, err = st.SearchChunks(ctx, []float32{0.9, 0.1}, "blog", 2)
	if err != nil {
		t.Fatalf("search chunks filtered: %v", err)
	}
	if len(hits) != 1 || hits[0].Source != "blog" {
		t.Fatalf("unexpected filtered hits %+v", hits)
	}
}
