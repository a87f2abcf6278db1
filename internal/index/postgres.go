package index

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/briefer/internal/store"
	"github.com/mohammad-safakhou/briefer/models"
	"github.com/mohammad-safakhou/briefer/tools/embedding"
)

// PGIndex keeps chunk vectors in Postgres and searches them with pgvector.
type PGIndex struct {
	Store    *store.Store
	Embedder embedding.Embedder
}

// Replace swaps the stored chunks for an index built in memory.
func (p *PGIndex) Replace(ctx context.Context, ix *Index) error {
	records := make([]store.ChunkRecord, len(ix.Chunks))
	for i, c := range ix.Chunks {
		records[i] = store.ChunkRecord{Source: string(c.Source), Text: c.Text, Model: ix.Model, Vector: ix.Vectors[i]}
	}
	if err := p.Store.ReplaceChunks(ctx, records); err != nil {
		return fmt.Errorf("replace chunks: %w", err)
	}
	return nil
}

func (p *PGIndex) Count(ctx context.Context, source models.Kind) (int, error) {
	return p.Store.CountChunks(ctx, string(source))
}

func (p *PGIndex) Similarity(ctx context.Context, q string, k int, filter models.Kind) ([]Hit, error) {
	qv, err := embedding.EmbedOne(ctx, p.Embedder, q)
	if err != nil {
		return nil, err
	}
	rows, err := p.Store.SearchChunks(ctx, qv, string(filter), k)
	if err != nil {
		return nil, err
	}
	out := make([]Hit, len(rows))
	for i, r := range rows {
		out[i] = Hit{Chunk: chunkFromRecord(r.ChunkRecord), Score: 1 - r.Distance, Rank: i + 1}
	}
	return out, nil
}

// MMR fetches fetchK neighbours from Postgres and re-ranks them locally.
func (p *PGIndex) MMR(ctx context.Context, q string, k, fetchK int, lambda float64, filter models.Kind) ([]Hit, error) {
	qv, err := embedding.EmbedOne(ctx, p.Embedder, q)
	if err != nil {
		return nil, err
	}
	if fetchK < k {
		fetchK = k
	}
	rows, err := p.Store.SearchChunks(ctx, qv, string(filter), fetchK)
	if err != nil {
		return nil, err
	}
	vecs := make([][]float32, len(rows))
	for i, r := range rows {
		vecs[i] = r.Vector
	}
	order := MaximalMarginalRelevance(qv, vecs, k, lambda)
	out := make([]Hit, len(order))
	for i, o := range order {
		out[i] = Hit{Chunk: chunkFromRecord(rows[o].ChunkRecord), Score: 1 - rows[o].Distance, Rank: i + 1}
	}
	return out, nil
}

func chunkFromRecord(r store.ChunkRecord) Chunk {
	return Chunk{ID: fmt.Sprintf("pg#%d", r.ID), Text: r.Text, Source: models.Kind(r.Source)}
}
