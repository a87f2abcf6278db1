package store

import (
	"context"
	"fmt"
)

// ChunkRecord is one embedded piece of a saved summary.
type ChunkRecord struct {
	ID     int64
	Source string
	Text   string
	Model  string
	Vector []float32
}

// ChunkHit is a nearest-neighbour match with its cosine distance.
type ChunkHit struct {
	ChunkRecord
	Distance float64
}

// ReplaceChunks swaps the whole vector index for records.
func (s *Store) ReplaceChunks(ctx context.Context, records []ChunkRecord) (err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM index_chunks`); err != nil {
		return fmt.Errorf("delete index chunks: %w", err)
	}
	if len(records) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO index_chunks (source, text, model, embedding, created_at)
VALUES ($1,$2,$3,$4::vector,NOW())
`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, rec := range records {
		lit, lerr := encodeVectorLiteral(rec.Vector)
		if lerr != nil {
			return fmt.Errorf("chunk %d: %w", i, lerr)
		}
		if _, err = stmt.ExecContext(ctx, rec.Source, rec.Text, rec.Model, lit); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	return nil
}

// SearchChunks returns the topK chunks closest to vector by cosine distance.
// An empty source searches every source.
func (s *Store) SearchChunks(ctx context.Context, vector []float32, source string, topK int) ([]ChunkHit, error) {
	if topK <= 0 {
		topK = 5
	}
	lit, err := encodeVectorLiteral(vector)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, source, text, model, embedding::text, embedding <=> $1::vector AS distance
FROM index_chunks
WHERE ($2 = '' OR source = $2)
ORDER BY embedding <=> $1::vector
LIMIT $3
`, lit, source, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var hits []ChunkHit
	for rows.Next() {
		var (
			h   ChunkHit
			vec string
		)
		if err := rows.Scan(&h.ID, &h.Source, &h.Text, &h.Model, &vec, &h.Distance); err != nil {
			return nil, err
		}
		if h.Vector, err = decodeVectorLiteral(vec); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// CountChunks counts stored chunks, optionally for one source.
func (s *Store) CountChunks(ctx context.Context, source string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM index_chunks WHERE ($1 = '' OR source = $1)`, source).Scan(&n)
	return n, err
}
