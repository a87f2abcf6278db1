package index

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/blevesearch/bleve"
	"github.com/mohammad-safakhou/briefer/models"
	"github.com/mohammad-safakhou/briefer/tools/embedding"
)

const rrfK = 60 // reciprocal-rank-fusion constant

var errNoEmbedder = errors.New("index has no embedder")

// Hit is a ranked chunk.
type Hit struct {
	Chunk
	Score float64
	Rank  int
}

type candidate struct {
	pos   int
	score float64
}

// Similarity returns the k chunks closest to q by cosine similarity.
func (ix *Index) Similarity(ctx context.Context, q string, k int, filter models.Kind) ([]Hit, error) {
	qv, err := ix.embedQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	ranked := ix.rank(qv, filter)
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ix.hits(ranked), nil
}

// MMR re-ranks the fetchK nearest chunks for relevance and diversity.
// lambda 1 is pure relevance, 0 pure diversity.
func (ix *Index) MMR(ctx context.Context, q string, k, fetchK int, lambda float64, filter models.Kind) ([]Hit, error) {
	qv, err := ix.embedQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	ranked := ix.rank(qv, filter)
	if fetchK > 0 && len(ranked) > fetchK {
		ranked = ranked[:fetchK]
	}
	vecs := make([][]float32, len(ranked))
	for i, c := range ranked {
		vecs[i] = ix.Vectors[c.pos]
	}
	order := MaximalMarginalRelevance(qv, vecs, k, lambda)
	picked := make([]candidate, len(order))
	for i, o := range order {
		picked[i] = ranked[o]
	}
	return ix.hits(picked), nil
}

// Hybrid fuses bleve BM25 ranks with vector ranks by reciprocal rank fusion.
func (ix *Index) Hybrid(ctx context.Context, q string, k int, filter models.Kind) ([]Hit, error) {
	qv, err := ix.embedQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	vector := ix.rank(qv, filter)
	if len(vector) > k*3 {
		vector = vector[:k*3]
	}
	lexical, err := ix.bm25(q, k*3, filter)
	if err != nil {
		return nil, err
	}

	scores := map[int]float64{}
	add := func(list []candidate) {
		for r, c := range list {
			scores[c.pos] += 1.0 / float64(rrfK+r+1)
		}
	}
	add(vector)
	add(lexical)
	fused := make([]candidate, 0, len(scores))
	for pos, s := range scores {
		fused = append(fused, candidate{pos: pos, score: s})
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score == fused[j].score {
			return fused[i].pos < fused[j].pos
		}
		return fused[i].score > fused[j].score
	})
	if len(fused) > k {
		fused = fused[:k]
	}
	return ix.hits(fused), nil
}

func (ix *Index) embedQuery(ctx context.Context, q string) ([]float32, error) {
	if ix.embedder == nil {
		return nil, errNoEmbedder
	}
	return embedding.EmbedOne(ctx, ix.embedder, q)
}

func (ix *Index) rank(qv []float32, filter models.Kind) []candidate {
	out := make([]candidate, 0, len(ix.Chunks))
	for i, c := range ix.Chunks {
		if filter != "" && c.Source != filter {
			continue
		}
		out = append(out, candidate{pos: i, score: embedding.Cosine(qv, ix.Vectors[i])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

func (ix *Index) hits(cs []candidate) []Hit {
	out := make([]Hit, len(cs))
	for i, c := range cs {
		out[i] = Hit{Chunk: ix.Chunks[c.pos], Score: c.score, Rank: i + 1}
	}
	return out
}

func (ix *Index) bm25(q string, k int, filter models.Kind) ([]candidate, error) {
	lex, err := ix.lexicalIndex()
	if err != nil {
		return nil, err
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(q), k*3, 0, false)
	res, err := lex.Search(req)
	if err != nil {
		return nil, err
	}
	var out []candidate
	for _, hit := range res.Hits {
		pos, ok := ix.positionOf(hit.ID)
		if !ok {
			continue
		}
		if filter != "" && ix.Chunks[pos].Source != filter {
			continue
		}
		out = append(out, candidate{pos: pos, score: hit.Score})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

func (ix *Index) lexicalIndex() (bleve.Index, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.lexical != nil {
		return ix.lexical, nil
	}
	lex, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	batch := lex.NewBatch()
	for _, c := range ix.Chunks {
		if err := batch.Index(c.ID, c); err != nil {
			return nil, err
		}
	}
	if err := lex.Batch(batch); err != nil {
		return nil, err
	}
	ix.lexical = lex
	return lex, nil
}

func (ix *Index) positionOf(id string) (int, bool) {
	for i, c := range ix.Chunks {
		if c.ID == id {
			return i, true
		}
	}
	return 0, false
}

// MaximalMarginalRelevance picks up to k indexes of candidates, starting with
// the one closest to query, then repeatedly the one maximising
// lambda*sim(query) - (1-lambda)*max sim(selected).
func MaximalMarginalRelevance(query []float32, candidates [][]float32, k int, lambda float64) []int {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	simQ := make([]float64, len(candidates))
	for i, c := range candidates {
		simQ[i] = embedding.Cosine(query, c)
	}
	selected := make([]int, 0, k)
	used := make([]bool, len(candidates))
	for len(selected) < k {
		best, bestScore := -1, math.Inf(-1)
		for i := range candidates {
			if used[i] {
				continue
			}
			redundancy := 0.0
			if len(selected) > 0 {
				redundancy = math.Inf(-1)
				for _, s := range selected {
					redundancy = math.Max(redundancy, embedding.Cosine(candidates[i], candidates[s]))
				}
			}
			score := lambda*simQ[i] - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		// only NaN scores left
		if best < 0 {
			break
		}
		used[best] = true
		selected = append(selected, best)
	}
	return selected
}
