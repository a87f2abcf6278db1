package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/mohammad-safakhou/briefer/models"
	"github.com/mohammad-safakhou/briefer/tools/embedding"
)

// ErrEmptyCorpus is returned when there is nothing to index.
var ErrEmptyCorpus = errors.New("no documents to index")

const indexFile = "index.json"

// Chunk is one embedded piece of a saved item.
type Chunk struct {
	ID     string      `json:"id"`
	Text   string      `json:"text"`
	Source models.Kind `json:"source"`
	Title  string      `json:"title,omitempty"`
	URL    string      `json:"url,omitempty"`
}

// Index is an in-memory vector index over item chunks with an optional
// lexical side index for hybrid search.
type Index struct {
	Model   string      `json:"model"`
	Chunks  []Chunk     `json:"chunks"`
	Vectors [][]float32 `json:"vectors"`

	embedder embedding.Embedder
	mu       sync.Mutex
	lexical  bleve.Index
}

// Build chunks and embeds items. Items without a source label are tagged unknown.
func Build(ctx context.Context, emb embedding.Embedder, splitter CharacterSplitter, items []models.Item) (*Index, error) {
	var chunks []Chunk
	for i, it := range items {
		text := strings.TrimSpace(it.Title + "\n" + it.Summary)
		if text == "" {
			continue
		}
		src := it.Source
		if src == "" {
			src = models.KindUnknown
		}
		for j, part := range splitter.Split(text) {
			chunks = append(chunks, Chunk{
				ID:     fmt.Sprintf("%04d#%03d", i, j),
				Text:   part,
				Source: src,
				Title:  it.Title,
				URL:    it.URL,
			})
		}
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyCorpus
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := emb.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return nil, embedding.ErrCountMismatch
	}
	return &Index{Model: emb.Model(), Chunks: chunks, Vectors: vecs, embedder: emb}, nil
}

// BuildFromDir indexes every JSON file in dir.
func BuildFromDir(ctx context.Context, emb embedding.Embedder, splitter CharacterSplitter, dir string) (*Index, error) {
	items, err := LoadItems(dir)
	if err != nil {
		return nil, err
	}
	return Build(ctx, emb, splitter, items)
}

// LoadItems reads the items of every JSON file in dir. A file holds either a
// saved briefing or a bare item list. Items missing a source label get one
// from the file name. Unreadable files are logged and skipped.
func LoadItems(dir string) ([]models.Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []models.Item
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			log.Printf("[INDEX] read %s: %v", e.Name(), err)
			continue
		}
		items, err := decodeItems(data)
		if err != nil {
			log.Printf("[INDEX] decode %s: %v", e.Name(), err)
			continue
		}
		fallback := KindFromFileName(e.Name())
		for _, it := range items {
			if it.Source == "" {
				it.Source = fallback
			}
			out = append(out, it)
		}
	}
	return out, nil
}

func decodeItems(data []byte) ([]models.Item, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []models.Item
		err := json.Unmarshal(data, &items)
		return items, err
	}
	var b models.Briefing
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return b.Items, nil
}

// KindFromFileName guesses a source label from a legacy file name.
func KindFromFileName(name string) models.Kind {
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "news"):
		return models.KindNews
	case strings.Contains(name, "blog"):
		return models.KindBlog
	case strings.Contains(name, "paper"):
		return models.KindPaper
	}
	return models.KindUnknown
}

// Save writes the index as JSON under dir.
func (ix *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(ix)
	if err != nil {
		return err
	}
	tmp := filepath.Join(dir, indexFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, indexFile))
}

// Load reads an index saved under dir. Queries are embedded with emb, which
// should be the model the index was built with.
func Load(dir string, emb embedding.Embedder) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, indexFile))
	if err != nil {
		return nil, err
	}
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if len(ix.Chunks) != len(ix.Vectors) {
		return nil, fmt.Errorf("index has %d chunks but %d vectors", len(ix.Chunks), len(ix.Vectors))
	}
	if emb != nil && ix.Model != "" && emb.Model() != ix.Model {
		log.Printf("[INDEX] index built with %s, querying with %s", ix.Model, emb.Model())
	}
	ix.embedder = emb
	return &ix, nil
}

// Count returns how many chunks carry source; empty counts all.
func (ix *Index) Count(_ context.Context, source models.Kind) (int, error) {
	if source == "" {
		return len(ix.Chunks), nil
	}
	n := 0
	for _, c := range ix.Chunks {
		if c.Source == source {
			n++
		}
	}
	return n, nil
}

// Close releases the lexical index if one was built.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.lexical == nil {
		return nil
	}
	err := ix.lexical.Close()
	ix.lexical = nil
	return err
}
