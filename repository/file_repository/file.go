package file_repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/briefer/models"
)

const (
	filePrefix = "summary_"
	fileSuffix = ".json"
)

// FileRepository keeps each briefing as an indented JSON file in Dir.
type FileRepository struct {
	Dir string
}

func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileRepository{Dir: dir}, nil
}

// Path returns the file a briefing id is stored under.
func (r *FileRepository) Path(id string) string {
	return filepath.Join(r.Dir, filePrefix+id+fileSuffix)
}

// Encode renders a briefing the way it is written to disk.
func Encode(b models.Briefing) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *FileRepository) Save(_ context.Context, b models.Briefing) (string, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if !validID(b.ID) {
		return "", fmt.Errorf("invalid briefing id %q", b.ID)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	data, err := Encode(b)
	if err != nil {
		return "", err
	}
	tmp := r.Path(b.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, r.Path(b.ID)); err != nil {
		return "", err
	}
	return b.ID, nil
}

func (r *FileRepository) Get(_ context.Context, id string) (models.Briefing, error) {
	if !validID(id) {
		return models.Briefing{}, models.ErrBriefingNotFound
	}
	data, err := os.ReadFile(r.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return models.Briefing{}, models.ErrBriefingNotFound
	}
	if err != nil {
		return models.Briefing{}, err
	}
	var b models.Briefing
	if err := json.Unmarshal(data, &b); err != nil {
		return models.Briefing{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return b, nil
}

// List returns the newest briefings first. Files that fail to decode are skipped.
func (r *FileRepository) List(ctx context.Context, limit int) ([]models.BriefingSummary, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.BriefingSummary, 0, len(all))
	for _, b := range all {
		out = append(out, b.Summary())
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// All loads every stored briefing, newest first.
func (r *FileRepository) All(_ context.Context) ([]models.Briefing, error) {
	matches, err := filepath.Glob(filepath.Join(r.Dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return nil, err
	}
	var out []models.Briefing
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var b models.Briefing
		if err := json.Unmarshal(data, &b); err != nil || b.ID == "" {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}
