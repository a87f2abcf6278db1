package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/mohammad-safakhou/briefer/models"
)

type memRepo struct {
	saved map[string]models.Briefing
	err   error
}

func (m *memRepo) Save(_ context.Context, b models.Briefing) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved[b.ID] = b
	return b.ID, nil
}

func (m *memRepo) List(context.Context, int) ([]models.BriefingSummary, error) {
	var out []models.BriefingSummary
	for _, b := range m.saved {
		out = append(out, b.Summary())
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id string) (models.Briefing, error) {
	b, ok := m.saved[id]
	if !ok {
		return models.Briefing{}, models.ErrBriefingNotFound
	}
	return b, nil
}

type recordMirror struct{ ids []string }

func (r *recordMirror) Mirror(_ context.Context, b models.Briefing) error {
	r.ids = append(r.ids, b.ID)
	return errors.New("offline")
}

func TestMultiSaveFansOutWithSharedID(t *testing.T) {
	primary := &memRepo{saved: map[string]models.Briefing{}}
	secondary := &memRepo{saved: map[string]models.Briefing{}, err: errors.New("db down")}
	mirror := &recordMirror{}
	m := NewMulti(primary)
	m.Secondaries = []BriefingRepository{secondary}
	m.Mirrors = []Mirror{mirror}

	id, err := m.Save(context.Background(), models.Briefing{Prompt: "AI"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}
	got, err := m.Get(context.Background(), id)
	if err != nil || got.CreatedAt.IsZero() {
		t.Fatalf("get: %+v %v", got, err)
	}
	if len(mirror.ids) != 1 || mirror.ids[0] != id {
		t.Fatalf("mirror saw %v", mirror.ids)
	}
}

func TestMultiPrimaryFailure(t *testing.T) {
	m := NewMulti(&memRepo{saved: map[string]models.Briefing{}, err: errors.New("disk full")})
	mirror := &recordMirror{}
	m.Mirrors = []Mirror{mirror}
	if _, err := m.Save(context.Background(), models.Briefing{}); err == nil {
		t.Fatalf("expected error")
	}
	if len(mirror.ids) != 0 {
		t.Fatalf("mirror should not run after primary failure")
	}
}
