package repository

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/briefer/internal/store"
	"github.com/mohammad-safakhou/briefer/models"
)

// BriefingRepository defines the interface for briefing storage
type BriefingRepository interface {
	Save(ctx context.Context, b models.Briefing) (string, error)
	List(ctx context.Context, limit int) ([]models.BriefingSummary, error)
	Get(ctx context.Context, id string) (models.Briefing, error)
}

// Mirror receives a copy of every saved briefing.
type Mirror interface {
	Mirror(ctx context.Context, b models.Briefing) error
}

// Multi saves to a primary repository, then to secondaries and mirrors.
// Reads are served by the primary only. Secondary failures are logged.
type Multi struct {
	Primary     BriefingRepository
	Secondaries []BriefingRepository
	Mirrors     []Mirror
	Logger      *log.Logger
}

func NewMulti(primary BriefingRepository) *Multi {
	return &Multi{Primary: primary, Logger: log.New(log.Writer(), "[REPO] ", log.LstdFlags)}
}

func (m *Multi) Save(ctx context.Context, b models.Briefing) (string, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	id, err := m.Primary.Save(ctx, b)
	if err != nil {
		return "", err
	}
	for _, r := range m.Secondaries {
		if _, err := r.Save(ctx, b); err != nil {
			m.Logger.Printf("secondary save %s failed: %v", id, err)
		}
	}
	for _, mr := range m.Mirrors {
		if err := mr.Mirror(ctx, b); err != nil {
			m.Logger.Printf("mirror %s failed: %v", id, err)
		}
	}
	return id, nil
}

func (m *Multi) List(ctx context.Context, limit int) ([]models.BriefingSummary, error) {
	return m.Primary.List(ctx, limit)
}

func (m *Multi) Get(ctx context.Context, id string) (models.Briefing, error) {
	return m.Primary.Get(ctx, id)
}

// Postgres adapts the relational store to BriefingRepository.
type Postgres struct {
	Store *store.Store
}

func (p Postgres) Save(ctx context.Context, b models.Briefing) (string, error) {
	return p.Store.SaveBriefing(ctx, b)
}

func (p Postgres) List(ctx context.Context, limit int) ([]models.BriefingSummary, error) {
	return p.Store.ListBriefings(ctx, limit)
}

func (p Postgres) Get(ctx context.Context, id string) (models.Briefing, error) {
	return p.Store.GetBriefing(ctx, id)
}
