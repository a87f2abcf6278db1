package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/briefer/models"
)

// SaveBriefing stores the briefing and its items in one transaction. An empty
// ID is replaced by a new uuid, which is returned.
func (s *Store) SaveBriefing(ctx context.Context, b models.Briefing) (id string, err error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
INSERT INTO briefings (id, prompt, country, answer, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
  prompt = EXCLUDED.prompt,
  country = EXCLUDED.country,
  answer = EXCLUDED.answer;
`, b.ID, b.Prompt, b.Country, b.Answer, b.CreatedAt); err != nil {
		return "", fmt.Errorf("insert briefing: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM briefing_items WHERE briefing_id=$1`, b.ID); err != nil {
		return "", fmt.Errorf("delete briefing items: %w", err)
	}
	if len(b.Items) == 0 {
		return b.ID, nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO briefing_items (briefing_id, position, title, url, source, publisher, published_at, summary)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for i, it := range b.Items {
		var published sql.NullTime
		if it.PublishedAt != nil {
			published = sql.NullTime{Time: *it.PublishedAt, Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, b.ID, i, it.Title, it.URL, string(it.Source), it.Publisher, published, it.Summary); err != nil {
			return "", fmt.Errorf("insert briefing item %d: %w", i, err)
		}
	}
	return b.ID, nil
}

// ListBriefings returns the newest briefings first.
func (s *Store) ListBriefings(ctx context.Context, limit int) ([]models.BriefingSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT b.id, b.prompt, b.country, b.created_at, COUNT(i.id)
FROM briefings b
LEFT JOIN briefing_items i ON i.briefing_id = b.id
GROUP BY b.id
ORDER BY b.created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.BriefingSummary
	for rows.Next() {
		var bs models.BriefingSummary
		if err := rows.Scan(&bs.ID, &bs.Prompt, &bs.Country, &bs.CreatedAt, &bs.Items); err != nil {
			return nil, err
		}
		out = append(out, bs)
	}
	return out, rows.Err()
}

// GetBriefing loads a briefing with its items in saved order.
func (s *Store) GetBriefing(ctx context.Context, id string) (models.Briefing, error) {
	var b models.Briefing
	err := s.DB.QueryRowContext(ctx, `SELECT id, prompt, country, answer, created_at FROM briefings WHERE id=$1`, id).
		Scan(&b.ID, &b.Prompt, &b.Country, &b.Answer, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Briefing{}, models.ErrBriefingNotFound
	}
	if err != nil {
		return models.Briefing{}, err
	}

	rows, err := s.DB.QueryContext(ctx, `
SELECT title, url, source, publisher, published_at, summary
FROM briefing_items
WHERE briefing_id=$1
ORDER BY position
`, id)
	if err != nil {
		return models.Briefing{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it        models.Item
			source    string
			published sql.NullTime
		)
		if err := rows.Scan(&it.Title, &it.URL, &source, &it.Publisher, &published, &it.Summary); err != nil {
			return models.Briefing{}, err
		}
		it.Source = models.Kind(source)
		if published.Valid {
			t := published.Time
			it.PublishedAt = &t
		}
		b.Items = append(b.Items, it)
	}
	return b, rows.Err()
}
