package newsapi

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/mohammad-safakhou/briefer/models"
	"github.com/mohammad-safakhou/briefer/utils"
)

type Article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

type response struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
}

type NewsAPI struct {
	APIKey   string
	Endpoint string
	HTTP     *utils.HTTPClient
	Now      func() time.Time
}

func NewNewsAPI(apiKey, endpoint string) NewsAPI {
	return NewsAPI{
		APIKey:   apiKey,
		Endpoint: endpoint,
		HTTP:     utils.NewHTTPClient(20*time.Second, 1, 500*time.Millisecond),
		Now:      time.Now,
	}
}

// Fetch queries /v2/everything once per keyword over the last days and returns
// the union of articles, deduplicated by title. A failing keyword is skipped.
func (n NewsAPI) Fetch(ctx context.Context, keywords []string, days int, language string) ([]models.Document, error) {
	if days <= 0 {
		days = 1
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	to := now().UTC()
	from := to.Add(-time.Duration(days) * 24 * time.Hour)
	log.Printf("newsapi: window %s ~ %s", from.Format(time.RFC3339), to.Format(time.RFC3339))

	var docs []models.Document
	seen := map[string]struct{}{}
	for _, kw := range keywords {
		if ctx.Err() != nil {
			return docs, ctx.Err()
		}
		articles, err := n.fetchKeyword(ctx, kw, from, to, language)
		if err != nil {
			log.Printf("newsapi: keyword %q failed: %v", kw, err)
			continue
		}
		log.Printf("newsapi: keyword %q -> %d articles", kw, len(articles))
		for _, a := range articles {
			title := strings.TrimSpace(a.Title)
			if title == "" {
				continue
			}
			if _, ok := seen[title]; ok {
				continue
			}
			seen[title] = struct{}{}
			docs = append(docs, models.Document{
				Title:       title,
				URL:         strings.TrimSpace(a.URL),
				Source:      strings.TrimSpace(a.Source.Name),
				Kind:        models.KindNews,
				PublishedAt: a.PublishedAt,
				Keyword:     kw,
			})
		}
	}
	log.Printf("newsapi: %d unique articles", len(docs))
	return docs, nil
}

func (n NewsAPI) fetchKeyword(ctx context.Context, keyword string, from, to time.Time, language string) ([]Article, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("from", from.Format("2006-01-02T15:04:05Z"))
	params.Set("to", to.Format("2006-01-02T15:04:05Z"))
	if language != "" {
		params.Set("language", language)
	}
	params.Set("sortBy", "publishedAt")
	params.Set("apiKey", n.APIKey)

	var result response
	if err := n.HTTP.DoJSON(ctx, "GET", fmt.Sprintf("%s?%s", n.Endpoint, params.Encode()), nil, nil, &result); err != nil {
		return nil, err
	}
	if result.Status != "" && result.Status != "ok" {
		return nil, fmt.Errorf("newsapi error: %s %s", result.Code, result.Message)
	}
	return result.Articles, nil
}
