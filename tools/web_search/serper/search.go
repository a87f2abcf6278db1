package serper

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/briefer/tools/web_search/models"
	"github.com/mohammad-safakhou/briefer/utils"
)

const DefaultEndpoint = "https://google.serper.dev/search"

type Search struct {
	ApiKey   string
	Endpoint string
	HTTP     *utils.HTTPClient
}

func (s Search) Discover(ctx context.Context, q string, k int, sites []string, recency int) ([]models.Result, error) {
	// https://serper.dev/ docs
	if len(sites) > 0 {
		parts := make([]string, len(sites))
		for i, site := range sites {
			parts[i] = "site:" + site
		}
		q = q + " (" + strings.Join(parts, " OR ") + ")"
	}
	payload := map[string]any{"q": q, "num": k}
	if recency > 0 {
		payload["tbs"] = fmt.Sprintf("qdr:d%d", recency)
	}

	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client := s.HTTP
	if client == nil {
		client = utils.NewHTTPClient(0, 0, 0)
	}
	var raw struct {
		Organic []map[string]any `json:"organic"`
	}
	if err := client.DoJSON(ctx, "POST", endpoint, map[string]string{"X-API-KEY": s.ApiKey}, payload, &raw); err != nil {
		return nil, fmt.Errorf("serper search: %w", err)
	}

	var out []models.Result
	for i, m := range raw.Organic {
		if i >= k {
			break
		}
		out = append(out, models.Result{
			Title: utils.Str(m["title"]), URL: utils.Str(m["link"]), Snippet: utils.Str(m["snippet"]),
		})
	}
	return out, nil
}
