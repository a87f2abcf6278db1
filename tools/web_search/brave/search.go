package brave

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mohammad-safakhou/briefer/tools/web_search/models"
	"github.com/mohammad-safakhou/briefer/utils"
)

const DefaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

type Search struct {
	ApiKey   string
	Endpoint string
	HTTP     *utils.HTTPClient
}

func (s Search) Discover(ctx context.Context, q string, k int, sites []string, recency int) ([]models.Result, error) {
	// https://api.search.brave.com/app/documentation/web-search
	if len(sites) > 0 {
		parts := make([]string, len(sites))
		for i, site := range sites {
			parts[i] = "site:" + site
		}
		q = q + " " + strings.Join(parts, " OR ")
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("count", fmt.Sprint(k))
	switch {
	case recency <= 0:
	case recency <= 1:
		params.Set("freshness", "pd")
	case recency <= 7:
		params.Set("freshness", "pw")
	case recency <= 31:
		params.Set("freshness", "pm")
	default:
		params.Set("freshness", "py")
	}

	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client := s.HTTP
	if client == nil {
		client = utils.NewHTTPClient(0, 0, 0)
	}
	headers := map[string]string{"Accept": "application/json", "X-Subscription-Token": s.ApiKey}
	var raw struct {
		Web struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := client.DoJSON(ctx, "GET", endpoint+"?"+params.Encode(), headers, nil, &raw); err != nil {
		return nil, fmt.Errorf("brave search: %w", err)
	}
	var out []models.Result
	for i, r := range raw.Web.Results {
		if i >= k {
			break
		}
		out = append(out, models.Result{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return out, nil
}
