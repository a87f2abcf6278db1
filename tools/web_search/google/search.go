package google

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/mohammad-safakhou/briefer/tools/web_search/models"
	"github.com/mohammad-safakhou/briefer/utils"
)

// maxStart is the last result offset the Custom Search API serves.
const maxStart = 91

// Search queries the Google Custom Search JSON API page by page.
type Search struct {
	ApiKey   string
	CX       string
	Endpoint string
	HTTP     *utils.HTTPClient
	PageWait time.Duration
}

type response struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Discover pages through date-sorted results, keeping only links whose host
// ends in one of sites, until k results are collected or results run out.
func (s *Search) Discover(ctx context.Context, q string, k int, sites []string, recency int) ([]models.Result, error) {
	if k <= 0 {
		return nil, nil
	}
	var out []models.Result
	seen := map[string]struct{}{}
	for start := 1; start <= maxStart && len(out) < k; start += 10 {
		if start > 1 && s.PageWait > 0 {
			select {
			case <-time.After(s.PageWait):
			case <-ctx.Done():
				return out, ctx.Err()
			}
		}
		params := url.Values{}
		params.Set("key", s.ApiKey)
		params.Set("cx", s.CX)
		params.Set("q", q)
		params.Set("start", fmt.Sprint(start))
		params.Set("sort", "date")
		if recency > 0 {
			params.Set("dateRestrict", fmt.Sprintf("d%d", recency))
		}

		var resp response
		if err := s.HTTP.DoJSON(ctx, "GET", s.Endpoint+"?"+params.Encode(), nil, nil, &resp); err != nil {
			if len(out) > 0 {
				log.Printf("google search %q page %d: %v", q, start, err)
				return out, nil
			}
			return nil, fmt.Errorf("google search: %w", err)
		}
		if len(resp.Items) == 0 {
			break
		}
		for _, it := range resp.Items {
			if !hostMatches(it.Link, sites) {
				continue
			}
			if _, ok := seen[it.Link]; ok {
				continue
			}
			seen[it.Link] = struct{}{}
			out = append(out, models.Result{Title: strings.TrimSpace(it.Title), URL: it.Link, Snippet: it.Snippet})
			if len(out) >= k {
				break
			}
		}
	}
	return out, nil
}

func hostMatches(link string, sites []string) bool {
	if len(sites) == 0 {
		return true
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, site := range sites {
		site = strings.ToLower(site)
		if host == site || strings.HasSuffix(host, "."+site) {
			return true
		}
	}
	return false
}
