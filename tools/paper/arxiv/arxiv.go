package arxiv

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mohammad-safakhou/briefer/internal/helpers"
	"github.com/mohammad-safakhou/briefer/utils"
)

const DefaultEndpoint = "http://export.arxiv.org/api/query"

// Paper is one arXiv entry with its derived PDF link.
type Paper struct {
	ID        string
	Title     string
	PDFURL    string
	Published time.Time
}

type Client struct {
	Endpoint string
	HTTP     *utils.HTTPClient
	Now      func() time.Time
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{Endpoint: endpoint, HTTP: utils.NewHTTPClient(timeout, 1, time.Second), Now: time.Now}
}

// Recent returns up to maxResults of the newest submissions matching keyword
// that were published within the last days.
func (c *Client) Recent(ctx context.Context, keyword string, days, maxResults int) ([]Paper, error) {
	if maxResults <= 0 {
		maxResults = 1
	}
	// search_query keeps its raw "all:" prefix; only the keyword is escaped
	query := fmt.Sprintf("search_query=all:%s&sortBy=submittedDate&sortOrder=descending&max_results=%d",
		url.QueryEscape(keyword), maxResults)
	raw, err := c.HTTP.Do(ctx, "GET", c.Endpoint+"?"+query, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("arxiv query: %w", err)
	}
	feed, err := gofeed.NewParser().ParseString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	cutoff := now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

	var out []Paper
	for _, item := range feed.Items {
		if item.PublishedParsed == nil || item.PublishedParsed.Before(cutoff) {
			continue
		}
		id := entryID(item)
		if id == "" {
			continue
		}
		out = append(out, Paper{
			ID:        id,
			Title:     helpers.SingleLine(item.Title),
			PDFURL:    "https://arxiv.org/pdf/" + id + ".pdf",
			Published: item.PublishedParsed.UTC(),
		})
	}
	return out, nil
}

func entryID(item *gofeed.Item) string {
	for _, candidate := range []string{item.GUID, item.Link} {
		if i := strings.LastIndex(candidate, "/abs/"); i >= 0 {
			return strings.TrimSpace(candidate[i+len("/abs/"):])
		}
	}
	return ""
}
