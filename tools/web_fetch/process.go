package web_fetch

import (
	"context"
	"log"
	"time"

	"github.com/mohammad-safakhou/briefer/models"
)

// ProcessAll fills FullText of each document sequentially, waiting delay
// between requests. Failed fetches keep an empty FullText and are logged.
// Documents whose host is rejected by allowed are skipped the same way.
func ProcessAll(ctx context.Context, f WebFetcher, docs []models.Document, delay time.Duration, allowed func(string) bool) []models.Document {
	out := make([]models.Document, len(docs))
	copy(out, docs)
	for i := range out {
		if ctx.Err() != nil {
			return out
		}
		if allowed != nil && !allowed(out[i].URL) {
			log.Printf("fetch skipped (policy): %s", out[i].URL)
			continue
		}
		if i > 0 && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return out
			}
		}
		res, err := f.Exec(ctx, out[i].URL)
		if err != nil {
			log.Printf("fetch failed %s: %v", out[i].URL, err)
			continue
		}
		out[i].FullText = res.Text
		if out[i].Title == "" {
			out[i].Title = res.Title
		}
		if out[i].Source == "" {
			out[i].Source = res.SiteName
		}
	}
	return out
}
