package web_fetch

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/mohammad-safakhou/briefer/internal/helpers"
	"github.com/mohammad-safakhou/briefer/tools/web_fetch/models"
)

const cacheKeyPrefix = "fetch:"

// Cache is the key/value store behind CachedFetcher.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachedFetcher serves repeated fetches of the same canonical URL from Cache.
// Cache failures fall through to the wrapped fetcher.
type CachedFetcher struct {
	Next  WebFetcher
	Cache Cache
	TTL   time.Duration
}

func (c CachedFetcher) Exec(ctx context.Context, url string) (models.Result, error) {
	fp, err := helpers.URLFingerprint(url)
	if err != nil {
		return c.Next.Exec(ctx, url)
	}
	key := cacheKeyPrefix + fp
	if raw, ok, err := c.Cache.Get(ctx, key); err != nil {
		log.Printf("fetch cache get %s: %v", url, err)
	} else if ok {
		var res models.Result
		if json.Unmarshal([]byte(raw), &res) == nil {
			return res, nil
		}
	}

	res, err := c.Next.Exec(ctx, url)
	if err != nil || res.Text == "" {
		return res, err
	}
	b, _ := json.Marshal(res)
	if err := c.Cache.Set(ctx, key, string(b), c.TTL); err != nil {
		log.Printf("fetch cache set %s: %v", url, err)
	}
	return res, nil
}
