package stockdata

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Go-Pr0/stock-analyze-backend/internal/research"
)

const defaultCacheTTL = 15 * time.Minute

// CachedProvider wraps a CompanyDataProvider with a Redis read-through cache.
// Cache failures are logged and never surfaced; a broken cache degrades to
// direct lookups.
type CachedProvider struct {
	inner  research.CompanyDataProvider
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedProvider wraps inner with a cache backed by client.
func NewCachedProvider(inner research.CompanyDataProvider, client *redis.Client, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedProvider{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: log.New(log.Writer(), "[STOCKCACHE] ", log.LstdFlags),
	}
}

func cacheKey(ticker string) string {
	return "stockdata:" + strings.ToUpper(strings.TrimSpace(ticker))
}

// Lookup returns the cached record for ticker when present, otherwise
// delegates to the wrapped provider and stores the result.
func (c *CachedProvider) Lookup(ctx context.Context, ticker string) (research.CompanySummary, error) {
	key := cacheKey(ticker)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var summary research.CompanySummary
		if jsonErr := json.Unmarshal(raw, &summary); jsonErr == nil {
			return summary, nil
		}
		// Corrupt entry, drop it and fall through
		if delErr := c.client.Del(ctx, key).Err(); delErr != nil {
			c.logger.Printf("failed to evict corrupt entry %s: %v", key, delErr)
		}
	} else if err != redis.Nil {
		c.logger.Printf("cache read failed for %s: %v", key, err)
	}

	summary, err := c.inner.Lookup(ctx, ticker)
	if err != nil {
		return research.CompanySummary{}, err
	}

	if encoded, jsonErr := json.Marshal(summary); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			c.logger.Printf("cache write failed for %s: %v", key, setErr)
		}
	}
	return summary, nil
}
