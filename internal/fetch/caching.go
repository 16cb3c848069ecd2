package fetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/onnimonni/gridscan/internal/cache"
	"github.com/onnimonni/gridscan/internal/core/observability"
)

// Caching layers a byte store in front of another fetcher. Store errors are
// logged and treated as misses; the cache must never fail a scan that the
// network could still serve.
type Caching struct {
	next  Fetcher
	store cache.Store
	ttl   time.Duration
	key   func(locator string) string
	log   *slog.Logger
}

func NewCaching(log *slog.Logger, next Fetcher, store cache.Store, ttl time.Duration, key func(string) string) *Caching {
	if log == nil {
		log = slog.Default()
	}
	return &Caching{next: next, store: store, ttl: ttl, key: key, log: log}
}

func (c *Caching) Fetch(ctx context.Context, locator string) ([]byte, error) {
	k := c.key(locator)

	if val, ok, err := c.store.Get(ctx, k); err != nil {
		c.log.Warn("cache get failed", slog.String("key", k), slog.Any("err", err))
	} else if ok {
		observability.IncCacheHit()
		return val, nil
	}
	observability.IncCacheMiss()

	body, err := c.next.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, k, body, c.ttl); err != nil {
		c.log.Warn("cache set failed", slog.String("key", k), slog.Any("err", err))
	}
	return body, nil
}
