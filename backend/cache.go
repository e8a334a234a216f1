package backend

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"restaurantfinder/models"
)

// CachedFetcher memoises successful backend responses for a short TTL.
// Callers always get their own copies so derived fields never leak across
// sessions.
type CachedFetcher struct {
	next   Fetcher
	cache  *cache.Cache
	logger *slog.Logger
}

// NewCachedFetcher wraps next with a response cache.
func NewCachedFetcher(next Fetcher, ttl time.Duration, logger *slog.Logger) *CachedFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedFetcher{
		next:   next,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Fetch serves q from the cache or the wrapped Fetcher.
func (f *CachedFetcher) Fetch(ctx context.Context, q Query) ([]*models.Restaurant, error) {
	key := q.Key()
	if v, ok := f.cache.Get(key); ok {
		f.logger.Debug("backend cache hit", "key", key)
		return models.CloneAll(v.([]*models.Restaurant)), nil
	}

	restaurants, err := f.next.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	f.store(key, restaurants)
	return models.CloneAll(restaurants), nil
}

// Warm fetches q from the wrapped Fetcher and replaces any cached entry.
func (f *CachedFetcher) Warm(ctx context.Context, q Query) error {
	restaurants, err := f.next.Fetch(ctx, q)
	if err != nil {
		return err
	}
	f.store(q.Key(), restaurants)
	return nil
}

// Len reports the number of live entries.
func (f *CachedFetcher) Len() int {
	return f.cache.ItemCount()
}

func (f *CachedFetcher) store(key string, restaurants []*models.Restaurant) {
	snapshot := models.CloneAll(restaurants)
	for _, r := range snapshot {
		r.ClearDerived()
	}
	f.cache.Set(key, snapshot, cache.DefaultExpiration)
}
