package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"restaurantfinder/backend"
	"restaurantfinder/history"
)

const (
	BatchSize          = 50
	DefaultConcurrency = 4
)

// Warmer refreshes a cached backend response.
type Warmer interface {
	Warm(ctx context.Context, q backend.Query) error
}

// StartPrefetchWorker periodically re-fetches the most recent searches so the
// next user asking for a popular postal code is served from cache. It returns
// immediately; the loop stops when ctx is done.
func StartPrefetchWorker(ctx context.Context, src history.Source, w Warmer, interval time.Duration, concurrency int, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger.Info("starting prefetch worker", "batch", BatchSize, "concurrency", concurrency, "interval", interval)

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("prefetch worker stopped")
				return
			case <-ticker.C:
				n, err := Prefetch(ctx, src, w, concurrency, logger)
				if err != nil {
					logger.Warn("prefetch round failed", "error", err)
					continue
				}
				logger.Debug("prefetch round done", "queries", n)
			}
		}
	}()
}

// Prefetch warms one batch of recent searches and returns how many queries
// were attempted. Searches that need a user position are skipped since the
// position is not stored. A failed warm is logged and does not stop the batch.
func Prefetch(ctx context.Context, src history.Source, w Warmer, concurrency int, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	entries, err := src.Recent(ctx, BatchSize)
	if err != nil {
		return 0, err
	}

	queries := make([]backend.Query, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Method.NeedsLocation() {
			continue
		}
		q := backend.Query{PostalCode: e.PostalCode, Method: e.Method}
		if seen[q.Key()] {
			continue
		}
		seen[q.Key()] = true
		queries = append(queries, q)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, q := range queries {
		g.Go(func() error {
			if err := w.Warm(gctx, q); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("prefetch failed", "postal_code", q.PostalCode, "method", q.Method, "error", err)
				return nil
			}
			logger.Debug("prefetched", "postal_code", q.PostalCode, "method", q.Method)
			return nil
		})
	}
	return len(queries), g.Wait()
}
