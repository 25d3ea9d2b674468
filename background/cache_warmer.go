// Package background runs long-lived jobs next to the HTTP server.
package background

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/cariin-go/products"
)

// Searcher is the part of products.Gateway the warmer drives.
type Searcher interface {
	GetProducts(ctx context.Context, params products.SearchParams) []products.Product
}

// CacheWarmer periodically runs one search so the shared products table is
// refreshed before user traffic finds it stale.
type CacheWarmer struct {
	searcher Searcher
	params   products.SearchParams
	interval time.Duration
	logger   *zap.Logger

	wg sync.WaitGroup
}

// StartCacheWarmer runs a search right away and then every interval until
// stopChan is closed. Closing stopChan also cancels a search in progress.
func StartCacheWarmer(searcher Searcher, params products.SearchParams, interval time.Duration,
	logger *zap.Logger, stopChan <-chan struct{}) *CacheWarmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &CacheWarmer{
		searcher: searcher,
		params:   params.WithDefaults(),
		interval: interval,
		logger:   logger.Named("cache_warmer"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-stopChan:
		case <-ctx.Done():
		}
		cancel()
	}()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()
		w.loop(ctx)
	}()

	w.logger.Info("cache warmer started",
		zap.String("search_query", w.params.SearchQuery),
		zap.Duration("interval", interval))
	return w
}

func (w *CacheWarmer) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.warm(ctx)
	for {
		select {
		case <-ticker.C:
			w.warm(ctx)
		case <-ctx.Done():
			w.logger.Info("cache warmer stopped")
			return
		}
	}
}

func (w *CacheWarmer) warm(ctx context.Context) {
	start := time.Now()
	result := w.searcher.GetProducts(ctx, w.params)
	w.logger.Debug("cache warmed",
		zap.Int("count", len(result)),
		zap.Duration("duration", time.Since(start)))
}

// Wait blocks until the warmer goroutine has exited.
func (w *CacheWarmer) Wait() {
	w.wg.Wait()
}
