package products

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultFreshnessWindow is how long stored products are trusted before the
// next search goes back to the scraping service.
const DefaultFreshnessWindow = time.Hour

// DefaultRefreshTimeout bounds a coalesced refresh, which runs detached from
// the request that started it.
const DefaultRefreshTimeout = 2 * time.Minute

// storeTimeout bounds storage work that must finish even after the request
// context is gone: the fallback read and the persist after a refresh.
const storeTimeout = 10 * time.Second

// Store is the persistence the gateway needs. PGStore implements it.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Stats(ctx context.Context) (CacheStats, error)
	ReadAll(ctx context.Context) ([]Product, error)
	ReplaceAll(ctx context.Context, products []Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
}

// Gateway answers product searches from the store while it is fresh and goes to
// the scraping service when it is not. A search never fails: upstream errors fall
// back to stored data, and a failing store degrades to an empty result.
type Gateway struct {
	store   Store
	scraper Scraper
	logger  *zap.Logger

	window  time.Duration
	now     func() time.Time
	cache   ResultCache
	metrics *Metrics

	coalesce       bool
	refreshTimeout time.Duration
	inflight       singleflight.Group
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithFreshnessWindow overrides DefaultFreshnessWindow.
func WithFreshnessWindow(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.window = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// WithResultCache puts a query-keyed cache in front of the shared table.
func WithResultCache(cache ResultCache) Option {
	return func(g *Gateway) { g.cache = cache }
}

// WithMetrics records where each search result came from.
func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithRefreshCoalescing makes concurrent refreshes of the same search share one
// upstream call. Without it every stale request fetches and rewrites the table on
// its own, and the last writer wins.
func WithRefreshCoalescing(enabled bool) Option {
	return func(g *Gateway) { g.coalesce = enabled }
}

// WithRefreshTimeout overrides DefaultRefreshTimeout.
func WithRefreshTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.refreshTimeout = d
		}
	}
}

// NewGateway creates a Gateway. A nil logger is replaced by a no-op logger.
func NewGateway(store Store, scraper Scraper, logger *zap.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{
		store:   store,
		scraper: scraper,
		logger:  logger.Named("catalog"),
		window:  DefaultFreshnessWindow,
		now:     time.Now,

		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EnsureSchema creates the products table. Failure is logged and ignored so the
// service can still start against a table it is not allowed to alter.
func (g *Gateway) EnsureSchema(ctx context.Context) {
	if err := g.store.EnsureSchema(ctx); err != nil {
		g.logger.Warn("products table initialization failed, continuing", zap.Error(err))
		return
	}
	g.logger.Info("products table initialized")
}

// NeedsRefresh reports whether the stored products are missing or older than the
// freshness window. A last update exactly at now minus the window is still fresh.
// Storage errors count as stale.
func (g *Gateway) NeedsRefresh(ctx context.Context) bool {
	stats, err := g.store.Stats(ctx)
	if err != nil {
		g.logger.Warn("could not check product cache freshness", zap.Error(err))
		return true
	}
	if stats.Count == 0 || stats.LastUpdate == nil {
		return true
	}
	return stats.LastUpdate.Before(g.now().Add(-g.window))
}

// ReadAll returns every stored product, newest first.
func (g *Gateway) ReadAll(ctx context.Context) ([]Product, error) {
	return g.store.ReadAll(ctx)
}

// FetchUpstream runs a live search with defaults applied.
func (g *Gateway) FetchUpstream(ctx context.Context, params SearchParams) ([]Product, error) {
	products, err := g.scraper.Scrape(ctx, params.WithDefaults())
	if err != nil {
		g.metrics.upstreamFailed()
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	g.logger.Debug("fetched products from scraper",
		zap.String("search_query", params.SearchQuery),
		zap.Int("count", len(products)))
	return products, nil
}

// ReplaceAll swaps the stored product set for products. It is best effort: a
// failure is logged and otherwise ignored.
func (g *Gateway) ReplaceAll(ctx context.Context, products []Product) {
	if err := g.store.ReplaceAll(ctx, products); err != nil {
		g.metrics.persistFailed()
		g.logger.Warn("failed to save products, continuing without persisting", zap.Error(err))
		return
	}
	g.logger.Info("saved products", zap.Int("count", len(products)))
}

// GetProducts answers a search. It never returns nil.
func (g *Gateway) GetProducts(ctx context.Context, params SearchParams) []Product {
	params = params.WithDefaults()
	fingerprint := params.Fingerprint()

	stale := false
	if g.cache != nil {
		cached, hit, err := g.cache.Get(ctx, fingerprint)
		switch {
		case err != nil:
			g.logger.Warn("result cache lookup failed", zap.Error(err))
		case hit:
			g.metrics.observeSource(SourceResultCache)
			return cached
		default:
			// The shared table may hold another query's results.
			stale = true
		}
	}

	if stale || g.NeedsRefresh(ctx) {
		products, err := g.refresh(ctx, params, fingerprint)
		if err == nil {
			g.metrics.observeSource(SourceUpstream)
			return products
		}
		g.logger.Warn("scraper unavailable, falling back to stored products",
			zap.String("search_query", params.SearchQuery), zap.Error(err))
		// The request context may be what made the scraper fail.
		fallbackCtx, cancel := detach(ctx, storeTimeout)
		defer cancel()
		return g.readStore(fallbackCtx, SourceFallback)
	}
	return g.readStore(ctx, SourceStore)
}

func (g *Gateway) readStore(ctx context.Context, source string) []Product {
	products, err := g.ReadAll(ctx)
	if err != nil {
		g.logger.Error("reading stored products failed, returning empty result", zap.Error(err))
		g.metrics.observeSource(SourceEmpty)
		return []Product{}
	}
	g.metrics.observeSource(source)
	if products == nil {
		return []Product{}
	}
	return products
}

func (g *Gateway) refresh(ctx context.Context, params SearchParams, fingerprint string) ([]Product, error) {
	if !g.coalesce {
		return g.fetchAndPersist(ctx, params, fingerprint)
	}
	// The shared call must not die with whichever request happened to start it.
	ch := g.inflight.DoChan(fingerprint, func() (interface{}, error) {
		sharedCtx, cancel := detach(ctx, g.refreshTimeout)
		defer cancel()
		return g.fetchAndPersist(sharedCtx, params, fingerprint)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			g.logger.Debug("joined in-flight refresh", zap.String("search_query", params.SearchQuery))
		}
		return res.Val.([]Product), nil
	}
}

func (g *Gateway) fetchAndPersist(ctx context.Context, params SearchParams, fingerprint string) ([]Product, error) {
	products, err := g.FetchUpstream(ctx, params)
	if err != nil {
		return nil, err
	}
	persistCtx, cancel := detach(ctx, storeTimeout)
	defer cancel()
	g.ReplaceAll(persistCtx, products)
	if g.cache != nil {
		if err := g.cache.Set(persistCtx, fingerprint, products); err != nil {
			g.logger.Warn("result cache store failed", zap.Error(err))
		}
	}
	return products, nil
}

// detach keeps ctx's values but not its cancellation, and applies its own timeout.
func detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// GetByID returns the stored product with the given id, or nil. Storage errors
// are returned to the caller.
func (g *Gateway) GetByID(ctx context.Context, id int64) (*Product, error) {
	return g.store.GetByID(ctx, id)
}

// GetBySKU returns the stored product with the given SKU, or nil.
func (g *Gateway) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return g.store.GetBySKU(ctx, sku)
}
