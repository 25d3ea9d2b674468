package background

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/cariin-go/products"
)

type countingSearcher struct {
	calls   atomic.Int32
	lastQ   atomic.Value
	blockOn bool
}

func (s *countingSearcher) GetProducts(ctx context.Context, params products.SearchParams) []products.Product {
	s.calls.Add(1)
	s.lastQ.Store(params)
	if s.blockOn {
		<-ctx.Done()
	}
	return []products.Product{}
}

func TestCacheWarmer(t *testing.T) {
	t.Run("WarmsImmediatelyAndOnEveryTick", func(t *testing.T) {
		searcher := &countingSearcher{}
		stop := make(chan struct{})
		w := StartCacheWarmer(searcher, products.SearchParams{SearchQuery: "phone"}, 10*time.Millisecond, zap.NewNop(), stop)

		require.Eventually(t, func() bool { return searcher.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
		close(stop)
		w.Wait()

		params := searcher.lastQ.Load().(products.SearchParams)
		require.Equal(t, "phone", params.SearchQuery)
		require.Equal(t, products.DefaultMaxProducts, params.MaxProducts)

		after := searcher.calls.Load()
		time.Sleep(30 * time.Millisecond)
		require.Equal(t, after, searcher.calls.Load())
	})

	t.Run("StopCancelsSearchInProgress", func(t *testing.T) {
		searcher := &countingSearcher{blockOn: true}
		stop := make(chan struct{})
		w := StartCacheWarmer(searcher, products.SearchParams{SearchQuery: "phone"}, time.Hour, nil, stop)

		require.Eventually(t, func() bool { return searcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

		done := make(chan struct{})
		go func() {
			w.Wait()
			close(done)
		}()
		close(stop)

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("warmer did not stop")
		}
	})
}
