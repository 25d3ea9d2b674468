package products

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/user/cariin-go/apperror"
)

func TestHTTPScraper(t *testing.T) {
	ctx := context.Background()

	t.Run("SendsDefaultedParamsAndDecodesProducts", func(t *testing.T) {
		var got scrapeRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/scrape", r.URL.Path)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"name":"Phone X","price":"Rp 1","sku":"SKU-1","images":["a.jpg"],"specs":{"ram":"8 GB"},"availability":"In stock","src":"https://shop.example/1"},
				{"name":"Phone Y","price":"Rp 2","sku":"SKU-2","images":[],"specs":{},"availability":"Pre-order"}
			]`))
		}))
		defer srv.Close()

		scraper := NewHTTPScraper(srv.URL+"/", time.Second)
		products, err := scraper.Scrape(ctx, SearchParams{SearchQuery: "phone"})
		require.NoError(t, err)

		require.Equal(t, scrapeRequest{SearchQuery: "phone", MaxProducts: 10, AllPages: false, MaxWorkers: 8}, got)
		require.Len(t, products, 2)
		require.Equal(t, "SKU-1", products[0].SKU)
		require.Equal(t, []string{"a.jpg"}, products[0].Images)
		require.Equal(t, "https://shop.example/1", products[0].Src)
		require.Zero(t, products[0].ID)
		require.Nil(t, products[0].CreatedAt)
	})

	t.Run("ErrorStatus", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "scraper overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewHTTPScraper(srv.URL, time.Second).Scrape(ctx, SearchParams{SearchQuery: "phone"})
		require.True(t, apperror.IsUpstreamError(err))
		require.Contains(t, err.Error(), "error response received")
		require.Contains(t, err.Error(), "503")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"detail":"not a list"}`))
		}))
		defer srv.Close()

		_, err := NewHTTPScraper(srv.URL, time.Second).Scrape(ctx, SearchParams{SearchQuery: "phone"})
		require.True(t, apperror.IsUpstreamError(err))
		require.Contains(t, err.Error(), "malformed response")
	})

	t.Run("NullBodyIsMalformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`null`))
		}))
		defer srv.Close()

		products, err := NewHTTPScraper(srv.URL, time.Second).Scrape(ctx, SearchParams{SearchQuery: "phone"})
		require.Nil(t, products)
		require.True(t, apperror.IsUpstreamError(err))
		require.Contains(t, err.Error(), "malformed response")
	})

	t.Run("EmptyArray", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		products, err := NewHTTPScraper(srv.URL, time.Second).Scrape(ctx, SearchParams{SearchQuery: "phone"})
		require.NoError(t, err)
		require.NotNil(t, products)
		require.Empty(t, products)
	})

	t.Run("NoResponse", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewHTTPScraper(url, time.Second).Scrape(ctx, SearchParams{SearchQuery: "phone"})
		require.True(t, apperror.IsUpstreamError(err))
		require.Contains(t, err.Error(), "no response received")
	})

	t.Run("Timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		_, err := NewHTTPScraper(srv.URL, 50*time.Millisecond).Scrape(ctx, SearchParams{SearchQuery: "phone"})
		require.True(t, apperror.IsUpstreamError(err))
		require.Contains(t, err.Error(), "no response received")
	})

	t.Run("RequestCannotBeConstructed", func(t *testing.T) {
		_, err := NewHTTPScraper("http://bad host\x7f", time.Second).Scrape(ctx, SearchParams{SearchQuery: "phone"})
		require.True(t, apperror.IsUpstreamError(err))
		require.Contains(t, err.Error(), "could not be constructed")
	})
}
