package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/cariin-go/auth"
	"github.com/user/cariin-go/config"
	"github.com/user/cariin-go/products"
	"github.com/user/cariin-go/users"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	registry := prometheus.NewRegistry()
	gateway := products.NewGateway(nil, nil, zap.NewNop(), products.WithMetrics(products.NewMetrics(registry)))
	authSvc := auth.NewService(nil, config.AuthConfig{JWTSecret: "secret", TokenDuration: time.Hour}, nil)

	return newRouter(routerDeps{
		scraperTimeout: time.Second,

		logger:   zap.NewNop(),
		registry: registry,
		products: products.NewProductHandlers(gateway),
		auth:     auth.NewHandlers(authSvc),
		authSvc:  authSvc,
		users:    users.NewUserHandlers(users.NewUserService(nil, nil)),
	})
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t)

	serve := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("Health", func(t *testing.T) {
		rec := serve(http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("Metrics", func(t *testing.T) {
		rec := serve(http.MethodGet, "/metrics", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("SearchRequiresQuery", func(t *testing.T) {
		rec := serve(http.MethodGet, "/api/product", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "search_query is required")
	})

	t.Run("ProfileRequiresToken", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, serve(http.MethodGet, "/api/users/me", "").Code)
		require.Equal(t, http.StatusUnauthorized, serve(http.MethodPut, "/api/users/me", `{}`).Code)
	})

	t.Run("RegisterValidates", func(t *testing.T) {
		rec := serve(http.MethodPost, "/api/users/register", `{"name":"Al"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownRoute", func(t *testing.T) {
		rec := serve(http.MethodGet, "/api/nothing", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, `{"error":"route not found"}`, rec.Body.String())
	})
}

func TestCatalogRouteTimeout(t *testing.T) {
	for _, scraper := range []time.Duration{time.Second, 60 * time.Second, 5 * time.Minute} {
		require.Greater(t, catalogRouteTimeout(scraper), scraper)
	}
}
