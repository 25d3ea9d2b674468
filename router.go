package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/user/cariin-go/apperror"
	"github.com/user/cariin-go/auth"
	_ "github.com/user/cariin-go/docs" // Generated Swagger docs
	"github.com/user/cariin-go/logging"
	"github.com/user/cariin-go/products"
	"github.com/user/cariin-go/users"
)

// catalogTimeoutMargin leaves room past a full scrape for the store fallback
// and the response.
const catalogTimeoutMargin = 30 * time.Second

// catalogRouteTimeout is the request timeout for the catalog routes. It always
// outlasts the scraper client so an upstream failure is reported by the client.
func catalogRouteTimeout(scraperTimeout time.Duration) time.Duration {
	return scraperTimeout + catalogTimeoutMargin
}

type routerDeps struct {
	scraperTimeout time.Duration

	logger   *zap.Logger
	registry *prometheus.Registry
	products *products.ProductHandlers
	auth     *auth.Handlers
	authSvc  *auth.Service
	users    *users.UserHandlers
}

// newRouter mounts every route on a chi router. Middleware must be registered
// before any route.
func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(d.logger))
	r.Use(logging.Recoverer(d.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(catalogRouteTimeout(d.scraperTimeout)))
		d.products.RegisterRoutes(r)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		d.auth.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(d.authSvc))
			r.Get("/me", d.users.HandleGetUserProfile())
			r.Put("/me", d.users.HandleUpdateUserProfile())
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteError(w, apperror.NewNotFoundError("route not found", nil))
	})

	return r
}
