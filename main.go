// Command cariin serves the product catalog gateway and the user account API.
//
// @title Cariin API
// @version 1.0
// @description Product catalog backed by a scraping service, plus user accounts.
// @contact.name API Support
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize, or rely on the token cookie set by login
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/user/cariin-go/auth"
	"github.com/user/cariin-go/background"
	"github.com/user/cariin-go/config"
	"github.com/user/cariin-go/db"
	"github.com/user/cariin-go/logging"
	"github.com/user/cariin-go/products"
	"github.com/user/cariin-go/users"
)

func main() {
	app := &cli.App{
		Name:   "cariin",
		Usage:  "product catalog gateway and user account API",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run migrations and start the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations and exit",
				Action: migrateOnly,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads .env, the configuration and the logger shared by every command.
func bootstrap() (*config.AppConfig, *zap.Logger, error) {
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	if envErr != nil {
		logger.Debug(".env file not loaded", zap.Error(envErr))
	}
	return cfg, logger, nil
}

func migrateOnly(_ *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return db.RunMigrations(cfg.DB, logger)
}

func serve(_ *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	// The product table is created by the gateway itself, so a failed migration
	// only degrades the account endpoints.
	if err := db.RunMigrations(cfg.DB, logger); err != nil {
		logger.Error("database migrations failed", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gatewayOpts := []products.Option{
		products.WithMetrics(products.NewMetrics(registry)),
		products.WithRefreshCoalescing(cfg.Catalog.CoalesceRefresh),
		products.WithRefreshTimeout(catalogRouteTimeout(cfg.Scraper.Timeout)),
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unreachable, result cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			gatewayOpts = append(gatewayOpts,
				products.WithResultCache(products.NewRedisResultCache(rdb, products.DefaultFreshnessWindow)))
			logger.Info("result cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	gateway := products.NewGateway(
		products.NewPGStore(db.NewSQLX(pool)),
		products.NewHTTPScraper(cfg.Scraper.BaseURL, cfg.Scraper.Timeout),
		logger,
		gatewayOpts...,
	)
	gateway.EnsureSchema(context.Background())

	repo := auth.NewPGUserRepository(pool)
	authService := auth.NewService(repo, *cfg.Auth, logger)
	userService := users.NewUserService(repo, logger)

	router := newRouter(routerDeps{
		scraperTimeout: cfg.Scraper.Timeout,

		logger:   logger,
		registry: registry,
		products: products.NewProductHandlers(gateway),
		auth:     auth.NewHandlers(authService),
		authSvc:  authService,
		users:    users.NewUserHandlers(userService),
	})

	stopChan := make(chan struct{})
	var warmer *background.CacheWarmer
	if cfg.Catalog.WarmQuery != "" {
		warmer = background.StartCacheWarmer(gateway,
			products.SearchParams{SearchQuery: cfg.Catalog.WarmQuery},
			cfg.Catalog.WarmInterval, logger, stopChan)
	}

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	// WriteTimeout must outlast the catalog route timeout.
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: catalogRouteTimeout(cfg.Scraper.Timeout) + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
		logger.Info("server shutting down")
	case err := <-serverErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	close(stopChan)
	if warmer != nil {
		warmer.Wait()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	logger.Info("server stopped")
	return runErr
}
