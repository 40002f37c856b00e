package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"fincentiva-api/config"
	httpLayer "fincentiva-api/http"
	"fincentiva-api/observability"
	"fincentiva-api/repository"
	"fincentiva-api/service"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, slog.Default())
		},
	}
}

type stores struct {
	companies   repository.CompanyRepository
	simulations repository.SimulationRepository
	cache       repository.CacheRepository
	close       func()
}

// openStores picks Postgres and Redis when configured, memory otherwise.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	s := stores{close: func() {}}
	var closers []func()

	if cfg.Database.URL != "" {
		pool, err := repository.NewPool(ctx, repository.PoolConfig{URL: cfg.Database.URL})
		if err != nil {
			return stores{}, err
		}
		closers = append(closers, pool.Close)
		s.companies = repository.NewCompanyRepositoryPostgres(pool)
		s.simulations = repository.NewSimulationRepositoryPostgres(pool)
		logger.Info("using postgres stores")
	} else {
		s.companies = repository.NewCompanyRepositoryMemory()
		s.simulations = repository.NewSimulationRepositoryMemory()
		logger.Warn("database.url not set, companies are kept in memory")
	}

	if cfg.Redis.Addr != "" {
		cache, err := repository.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Cache.TTL, logger)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return stores{}, err
		}
		closers = append(closers, func() { _ = cache.Close() })
		s.cache = cache
		logger.Info("using redis cache", "addr", cfg.Redis.Addr)
	} else {
		s.cache = repository.NewMemoryCache()
	}

	s.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return s, nil
}

func newEngine(cfg config.Config) *service.Engine {
	opts := service.DefaultOptions()
	opts.TaxRate = cfg.Engine.TaxRate
	opts.Strict = cfg.Engine.StrictFrequency
	return service.NewEngine(opts)
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	metrics := observability.NewMetrics()

	loanService := service.NewLoanService(newEngine(cfg), st.companies, st.simulations, st.cache, logger).
		WithObserver(metrics)
	termService := service.NewTermRecommendationService(loanService, logger)
	companyService := service.NewCompanyService(st.companies)
	productService := service.NewProductService(repository.NewHTTPProductProvider(cfg.Product.Timeout), st.cache, logger)

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Window)
	defer rateLimiter.Stop()

	handler := httpLayer.NewRouter(httpLayer.Handlers{
		Loan:               httpLayer.NewLoanHandler(loanService, logger),
		TermRecommendation: httpLayer.NewTermRecommendationHandler(termService, logger),
		Company:            httpLayer.NewCompanyHandler(companyService, logger),
		Product:            httpLayer.NewProductHandler(productService, cfg.Product.Timeout, logger),
		Metrics:            metrics.Handler(),
	}, rateLimiter, metrics, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("API listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("starting server: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}
