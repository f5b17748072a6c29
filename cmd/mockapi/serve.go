package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/platinummonkey/mockapi/pkg/api"
	"github.com/platinummonkey/mockapi/pkg/auth"
	"github.com/platinummonkey/mockapi/pkg/catalog"
	"github.com/platinummonkey/mockapi/pkg/config"
	"github.com/platinummonkey/mockapi/pkg/middleware"
	"github.com/platinummonkey/mockapi/pkg/observability"
	"github.com/platinummonkey/mockapi/pkg/resources"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API and health servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, log)
	},
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	log.WithFields(logrus.Fields{
		"name":    cfg.App.Name,
		"version": cfg.App.Version,
	}).Info("Starting mock API")

	var (
		registry *prometheus.Registry
		metrics  *observability.Metrics
	)
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = observability.NewMetrics(registry)
	}

	repo, err := openResources(cfg, log, metrics)
	if err != nil {
		return err
	}

	store, err := openCatalog(ctx, cfg, log, metrics)
	if err != nil {
		return err
	}

	tokens, err := newTokenManager(cfg)
	if err != nil {
		return err
	}

	authOpts := []auth.AuthenticatorOption{auth.WithAuthLogger(log)}
	if metrics != nil {
		authOpts = append(authOpts, auth.WithAuthRecorder(metrics))
	}

	var (
		limiter      middleware.Limiter
		memLimiter   *middleware.RateLimiter
		redisLimiter *middleware.DistributedRateLimiter
		redisClient  *redis.Client
	)
	if cfg.RateLimit.RequestsPerMinute > 0 {
		rlConfig := &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerMinute,
			WindowDuration:    time.Minute,
			BurstSize:         cfg.RateLimit.Burst,
		}
		if cfg.RateLimit.RedisURL != "" {
			redisOpts, err := redis.ParseURL(cfg.RateLimit.RedisURL)
			if err != nil {
				return fmt.Errorf("invalid rate limit Redis URL: %w", err)
			}
			redisClient = redis.NewClient(redisOpts)
			redisLimiter = middleware.NewDistributedRateLimiter(redisClient, rlConfig, "mockapi:ratelimit")
			limiter = redisLimiter
			log.WithField("addr", redisOpts.Addr).Info("Using Redis for rate limits")
		} else {
			memLimiter = middleware.NewRateLimiter(rlConfig)
			limiter = memLimiter
		}
	}

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Endpoint:       cfg.Observability.TracingEndpoint,
		Insecure:       cfg.Observability.TracingInsecure,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
	}, log)
	if err != nil {
		return err
	}

	opts := api.Options{
		Info: api.Info{
			Name:        cfg.App.Name,
			Version:     cfg.App.Version,
			Description: cfg.App.Description,
		},
		BasePath:           cfg.Server.BasePath,
		JSONAPIPaths:       cfg.Server.JSONAPIPaths,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		APIKeyHeader:       cfg.Auth.APIKeyHeader,
		Resources:          repo,
		Catalog:            store,
		Authenticator:      auth.NewAuthenticator(tokens, store, authOpts...),
		APIKeys:            auth.NewKeySet(cfg.Auth.APIKeys...),
		Audit:              auth.NewAuditLogger(log),
		Metrics:            metrics,
		RateLimiter:        limiter,
		Logger:             log,
	}
	if tp != nil {
		opts.TracerProvider = tp
	}
	server := api.NewServer(opts)

	checker := observability.NewHealthChecker(cfg.App.Version)
	checker.AddCheck("catalog", true, func(ctx context.Context) error {
		if store.Current() == nil {
			return errors.New("catalog not loaded")
		}
		return nil
	})
	checker.AddCheck("resources_csv", false, func(ctx context.Context) error {
		_, err := os.Stat(repo.Path())
		return err
	})
	if redisLimiter != nil {
		checker.AddCheck("rate_limit_redis", false, redisLimiter.HealthCheck)
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, checker)
	if registry != nil {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:      healthMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	var (
		watcher   *catalog.Watcher
		scheduler *catalog.Scheduler
	)
	if cfg.Data.WatchCatalog {
		if watcher, err = catalog.NewWatcher(store, catalog.DefaultDebounce, log); err != nil {
			return fmt.Errorf("failed to create catalog watcher: %w", err)
		}
	}
	if cfg.Data.ReloadSchedule != "" {
		if scheduler, err = catalog.NewScheduler(store, cfg.Data.ReloadSchedule, log); err != nil {
			return err
		}
	}

	shutdown := observability.NewShutdownManager(log, cfg.Server.ShutdownTimeout, apiServer, healthServer)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		cancel()
		return nil
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return redisClient.Close()
		})
	}
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownTracing(ctx, tp)
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", apiServer.Addr).Info("API server listening")
		return listen(apiServer)
	})
	g.Go(func() error {
		log.WithField("addr", healthServer.Addr).Info("Health server listening")
		return listen(healthServer)
	})

	if memLimiter != nil {
		memLimiter.StartCleanup(gctx)
	}
	if watcher != nil {
		g.Go(func() error {
			defer observability.RecoverPanic(log, "catalog watcher")
			return watcher.Run(gctx)
		})
	}
	if scheduler != nil {
		g.Go(func() error {
			defer observability.RecoverPanic(log, "catalog scheduler")
			return scheduler.Run(gctx)
		})
	}

	g.Go(func() error {
		return shutdown.WaitForShutdown(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Mock API stopped")
	return nil
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server on %s failed: %w", srv.Addr, err)
	}
	return nil
}

// openResources prepares the CSV repository, creating the file with its
// header row when it does not exist yet.
func openResources(cfg *config.Config, log *logrus.Logger, metrics *observability.Metrics) (*resources.Repository, error) {
	opts := []resources.Option{resources.WithLogger(log)}
	if metrics != nil {
		opts = append(opts, resources.WithRecorder(metrics))
	}

	repo := resources.NewRepository(cfg.Data.CSVFilePath, opts...)
	if err := repo.EnsureFile(); err != nil {
		return nil, fmt.Errorf("failed to prepare %s: %w", cfg.Data.CSVFilePath, err)
	}
	return repo, nil
}

func openCatalog(ctx context.Context, cfg *config.Config, log *logrus.Logger, metrics *observability.Metrics) (*catalog.Store, error) {
	src, err := catalog.NewSource(ctx, cfg.Data.JSONFilePath, catalog.S3Config{
		Region:       cfg.Data.S3.Region,
		Endpoint:     cfg.Data.S3.Endpoint,
		AccessKey:    cfg.Data.S3.AccessKey,
		SecretKey:    cfg.Data.S3.SecretKey,
		UsePathStyle: cfg.Data.S3.UsePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog source: %w", err)
	}

	opts := []catalog.StoreOption{catalog.WithStoreLogger(log)}
	if metrics != nil {
		opts = append(opts,
			catalog.WithLoadHook(func(repo *catalog.Repository) {
				counts := make(map[string]int)
				for c, n := range repo.Counts() {
					counts[c.String()] = n
				}
				metrics.RecordCatalogLoad(counts, repo.LoadedAt())
			}),
			catalog.WithFailureHook(func(error) {
				metrics.RecordCatalogLoadFailure()
			}),
		)
	}

	store, err := catalog.NewStore(ctx, src, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s: %w", src, err)
	}
	return store, nil
}

func newTokenManager(cfg *config.Config) (*auth.TokenManager, error) {
	alg, err := cfg.SigningAlgorithm()
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenManager(cfg.Auth.SecretKey, alg, cfg.Auth.AccessTokenTTL,
		auth.WithValidationCache(cfg.Auth.TokenCacheSize),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}
	return tokens, nil
}
