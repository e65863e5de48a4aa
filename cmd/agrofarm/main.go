package main

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/iscander13/back/pkg/api"
	"github.com/iscander13/back/pkg/auth"
	"github.com/iscander13/back/pkg/config"
	"github.com/iscander13/back/pkg/crops"
	"github.com/iscander13/back/pkg/observability"
	"github.com/iscander13/back/pkg/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *observability.Logger) error {
	ctx := context.Background()

	// The signing key is resolved eagerly so a bad secret fails startup
	// instead of the first login.
	signingKey, err := auth.ResolveSigningKey(cfg.Auth.Secret, cfg.Auth.AllowEphemeralKey)
	if err != nil {
		return err
	}
	codec := auth.NewCodec(signingKey, cfg.Auth.TokenTTL)

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	st, err := store.Open(cfg.Database, metrics)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	if err := st.EnsureSeedAccounts(ctx, cfg.SeedAccounts(), log); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable at startup; login rate limiting degraded")
		}
	}

	var catalog crops.Catalog
	var fileCatalog *crops.FileCatalog
	if cfg.CropCatalogPath != "" {
		fileCatalog, err = crops.NewFileCatalog(cfg.CropCatalogPath, log)
		if err != nil {
			return err
		}
		if err := fileCatalog.Watch(); err != nil {
			log.WithError(err).Warn("crop catalog watcher unavailable; catalog is static")
		}
		catalog = fileCatalog
	}

	resolver := auth.NewResolver(codec, store.NewDirectory(st), cfg.Auth.TrustAdminClaims, log)

	server := api.NewServer(api.ServerOptions{
		Store:          st,
		Codec:          codec,
		Resolver:       resolver,
		Catalog:        catalog,
		Redis:          redisClient,
		Metrics:        metrics,
		Health:         observability.NewHealthChecker(st.DB(), redisClient),
		Logger:         log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	})

	scheduler := cron.New()

	if metrics != nil {
		if _, err := scheduler.AddFunc("@every 1m", func() {
			gaugeCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
			defer cancel()
			if users, err := st.CountUsers(gaugeCtx); err == nil {
				metrics.UsersTotal.Set(float64(users))
			}
			if polygons, err := st.CountPolygons(gaugeCtx); err == nil {
				metrics.PolygonsTotal.Set(float64(polygons))
			}
		}); err != nil {
			return err
		}
	}

	// Stale recovery codes are swept hourly.
	if _, err := scheduler.AddFunc("@hourly", func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
		defer cancel()
		cleared, err := st.ClearExpiredResetCodes(sweepCtx)
		if err != nil {
			log.WithError(err).Warn("failed to clear expired reset codes")
			return
		}
		if cleared > 0 {
			log.WithField("cleared", cleared).Info("cleared expired reset codes")
		}
	}); err != nil {
		return err
	}
	scheduler.Start()

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(log, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		scheduler.Stop()
		return nil
	})
	if fileCatalog != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return fileCatalog.Close()
		})
	}
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return st.Close()
	})

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("starting server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	shutdownErr := make(chan error, 1)
	go func() {
		shutdownErr <- shutdown.WaitForShutdown()
	}()

	select {
	case err := <-serveErr:
		return err
	case err := <-shutdownErr:
		return err
	}
}
