package main

import (
	"context"
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"GameShelf/internal/auth"
	"GameShelf/internal/catalog"
	"GameShelf/internal/config"
	"GameShelf/pkg/kit"
)

const service = "catalog"

func main() {
	cfg := config.Load("8082")

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	shutdownTracing, err := kit.SetupTracing(ctx, service, cfg.Tracing.OTLPEndpoint, cfg.Tracing.Insecure)
	if err != nil {
		log.Fatal("tracing setup failed", zap.Error(err))
	}

	cleanups := []func(context.Context) error{shutdownTracing}

	store, closeStore := buildStore(ctx, cfg, log)
	cleanups = append(cleanups, closeStore...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := catalog.HTTPDeps{
		Log:             log,
		Service:         service,
		Registry:        reg,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsToken:    cfg.Metrics.Token,
		WritesPerMinute: cfg.WriteRatePerMinute,
	}
	if cfg.Auth.JWTSecret != "" {
		deps.WriteGuard = auth.RequireToken(auth.NewTokenMaker(cfg.Auth.JWTSecret))
	} else {
		log.Warn("JWT_SECRET not set, catalog writes are not authenticated")
	}

	s := &catalog.Server{
		Service: catalog.NewService(store, log),
		Log:     log,
	}

	if err := kit.RunHTTPServer(":"+cfg.Port, catalog.NewHandler(s, deps), log, cleanups...); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// buildStore picks Postgres when DATABASE_URL is set and the in-memory store
// otherwise, then layers the Redis cache on top when REDIS_URL is set.
func buildStore(ctx context.Context, cfg config.Config, log *zap.Logger) (catalog.Store, []func(context.Context) error) {
	var (
		store    catalog.Store
		cleanups []func(context.Context) error
	)

	if cfg.DatabaseURL == "" {
		log.Info("using in-memory store")
		store = catalog.NewMemStore()
	} else {
		db, err := kit.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("postgres connect failed", zap.Error(err))
		}
		pg := catalog.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("postgres schema failed", zap.Error(err))
		}
		log.Info("using postgres store")
		store = pg
		cleanups = append(cleanups, closeDB(db))
	}

	if cfg.Redis.URL != "" {
		rdb := kit.NewRedisClient(ctx, cfg.Redis.URL, log)
		store = catalog.NewCachedStore(store, rdb, cfg.Redis.TTL, log)
		cleanups = append(cleanups, closeRedis(rdb))
	}

	return store, cleanups
}

func closeDB(db *sql.DB) func(context.Context) error {
	return func(context.Context) error { return db.Close() }
}

func closeRedis(rdb *redis.Client) func(context.Context) error {
	return func(context.Context) error { return rdb.Close() }
}
