package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"GameShelf/internal/auth"
	"GameShelf/internal/config"
	"GameShelf/pkg/kit"
)

const service = "auth"

func main() {
	cfg := config.Load("8081")

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if len(cfg.Auth.JWTSecret) < 32 {
		log.Fatal("JWT_SECRET is required and must be at least 32 chars")
	}

	ctx := context.Background()

	shutdownTracing, err := kit.SetupTracing(ctx, service, cfg.Tracing.OTLPEndpoint, cfg.Tracing.Insecure)
	if err != nil {
		log.Fatal("tracing setup failed", zap.Error(err))
	}
	cleanups := []func(context.Context) error{shutdownTracing}

	var store auth.UserStore
	if cfg.DatabaseURL == "" {
		log.Info("using in-memory user store")
		store = auth.NewMemStore()
	} else {
		db, err := kit.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("postgres connect failed", zap.Error(err))
		}
		pg := auth.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("postgres schema failed", zap.Error(err))
		}
		store = pg
		cleanups = append(cleanups, func(context.Context) error { return db.Close() })
	}

	s := &auth.Server{
		Log:      log,
		Store:    store,
		JWT:      auth.NewTokenMaker(cfg.Auth.JWTSecret),
		TokenTTL: cfg.Auth.TokenTTL,
	}

	h := auth.NewHandler(s, auth.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,

		LoginsPerMinute:        cfg.Auth.LoginsPerMinute,
		RegistrationsPerMinute: cfg.Auth.RegistrationsPerMinute,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, cleanups...); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
