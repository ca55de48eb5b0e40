package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"GameShelf/internal/config"
	"GameShelf/internal/gateway"
	"GameShelf/pkg/kit"
)

const service = "gateway"

func main() {
	cfg := config.Load("8080")

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if len(cfg.Auth.JWTSecret) < 32 {
		log.Fatal("JWT_SECRET is required and must be at least 32 chars")
	}

	shutdownTracing, err := kit.SetupTracing(context.Background(), service, cfg.Tracing.OTLPEndpoint, cfg.Tracing.Insecure)
	if err != nil {
		log.Fatal("tracing setup failed", zap.Error(err))
	}

	h, err := gateway.NewHandler(
		gateway.Deps{
			JWTSecret:  cfg.Auth.JWTSecret,
			AuthURL:    cfg.Upstreams.AuthURL,
			CatalogURL: cfg.Upstreams.CatalogURL,
		},
		gateway.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       prometheus.NewRegistry(),
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsToken:   cfg.Metrics.Token,
		},
	)
	if err != nil {
		log.Fatal("init gateway handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, shutdownTracing); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
