package config

import "time"

const (
	envPort           = "PORT"
	envLogLevel       = "LOG_LEVEL"
	envDatabaseURL    = "DATABASE_URL"
	envRedisURL       = "REDIS_URL"
	envRedisTTL       = "REDIS_TTL"
	envJWTSecret      = "JWT_SECRET"
	envTokenTTL       = "TOKEN_TTL"
	envMetricsEnabled = "METRICS_ENABLED"
	envMetricsToken   = "METRICS_TOKEN"
	envOTLPEndpoint   = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOTLPInsecure   = "OTEL_EXPORTER_OTLP_INSECURE"
	envAuthURL        = "AUTH_URL"
	envCatalogURL     = "CATALOG_URL"
	envWriteRate      = "WRITE_RATE_PER_MINUTE"
	envLoginRate      = "LOGIN_RATE_PER_MINUTE"
	envRegisterRate   = "REGISTER_RATE_PER_MINUTE"
)

const (
	defaultLogLevel   = "info"
	defaultRedisTTL   = 5 * time.Minute
	defaultTokenTTL   = 15 * time.Minute
	defaultAuthURL    = "http://auth:8081"
	defaultCatalogURL = "http://catalog:8082"
	defaultWriteRate  = 60
	defaultLoginRate  = 5
	defaultRegRate    = 3
)
