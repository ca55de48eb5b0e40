package config

import (
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration shared by every GameShelf binary. Each
// binary reads the parts it needs.
type Config struct {
	Port     string
	LogLevel string

	DatabaseURL string
	Redis       RedisConfig
	Auth        AuthConfig
	Metrics     MetricsConfig
	Tracing     TracingConfig
	Upstreams   UpstreamConfig

	// WriteRatePerMinute caps catalog writes per client IP.
	WriteRatePerMinute int
}

type RedisConfig struct {
	URL string
	TTL time.Duration
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration

	LoginsPerMinute        int
	RegistrationsPerMinute int
}

type MetricsConfig struct {
	Enabled bool
	Token   string
}

type TracingConfig struct {
	OTLPEndpoint string
	Insecure     bool
}

type UpstreamConfig struct {
	AuthURL    string
	CatalogURL string
}

// Load reads a .env file when one is present and then the process
// environment. defaultPort is used when PORT is unset.
func Load(defaultPort string) Config {
	_ = godotenv.Load()

	return Config{
		Port:        envOrDefault(envPort, defaultPort),
		LogLevel:    envOrDefault(envLogLevel, defaultLogLevel),
		DatabaseURL: envOrDefault(envDatabaseURL, ""),
		Redis: RedisConfig{
			URL: envOrDefault(envRedisURL, ""),
			TTL: durationEnvOrDefault(envRedisTTL, defaultRedisTTL),
		},
		Auth: AuthConfig{
			JWTSecret: envOrDefault(envJWTSecret, ""),
			TokenTTL:  durationEnvOrDefault(envTokenTTL, defaultTokenTTL),

			LoginsPerMinute:        intEnvOrDefault(envLoginRate, defaultLoginRate),
			RegistrationsPerMinute: intEnvOrDefault(envRegisterRate, defaultRegRate),
		},
		Metrics: MetricsConfig{
			Enabled: boolEnvOrDefault(envMetricsEnabled, true),
			Token:   envOrDefault(envMetricsToken, ""),
		},
		Tracing: TracingConfig{
			OTLPEndpoint: envOrDefault(envOTLPEndpoint, ""),
			Insecure:     boolEnvOrDefault(envOTLPInsecure, true),
		},
		Upstreams: UpstreamConfig{
			AuthURL:    envOrDefault(envAuthURL, defaultAuthURL),
			CatalogURL: envOrDefault(envCatalogURL, defaultCatalogURL),
		},
		WriteRatePerMinute: intEnvOrDefault(envWriteRate, defaultWriteRate),
	}
}
