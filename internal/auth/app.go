package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"GameShelf/pkg/kit"
)

const (
	defaultLoginsPerMinute        = 5
	defaultRegistrationsPerMinute = 3
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// Per client IP. Zero picks the package default; login and
	// registration are never left unthrottled.
	LoginsPerMinute        int
	RegistrationsPerMinute int
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if s.Log == nil {
		s.Log = deps.Log
	}

	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, s, deps)

	r.Mount("/", s.Routes(
		kit.PerMinute(orDefault(deps.LoginsPerMinute, defaultLoginsPerMinute)),
		kit.PerMinute(orDefault(deps.RegistrationsPerMinute, defaultRegistrationsPerMinute)),
	))
	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer(deps.Log))
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, s *Server, deps HTTPDeps) {
	if deps.Registry == nil {
		if deps.MetricsEnabled {
			deps.Log.Warn("metrics enabled but Registry is nil")
		}
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if s.Logins == nil {
		s.Logins = kit.NewCounterVec(deps.Registry,
			"auth_login_attempts_total",
			"Curator login attempts by outcome",
			"result",
		)
	}

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
