package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"GameShelf/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// WriteGuard, when set, wraps the create, update and delete routes.
	WriteGuard func(http.Handler) http.Handler
	// WritesPerMinute caps the same routes per client IP. Zero leaves
	// them unlimited.
	WritesPerMinute int
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

	r.Mount("/", s.Routes(writeGuards(deps)...))
	return r
}

// writeGuards orders the write middleware so that throttled clients are
// turned away before their token is checked.
func writeGuards(deps HTTPDeps) []func(http.Handler) http.Handler {
	guards := []func(http.Handler) http.Handler{kit.PerMinute(deps.WritesPerMinute)}
	if deps.WriteGuard != nil {
		guards = append(guards, deps.WriteGuard)
	}
	return guards
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer(deps.Log))
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, s *Server, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if s.Duplicates == nil {
		s.Duplicates = kit.NewCounterVec(deps.Registry,
			"catalog_duplicate_name_total",
			"Board game writes rejected for a duplicate name",
			"op",
		)
	}

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}
