package gateway

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"GameShelf/internal/auth"
	"GameShelf/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	AuthURL    string
	CatalogURL string
	JWTSecret  string
}

const gamesPath = "/api/board-games"

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	if httpDeps.Log == nil {
		httpDeps.Log = zap.NewNop()
	}

	authProxy, err := NewReverseProxy(deps.AuthURL, httpDeps.Log)
	if err != nil {
		return nil, fmt.Errorf("auth upstream: %w", err)
	}
	catalogProxy, err := NewReverseProxy(deps.CatalogURL, httpDeps.Log)
	if err != nil {
		return nil, fmt.Errorf("catalog upstream: %w", err)
	}

	tm := auth.NewTokenMaker(deps.JWTSecret)

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", newReadiness(httpDeps.Log,
		upstream{name: "auth", url: deps.AuthURL},
		upstream{name: "catalog", url: deps.CatalogURL},
	).ServeHTTP)

	r.Handle("/auth", authProxy)
	r.Handle("/auth/*", authProxy)

	reads := stripIdentity(catalogProxy)
	r.Get(gamesPath, reads.ServeHTTP)
	r.Get(gamesPath+"/*", reads.ServeHTTP)

	r.Group(func(wr chi.Router) {
		wr.Use(auth.RequireToken(tm))
		wr.Use(InjectHeaders)

		wr.Post(gamesPath, catalogProxy.ServeHTTP)
		wr.Put(gamesPath+"/*", catalogProxy.ServeHTTP)
		wr.Patch(gamesPath+"/*", catalogProxy.ServeHTTP)
		wr.Delete(gamesPath+"/*", catalogProxy.ServeHTTP)
	})

	return r, nil
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer(deps.Log))
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
