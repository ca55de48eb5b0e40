package gateway

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"GameShelf/internal/auth"
	"GameShelf/internal/catalog"
	"GameShelf/pkg/kit"
)

const headerUserRole = "X-User-Role"

// NewReverseProxy forwards to target and answers 502 when the upstream cannot
// be reached.
func NewReverseProxy(target string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	p := httputil.NewSingleHostReverseProxy(u)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream failed",
			zap.String("upstream", u.Host),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
	}
	return p, nil
}

// InjectHeaders replaces any client supplied identity headers with the ones
// taken from verified token claims.
func InjectHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(catalog.HeaderUserID)
		r.Header.Del(headerUserRole)

		if c, ok := auth.ClaimsFrom(r.Context()); ok {
			if c.UserID != "" {
				r.Header.Set(catalog.HeaderUserID, c.UserID)
			}
			if c.Role != "" {
				r.Header.Set(headerUserRole, c.Role)
			}
		}

		next.ServeHTTP(w, r)
	})
}

func stripIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(catalog.HeaderUserID)
		r.Header.Del(headerUserRole)
		next.ServeHTTP(w, r)
	})
}
