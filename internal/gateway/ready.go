package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"GameShelf/pkg/kit"
)

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond
)

type upstream struct {
	name string
	url  string
}

// readiness probes every upstream's /readyz in parallel and reports the
// first one that is not ready.
type readiness struct {
	log       *zap.Logger
	client    *http.Client
	upstreams []upstream
}

func newReadiness(log *zap.Logger, ups ...upstream) *readiness {
	return &readiness{
		log: log,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		upstreams: ups,
	}
}

type notReadyError struct {
	upstream string
	err      error
}

func (e *notReadyError) Error() string { return e.upstream + ": " + e.err.Error() }

func (e *notReadyError) Unwrap() error { return e.err }

func (rd *readiness) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range rd.upstreams {
		u := u
		g.Go(func() error {
			if err := rd.probe(gctx, u.url+"/readyz"); err != nil {
				return &notReadyError{upstream: u.name, err: err}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		name := "upstream"
		var nr *notReadyError
		if errors.As(err, &nr) {
			name = nr.upstream
		}
		rd.log.Warn("readyz failed", zap.String("upstream", name), zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, name+" not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (rd *readiness) probe(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := rd.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}
	return nil
}
