package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"GameShelf/pkg/kit"
)

const readyTimeout = 1 * time.Second

// HeaderUserID is set by the gateway on proxied requests that carried a
// valid token.
const HeaderUserID = "X-User-Id"

type Server struct {
	Service *Service
	Log     *zap.Logger

	// Duplicates counts rejected names by operation. Optional.
	Duplicates *prometheus.CounterVec
}

func (s *Server) Routes(writeGuard ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.handleReady)

	r.Route("/api/board-games", func(rr chi.Router) {
		rr.Get("/", s.handleList)
		rr.Get("/search", s.handleSearch)
		rr.Get("/by-name", s.handleByName)
		rr.Get("/for-players", s.handleForPlayers)
		rr.Get("/{id}", s.handleGet)

		rr.Group(func(wr chi.Router) {
			wr.Use(writeGuard...)
			wr.Post("/", s.handleCreate)
			wr.Put("/{id}", s.handleUpdate)
			wr.Patch("/{id}", s.handleUpdate)
			wr.Delete("/{id}", s.handleDelete)
		})
	})

	return r
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Service.Ready(ctx); err != nil {
		s.Log.Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	games, err := s.Service.List(r.Context())
	if err != nil {
		s.fail(w, r, "list board games failed", err)
		return
	}
	writeGames(w, games)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")

	games, err := s.Service.Search(r.Context(), keyword)
	if err != nil {
		s.fail(w, r, "search board games failed", err, zap.String("keyword", keyword))
		return
	}
	writeGames(w, games)
}

func (s *Server) handleByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "name required", nil)
		return
	}

	g, ok, err := s.Service.GetByName(r.Context(), name)
	if err != nil {
		s.fail(w, r, "get board game by name failed", err)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"name": name})
		return
	}
	kit.WriteJSON(w, http.StatusOK, g)
}

func (s *Server) handleForPlayers(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("count")
	count, err := strconv.Atoi(raw)
	if err != nil || count < 1 {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid player count", map[string]any{"count": raw})
		return
	}

	games, err := s.Service.ForPlayers(r.Context(), count)
	if err != nil {
		s.fail(w, r, "list board games by player count failed", err, zap.Int("count", count))
		return
	}
	writeGames(w, games)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	g, found, err := s.Service.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get board game failed", err, zap.Int64("id", id))
		return
	}
	if !found {
		notFound(w, r, id)
		return
	}
	kit.WriteJSON(w, http.StatusOK, g)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var d Draft
	if err := kit.DecodeJSON(w, r, &d); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if err := ValidateDraft(d); err != nil {
		s.invalid(w, r, err)
		return
	}

	g, err := s.Service.Create(r.Context(), d.Game())
	if err != nil {
		s.writeFailure(w, r, "create board game failed", err)
		return
	}

	s.Log.Info("create accepted",
		zap.Int64("id", g.ID),
		zap.String("user_id", r.Header.Get(HeaderUserID)),
	)
	w.Header().Set("Location", "/api/board-games/"+strconv.FormatInt(g.ID, 10))
	kit.WriteJSON(w, http.StatusCreated, g)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var p Patch
	if err := kit.DecodeJSON(w, r, &p); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if err := ValidatePatch(p); err != nil {
		s.invalid(w, r, err)
		return
	}

	g, found, err := s.Service.Update(r.Context(), id, p)
	if err != nil {
		s.writeFailure(w, r, "update board game failed", err, zap.Int64("id", id))
		return
	}
	if !found {
		notFound(w, r, id)
		return
	}

	s.Log.Info("update accepted",
		zap.Int64("id", id),
		zap.String("user_id", r.Header.Get(HeaderUserID)),
	)
	kit.WriteJSON(w, http.StatusOK, g)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	deleted, err := s.Service.Delete(r.Context(), id)
	if err != nil {
		s.fail(w, r, "delete board game failed", err, zap.Int64("id", id))
		return
	}
	if !deleted {
		notFound(w, r, id)
		return
	}

	s.Log.Info("delete accepted",
		zap.Int64("id", id),
		zap.String("user_id", r.Header.Get(HeaderUserID)),
	)
	w.WriteHeader(http.StatusNoContent)
}

// writeFailure maps service errors from create and update onto responses.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	var dup *DuplicateNameError
	if errors.As(err, &dup) {
		if s.Duplicates != nil {
			s.Duplicates.WithLabelValues(string(dup.Op)).Inc()
		}
		kit.WriteError(w, r, http.StatusConflict, dup.Error(), map[string]any{"name": dup.Name})
		return
	}
	s.fail(w, r, msg, err, fields...)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	s.Log.Error(msg, append(fields, zap.Error(err))...)

	if errors.Is(err, context.DeadlineExceeded) {
		kit.WriteError(w, r, http.StatusGatewayTimeout, "storage timeout", nil)
		return
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}

func (s *Server) invalid(w http.ResponseWriter, r *http.Request, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		kit.WriteError(w, r, http.StatusBadRequest, "validation failed", ve.Fields)
		return
	}
	kit.WriteError(w, r, http.StatusBadRequest, "validation failed", map[string]any{"cause": err.Error()})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

func notFound(w http.ResponseWriter, r *http.Request, id int64) {
	kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
}

func writeGames(w http.ResponseWriter, games []BoardGame) {
	if games == nil {
		games = []BoardGame{}
	}
	kit.WriteJSON(w, http.StatusOK, games)
}
