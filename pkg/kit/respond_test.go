package kit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type payload struct {
	Name string `json:"name"`
}

func decodeRequest(body string) error {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var p payload
	return DecodeJSON(httptest.NewRecorder(), req, &p)
}

func TestDecodeJSON(t *testing.T) {
	assert.NoError(t, decodeRequest(`{"name":"Catan"}`))
	assert.Error(t, decodeRequest(`{"name":"Catan","extra":1}`))
	assert.Error(t, decodeRequest(`{"name":"Catan"}{"name":"Azul"}`))
	assert.Error(t, decodeRequest(`{"name":`))
	assert.Error(t, decodeRequest(`{"name":"`+strings.Repeat("x", MaxBodyBytes)+`"}`))
}

func TestWriteErrorCarriesRequestID(t *testing.T) {
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": 7})
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "not found", body.Error)
	assert.NotEmpty(t, body.RequestID)
}

func TestRecovererAnswers500(t *testing.T) {
	h := Recoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	send := func(token, header string) int {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		MetricsAuth(token)(ok).ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("t0k", "Bearer t0k"))
	assert.Equal(t, http.StatusForbidden, send("t0k", "Bearer nope"))
	assert.Equal(t, http.StatusForbidden, send("t0k", ""))
	assert.Equal(t, http.StatusForbidden, send("", "Bearer "))
}
