package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfside/bookrun/internal/collectible"
	"github.com/shelfside/bookrun/internal/config"
	"github.com/shelfside/bookrun/internal/domain"
	"github.com/shelfside/bookrun/internal/features"
	"github.com/shelfside/bookrun/internal/models"
	"github.com/shelfside/bookrun/internal/pipeline"
	"github.com/shelfside/bookrun/internal/router"
)

func testHandlers() *Handlers {
	clock := func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	r := router.New(features.NewExtractorAt(clock), models.DefaultSet(),
		config.DefaultMultipliers(), router.DefaultConfig()).WithClock(clock)
	evaluator := pipeline.New(r, collectible.NewResolver(nil), pipeline.WithClock(clock))
	return NewHandlers(evaluator, nil, nil)
}

func evaluateBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	sold := 12
	in := domain.EvaluationInput{
		Attributes: domain.BookAttributes{
			ISBN:      "9780441013593",
			Title:     "Test Title",
			PageCount: 300,
			Condition: domain.ConditionGood,
		},
		Signals: domain.SignalSet{
			domain.PlatformEbay: {Platform: domain.PlatformEbay, SoldCount: &sold},
		},
		PurchaseCost: 3.0,
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

func TestEvaluateEndpoint(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", evaluateBody(t))
	rec := httptest.NewRecorder()
	h.Evaluate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result domain.EvaluationResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "9780441013593", result.ISBN)
	assert.Greater(t, result.EstimatedPrice, 0.0)
	assert.NotEmpty(t, result.Decision.State)
}

func TestEvaluateEndpointBadBody(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Evaluate(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "invalid request body")
}

func TestEvaluateEndpointBadISBN(t *testing.T) {
	h := testHandlers()

	body, err := json.Marshal(domain.EvaluationInput{
		Attributes: domain.BookAttributes{ISBN: "not-an-isbn"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Evaluate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func testServer(t *testing.T, cfg ServerConfig, h *Handlers) *Server {
	t.Helper()
	cfg.Port = 0 // let the probe bind any free port
	srv, err := NewServer(cfg, h)
	require.NoError(t, err)
	return srv
}

func TestHistoryUnavailableWithoutStore(t *testing.T) {
	srv := testServer(t, DefaultServerConfig(), testHandlers())

	req := httptest.NewRequest(http.MethodGet, "/v1/history/9780441013593", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h := testHandlers()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "healthy", status["status"])
}

func TestNotFoundHandler(t *testing.T) {
	srv := testServer(t, DefaultServerConfig(), testHandlers())

	req := httptest.NewRequest(http.MethodGet, "/no/such/route", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "not found")
}

func TestMetricsEndpoint(t *testing.T) {
	h := testHandlers()

	// Generate one evaluation so counters exist.
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", evaluateBody(t))
	h.Evaluate(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	h.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bookrun_evaluations_total")
}

func TestRequestIDMiddleware(t *testing.T) {
	srv := testServer(t, DefaultServerConfig(), testHandlers())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 8)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.RateLimit = 1
	cfg.RateBurst = 2
	srv := testServer(t, cfg, testHandlers())

	limited := false
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "burst of requests should trip the rate limiter")
}
