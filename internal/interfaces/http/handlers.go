package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/shelfside/bookrun/internal/cache"
	"github.com/shelfside/bookrun/internal/domain"
	"github.com/shelfside/bookrun/internal/features"
	"github.com/shelfside/bookrun/internal/persistence"
	"github.com/shelfside/bookrun/internal/pipeline"
)

// Handlers binds the pipeline and its optional backing services to HTTP
// endpoints. Cache and store may be nil; evaluation works without them.
type Handlers struct {
	evaluator *pipeline.Evaluator
	cache     *cache.EvalCache
	store     *persistence.Store
	hub       *StreamHub
	metrics   *MetricsRegistry
}

// NewHandlers assembles the handler set and its stream hub.
func NewHandlers(evaluator *pipeline.Evaluator, evalCache *cache.EvalCache, store *persistence.Store) *Handlers {
	metrics := NewMetricsRegistry()
	return &Handlers{
		evaluator: evaluator,
		cache:     evalCache,
		store:     store,
		hub:       NewStreamHub(metrics),
		metrics:   metrics,
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Evaluate runs one book through the pipeline. Cached results are served
// directly; fresh results are cached, persisted, and broadcast.
func (h *Handlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	var in domain.EvaluationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if h.cache != nil {
		if result, ok := h.cache.Lookup(r.Context(), in); ok {
			h.metrics.RecordCacheHit()
			h.writeJSON(w, http.StatusOK, result)
			return
		}
		h.metrics.RecordCacheMiss()
	}

	start := time.Now()
	result, err := h.evaluator.Evaluate(r.Context(), in)
	if err != nil {
		if errors.Is(err, features.ErrInvalidInput) {
			h.metrics.EvalErrors.WithLabelValues("invalid_input").Inc()
			h.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		h.metrics.EvalErrors.WithLabelValues("internal").Inc()
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	h.metrics.RecordEvaluation(string(result.Decision.State), string(result.Score.Label), time.Since(start).Seconds())

	if h.cache != nil {
		h.cache.Store(r.Context(), in, result)
	}
	if h.store != nil {
		// Persisting is audit, not part of the response path.
		go func(res *domain.EvaluationResult) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := h.store.Record(ctx, res); err != nil {
				log.Warn().Err(err).Str("isbn", res.ISBN).Msg("evaluation not persisted")
			}
		}(result)
	}
	h.hub.Broadcast(result)

	h.writeJSON(w, http.StatusOK, result)
}

// History returns persisted evaluations for an ISBN, newest first.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, r, http.StatusNotImplemented, "evaluation history is not enabled")
		return
	}

	isbn, err := features.ValidateISBN(mux.Vars(r)["isbn"])
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	records, err := h.store.History(r.Context(), isbn, limit)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"isbn":    isbn,
		"count":   len(records),
		"history": records,
	})
}

// Health reports service liveness and backing-store reachability.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
		} else {
			status["database"] = "ok"
		}
	}

	code := http.StatusOK
	if status["status"] != "healthy" {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, status)
}

// NotFound is the JSON 404 handler.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, "not found: "+r.URL.Path)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	requestID, _ := r.Context().Value(requestIDKey).(string)
	h.writeJSON(w, code, errorResponse{Error: msg, RequestID: requestID})
}
