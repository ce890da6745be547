// Package http exposes the evaluation pipeline over a small JSON API:
// POST /v1/evaluate runs one book through the pipeline, GET /v1/stream
// pushes finished evaluations to websocket subscribers, and /health and
// /metrics serve operations.
package http

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ServerConfig holds listener and throttle settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	RateLimit    float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst    int           `yaml:"rate_burst"`
}

// DefaultServerConfig returns a local-only listener with a modest throttle.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         8090,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		RateLimit:    50,
		RateBurst:    100,
	}
}

// Server is the HTTP front end over the evaluation pipeline.
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *Handlers
	hub      *StreamHub
	metrics  *MetricsRegistry
	limiter  *rate.Limiter
	config   ServerConfig
}

// NewServer wires routes, middleware, and the stream hub. The port is
// probed up front so a busy port fails fast instead of at Start.
func NewServer(config ServerConfig, handlers *Handlers) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("port %d is busy or unavailable: %w", config.Port, err)
	}
	listener.Close()

	s := &Server{
		router:   mux.NewRouter(),
		handlers: handlers,
		hub:      handlers.hub,
		metrics:  handlers.metrics,
		config:   config,
	}
	if config.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.rateLimitMiddleware)

	s.router.HandleFunc("/v1/evaluate", s.handlers.Evaluate).Methods("POST")
	s.router.HandleFunc("/v1/history/{isbn}", s.handlers.History).Methods("GET")
	s.router.HandleFunc("/health", s.handlers.Health).Methods("GET")
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	s.router.Handle("/v1/stream", s.hub).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		requestID, _ := r.Context().Value(requestIDKey).(string)
		log.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("http request")

		if s.metrics != nil {
			s.metrics.HTTPRequests.WithLabelValues(r.URL.Path, strconv.Itoa(wrapper.statusCode)).Inc()
		}
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server starting")
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and disconnects stream clients.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("http server shutting down")
	s.hub.Close()
	return s.server.Shutdown(ctx)
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.server.Addr
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack passes through so the websocket upgrade works under the logging
// wrapper.
func (rw *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("hijack not supported")
	}
	return h.Hijack()
}
