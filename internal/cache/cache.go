// Package cache is a read-through Redis cache for finished evaluations.
// A circuit breaker shields the pipeline from a misbehaving Redis: when the
// breaker is open every lookup is a miss and every store is a no-op, so
// evaluations always complete.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/shelfside/bookrun/internal/domain"
)

const keyPrefix = "bookrun:eval:"

// DefaultTTL bounds staleness of a cached evaluation. Market snapshots are
// part of the key, so a TTL this long only serves identical requests.
const DefaultTTL = 6 * time.Hour

// Config controls connection and expiry behavior.
type Config struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// DefaultConfig returns settings for a local Redis.
func DefaultConfig() Config {
	return Config{Addr: "localhost:6379", TTL: DefaultTTL}
}

// EvalCache stores evaluation results keyed by the full request identity.
type EvalCache struct {
	client  redis.Cmdable
	breaker *gobreaker.CircuitBreaker
	ttl     time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*EvalCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewWithClient(rdb, cfg.TTL), nil
}

// NewWithClient wraps an existing client. Tests inject a mock here.
func NewWithClient(client redis.Cmdable, ttl time.Duration) *EvalCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	settings := gobreaker.Settings{Name: "eval-cache"}
	settings.Interval = 60 * time.Second
	settings.Timeout = 30 * time.Second
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		total := counts.Requests
		if total < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(total) > 0.05
	}

	return &EvalCache{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		ttl:     ttl,
	}
}

// Key derives the cache key for a request. The signal digest makes any
// change in market data a distinct key, so stale snapshots never alias a
// fresh request.
func Key(in domain.EvaluationInput) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%.2f|%s|", in.Attributes.ISBN, in.Attributes.Condition, in.PurchaseCost, in.Profile)

	attrs, _ := json.Marshal(in.Attributes)
	h.Write(attrs)

	platforms := make([]string, 0, len(in.Signals))
	for p := range in.Signals {
		platforms = append(platforms, string(p))
	}
	sort.Strings(platforms)
	for _, p := range platforms {
		sig, _ := json.Marshal(in.Signals[domain.Platform(p)])
		h.Write([]byte(p))
		h.Write(sig)
	}

	return keyPrefix + hex.EncodeToString(h.Sum(nil))[:32]
}

// Lookup returns the cached result for a request, if present. Redis errors
// and an open breaker both read as a miss.
func (c *EvalCache) Lookup(ctx context.Context, in domain.EvaluationInput) (*domain.EvaluationResult, bool) {
	key := Key(in)
	val, err := c.breaker.Execute(func() (interface{}, error) {
		data, err := c.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache lookup degraded to miss")
		return nil, false
	}
	data, ok := val.([]byte)
	if !ok || data == nil {
		return nil, false
	}

	var result domain.EvaluationResult
	if err := json.Unmarshal(data, &result); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cached evaluation corrupt, discarding")
		return nil, false
	}
	return &result, true
}

// Store writes a finished evaluation. Failures are logged and swallowed.
func (c *EvalCache) Store(ctx context.Context, in domain.EvaluationInput, result *domain.EvaluationResult) {
	key := Key(in)
	data, err := json.Marshal(result)
	if err != nil {
		log.Warn().Err(err).Msg("marshal evaluation for cache")
		return
	}

	if _, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, key, data, c.ttl).Err()
	}); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache store skipped")
	}
}
