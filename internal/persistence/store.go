// Package persistence records finished evaluations in PostgreSQL so buy
// decisions can be audited and re-scored against realized sale prices later.
// The store is optional: without a DSN the pipeline runs purely in memory.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/shelfside/bookrun/internal/domain"
)

// Config holds connection settings for the evaluation store.
type Config struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

// DefaultConfig returns pool defaults; DSN must be supplied to enable.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    10 * time.Second,
	}
}

// EvaluationRecord is one persisted evaluation row.
type EvaluationRecord struct {
	ID             int64     `db:"id"`
	ISBN           string    `db:"isbn"`
	Condition      string    `db:"condition"`
	ModelID        string    `db:"model_id"`
	EstimatedPrice float64   `db:"estimated_price"`
	Score          float64   `db:"score"`
	ScoreLabel     string    `db:"score_label"`
	Decision       string    `db:"decision"`
	DecisionReason string    `db:"decision_reason"`
	TimeToSellDays int       `db:"time_to_sell_days"`
	Collectible    bool      `db:"collectible"`
	Detail         []byte    `db:"detail"` // full EvaluationResult JSON
	EvaluatedAt    time.Time `db:"evaluated_at"`
}

// Store persists evaluation history.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Open connects, configures the pool, and verifies connectivity.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewStore(db, cfg.QueryTimeout), nil
}

// NewStore wraps an existing connection. Tests inject sqlmock here.
func NewStore(db *sqlx.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{db: db, timeout: timeout}
}

// Record inserts one finished evaluation and returns its row ID.
func (s *Store) Record(ctx context.Context, result *domain.EvaluationResult) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	detail, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal evaluation detail: %w", err)
	}

	query := `
		INSERT INTO evaluations
		(isbn, condition, model_id, estimated_price, score, score_label,
		 decision, decision_reason, time_to_sell_days, collectible, detail, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	var id int64
	err = s.db.QueryRowxContext(ctx, query,
		result.ISBN, string(result.Condition), result.Routing.ModelID,
		result.EstimatedPrice, result.Score.Score, string(result.Score.Label),
		string(result.Decision.State), result.Decision.Reason,
		result.TimeToSell, result.Collectible.IsCollectible,
		detail, result.EvaluatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert evaluation: %w", err)
	}
	return id, nil
}

// History returns the most recent evaluations for an ISBN, newest first.
func (s *Store) History(ctx context.Context, isbn string, limit int) ([]EvaluationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, isbn, condition, model_id, estimated_price, score, score_label,
		       decision, decision_reason, time_to_sell_days, collectible, detail, evaluated_at
		FROM evaluations
		WHERE isbn = $1
		ORDER BY evaluated_at DESC
		LIMIT $2`

	var records []EvaluationRecord
	if err := s.db.SelectContext(ctx, &records, query, isbn, limit); err != nil {
		return nil, fmt.Errorf("failed to query evaluation history: %w", err)
	}
	return records, nil
}

// Latest returns the newest evaluation for an ISBN, or nil when none exists.
func (s *Store) Latest(ctx context.Context, isbn string) (*EvaluationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT id, isbn, condition, model_id, estimated_price, score, score_label,
		       decision, decision_reason, time_to_sell_days, collectible, detail, evaluated_at
		FROM evaluations
		WHERE isbn = $1
		ORDER BY evaluated_at DESC
		LIMIT 1`

	var record EvaluationRecord
	err := s.db.GetContext(ctx, &record, query, isbn)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest evaluation: %w", err)
	}
	return &record, nil
}

// DecisionStats counts persisted evaluations per decision state since a
// cut-off time.
func (s *Store) DecisionStats(ctx context.Context, since time.Time) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT decision, COUNT(*)
		FROM evaluations
		WHERE evaluated_at >= $1
		GROUP BY decision
		ORDER BY decision`

	rows, err := s.db.QueryxContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int64)
	for rows.Next() {
		var decision string
		var count int64
		if err := rows.Scan(&decision, &count); err != nil {
			return nil, fmt.Errorf("failed to scan decision stats: %w", err)
		}
		stats[decision] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return stats, nil
}

// Ping tests connectivity, for health endpoints.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
