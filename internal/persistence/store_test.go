package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfside/bookrun/internal/domain"
)

func mockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "postgres"), 5*time.Second), mock
}

func sampleResult() *domain.EvaluationResult {
	return &domain.EvaluationResult{
		ISBN:      "9780441013593",
		Condition: domain.ConditionGood,
		Routing: domain.RoutingDecision{
			ModelID:    "ebay_v4",
			FinalPrice: 18.50,
		},
		EstimatedPrice: 18.50,
		Score:          domain.ScoreResult{Score: 72, Label: domain.LabelHigh},
		TimeToSell:     14,
		Velocity:       "Fast",
		Decision:       domain.Decision{State: domain.DecisionBuy, Reason: "clears threshold"},
		EvaluatedAt:    time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecord(t *testing.T) {
	store, mock := mockStore(t)
	result := sampleResult()

	mock.ExpectQuery(`INSERT INTO evaluations`).
		WithArgs(result.ISBN, "Good", "ebay_v4", 18.50, 72.0, string(domain.LabelHigh),
			"buy", "clears threshold", 14, false, sqlmock.AnyArg(), result.EvaluatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := store.Record(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordInsertError(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectQuery(`INSERT INTO evaluations`).
		WillReturnError(assert.AnError)

	_, err := store.Record(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert evaluation")
}

func historyColumns() []string {
	return []string{
		"id", "isbn", "condition", "model_id", "estimated_price", "score",
		"score_label", "decision", "decision_reason", "time_to_sell_days",
		"collectible", "detail", "evaluated_at",
	}
}

func TestHistory(t *testing.T) {
	store, mock := mockStore(t)
	evaluated := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(historyColumns()).
		AddRow(int64(2), "9780441013593", "Good", "ebay_v4", 18.50, 72.0,
			"High", "buy", "clears threshold", 14, false, []byte(`{}`), evaluated).
		AddRow(int64(1), "9780441013593", "Poor", "unified_v4", 6.10, 38.0,
			"Low", "skip", "thin margin", 90, false, []byte(`{}`), evaluated.Add(-24*time.Hour))

	mock.ExpectQuery(`FROM evaluations`).
		WithArgs("9780441013593", 20).
		WillReturnRows(rows)

	records, err := store.History(context.Background(), "9780441013593", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(2), records[0].ID)
	assert.Equal(t, "ebay_v4", records[0].ModelID)
	assert.Equal(t, "skip", records[1].Decision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryHonorsLimit(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectQuery(`FROM evaluations`).
		WithArgs("9780441013593", 5).
		WillReturnRows(sqlmock.NewRows(historyColumns()))

	records, err := store.History(context.Background(), "9780441013593", 5)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatest(t *testing.T) {
	store, mock := mockStore(t)
	evaluated := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(historyColumns()).
		AddRow(int64(7), "9780441013593", "Good", "ebay_v4", 18.50, 72.0,
			"High", "buy", "clears threshold", 14, true, []byte(`{}`), evaluated)

	mock.ExpectQuery(`FROM evaluations`).
		WithArgs("9780441013593").
		WillReturnRows(rows)

	record, err := store.Latest(context.Background(), "9780441013593")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, int64(7), record.ID)
	assert.True(t, record.Collectible)
}

func TestLatestNoRows(t *testing.T) {
	store, mock := mockStore(t)

	mock.ExpectQuery(`FROM evaluations`).
		WithArgs("9780441013593").
		WillReturnRows(sqlmock.NewRows(historyColumns()))

	record, err := store.Latest(context.Background(), "9780441013593")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestDecisionStats(t *testing.T) {
	store, mock := mockStore(t)
	since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"decision", "count"}).
		AddRow("buy", int64(12)).
		AddRow("needs_review", int64(3)).
		AddRow("skip", int64(40))

	mock.ExpectQuery(`SELECT decision, COUNT`).
		WithArgs(since).
		WillReturnRows(rows)

	stats, err := store.DecisionStats(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"buy": 12, "needs_review": 3, "skip": 40}, stats)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN is required")
}
