package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/account-intel/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleTxns(base time.Time) []model.Transaction {
	return []model.Transaction{
		{
			ID:         "txn-1",
			EntityID:   "acme",
			EntityName: "Acme Corp",
			ParentID:   "parent-1",
			Category:   "fasteners",
			Revenue:    1_000,
			Cost:       700,
			Units:      5,
			Date:       base,
		},
		{
			ID:         "txn-2",
			EntityID:   "acme",
			EntityName: "Acme Corp",
			Category:   "sealants",
			Revenue:    2_500,
			Cost:       1_800,
			Units:      2,
			Date:       base.AddDate(0, 0, 30),
		},
		{
			ID:         "txn-3",
			EntityID:   "globex",
			EntityName: "Globex",
			Revenue:    400,
			Cost:       300,
			Units:      1,
			Date:       base.AddDate(0, 0, 60),
		},
	}
}

func TestSQLiteInsertAndQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)

	n, err := s.InsertTransactions(ctx, sampleTxns(base))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.TransactionsBetween(ctx, base, base.AddDate(0, 0, 90))
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Ordered by date, fields round-trip.
	assert.Equal(t, "txn-1", got[0].ID)
	assert.Equal(t, "Acme Corp", got[0].EntityName)
	assert.Equal(t, "parent-1", got[0].ParentID)
	assert.Equal(t, "fasteners", got[0].Category)
	assert.InDelta(t, 1_000, got[0].Revenue, 0.001)
	assert.Equal(t, 5, got[0].Units)
	assert.True(t, got[0].Date.Equal(base))
}

func TestSQLiteInsertIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	txns := sampleTxns(base)

	_, err := s.InsertTransactions(ctx, txns)
	require.NoError(t, err)

	// Re-import with a corrected revenue on one row.
	txns[0].Revenue = 1_250
	n, err := s.InsertTransactions(ctx, txns)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.TransactionsBetween(ctx, base, base.AddDate(0, 0, 90))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.InDelta(t, 1_250, got[0].Revenue, 0.001)
}

func TestSQLiteInsertEmpty(t *testing.T) {
	s := newTestStore(t)
	n, err := s.InsertTransactions(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteTransactionsBetweenBoundaries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)

	_, err := s.InsertTransactions(ctx, sampleTxns(base))
	require.NoError(t, err)

	// from is inclusive, to is exclusive.
	got, err := s.TransactionsBetween(ctx, base, base.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "txn-1", got[0].ID)

	got, err = s.TransactionsBetween(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	runs := []ScoringRun{
		{ID: "run-1", Kind: "score", Entities: 10, Summary: []byte(`{"at_risk":2}`), CreatedAt: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "run-2", Kind: "import", Entities: 40, CreatedAt: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "run-3", Kind: "score", Entities: 12, CreatedAt: time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, r := range runs {
		require.NoError(t, s.SaveRun(ctx, r))
	}

	got, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, "run-3", got[0].ID)
	assert.Equal(t, "run-2", got[1].ID)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.JSONEq(t, `{"at_risk":2}`, string(all[2].Summary))
	assert.Nil(t, all[1].Summary)
}

func TestSQLiteSaveRunDefaultsCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, ScoringRun{ID: "run-x", Kind: "sync"}))

	got, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].CreatedAt.IsZero())
}
