package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/account-intel/internal/db"
	"github.com/sells-group/account-intel/internal/model"
)

// PostgresStore implements Store on a pgx connection pool, for deployments
// that point at the shared warehouse instead of a local file.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects a pool for the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS transactions (
	id          TEXT PRIMARY KEY,
	entity_id   TEXT NOT NULL,
	entity_name TEXT NOT NULL,
	parent_id   TEXT,
	category    TEXT,
	revenue     DOUBLE PRECISION NOT NULL DEFAULT 0,
	cost        DOUBLE PRECISION NOT NULL DEFAULT 0,
	units       INTEGER NOT NULL DEFAULT 0,
	txn_date    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS scoring_runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	entities   INTEGER NOT NULL DEFAULT 0,
	summary    JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transactions_entity ON transactions(entity_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(txn_date);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

var transactionColumns = []string{
	"id", "entity_id", "entity_name", "parent_id", "category",
	"revenue", "cost", "units", "txn_date",
}

// InsertTransactions bulk-loads transactions via COPY into a staging pattern:
// existing ids are cleared first so re-imports stay idempotent.
func (s *PostgresStore) InsertTransactions(ctx context.Context, txns []model.Transaction) (int, error) {
	if len(txns) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(txns))
	rows := make([][]any, 0, len(txns))
	for _, t := range txns {
		ids = append(ids, t.ID)
		rows = append(rows, []any{
			t.ID, t.EntityID, t.EntityName, t.ParentID, t.Category,
			t.Revenue, t.Cost, t.Units, t.Date.UTC(),
		})
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = ANY($1)`, ids); err != nil {
		return 0, eris.Wrap(err, "postgres: clear existing transactions")
	}

	n, err := db.CopyFrom(ctx, s.pool, "transactions", transactionColumns, rows)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// TransactionsBetween returns transactions with from <= date < to, ordered
// by date.
func (s *PostgresStore) TransactionsBetween(ctx context.Context, from, to time.Time) ([]model.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, entity_id, entity_name, COALESCE(parent_id, ''), COALESCE(category, ''),
		       revenue, cost, units, txn_date
		FROM transactions
		WHERE txn_date >= $1 AND txn_date < $2
		ORDER BY txn_date`,
		from.UTC(), to.UTC())
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query transactions")
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.EntityID, &t.EntityName, &t.ParentID, &t.Category,
			&t.Revenue, &t.Cost, &t.Units, &t.Date); err != nil {
			return nil, eris.Wrap(err, "postgres: scan transaction")
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate transactions")
	}
	return out, nil
}

// SaveRun persists a scoring run summary.
func (s *PostgresStore) SaveRun(ctx context.Context, run ScoringRun) error {
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scoring_runs (id, kind, entities, summary, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Kind, run.Entities, run.Summary, created.UTC())
	if err != nil {
		return eris.Wrapf(err, "postgres: save run %s", run.ID)
	}
	return nil
}

// ListRuns returns the most recent scoring runs, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]ScoringRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, entities, COALESCE(summary, 'null'::jsonb), created_at
		FROM scoring_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query runs")
	}
	defer rows.Close()

	var out []ScoringRun
	for rows.Next() {
		var r ScoringRun
		if err := rows.Scan(&r.ID, &r.Kind, &r.Entities, &r.Summary, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate runs")
	}
	return out, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
