package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/account-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS transactions (
	id          TEXT PRIMARY KEY,
	entity_id   TEXT NOT NULL,
	entity_name TEXT NOT NULL,
	parent_id   TEXT,
	category    TEXT,
	revenue     REAL NOT NULL DEFAULT 0,
	cost        REAL NOT NULL DEFAULT 0,
	units       INTEGER NOT NULL DEFAULT 0,
	txn_date    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS scoring_runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	entities   INTEGER NOT NULL DEFAULT 0,
	summary    TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_transactions_entity ON transactions(entity_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(txn_date);
CREATE INDEX IF NOT EXISTS idx_scoring_runs_kind ON scoring_runs(kind);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// InsertTransactions upserts transactions by id so re-importing the same
// export is idempotent. Returns the number of rows written.
func (s *SQLiteStore) InsertTransactions(ctx context.Context, txns []model.Transaction) (int, error) {
	if len(txns) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (id, entity_id, entity_name, parent_id, category, revenue, cost, units, txn_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			entity_id = excluded.entity_id,
			entity_name = excluded.entity_name,
			parent_id = excluded.parent_id,
			category = excluded.category,
			revenue = excluded.revenue,
			cost = excluded.cost,
			units = excluded.units,
			txn_date = excluded.txn_date`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	n := 0
	for _, t := range txns {
		if _, err := stmt.ExecContext(ctx,
			t.ID, t.EntityID, t.EntityName, t.ParentID, t.Category,
			t.Revenue, t.Cost, t.Units, t.Date.UTC(),
		); err != nil {
			return n, eris.Wrapf(err, "sqlite: insert transaction %s", t.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return n, eris.Wrap(err, "sqlite: commit")
	}
	return n, nil
}

// TransactionsBetween returns transactions with from <= date < to, ordered
// by date.
func (s *SQLiteStore) TransactionsBetween(ctx context.Context, from, to time.Time) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_id, entity_name, COALESCE(parent_id, ''), COALESCE(category, ''),
		       revenue, cost, units, txn_date
		FROM transactions
		WHERE txn_date >= ? AND txn_date < ?
		ORDER BY txn_date`,
		from.UTC(), to.UTC())
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query transactions")
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.EntityID, &t.EntityName, &t.ParentID, &t.Category,
			&t.Revenue, &t.Cost, &t.Units, &t.Date); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan transaction")
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate transactions")
	}
	return out, nil
}

// SaveRun persists a scoring run summary.
func (s *SQLiteStore) SaveRun(ctx context.Context, run ScoringRun) error {
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scoring_runs (id, kind, entities, summary, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Entities, string(run.Summary), created.UTC())
	if err != nil {
		return eris.Wrapf(err, "sqlite: save run %s", run.ID)
	}
	return nil
}

// ListRuns returns the most recent scoring runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]ScoringRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, entities, COALESCE(summary, ''), created_at
		FROM scoring_runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query runs")
	}
	defer rows.Close()

	var out []ScoringRun
	for rows.Next() {
		var r ScoringRun
		var summary string
		if err := rows.Scan(&r.ID, &r.Kind, &r.Entities, &summary, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if summary != "" {
			r.Summary = []byte(summary)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate runs")
	}
	return out, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
