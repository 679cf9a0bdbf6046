// Package store persists raw transactions and scoring-run summaries behind a
// driver-agnostic interface, with SQLite and Postgres backends.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sells-group/account-intel/internal/model"
)

// ScoringRun records one engine invocation and its summarized output.
type ScoringRun struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Entities  int             `json:"entities"`
	Summary   json.RawMessage `json:"summary,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store defines the persistence interface. It also satisfies
// facts.TransactionSource so the fact provider can read directly from it.
type Store interface {
	// Transactions
	InsertTransactions(ctx context.Context, txns []model.Transaction) (int, error)
	TransactionsBetween(ctx context.Context, from, to time.Time) ([]model.Transaction, error)

	// Scoring runs
	SaveRun(ctx context.Context, run ScoringRun) error
	ListRuns(ctx context.Context, limit int) ([]ScoringRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
