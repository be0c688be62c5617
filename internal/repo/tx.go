package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner executes a function against an AppointmentRepo bound to a single
// database transaction. Series-wide writes (regenerate, bulk reschedule,
// group delete) run through this so a crash mid-operation can never leave a
// group partially updated.
type TxRunner interface {
	// WithinTx begins a transaction, calls fn with a repo bound to it, and
	// commits when fn returns nil. Any error (or panic) rolls back.
	WithinTx(ctx context.Context, fn func(appts AppointmentRepo) error) error
}

type pgTxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner constructs a TxRunner over the connection pool.
func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return &pgTxRunner{pool: pool}
}

func (r *pgTxRunner) WithinTx(ctx context.Context, fn func(appts AppointmentRepo) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.TxRunner: begin: %w", err)
	}
	// Rollback after commit is a no-op; this also covers panics inside fn.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewAppointmentRepo(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.TxRunner: commit: %w", err)
	}
	return nil
}
