package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/secondary"
)

// querier is the subset of *pgxpool.Pool and pgx.Tx the repositories use.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// conn returns the transaction carried by ctx, or the pool outside a transaction.
func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// Transactor implements secondary.Transactor with Postgres transactions.
// Writers take a transaction-scoped advisory lock so the one-active-sprint
// rule holds across clients; serialization failures and deadlocks are retried.
type Transactor struct {
	pool       *pgxpool.Pool
	logger     *slog.Logger
	maxRetries uint64
}

// NewTransactor creates a Transactor over pool.
func NewTransactor(pool *pgxpool.Pool, logger *slog.Logger) *Transactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactor{pool: pool, logger: logger, maxRetries: 5}
}

// WithinTx runs fn in a transaction. Nested calls join the outer transaction.
func (t *Transactor) WithinTx(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := t.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if isRetryable(err) {
			t.logger.DebugContext(ctx, "transaction conflict, retrying", "tx", name, "attempt", attempt)
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 20 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond
	b := backoff.WithContext(backoff.WithMaxRetries(policy, t.maxRetries), ctx)

	if err := backoff.Retry(operation, b); err != nil {
		if errs.IsKnown(err) {
			return err
		}
		return errs.Store(fmt.Sprintf("run %s", name), err)
	}
	return nil
}

func (t *Transactor) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return errs.Store("begin transaction", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			t.logger.WarnContext(ctx, "rollback failed", "error", rbErr)
		}
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", writerLockKey); err != nil {
		return errs.Store("acquire write lock", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.Store("commit transaction", err)
	}
	return nil
}

// isRetryable reports whether err is a serialization failure or deadlock.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

var _ secondary.Transactor = (*Transactor)(nil)
