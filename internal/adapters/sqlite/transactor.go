// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
	"github.com/mattn/go-sqlite3"

	"github.com/example/taskly/internal/errs"
	"github.com/example/taskly/internal/ports/secondary"
)

// querier is the subset of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// conn returns the transaction carried by ctx, or db outside a transaction.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// Transactor implements secondary.Transactor with SQLite transactions.
// Writers in this process take a one-slot semaphore, then writers across
// processes are serialized by a lock file next to the database. The flock
// handle is shared, so the semaphore must be held for as long as the file
// lock is. SQLITE_BUSY is retried with exponential backoff.
type Transactor struct {
	db         *sql.DB
	writer     chan struct{}
	lock       *flock.Flock
	logger     *slog.Logger
	maxRetries uint64
	lockPoll   time.Duration
}

// NewTransactor creates a Transactor. lockPath may be empty for in-memory stores.
func NewTransactor(db *sql.DB, lockPath string, logger *slog.Logger) *Transactor {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transactor{
		db:         db,
		writer:     make(chan struct{}, 1),
		logger:     logger,
		maxRetries: 5,
		lockPoll:   25 * time.Millisecond,
	}
	if lockPath != "" {
		t.lock = flock.New(lockPath)
	}
	return t
}

// WithinTx runs fn in a transaction. Nested calls join the outer transaction.
func (t *Transactor) WithinTx(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	if err := t.acquire(ctx); err != nil {
		return err
	}
	defer t.release(ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := t.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if isBusy(err) {
			t.logger.DebugContext(ctx, "store busy, retrying", "tx", name, "attempt", attempt)
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

// acquire takes the in-process writer slot and then the file lock.
func (t *Transactor) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errs.Store("acquire write lock", err)
	}
	select {
	case t.writer <- struct{}{}:
	case <-ctx.Done():
		return errs.Store("acquire write lock", ctx.Err())
	}
	if t.lock == nil {
		return nil
	}

	locked, err := t.lock.TryLockContext(ctx, t.lockPoll)
	if err == nil && !locked {
		err = errors.New("lock held by another process")
	}
	if err != nil {
		<-t.writer
		return errs.Store("acquire write lock", err)
	}
	return nil
}

func (t *Transactor) release(ctx context.Context) {
	if t.lock != nil {
		if err := t.lock.Unlock(); err != nil {
			t.logger.WarnContext(ctx, "failed to release write lock", "error", err)
		}
	}
	<-t.writer
}

func (t *Transactor) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Store("begin transaction", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			t.logger.WarnContext(ctx, "rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errs.Store("commit transaction", err)
	}
	return nil
}

// isBusy reports whether err is SQLite lock contention worth retrying.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

var _ secondary.Transactor = (*Transactor)(nil)
