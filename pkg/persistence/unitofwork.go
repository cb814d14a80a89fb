package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadOnlyUnitOfWork is a non-transactional snapshot read against the pool.
// It never opens a *sql.Tx.
type ReadOnlyUnitOfWork struct {
	ctx context.Context
	db  *sql.DB
}

// CreateReadOnly builds a ReadOnlyUnitOfWork scoped to ctx.
func (c *Client) CreateReadOnly(ctx context.Context) *ReadOnlyUnitOfWork {
	return &ReadOnlyUnitOfWork{ctx: ctx, db: c.db}
}

// Querier is the subset of *sql.DB / *sql.Tx that repositories depend on,
// letting the same repository implementation back either kind of unit of work.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Querier returns the read-only querier backing this unit of work.
func (u *ReadOnlyUnitOfWork) Querier() Querier { return u.db }

// Context returns the unit of work's context.
func (u *ReadOnlyUnitOfWork) Context() context.Context { return u.ctx }

// WritableUnitOfWork owns a single *sql.Tx. CommitAsync and RollbackAsync
// are the only two valid ways to end it; Rollback runs automatically if
// neither is called before the unit of work is discarded, via the deferred
// cleanup the caller is required to set up with CreateWritable's returned release func.
type WritableUnitOfWork struct {
	ctx context.Context
	tx  *sql.Tx
	done bool
}

// CreateWritable opens a single transaction spanning everything the caller
// does with the returned unit of work until Commit or Rollback. The second
// return value must be deferred by the caller to guarantee release on
// every exit path, including a panic.
func (c *Client) CreateWritable(ctx context.Context) (*WritableUnitOfWork, func(), error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, func() {}, fmt.Errorf("beginning transaction: %w", err)
	}
	u := &WritableUnitOfWork{ctx: ctx, tx: tx}
	release := func() {
		if !u.done {
			u.tx.Rollback()
			u.done = true
		}
	}
	return u, release, nil
}

// Querier returns the transactional querier backing this unit of work.
func (u *WritableUnitOfWork) Querier() Querier { return u.tx }

// Context returns the unit of work's context.
func (u *WritableUnitOfWork) Context() context.Context { return u.ctx }

// CommitAsync commits the underlying transaction.
func (u *WritableUnitOfWork) CommitAsync() error {
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}
	u.done = true
	return u.tx.Commit()
}

// RollbackAsync rolls back the underlying transaction.
func (u *WritableUnitOfWork) RollbackAsync() error {
	if u.done {
		return nil
	}
	u.done = true
	return u.tx.Rollback()
}
