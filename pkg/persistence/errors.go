package persistence

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
)

// Sentinel errors returned by repositories across every bounded context.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a write violates a uniqueness constraint
	// the caller did not already check for (e.g. a racing nullifier insert).
	ErrConflict = errors.New("conflicting write")

	// ErrUnavailable classifies connection failures at the persistence
	// boundary (spec §7: PersistenceUnavailable). The idempotency gate
	// fails closed and the scheduler retries on the next tick when this
	// is returned.
	ErrUnavailable = errors.New("persistence unavailable")
)

// ClassifyConnErr wraps a raw driver error as ErrUnavailable when it looks
// like a connection failure rather than a query-level error.
func ClassifyConnErr(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) || errors.Is(err, driver.ErrBadConn) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return ErrUnavailable
	}
	return err
}
