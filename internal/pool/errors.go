package pool

import (
	"errors"
	"fmt"

	"github.com/ydb-platform/ydb-go-tagpool/tag"
)

var (
	// ErrClosed is returned by a pool instance to indicate
	// that pool is closed and not able to complete requested operation.
	ErrClosed = errors.New("ydb: tagpool: pool is closed")

	// ErrDraining is returned by acquire calls while the pool waits for
	// checked out sessions before closing.
	ErrDraining = errors.New("ydb: tagpool: pool is draining")

	// ErrQueueTimeout is returned when a queued acquire is not served in
	// the configured queue timeout.
	ErrQueueTimeout = errors.New("ydb: tagpool: queue timeout")

	// ErrQueueFull is returned when the wait queue already holds the
	// maximum number of waiters.
	ErrQueueFull = errors.New("ydb: tagpool: queue is full")

	// ErrSessionNotInUse is returned on release of a session which is not
	// checked out of this pool.
	ErrSessionNotInUse = errors.New("ydb: tagpool: session is not in use")
)

// ReconciliationError reports failure of the reconciliation procedure.
// Message is the message of the procedure's error, errors.Is and errors.As
// reach the original error.
type ReconciliationError struct {
	ID        string
	Procedure string
	Requested tag.Tag
	Actual    tag.Tag

	err error
}

func (e *ReconciliationError) Error() string {
	return e.err.Error()
}

func (e *ReconciliationError) Unwrap() error {
	return e.err
}

// Details describes the failed reconciliation for logging
func (e *ReconciliationError) Details() string {
	return fmt.Sprintf("procedure %q failed on session %s (requested %q, actual %q)",
		e.Procedure, e.ID, e.Requested, e.Actual,
	)
}

var errNilSession = errors.New("ydb: tagpool: factory returned nil session without error")
