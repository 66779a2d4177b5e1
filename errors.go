package tagpool

import (
	"github.com/ydb-platform/ydb-go-tagpool/internal/pool"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xerrors"
)

var (
	ErrClosed          = pool.ErrClosed
	ErrDraining        = pool.ErrDraining
	ErrQueueTimeout    = pool.ErrQueueTimeout
	ErrQueueFull       = pool.ErrQueueFull
	ErrSessionNotInUse = pool.ErrSessionNotInUse
)

// IsValidationError reports a malformed tag, option or configuration
func IsValidationError(err error) bool {
	return xerrors.IsValidation(err)
}

// IsReconciliationError reports failure of the reconciliation procedure and
// returns its details
func IsReconciliationError(err error) (ok bool, details *ReconciliationError) {
	if !xerrors.As(err, &details) {
		return false, nil
	}

	return true, details
}

// IsQueueTimeout reports that acquire was not served in queue timeout
func IsQueueTimeout(err error) bool {
	return xerrors.Is(err, ErrQueueTimeout)
}

// IsCapacityError reports that acquire failed because the pool is at
// capacity: queue timeout expired or the queue is full
func IsCapacityError(err error) bool {
	return xerrors.Is(err, ErrQueueTimeout, ErrQueueFull)
}
