// Package session declares the backend session contract consumed by the pool.
//
// The pool never executes work on a session by itself. It only probes
// liveness, terminates sessions and lets reconciliation procedures perform
// in-band calls.
package session

import (
	"context"
)

// Session is a stateful handle to a backend connection.
type Session interface {
	// Ping is a lightweight liveness probe. Non-nil error means the
	// session is not usable any more.
	Ping(ctx context.Context) error

	// Call performs an in-band procedure call on the session.
	// Remote reconciliation procedures are invoked through Call with
	// requested and actual tags as arguments.
	Call(ctx context.Context, procedure string, args ...interface{}) error

	// Close terminates the session. Close must be idempotent.
	Close(ctx context.Context) error
}

// Factory opens a new backend session
type Factory func(ctx context.Context) (Session, error)
