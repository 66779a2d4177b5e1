// Package fixup provides reconciliation procedures which bring a session's
// actual state in line with a requested tag.
//
// A procedure is either local (a Go function, synchronous or completing
// through a callback) or remote (the name of a procedure invoked in-band on
// the session). All of them are dispatched through Procedure.Invoke so the
// pool never branches on the call style.
package fixup

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/ydb-platform/ydb-go-tagpool/internal/xerrors"
	"github.com/ydb-platform/ydb-go-tagpool/session"
	"github.com/ydb-platform/ydb-go-tagpool/tag"
)

type Kind int

const (
	KindSync = Kind(iota)
	KindAsync
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindAsync:
		return "async"
	case KindRemote:
		return "remote"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Target is a pooled session under reconciliation
type Target interface {
	ID() string
	Session() session.Session
	Tag() tag.Tag

	// SetTag records the tag the procedure actually established. When the
	// procedure calls SetTag its value wins over the requested tag.
	SetTag(t tag.Tag) error
}

type (
	// Func reconciles target synchronously
	Func func(ctx context.Context, target Target, requested, actual tag.Tag) error

	// AsyncFunc reconciles target in background and reports the result
	// through done. done must be called exactly once, extra calls are ignored.
	AsyncFunc func(ctx context.Context, target Target, requested, actual tag.Tag, done func(err error))
)

type Procedure interface {
	Kind() Kind

	// Invoke runs the procedure and blocks until it completes or ctx is done
	Invoke(ctx context.Context, target Target, requested, actual tag.Tag) error

	// Skip reports that the procedure must not be invoked for given requested tag
	Skip(requested tag.Tag) bool

	String() string
}

// PanicError is returned when a local procedure panics
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("reconciliation procedure panic: %v", e.Value)
}

var (
	_ Procedure = syncProcedure{}
	_ Procedure = asyncProcedure{}
	_ Procedure = remoteProcedure{}
)

type syncProcedure struct {
	name string
	f    Func
}

// Sync makes a local synchronous procedure
func Sync(name string, f Func) Procedure {
	return syncProcedure{name: name, f: f}
}

func (p syncProcedure) Kind() Kind { return KindSync }

func (p syncProcedure) Skip(tag.Tag) bool { return false }

func (p syncProcedure) String() string { return p.name }

func (p syncProcedure) Invoke(ctx context.Context, target Target, requested, actual tag.Tag) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = &PanicError{Value: e, Stack: debug.Stack()}
		}
	}()

	return p.f(ctx, target, requested, actual)
}

type asyncProcedure struct {
	name string
	f    AsyncFunc
}

// Async makes a local procedure completing through a callback
func Async(name string, f AsyncFunc) Procedure {
	return asyncProcedure{name: name, f: f}
}

func (p asyncProcedure) Kind() Kind { return KindAsync }

func (p asyncProcedure) Skip(tag.Tag) bool { return false }

func (p asyncProcedure) String() string { return p.name }

func (p asyncProcedure) Invoke(ctx context.Context, target Target, requested, actual tag.Tag) error {
	var (
		once   sync.Once
		result = make(chan error, 1)
		done   = func(err error) {
			once.Do(func() {
				result <- err
			})
		}
	)

	go func() {
		defer func() {
			if e := recover(); e != nil {
				done(&PanicError{Value: e, Stack: debug.Stack()})
			}
		}()

		p.f(ctx, target, requested, actual, done)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return xerrors.WithStackTrace(ctx.Err())
	}
}

type remoteProcedure struct {
	name string
}

// Remote makes a procedure executed in-band on the session as
// Call(ctx, name, requested, actual). Remote procedures are not invoked for
// the empty requested tag.
func Remote(name string) Procedure {
	return remoteProcedure{name: name}
}

func (p remoteProcedure) Kind() Kind { return KindRemote }

func (p remoteProcedure) Skip(requested tag.Tag) bool { return requested.IsEmpty() }

func (p remoteProcedure) String() string { return p.name }

func (p remoteProcedure) Invoke(ctx context.Context, target Target, requested, actual tag.Tag) error {
	return target.Session().Call(ctx, p.name, requested.String(), actual.String())
}
