package pool

import (
	"context"

	"github.com/ydb-platform/ydb-go-tagpool/internal/stack"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xcontext"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xerrors"
	"github.com/ydb-platform/ydb-go-tagpool/trace"
)

type createResult struct {
	s   *Session
	err error
}

// createInSlot creates a session for the caller in a slot reserved by
// createInProgress. If ctx is done before creation completes the new
// session lands free in the pool.
// p.mu must NOT be held.
func (p *Pool) createInSlot(ctx context.Context) (*Session, error) {
	var (
		resCh   = make(chan createResult) // unbuffered: abandoned result goes to the pool
		abandon = make(chan struct{})
	)

	p.mu.Lock()
	started := p.goLocked(func() {
		s, err := p.create(xcontext.ValueOnly(ctx))
		select {
		case resCh <- createResult{s: s, err: err}:
		case <-abandon:
			if s != nil {
				p.putBack(s)
			}
		}
	})
	if !started {
		p.createInProgress--
		p.mu.Unlock()

		return nil, xerrors.WithStackTrace(ErrClosed)
	}
	p.mu.Unlock()

	select {
	case r := <-resCh:
		return r.s, r.err
	case <-ctx.Done():
		close(abandon)

		return nil, xerrors.WithStackTrace(ctx.Err())
	}
}

// create makes a session in a reserved slot and registers it as in use.
// On failure the slot is passed to a waiter.
func (p *Pool) create(ctx context.Context) (*Session, error) {
	s, err := p.spawn(ctx)

	p.mu.Lock()
	p.createInProgress--
	if err != nil {
		p.notifySlotLocked()
		p.mu.Unlock()

		return nil, err
	}
	if p.status == StatusClosed {
		s.state = StateDropped
		closeTimeout := p.config.CloseTimeout()
		p.mu.Unlock()

		s.terminate(ctx, closeTimeout)

		return nil, xerrors.WithStackTrace(ErrClosed)
	}
	p.index[s] = struct{}{}
	p.inUse++
	p.mu.Unlock()

	return s, nil
}

// spawn calls factory limited by create timeout
func (p *Pool) spawn(ctx context.Context) (_ *Session, finalErr error) {
	var id string
	onDone := trace.PoolOnSessionNew(p.trace, &ctx,
		stack.FunctionID("github.com/ydb-platform/ydb-go-tagpool/internal/pool.(*Pool).spawn"),
	)
	defer func() {
		onDone(id, finalErr)
	}()

	p.mu.Lock()
	createTimeout := p.config.CreateTimeout()
	p.mu.Unlock()

	createCtx, cancel := xcontext.WithTimeout(ctx, createTimeout)
	defer cancel()

	raw, err := p.factory(createCtx)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}
	if raw == nil {
		return nil, xerrors.WithStackTrace(errNilSession)
	}

	s := newSession(p, raw, p.clock.Now())
	id = s.id

	return s, nil
}

// growLocked starts up to n background creations bounded by max.
// New sessions land free and untagged.
// p.mu must be held.
func (p *Pool) growLocked(n int) {
	for i := 0; i < n && len(p.index)+p.createInProgress < p.config.Max(); i++ {
		p.createInProgress++
		started := p.goLocked(func() {
			s, err := p.create(context.Background())
			if err == nil {
				p.putBack(s)
			}
		})
		if !started {
			p.createInProgress--

			return
		}
	}
}
