package pool

import (
	"container/list"
	"context"
	"time"

	"github.com/ydb-platform/ydb-go-tagpool/internal/stack"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xerrors"
	"github.com/ydb-platform/ydb-go-tagpool/trace"
)

// grant is a result of waiting: a reserved session, a reserved slot for a
// new session (nil s and err) or an error.
type grant struct {
	s   *Session
	err error
}

type waiter struct {
	ch         chan grant    // buffered, receives exactly one grant
	el         *list.Element // nil when waiter is out of queue
	enqueuedAt time.Time
}

// popWaiterLocked removes the first waiter from the queue or returns nil.
// p.mu must be held.
func (p *Pool) popWaiterLocked() *waiter {
	el := p.waitq.Front()
	if el == nil {
		return nil
	}
	w := p.waitq.Remove(el).(*waiter) //nolint:forcetypeassert
	w.el = nil

	p.stats.dequeued++
	p.stats.observeQueueTime(p.clock.Since(w.enqueuedAt))

	return w
}

// handOffLocked passes free session s to the first waiter.
// p.mu must be held.
func (p *Pool) handOffLocked(s *Session) (notified bool) {
	w := p.popWaiterLocked()
	if w == nil {
		return false
	}
	s.state = StateInUse
	p.inUse++
	w.ch <- grant{s: s}

	return true
}

// notifySlotLocked passes a free capacity slot to the first waiter.
// p.mu must be held.
func (p *Pool) notifySlotLocked() (notified bool) {
	if p.status != StatusOpen || p.waitq.Len() == 0 || len(p.index)+p.createInProgress >= p.config.Max() {
		return false
	}
	w := p.popWaiterLocked()
	p.createInProgress++
	w.ch <- grant{}

	return true
}

// wait blocks until w is granted, queue timeout expires or ctx is done.
// A grant sent before the waiter observed its timeout wins and is served.
// A grant racing with ctx cancellation is passed to the next waiter.
func (p *Pool) wait(
	ctx context.Context, w *waiter, o *acquireOptions, position int, timeout time.Duration,
) (_ *Session, created bool, finalErr error) {
	onDone := trace.PoolOnWait(p.trace, &ctx,
		stack.FunctionID("github.com/ydb-platform/ydb-go-tagpool/internal/pool.(*Pool).wait"),
		position,
	)
	start := p.clock.Now()
	defer func() {
		onDone(p.clock.Since(start), finalErr)
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := p.clock.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.Chan()
	}

	select {
	case g := <-w.ch:
		return p.serve(ctx, g, o)

	case <-expired:
		if p.leave(w) {
			p.mu.WithLock(func() {
				p.stats.timeouts++
			})

			return nil, false, xerrors.WithStackTrace(ErrQueueTimeout)
		}

		return p.serve(ctx, <-w.ch, o)

	case <-ctx.Done():
		if !p.leave(w) {
			p.regrant(<-w.ch)
		}

		return nil, false, xerrors.WithStackTrace(ctx.Err())
	}
}

// leave removes w from the queue. It returns false if w was already granted.
func (p *Pool) leave(w *waiter) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w.el == nil {
		return false
	}
	p.waitq.Remove(w.el)
	w.el = nil

	return true
}

func (p *Pool) serve(ctx context.Context, g grant, o *acquireOptions) (*Session, bool, error) {
	switch {
	case g.err != nil:
		return nil, false, g.err
	case g.s == nil:
		s, err := p.createInSlot(ctx)

		return s, true, err
	}

	ok, _ := o.acceptable(g.s.Tag())
	if ok {
		return g.s, false, nil
	}

	s, err := p.replace(ctx, g.s, "mismatched")

	return s, true, err
}

// regrant passes grant of a cancelled waiter to the next one
func (p *Pool) regrant(g grant) {
	switch {
	case g.err != nil:
	case g.s == nil:
		p.mu.Lock()
		p.createInProgress--
		p.notifySlotLocked()
		p.mu.Unlock()
	default:
		p.putBack(g.s)
	}
}
