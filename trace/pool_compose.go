package trace

import (
	"context"
	"time"

	"github.com/ydb-platform/ydb-go-tagpool/internal/stack"
)

// Compose returns a new Pool which has functional fields composed both from t and x.
// Nil hooks of both sides are skipped.
func (t *Pool) Compose(x *Pool) *Pool {
	var ret Pool
	if t == nil {
		t = &Pool{}
	}
	if x == nil {
		x = &Pool{}
	}
	ret.OnNew = composeStartDone(t.OnNew, x.OnNew)
	ret.OnClose = composeStartDone(t.OnClose, x.OnClose)
	ret.OnReconfigure = composeInfo(t.OnReconfigure, x.OnReconfigure)
	ret.OnAcquire = composeStartDone(t.OnAcquire, x.OnAcquire)
	ret.OnRelease = composeStartDone(t.OnRelease, x.OnRelease)
	ret.OnWait = composeStartDone(t.OnWait, x.OnWait)
	ret.OnSessionNew = composeStartDone(t.OnSessionNew, x.OnSessionNew)
	ret.OnSessionDrop = composeInfo(t.OnSessionDrop, x.OnSessionDrop)
	ret.OnReconcile = composeStartDone(t.OnReconcile, x.OnReconcile)
	ret.OnPing = composeStartDone(t.OnPing, x.OnPing)
	ret.OnChange = composeInfo(t.OnChange, x.OnChange)

	return &ret
}

func composeStartDone[S, D any](l, r func(S) func(D)) func(S) func(D) {
	switch {
	case l == nil:
		return r
	case r == nil:
		return l
	}

	return func(start S) func(D) {
		ld, rd := l(start), r(start)

		return func(done D) {
			if ld != nil {
				ld(done)
			}
			if rd != nil {
				rd(done)
			}
		}
	}
}

func composeInfo[I any](l, r func(I)) func(I) {
	switch {
	case l == nil:
		return r
	case r == nil:
		return l
	}

	return func(info I) {
		l(info)
		r(info)
	}
}

func startDone[S, D any](hook func(S) func(D), start S) func(D) {
	if hook == nil {
		return func(D) {}
	}
	done := hook(start)
	if done == nil {
		return func(D) {}
	}

	return done
}

func PoolOnNew(t *Pool, c *context.Context, call stack.Caller) func(min, max int, _ error) {
	done := startDone(t.OnNew, PoolNewStartInfo{Context: c, Call: call})

	return func(min, max int, err error) {
		done(PoolNewDoneInfo{Min: min, Max: max, Error: err})
	}
}

func PoolOnClose(t *Pool, c *context.Context, call stack.Caller) func(dropped int, _ error) {
	done := startDone(t.OnClose, PoolCloseStartInfo{Context: c, Call: call})

	return func(dropped int, err error) {
		done(PoolCloseDoneInfo{Dropped: dropped, Error: err})
	}
}

func PoolOnReconfigure(t *Pool, min, max, increment int) {
	if t.OnReconfigure != nil {
		t.OnReconfigure(PoolReconfigureInfo{Min: min, Max: max, Increment: increment})
	}
}

func PoolOnAcquire(t *Pool, c *context.Context, call stack.Caller,
	tag string, hasTag, matchAnyTag bool,
) func(id, tag string, attempts int, _ error) {
	done := startDone(t.OnAcquire, PoolAcquireStartInfo{
		Context:     c,
		Call:        call,
		Tag:         tag,
		HasTag:      hasTag,
		MatchAnyTag: matchAnyTag,
	})

	return func(id, tag string, attempts int, err error) {
		done(PoolAcquireDoneInfo{ID: id, Tag: tag, Attempts: attempts, Error: err})
	}
}

func PoolOnRelease(t *Pool, c *context.Context, call stack.Caller, id, tag string, drop bool) func(error) {
	done := startDone(t.OnRelease, PoolReleaseStartInfo{Context: c, Call: call, ID: id, Tag: tag, Drop: drop})

	return func(err error) {
		done(PoolReleaseDoneInfo{Error: err})
	}
}

func PoolOnWait(t *Pool, c *context.Context, call stack.Caller, position int) func(waited time.Duration, _ error) {
	done := startDone(t.OnWait, PoolWaitStartInfo{Context: c, Call: call, Position: position})

	return func(waited time.Duration, err error) {
		done(PoolWaitDoneInfo{Waited: waited, Error: err})
	}
}

func PoolOnSessionNew(t *Pool, c *context.Context, call stack.Caller) func(id string, _ error) {
	done := startDone(t.OnSessionNew, PoolSessionNewStartInfo{Context: c, Call: call})

	return func(id string, err error) {
		done(PoolSessionNewDoneInfo{ID: id, Error: err})
	}
}

func PoolOnSessionDrop(t *Pool, id, tag, reason string) {
	if t.OnSessionDrop != nil {
		t.OnSessionDrop(PoolSessionDropInfo{ID: id, Tag: tag, Reason: reason})
	}
}

func PoolOnReconcile(t *Pool, c *context.Context, call stack.Caller,
	id, procedure, kind, requested, actual string, isNew bool,
) func(tag string, _ error) {
	done := startDone(t.OnReconcile, PoolReconcileStartInfo{
		Context:   c,
		Call:      call,
		ID:        id,
		Procedure: procedure,
		Kind:      kind,
		Requested: requested,
		Actual:    actual,
		IsNew:     isNew,
	})

	return func(tag string, err error) {
		done(PoolReconcileDoneInfo{Tag: tag, Error: err})
	}
}

func PoolOnPing(t *Pool, c *context.Context, call stack.Caller, id string, idle time.Duration) func(error) {
	done := startDone(t.OnPing, PoolPingStartInfo{Context: c, Call: call, ID: id, Idle: idle})

	return func(err error) {
		done(PoolPingDoneInfo{Error: err})
	}
}

func PoolOnChange(t *Pool, info PoolChangeInfo) {
	if t.OnChange != nil {
		t.OnChange(info)
	}
}
