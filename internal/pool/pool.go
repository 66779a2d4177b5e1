package pool

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/ydb-platform/ydb-go-tagpool/internal/pool/config"
	"github.com/ydb-platform/ydb-go-tagpool/internal/stack"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xerrors"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xsync"
	"github.com/ydb-platform/ydb-go-tagpool/session"
	"github.com/ydb-platform/ydb-go-tagpool/trace"
)

//go:generate mockgen -destination session_mock_test.go -package pool -write_package_comment=false github.com/ydb-platform/ydb-go-tagpool/session Session

// Pool is a set of tagged sessions that may be reused.
// A Pool is safe for use by multiple goroutines simultaneously.
type Pool struct {
	config  *config.Config
	factory session.Factory
	clock   clockwork.Clock
	trace   *trace.Pool

	mu               xsync.Mutex
	index            map[*Session]struct{} // open sessions, free and in use
	idle             *list.List            // list<*Session>, least recently released first
	waitq            *list.List            // list<*waiter>
	createInProgress int                   // reserved slots of sessions under creation
	inUse            int
	status           Status
	drained          chan struct{} // closed when the last in use session is returned while draining
	stats            statistics

	keeperStop chan struct{}
	keeperDone chan struct{}

	wg sync.WaitGroup // background creations and terminations
}

// New opens a pool and creates config.Min sessions in parallel
func New(ctx context.Context, factory session.Factory, opts ...config.Option) (_ *Pool, finalErr error) {
	cfg := config.New(opts...)

	onDone := trace.PoolOnNew(cfg.Trace(), &ctx,
		stack.FunctionID("github.com/ydb-platform/ydb-go-tagpool/internal/pool.New"),
	)
	defer func() {
		onDone(cfg.Min(), cfg.Max(), finalErr)
	}()

	if factory == nil {
		return nil, xerrors.WithStackTrace(xerrors.Validation("factory", "must not be nil"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	p := &Pool{
		config:  cfg,
		factory: factory,
		clock:   cfg.Clock(),
		trace:   cfg.Trace(),
		index:   make(map[*Session]struct{}),
		idle:    list.New(),
		waitq:   list.New(),
	}
	p.stats.reset(p.clock.Now())

	if err := p.warmUp(ctx, cfg.Min()); err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	if interval := cfg.IdleSweepInterval(); interval > 0 {
		p.keeperStop = make(chan struct{})
		p.keeperDone = make(chan struct{})
		go p.keeper(interval)
	}

	return p, nil
}

func (p *Pool) warmUp(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	p.mu.Lock()
	p.createInProgress += n
	p.mu.Unlock()

	sessions := make([]*Session, n)
	g, ctx := errgroup.WithContext(ctx)
	for i := range sessions {
		i := i
		g.Go(func() (err error) {
			sessions[i], err = p.create(ctx)

			return err
		})
	}
	err := g.Wait()

	for _, s := range sessions {
		if s == nil {
			continue
		}
		if err == nil {
			p.putBack(s)

			continue
		}
		p.mu.Lock()
		p.dropLocked(s, "open failed")
		p.mu.Unlock()
		p.terminate(s)
	}
	if err != nil {
		p.wg.Wait()
	}

	return err
}

// Acquire returns a session in the requested tag state. Free sessions with
// exactly the requested tag are handed out without reconciliation, other
// sessions are reconciled by the configured procedure before hand out.
func (p *Pool) Acquire(ctx context.Context, opts ...AcquireOption) (s *Session, finalErr error) {
	p.mu.Lock()
	o := acquireOptions{matchAnyTag: p.config.MatchAnyTag()}
	p.stats.requests++
	p.mu.Unlock()

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	attempts := 1
	onDone := trace.PoolOnAcquire(p.trace, &ctx,
		stack.FunctionID("github.com/ydb-platform/ydb-go-tagpool/internal/pool.(*Pool).Acquire"),
		o.tag.String(), o.hasTag, o.matchAnyTag,
	)
	defer func() {
		if finalErr != nil {
			p.mu.WithLock(func() {
				p.stats.failed++
			})
			onDone("", "", attempts, finalErr)
		} else {
			onDone(s.ID(), s.Tag().String(), attempts, nil)
		}
		p.onChange()
	}()

	if o.hasTag {
		if err := o.tag.Validate(); err != nil {
			return nil, xerrors.WithStackTrace(err)
		}
	}

	s, created, err := p.get(ctx, &o)
	if err != nil {
		return nil, err
	}

	if !created {
		var replaced bool
		s, replaced, err = p.check(ctx, s)
		if err != nil {
			return nil, err
		}
		if replaced {
			attempts++
		}
	}

	if err = p.reconcile(ctx, s, &o, p.claim(s)); err != nil {
		return nil, err
	}

	return s, nil
}

// get reserves a session for o. Reserved session is IN_USE and invisible
// for other callers. created reports that session was created for this call.
func (p *Pool) get(ctx context.Context, o *acquireOptions) (_ *Session, created bool, _ error) {
	p.mu.Lock()
	if err := p.checkOpenLocked(); err != nil {
		p.mu.Unlock()

		return nil, false, err
	}

	expired := p.evictLocked(p.clock.Now())

	if s := p.pickLocked(o); s != nil {
		p.takeLocked(s)
		p.mu.Unlock()
		p.terminateAll(expired)

		return s, false, nil
	}

	if len(p.index)+p.createInProgress < p.config.Max() {
		p.createInProgress++
		p.growLocked(p.config.Increment() - 1)
		p.mu.Unlock()
		p.terminateAll(expired)

		s, err := p.createInSlot(ctx)

		return s, true, err
	}

	if el := p.idle.Front(); el != nil {
		// no acceptable free session at capacity: the least recently
		// released one gives its slot to a new session
		victim := el.Value.(*Session) //nolint:forcetypeassert
		p.dropLocked(victim, "replaced")
		p.createInProgress++
		p.mu.Unlock()
		p.terminateAll(expired)

		p.terminate(victim)
		s, err := p.createInSlot(ctx)

		return s, true, err
	}

	if queueMax := p.config.QueueMax(); queueMax >= 0 && p.waitq.Len() >= queueMax {
		p.stats.rejected++
		p.mu.Unlock()
		p.terminateAll(expired)

		return nil, false, xerrors.WithStackTrace(ErrQueueFull)
	}

	w := &waiter{
		ch:         make(chan grant, 1),
		enqueuedAt: p.clock.Now(),
	}
	w.el = p.waitq.PushBack(w)
	p.stats.enqueued++
	if n := p.waitq.Len(); n > p.stats.maxQueueLength {
		p.stats.maxQueueLength = n
	}
	position := p.waitq.Len()
	queueTimeout := p.config.QueueTimeout()
	p.mu.Unlock()
	p.terminateAll(expired)

	return p.wait(ctx, w, o, position, queueTimeout)
}

// check probes session idle longer than ping interval. Dead session is
// replaced by a new one in the same slot.
func (p *Pool) check(ctx context.Context, s *Session) (_ *Session, replaced bool, _ error) {
	p.mu.Lock()
	var (
		interval    = p.config.PingInterval()
		pingTimeout = p.config.PingTimeout()
		idle        = p.clock.Since(s.lastReleasedAt)
	)
	p.mu.Unlock()

	if interval < 0 || idle < interval {
		return s, false, nil
	}

	onDone := trace.PoolOnPing(p.trace, &ctx,
		stack.FunctionID("github.com/ydb-platform/ydb-go-tagpool/internal/pool.(*Pool).check"),
		s.ID(), idle,
	)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := s.s.Ping(pingCtx)
	cancel()
	onDone(err)

	if err == nil {
		return s, false, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		p.putBack(s)

		return nil, false, xerrors.WithStackTrace(ctxErr)
	}

	p.mu.WithLock(func() {
		p.stats.pingFailures++
	})

	s, err = p.replace(ctx, s, "ping failed")

	return s, true, err
}

// claim reports that s has never been handed out before
func (p *Pool) claim(s *Session) (isNew bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	isNew = s.fresh
	s.fresh = false

	return isNew
}

// reconcile brings s to the requested tag with the configured procedure.
// Failed session is dropped and never handed out.
func (p *Pool) reconcile(ctx context.Context, s *Session, o *acquireOptions, isNew bool) error {
	p.mu.Lock()
	var (
		procedure = p.config.Procedure()
		requested = o.tag
		actual    = s.tag
	)
	s.tagSet = false
	if procedure == nil {
		if o.hasTag && !requested.IsEmpty() {
			s.tag = requested
		}
		p.mu.Unlock()

		return nil
	}
	p.mu.Unlock()

	if !isNew && (!o.hasTag || actual == requested) {
		return nil
	}
	if procedure.Skip(requested) {
		return nil
	}

	p.mu.WithLock(func() {
		p.stats.reconcileCalls++
	})

	onDone := trace.PoolOnReconcile(p.trace, &ctx,
		stack.FunctionID("github.com/ydb-platform/ydb-go-tagpool/internal/pool.(*Pool).reconcile"),
		s.ID(), procedure.String(), procedure.Kind().String(), requested.String(), actual.String(), isNew,
	)

	if err := procedure.Invoke(ctx, s, requested, actual); err != nil {
		p.mu.Lock()
		p.stats.reconcileFailures++
		p.dropLocked(s, "reconciliation failed")
		p.notifySlotLocked()
		p.mu.Unlock()

		p.terminate(s)
		onDone("", err)

		return &ReconciliationError{
			ID:        s.ID(),
			Procedure: procedure.String(),
			Requested: requested,
			Actual:    actual,
			err:       err,
		}
	}

	p.mu.Lock()
	if !s.tagSet {
		s.tag = requested
	}
	t := s.tag
	p.mu.Unlock()

	onDone(t.String(), nil)

	return nil
}

// Release returns session to the pool for further reuse.
// Invalid options leave session checked out, so Release may be retried.
func (p *Pool) Release(ctx context.Context, s *Session, opts ...ReleaseOption) (finalErr error) {
	if s == nil {
		return xerrors.WithStackTrace(ErrSessionNotInUse)
	}

	var o releaseOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	onDone := trace.PoolOnRelease(p.trace, &ctx,
		stack.FunctionID("github.com/ydb-platform/ydb-go-tagpool/internal/pool.(*Pool).Release"),
		s.ID(), o.tag.String(), o.drop,
	)
	defer func() {
		onDone(finalErr)
	}()

	if err := o.validate(); err != nil {
		return xerrors.WithStackTrace(err)
	}

	p.mu.Lock()
	switch {
	case s.pool != p:
		p.mu.Unlock()

		return xerrors.WithStackTrace(ErrSessionNotInUse)

	case p.status == StatusClosed:
		p.dropLocked(s, "pool closed")
		closeTimeout := p.config.CloseTimeout()
		p.mu.Unlock()

		s.terminate(ctx, closeTimeout)

		return nil

	case s.state != StateInUse:
		p.mu.Unlock()

		return xerrors.WithStackTrace(ErrSessionNotInUse)
	}

	if o.hasTag {
		s.tag = o.tag
	}
	s.tagSet = false

	if o.drop || len(p.index) > p.config.Max() {
		reason := "released with drop"
		if !o.drop {
			reason = "over max"
		}
		p.dropLocked(s, reason)
		p.notifySlotLocked()
		p.mu.Unlock()

		p.terminate(s)
		p.onChange()

		return nil
	}

	p.inUse--
	s.lastReleasedAt = p.clock.Now()
	if !p.handOffLocked(s) {
		p.pushIdleLocked(s)
	}
	p.checkDrainedLocked()
	p.mu.Unlock()

	p.onChange()

	return nil
}

// Close stops accepting acquire calls, fails queued ones and waits for
// checked out sessions until ctx is done. Then it terminates all sessions.
func (p *Pool) Close(ctx context.Context) (finalErr error) {
	var dropped int
	onDone := trace.PoolOnClose(p.trace, &ctx,
		stack.FunctionID("github.com/ydb-platform/ydb-go-tagpool/internal/pool.(*Pool).Close"),
	)
	defer func() {
		onDone(dropped, finalErr)
	}()

	p.mu.Lock()
	if p.status != StatusOpen {
		p.mu.Unlock()

		return xerrors.WithStackTrace(ErrClosed)
	}
	p.status = StatusDraining
	for p.waitq.Len() > 0 {
		p.popWaiterLocked().ch <- grant{err: xerrors.WithStackTrace(ErrDraining)}
	}
	drained := make(chan struct{})
	if p.inUse == 0 {
		close(drained)
	} else {
		p.drained = drained
	}
	keeperStop, keeperDone := p.keeperStop, p.keeperDone
	p.mu.Unlock()

	if keeperStop != nil {
		close(keeperStop)
		<-keeperDone
	}

	select {
	case <-drained:
	case <-ctx.Done():
	}

	p.mu.Lock()
	p.status = StatusClosed
	p.drained = nil
	sessions := make([]*Session, 0, len(p.index))
	for s := range p.index {
		sessions = append(sessions, s)
	}
	for _, s := range sessions {
		p.dropLocked(s, "pool closed")
	}
	closeTimeout := p.config.CloseTimeout()
	p.mu.Unlock()

	dropped = len(sessions)

	var g errgroup.Group
	for _, s := range sessions {
		s := s
		g.Go(func() error {
			s.terminate(ctx, closeTimeout)

			return nil
		})
	}
	_ = g.Wait()
	p.wg.Wait()

	p.onChange()

	return nil
}

// Reconfigure applies opts to the running pool. Clock and trace are fixed
// at open and cannot be changed.
func (p *Pool) Reconfigure(ctx context.Context, opts ...config.Option) error {
	p.mu.Lock()
	if err := p.checkOpenLocked(); err != nil {
		p.mu.Unlock()

		return err
	}

	cfg := p.config.With(opts...)
	if err := cfg.Validate(); err != nil {
		p.mu.Unlock()

		return xerrors.WithStackTrace(err)
	}
	if cfg.Statistics() && !p.config.Statistics() {
		p.stats.reset(p.clock.Now())
	}
	p.config = cfg

	for p.notifySlotLocked() {
	}

	var surplus []*Session
	for len(p.index) > cfg.Max() && p.idle.Len() > 0 {
		s := p.idle.Front().Value.(*Session) //nolint:forcetypeassert
		p.dropLocked(s, "over max")
		surplus = append(surplus, s)
	}

	p.growLocked(cfg.Min() - len(p.index) - p.createInProgress)
	p.mu.Unlock()

	p.terminateAll(surplus)
	trace.PoolOnReconfigure(p.trace, cfg.Min(), cfg.Max(), cfg.Increment())
	p.onChange()

	return nil
}

func (p *Pool) Status() Status {
	return xsync.WithLock(&p.mu, func() Status {
		return p.status
	})
}

// p.mu must be held.
func (p *Pool) checkOpenLocked() error {
	switch p.status {
	case StatusOpen:
		return nil
	case StatusDraining:
		return xerrors.WithStackTrace(ErrDraining, xerrors.WithSkipDepth(1))
	default:
		return xerrors.WithStackTrace(ErrClosed, xerrors.WithSkipDepth(1))
	}
}

// pickLocked returns an exactly matched free session or, if there is none,
// the first free session acceptable as reconciliation base.
// p.mu must be held.
func (p *Pool) pickLocked(o *acquireOptions) *Session {
	var base *Session
	for el := p.idle.Front(); el != nil; el = el.Next() {
		s := el.Value.(*Session) //nolint:forcetypeassert
		ok, exact := o.acceptable(s.tag)
		if exact {
			return s
		}
		if ok && base == nil {
			base = s
		}
	}

	return base
}

// p.mu must be held.
func (p *Pool) takeLocked(s *Session) {
	if s.state != StateFree || s.idle == nil {
		panicLocked(&p.mu, "ydb: tagpool: inconsistent session pool index")
	}
	p.idle.Remove(s.idle)
	s.idle = nil
	s.state = StateInUse
	p.inUse++
}

// pushIdleLocked keeps idle list ordered by release time.
// p.mu must be held.
func (p *Pool) pushIdleLocked(s *Session) {
	if _, has := p.index[s]; !has {
		panicLocked(&p.mu, "ydb: tagpool: trying to store session created outside of the pool")
	}
	if s.idle != nil {
		panicLocked(&p.mu, "ydb: tagpool: inconsistent session pool index")
	}

	var prev *list.Element
	for prev = p.idle.Back(); prev != nil; prev = prev.Prev() {
		if !s.lastReleasedAt.Before(prev.Value.(*Session).lastReleasedAt) { //nolint:forcetypeassert
			break
		}
	}
	if prev != nil {
		s.idle = p.idle.InsertAfter(s, prev)
	} else {
		s.idle = p.idle.PushFront(s)
	}
	s.state = StateFree
}

// dropLocked removes s from bookkeeping. Termination of underlying
// session is up to the caller.
// p.mu must be held.
func (p *Pool) dropLocked(s *Session, reason string) {
	switch s.state {
	case StateDropped:
		return
	case StateFree:
		if s.idle == nil {
			panicLocked(&p.mu, "ydb: tagpool: inconsistent session pool index")
		}
		p.idle.Remove(s.idle)
		s.idle = nil
	case StateInUse:
		p.inUse--
	}
	s.state = StateDropped
	delete(p.index, s)
	p.stats.dropped++
	p.checkDrainedLocked()

	trace.PoolOnSessionDrop(p.trace, s.id, string(s.tag), reason)
}

// evictLocked drops sessions idle longer than idle timeout keeping at
// least min sessions open.
// p.mu must be held.
func (p *Pool) evictLocked(now time.Time) (expired []*Session) {
	timeout := p.config.IdleTimeout()
	if timeout <= 0 {
		return nil
	}
	for el := p.idle.Front(); el != nil && len(p.index) > p.config.Min(); el = p.idle.Front() {
		s := el.Value.(*Session) //nolint:forcetypeassert
		if now.Sub(s.lastReleasedAt) <= timeout {
			break
		}
		p.dropLocked(s, "idle timeout")
		p.stats.evicted++
		expired = append(expired, s)
	}

	return expired
}

// p.mu must be held.
func (p *Pool) checkDrainedLocked() {
	if p.status == StatusDraining && p.inUse == 0 && p.drained != nil {
		close(p.drained)
		p.drained = nil
	}
}

// replace drops s and creates a new session in its slot
func (p *Pool) replace(ctx context.Context, s *Session, reason string) (*Session, error) {
	p.mu.Lock()
	p.dropLocked(s, reason)
	p.createInProgress++
	p.mu.Unlock()

	p.terminate(s)

	return p.createInSlot(ctx)
}

// putBack returns a reserved session which was never handed to a caller
func (p *Pool) putBack(s *Session) {
	p.mu.Lock()
	if s.state != StateInUse {
		p.mu.Unlock()

		return
	}
	if p.status == StatusClosed || len(p.index) > p.config.Max() {
		p.dropLocked(s, "over max")
		p.mu.Unlock()
		p.terminate(s)

		return
	}
	p.inUse--
	if !p.handOffLocked(s) {
		p.pushIdleLocked(s)
	}
	p.checkDrainedLocked()
	p.mu.Unlock()
}

// terminate closes underlying session of dropped s in background
func (p *Pool) terminate(s *Session) {
	p.mu.Lock()
	closeTimeout := p.config.CloseTimeout()
	started := p.goLocked(func() {
		s.terminate(context.Background(), closeTimeout)
	})
	p.mu.Unlock()

	if !started {
		s.terminate(context.Background(), closeTimeout)
	}
}

func (p *Pool) terminateAll(sessions []*Session) {
	for _, s := range sessions {
		p.terminate(s)
	}
	if len(sessions) > 0 {
		p.onChange()
	}
}

// goLocked runs f in background unless the pool is closed. Close waits
// for all such goroutines.
// p.mu must be held.
func (p *Pool) goLocked(f func()) bool {
	if p.status == StatusClosed {
		return false
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		f()
	}()

	return true
}

func (p *Pool) onChange() {
	if p.trace.OnChange == nil {
		return
	}
	stats := p.Stats()
	trace.PoolOnChange(p.trace, trace.PoolChangeInfo{
		Max:              stats.Max,
		Open:             stats.Open,
		InUse:            stats.InUse,
		Idle:             stats.Idle,
		Wait:             stats.Wait,
		CreateInProgress: stats.CreateInProgress,
	})
}

func panicLocked(mu sync.Locker, message string) {
	mu.Unlock()
	panic(message)
}
