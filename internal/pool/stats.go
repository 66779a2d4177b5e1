package pool

import (
	"time"

	"github.com/ydb-platform/ydb-go-tagpool/internal/xsync"
)

type Stats struct {
	Min              int
	Max              int
	Open             int
	InUse            int
	Idle             int
	Wait             int
	CreateInProgress int
}

// Stats returns current counters of the pool
func (p *Pool) Stats() Stats {
	return xsync.WithLock(&p.mu, func() Stats {
		return p.statsLocked()
	})
}

// p.mu must be held.
func (p *Pool) statsLocked() Stats {
	return Stats{
		Min:              p.config.Min(),
		Max:              p.config.Max(),
		Open:             len(p.index),
		InUse:            p.inUse,
		Idle:             p.idle.Len(),
		Wait:             p.waitq.Len(),
		CreateInProgress: p.createInProgress,
	}
}

// Statistics is an extended snapshot of pool activity since open or the
// last reset
type Statistics struct {
	Stats

	Status Status
	UpTime time.Duration

	Requests          uint64
	Enqueued          uint64
	Dequeued          uint64
	Failed            uint64
	Rejected          uint64
	Timeouts          uint64
	ReconcileCalls    uint64
	ReconcileFailures uint64
	PingFailures      uint64
	Evicted           uint64
	Dropped           uint64

	MaxQueueLength int
	TimeInQueueSum time.Duration
	TimeInQueueMin time.Duration
	TimeInQueueMax time.Duration
	TimeInQueueAvg time.Duration

	Increment    int
	IdleTimeout  time.Duration
	PingInterval time.Duration
	QueueTimeout time.Duration
	QueueMax     int
}

// Statistics returns extended statistics. ok is false when gathering of
// statistics is disabled.
func (p *Pool) Statistics() (s Statistics, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.config.Statistics() {
		return s, false
	}

	s = Statistics{
		Stats:  p.statsLocked(),
		Status: p.status,
		UpTime: p.clock.Since(p.stats.since),

		Requests:          p.stats.requests,
		Enqueued:          p.stats.enqueued,
		Dequeued:          p.stats.dequeued,
		Failed:            p.stats.failed,
		Rejected:          p.stats.rejected,
		Timeouts:          p.stats.timeouts,
		ReconcileCalls:    p.stats.reconcileCalls,
		ReconcileFailures: p.stats.reconcileFailures,
		PingFailures:      p.stats.pingFailures,
		Evicted:           p.stats.evicted,
		Dropped:           p.stats.dropped,

		MaxQueueLength: p.stats.maxQueueLength,
		TimeInQueueSum: p.stats.timeInQueueSum,
		TimeInQueueMin: p.stats.timeInQueueMin,
		TimeInQueueMax: p.stats.timeInQueueMax,

		Increment:    p.config.Increment(),
		IdleTimeout:  p.config.IdleTimeout(),
		PingInterval: p.config.PingInterval(),
		QueueTimeout: p.config.QueueTimeout(),
		QueueMax:     p.config.QueueMax(),
	}
	if p.stats.dequeued > 0 {
		s.TimeInQueueAvg = p.stats.timeInQueueSum / time.Duration(p.stats.dequeued)
	}

	return s, true
}

// ResetStatistics zeroes counters of extended statistics
func (p *Pool) ResetStatistics() {
	p.mu.WithLock(func() {
		p.stats.reset(p.clock.Now())
	})
}

type statistics struct {
	since time.Time

	requests          uint64
	enqueued          uint64
	dequeued          uint64
	failed            uint64
	rejected          uint64
	timeouts          uint64
	reconcileCalls    uint64
	reconcileFailures uint64
	pingFailures      uint64
	evicted           uint64
	dropped           uint64

	maxQueueLength int
	timeInQueueSum time.Duration
	timeInQueueMin time.Duration
	timeInQueueMax time.Duration
}

func (s *statistics) reset(now time.Time) {
	*s = statistics{since: now}
}

func (s *statistics) observeQueueTime(d time.Duration) {
	if s.dequeued == 1 || d < s.timeInQueueMin {
		s.timeInQueueMin = d
	}
	if d > s.timeInQueueMax {
		s.timeInQueueMax = d
	}
	s.timeInQueueSum += d
}
