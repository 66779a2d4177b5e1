package config

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ydb-platform/ydb-go-tagpool/fixup"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xerrors"
	"github.com/ydb-platform/ydb-go-tagpool/trace"
)

const (
	DefaultMin           = 0
	DefaultMax           = 4
	DefaultIncrement     = 1
	DefaultIdleTimeout   = 60 * time.Second
	DefaultPingInterval  = 60 * time.Second
	DefaultPingTimeout   = 5 * time.Second
	DefaultQueueTimeout  = 60 * time.Second
	DefaultQueueMax      = 500
	DefaultCreateTimeout = 5 * time.Second
	DefaultCloseTimeout  = 500 * time.Millisecond
)

func New(opts ...Option) *Config {
	c := defaults()
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

type Option func(*Config)

// WithMin defines number of sessions created on open and kept by idle eviction
func WithMin(min int) Option {
	return func(c *Config) {
		c.min = min
	}
}

// WithMax defines upper bound of open sessions
func WithMax(max int) Option {
	return func(c *Config) {
		c.max = max
	}
}

// WithIncrement defines how many sessions are created at once when the pool
// has to grow. Extra sessions are created in background and land free.
func WithIncrement(increment int) Option {
	return func(c *Config) {
		c.increment = increment
	}
}

// WithIdleTimeout sets the time after which a free session may be evicted.
// If idleTimeout is less than or equal to zero then sessions never expire.
func WithIdleTimeout(idleTimeout time.Duration) Option {
	return func(c *Config) {
		if idleTimeout < 0 {
			idleTimeout = 0
		}
		c.idleTimeout = idleTimeout
	}
}

// WithIdleSweepInterval starts a background sweep of idle sessions with given
// period. Zero disables the sweep and leaves eviction to acquire calls.
func WithIdleSweepInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval < 0 {
			interval = 0
		}
		c.idleSweepInterval = interval
	}
}

// WithPingInterval sets idle duration after which a free session is probed
// before hand out. Zero probes on every hand out, negative value disables
// probing.
func WithPingInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.pingInterval = interval
	}
}

// WithPingTimeout limits a single liveness probe
func WithPingTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.pingTimeout = timeout
		}
	}
}

// WithQueueTimeout limits time of waiting in queue for a session.
// Zero means waiting until context of acquire is done.
func WithQueueTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout < 0 {
			timeout = 0
		}
		c.queueTimeout = timeout
	}
}

// WithQueueMax limits number of waiters. Negative value means no limit.
func WithQueueMax(queueMax int) Option {
	return func(c *Config) {
		c.queueMax = queueMax
	}
}

// WithCreateTimeout limits maximum time spent on session creation
// If createTimeout is less than or equal to zero then no timeout is used
func WithCreateTimeout(createTimeout time.Duration) Option {
	return func(c *Config) {
		if createTimeout > 0 {
			c.createTimeout = createTimeout
		} else {
			c.createTimeout = 0
		}
	}
}

// WithCloseTimeout limits maximum time spent on session termination
// If closeTimeout is less than or equal to zero then the DefaultCloseTimeout is used.
func WithCloseTimeout(closeTimeout time.Duration) Option {
	return func(c *Config) {
		if closeTimeout > 0 {
			c.closeTimeout = closeTimeout
		}
	}
}

// WithProcedure sets reconciliation procedure. Nil disables reconciliation.
func WithProcedure(p fixup.Procedure) Option {
	return func(c *Config) {
		c.procedure = p
	}
}

// WithMatchAnyTag sets default match mode for acquire calls
func WithMatchAnyTag(matchAnyTag bool) Option {
	return func(c *Config) {
		c.matchAnyTag = matchAnyTag
	}
}

// WithStatistics enables extended statistics gathering
func WithStatistics(enabled bool) Option {
	return func(c *Config) {
		c.statistics = enabled
	}
}

// WithClock replaces default clock
func WithClock(clock clockwork.Clock) Option {
	return func(c *Config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithTrace appends pool trace to early defined traces
func WithTrace(t *trace.Pool) Option {
	return func(c *Config) {
		c.trace = c.trace.Compose(t)
	}
}

// Config is a configuration of tagged session pool
type Config struct {
	min       int
	max       int
	increment int

	idleTimeout       time.Duration
	idleSweepInterval time.Duration
	pingInterval      time.Duration
	pingTimeout       time.Duration
	queueTimeout      time.Duration
	queueMax          int
	createTimeout     time.Duration
	closeTimeout      time.Duration

	procedure   fixup.Procedure
	matchAnyTag bool
	statistics  bool

	trace *trace.Pool
	clock clockwork.Clock
}

func (c *Config) Min() int {
	return c.min
}

func (c *Config) Max() int {
	return c.max
}

func (c *Config) Increment() int {
	return c.increment
}

// IdleTimeout is the time after which a free session may be evicted.
// Zero means sessions never expire.
func (c *Config) IdleTimeout() time.Duration {
	return c.idleTimeout
}

func (c *Config) IdleSweepInterval() time.Duration {
	return c.idleSweepInterval
}

func (c *Config) PingInterval() time.Duration {
	return c.pingInterval
}

func (c *Config) PingTimeout() time.Duration {
	return c.pingTimeout
}

func (c *Config) QueueTimeout() time.Duration {
	return c.queueTimeout
}

func (c *Config) QueueMax() int {
	return c.queueMax
}

func (c *Config) CreateTimeout() time.Duration {
	return c.createTimeout
}

func (c *Config) CloseTimeout() time.Duration {
	return c.closeTimeout
}

// Procedure is a reconciliation procedure or nil
func (c *Config) Procedure() fixup.Procedure {
	return c.procedure
}

func (c *Config) MatchAnyTag() bool {
	return c.matchAnyTag
}

func (c *Config) Statistics() bool {
	return c.statistics
}

// Trace defines trace over pool calls
func (c *Config) Trace() *trace.Pool {
	return c.trace
}

// Clock defines clock
func (c *Config) Clock() clockwork.Clock {
	return c.clock
}

// With returns a copy of c with opts applied
func (c *Config) With(opts ...Option) *Config {
	cc := *c
	for _, opt := range opts {
		if opt != nil {
			opt(&cc)
		}
	}

	return &cc
}

// Validate checks capacity policy
func (c *Config) Validate() error {
	switch {
	case c.max < 1:
		return xerrors.WithStackTrace(xerrors.Validation("max", "must be positive, got %d", c.max))
	case c.min < 0:
		return xerrors.WithStackTrace(xerrors.Validation("min", "must not be negative, got %d", c.min))
	case c.min > c.max:
		return xerrors.WithStackTrace(xerrors.Validation("min", "%d is greater than max %d", c.min, c.max))
	case c.increment < 1:
		return xerrors.WithStackTrace(xerrors.Validation("increment", "must be positive, got %d", c.increment))
	default:
		return nil
	}
}

func defaults() *Config {
	return &Config{
		min:           DefaultMin,
		max:           DefaultMax,
		increment:     DefaultIncrement,
		idleTimeout:   DefaultIdleTimeout,
		pingInterval:  DefaultPingInterval,
		pingTimeout:   DefaultPingTimeout,
		queueTimeout:  DefaultQueueTimeout,
		queueMax:      DefaultQueueMax,
		createTimeout: DefaultCreateTimeout,
		closeTimeout:  DefaultCloseTimeout,
		clock:         clockwork.NewRealClock(),
		trace:         &trace.Pool{},
	}
}
