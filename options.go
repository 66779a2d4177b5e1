package tagpool

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ydb-platform/ydb-go-tagpool/fixup"
	"github.com/ydb-platform/ydb-go-tagpool/internal/pool"
	"github.com/ydb-platform/ydb-go-tagpool/internal/pool/config"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xerrors"
	"github.com/ydb-platform/ydb-go-tagpool/log"
	"github.com/ydb-platform/ydb-go-tagpool/tag"
	"github.com/ydb-platform/ydb-go-tagpool/trace"
)

// Option contains configuration values for Pool
type Option func(ctx context.Context, o *options) error

func with(opts ...config.Option) Option {
	return func(ctx context.Context, o *options) error {
		o.config = append(o.config, opts...)

		return nil
	}
}

// WithMin sets the number of sessions the pool keeps open
func WithMin(min int) Option {
	return with(config.WithMin(min))
}

// WithMax sets the capacity of the pool
func WithMax(max int) Option {
	return with(config.WithMax(max))
}

// WithIncrement sets the number of sessions created at once when the pool
// has no acceptable free session
func WithIncrement(increment int) Option {
	return with(config.WithIncrement(increment))
}

func WithIdleTimeout(idleTimeout time.Duration) Option {
	return with(config.WithIdleTimeout(idleTimeout))
}

// WithIdleSweepInterval enables background eviction of idle sessions
func WithIdleSweepInterval(interval time.Duration) Option {
	return with(config.WithIdleSweepInterval(interval))
}

// WithPingInterval sets how long a session may stay free before it is probed
// on hand out. Zero means always probe, negative means never.
func WithPingInterval(interval time.Duration) Option {
	return with(config.WithPingInterval(interval))
}

func WithPingTimeout(timeout time.Duration) Option {
	return with(config.WithPingTimeout(timeout))
}

// WithQueueTimeout limits waiting for a session. Zero means wait until
// acquire context is done.
func WithQueueTimeout(timeout time.Duration) Option {
	return with(config.WithQueueTimeout(timeout))
}

// WithQueueMax limits the number of waiters. Negative means unlimited.
func WithQueueMax(queueMax int) Option {
	return with(config.WithQueueMax(queueMax))
}

func WithCreateTimeout(createTimeout time.Duration) Option {
	return with(config.WithCreateTimeout(createTimeout))
}

func WithCloseTimeout(closeTimeout time.Duration) Option {
	return with(config.WithCloseTimeout(closeTimeout))
}

// WithProcedure sets the reconciliation procedure
func WithProcedure(procedure fixup.Procedure) Option {
	return func(ctx context.Context, o *options) error {
		if procedure == nil {
			return xerrors.WithStackTrace(xerrors.Validation("procedure", "must not be nil"))
		}
		o.config = append(o.config, config.WithProcedure(procedure))

		return nil
	}
}

// WithDefaultMatchAnyTag sets match any tag mode for acquire calls without
// explicit WithMatchAnyTag
func WithDefaultMatchAnyTag(matchAnyTag bool) Option {
	return with(config.WithMatchAnyTag(matchAnyTag))
}

func WithStatistics(enabled bool) Option {
	return with(config.WithStatistics(enabled))
}

func WithClock(clock clockwork.Clock) Option {
	return with(config.WithClock(clock))
}

// WithTrace appends trace to the pool trace
func WithTrace(t trace.Pool) Option {
	return with(config.WithTrace(&t))
}

// WithLogger logs pool events selected by details
func WithLogger(l log.Logger, details trace.Detailer, opts ...log.Option) Option {
	return func(ctx context.Context, o *options) error {
		if l == nil {
			return xerrors.WithStackTrace(xerrors.Validation("logger", "must not be nil"))
		}
		t := log.Pool(l, details, opts...)
		o.config = append(o.config, config.WithTrace(&t))

		return nil
	}
}

// WithTag requests a session in state described by t
func WithTag(t tag.Tag) AcquireOption {
	return pool.WithTag(t)
}

// WithMatchAnyTag allows any free session to be reconciled to the requested tag
func WithMatchAnyTag(matchAnyTag bool) AcquireOption {
	return pool.WithMatchAnyTag(matchAnyTag)
}

// WithReleaseTag records t as the actual tag of the released session
func WithReleaseTag(t tag.Tag) ReleaseOption {
	return pool.WithReleaseTag(t)
}

func WithReleaseTagValue(v interface{}) ReleaseOption {
	return pool.WithReleaseTagValue(v)
}

// WithDrop terminates the released session
func WithDrop(drop bool) ReleaseOption {
	return pool.WithDrop(drop)
}
