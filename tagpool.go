package tagpool

import (
	"context"
	"os"

	"github.com/ydb-platform/ydb-go-tagpool/internal/pool"
	"github.com/ydb-platform/ydb-go-tagpool/internal/pool/config"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xerrors"
	"github.com/ydb-platform/ydb-go-tagpool/log"
	"github.com/ydb-platform/ydb-go-tagpool/session"
	"github.com/ydb-platform/ydb-go-tagpool/trace"
)

type (
	Pool                = pool.Pool
	Session             = pool.Session
	Stats               = pool.Stats
	Statistics          = pool.Statistics
	Status              = pool.Status
	State               = pool.State
	ReconciliationError = pool.ReconciliationError
	AcquireOption       = pool.AcquireOption
	ReleaseOption       = pool.ReleaseOption
)

const (
	StatusOpen     = pool.StatusOpen
	StatusDraining = pool.StatusDraining
	StatusClosed   = pool.StatusClosed

	StateFree    = pool.StateFree
	StateInUse   = pool.StateInUse
	StateDropped = pool.StateDropped
)

// Open makes a pool over sessions created by factory and warms it up with
// min sessions.
//
// If environment variable TAGPOOL_LOG_SEVERITY_LEVEL is set, pool events are
// logged to stderr. TAGPOOL_LOG_DETAILS selects the logged events by regexp
// over details names, for example `ydb\.tagpool\.(api|reconcile)`.
func Open(ctx context.Context, factory session.Factory, opts ...Option) (_ *Pool, err error) {
	var o options
	if logLevel, has := os.LookupEnv("TAGPOOL_LOG_SEVERITY_LEVEL"); has {
		if l := log.FromString(logLevel); l < log.QUIET {
			opts = append([]Option{
				WithLogger(
					log.Default(os.Stderr,
						log.WithMinLevel(l),
						log.WithColoring(),
					),
					trace.MatchDetails(
						os.Getenv("TAGPOOL_LOG_DETAILS"),
						trace.WithDefaultDetails(trace.DetailsAll),
					),
				),
			}, opts...)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			if err = opt(ctx, &o); err != nil {
				return nil, xerrors.WithStackTrace(err)
			}
		}
	}

	p, err := pool.New(ctx, factory, o.config...)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	return p, nil
}

func MustOpen(ctx context.Context, factory session.Factory, opts ...Option) *Pool {
	p, err := Open(ctx, factory, opts...)
	if err != nil {
		panic(err)
	}

	return p
}

type options struct {
	config []config.Option
}
