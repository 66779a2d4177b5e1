package tagpool

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/ydb-go-tagpool/fixup"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xtest"
	"github.com/ydb-platform/ydb-go-tagpool/log"
	"github.com/ydb-platform/ydb-go-tagpool/tag"
	"github.com/ydb-platform/ydb-go-tagpool/testutil"
	"github.com/ydb-platform/ydb-go-tagpool/trace"
)

type recordLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordLogger) Log(ctx context.Context, msg string, fields ...log.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, strings.Join(log.NamesFromContext(ctx), ".")+" "+msg)
}

func (l *recordLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.messages...)
}

func TestOpen(t *testing.T) {
	ctx := xtest.Context(t)
	backend := testutil.NewBackend()
	p, err := Open(ctx, backend.Factory(),
		WithMin(1),
		WithMax(2),
		WithIncrement(1),
		WithIdleTimeout(time.Minute),
		WithIdleSweepInterval(0),
		WithPingInterval(time.Minute),
		WithPingTimeout(time.Second),
		WithQueueTimeout(time.Second),
		WithQueueMax(10),
		WithCreateTimeout(time.Second),
		WithCloseTimeout(time.Second),
		WithDefaultMatchAnyTag(true),
		WithStatistics(true),
		WithClock(clockwork.NewRealClock()),
		nil,
	)
	require.NoError(t, err)

	stats, ok := p.Statistics()
	require.True(t, ok)
	require.Equal(t, 1, stats.Open)
	require.Equal(t, 2, stats.Max)
	require.Equal(t, 10, stats.QueueMax)
	require.Equal(t, time.Second, stats.QueueTimeout)

	require.NoError(t, p.Close(ctx))
	require.Equal(t, StatusClosed, p.Status())
	require.Equal(t, 0, backend.Alive())
}

func TestOpenInvalid(t *testing.T) {
	ctx := xtest.Context(t)
	backend := testutil.NewBackend()

	_, err := Open(ctx, backend.Factory(), WithMin(3), WithMax(2))
	require.True(t, IsValidationError(err))

	_, err = Open(ctx, backend.Factory(), WithProcedure(nil))
	require.True(t, IsValidationError(err))

	_, err = Open(ctx, backend.Factory(), WithLogger(nil, trace.DetailsAll))
	require.True(t, IsValidationError(err))

	require.Panics(t, func() {
		MustOpen(ctx, backend.Factory(), WithMax(0))
	})
}

func TestWithLogger(t *testing.T) {
	ctx := xtest.Context(t)
	l := &recordLogger{}
	quiet := &recordLogger{}
	p, err := Open(ctx, testutil.NewBackend().Factory(),
		WithLogger(l, trace.PoolAPIEvents),
		WithLogger(quiet, trace.PoolAPIEvents, log.WithLevelFilter(log.WARN)),
	)
	require.NoError(t, err)

	s, err := p.Acquire(ctx, WithTag("L=FR"))
	require.NoError(t, err)
	require.NoError(t, s.Release(ctx))
	require.NoError(t, p.Close(ctx))

	require.Equal(t, []string{
		"ydb.tagpool.acquire start",
		"ydb.tagpool.acquire done",
		"ydb.tagpool.release start",
		"ydb.tagpool.release done",
	}, l.Messages())
	require.Empty(t, quiet.Messages())
}

func TestWithTrace(t *testing.T) {
	ctx := xtest.Context(t)
	var reasons []string
	p, err := Open(ctx, testutil.NewBackend().Factory(),
		WithTrace(trace.Pool{
			OnSessionDrop: func(info trace.PoolSessionDropInfo) {
				reasons = append(reasons, info.Reason)
			},
		}),
	)
	require.NoError(t, err)

	s, err := p.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Release(ctx, WithDrop(true)))
	require.NoError(t, p.Close(ctx))
	require.Equal(t, []string{"released with drop"}, reasons)
}

func TestErrors(t *testing.T) {
	ctx := xtest.Context(t)
	errFixup := errors.New("fixup failed")
	p, err := Open(ctx, testutil.NewBackend().Factory(),
		WithMax(1),
		WithQueueTimeout(time.Millisecond),
		WithProcedure(fixup.Sync("fail", func(ctx context.Context, _ fixup.Target, requested, _ tag.Tag) error {
			if requested == "L=XX" {
				return errFixup
			}

			return nil
		})),
	)
	require.NoError(t, err)
	defer func() {
		_ = p.Close(ctx)
	}()

	_, err = p.Acquire(ctx, WithTag("L=XX"))
	ok, details := IsReconciliationError(err)
	require.True(t, ok)
	require.Equal(t, tag.Tag("L=XX"), details.Requested)
	require.ErrorIs(t, err, errFixup)

	s, err := p.Acquire(ctx, WithTag("L=FR"), WithMatchAnyTag(false))
	require.NoError(t, err)

	_, err = p.Acquire(ctx)
	require.True(t, IsQueueTimeout(err))
	require.True(t, IsCapacityError(err))
	ok, _ = IsReconciliationError(err)
	require.False(t, ok)

	require.True(t, IsValidationError(s.Release(ctx, WithReleaseTagValue(1))))
	require.NoError(t, s.Release(ctx))
	require.ErrorIs(t, s.Release(ctx), ErrSessionNotInUse)
}
