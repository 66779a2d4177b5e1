package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rekby/fixenv"
	"github.com/rekby/fixenv/sf"
	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/ydb-go-tagpool/fixup"
	"github.com/ydb-platform/ydb-go-tagpool/internal/pool/config"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xtest"
	"github.com/ydb-platform/ydb-go-tagpool/session"
	"github.com/ydb-platform/ydb-go-tagpool/tag"
)

func TestPing(t *testing.T) {
	t.Run("Alive", func(t *testing.T) {
		e := fixenv.New(t)
		ctx := sf.Context(e)
		clock := FakeClock(e)
		p := newPool(t, e, config.WithPingInterval(time.Second), config.WithClock(clock))

		s, err := p.Acquire(ctx)
		require.NoError(t, err)
		require.NoError(t, p.Release(ctx, s))

		s2, err := p.Acquire(ctx)
		require.NoError(t, err)
		require.Equal(t, s.ID(), s2.ID())
		require.Equal(t, 0, Backend(e).Sessions()[0].Pings())
		require.NoError(t, p.Release(ctx, s2))

		clock.Advance(2 * time.Second)
		s2, err = p.Acquire(ctx)
		require.NoError(t, err)
		require.Equal(t, s.ID(), s2.ID())
		require.Equal(t, 1, Backend(e).Sessions()[0].Pings())
		require.NoError(t, p.Release(ctx, s2))
	})
	t.Run("DeadSessionIsReplaced", func(t *testing.T) {
		e := fixenv.New(t)
		ctx := sf.Context(e)
		clock := FakeClock(e)
		rec := Recorder(e)
		p := newPool(t, e,
			config.WithPingInterval(time.Second),
			config.WithClock(clock),
			config.WithStatistics(true),
			config.WithProcedure(rec.Sync()),
		)

		s, err := p.Acquire(ctx, WithTag("L=FR"))
		require.NoError(t, err)
		require.NoError(t, p.Release(ctx, s))

		Backend(e).Sessions()[0].FailPing(errors.New("connection reset"))
		clock.Advance(2 * time.Second)

		s2, err := p.Acquire(ctx, WithTag("L=FR"))
		require.NoError(t, err)
		require.NotEqual(t, s.ID(), s2.ID())
		require.Equal(t, tag.Tag("L=FR"), s2.Tag())
		require.Equal(t, 1, p.Stats().Open)
		require.Equal(t, fixupCall{id: s2.ID(), requested: "L=FR"}, rec.Calls()[1])
		xtest.SpinWaitCondition(t, func() bool {
			return Backend(e).Sessions()[0].IsClosed()
		})

		stats, ok := p.Statistics()
		require.True(t, ok)
		require.Equal(t, uint64(1), stats.PingFailures)
		require.NoError(t, p.Release(ctx, s2))
	})
	t.Run("Disabled", func(t *testing.T) {
		e := fixenv.New(t)
		ctx := sf.Context(e)
		clock := FakeClock(e)
		p := newPool(t, e, config.WithPingInterval(-1), config.WithClock(clock))

		s, err := p.Acquire(ctx)
		require.NoError(t, err)
		require.NoError(t, p.Release(ctx, s))

		clock.Advance(time.Hour)
		s, err = p.Acquire(ctx)
		require.NoError(t, err)
		require.Equal(t, 0, Backend(e).Sessions()[0].Pings())
		require.NoError(t, p.Release(ctx, s))
	})
}

func TestIdleEviction(t *testing.T) {
	t.Run("OnAcquire", func(t *testing.T) {
		e := fixenv.New(t)
		ctx := sf.Context(e)
		clock := FakeClock(e)
		p := newPool(t, e, config.WithIdleTimeout(time.Minute), config.WithClock(clock))

		s1, err := p.Acquire(ctx)
		require.NoError(t, err)
		s2, err := p.Acquire(ctx)
		require.NoError(t, err)
		require.NoError(t, p.Release(ctx, s1))
		require.NoError(t, p.Release(ctx, s2))
		require.Equal(t, 2, p.Stats().Idle)

		clock.Advance(2 * time.Minute)
		s, err := p.Acquire(ctx)
		require.NoError(t, err)
		require.NotEqual(t, s1.ID(), s.ID())
		require.NotEqual(t, s2.ID(), s.ID())
		require.Equal(t, 1, p.Stats().Open)
		xtest.SpinWaitCondition(t, func() bool {
			return Backend(e).Alive() == 1
		})
		require.NoError(t, p.Release(ctx, s))
	})
	t.Run("ClosedWhileCreating", func(t *testing.T) {
		e := fixenv.New(t)
		ctx := sf.Context(e)
		clock := FakeClock(e)

		var (
			blocked atomic.Bool
			unblock = make(chan struct{})
			factory = func(ctx context.Context) (session.Session, error) {
				if blocked.Load() {
					select {
					case <-unblock:
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}

				return Backend(e).Create(ctx)
			}
		)
		p, err := New(ctx, factory, config.WithIdleTimeout(time.Minute), config.WithClock(clock))
		require.NoError(t, err)
		defer func() {
			closeCtx, cancel := context.WithCancel(context.Background())
			cancel()
			_ = p.Close(closeCtx)
		}()

		s1, err := p.Acquire(ctx)
		require.NoError(t, err)
		require.NoError(t, p.Release(ctx, s1))

		clock.Advance(2 * time.Minute)
		blocked.Store(true)

		acquired := make(chan error, 1)
		go func() {
			s, err := p.Acquire(ctx)
			if err == nil {
				err = p.Release(ctx, s)
			}
			acquired <- err
		}()

		xtest.SpinWaitCondition(t, func() bool {
			return Backend(e).Sessions()[0].IsClosed()
		})
		require.Equal(t, 1, p.Stats().CreateInProgress)

		close(unblock)
		require.NoError(t, <-acquired)
		require.Equal(t, 1, p.Stats().Idle)
	})
	t.Run("KeepsMin", func(t *testing.T) {
		e := fixenv.New(t)
		ctx := sf.Context(e)
		clock := FakeClock(e)
		p := newPool(t, e,
			config.WithMin(1),
			config.WithIdleTimeout(500*time.Millisecond),
			config.WithIdleSweepInterval(time.Second),
			config.WithClock(clock),
			config.WithStatistics(true),
		)

		s1, err := p.Acquire(ctx)
		require.NoError(t, err)
		s2, err := p.Acquire(ctx)
		require.NoError(t, err)
		require.NoError(t, p.Release(ctx, s1))
		require.NoError(t, p.Release(ctx, s2))
		require.Equal(t, 2, p.Stats().Open)

		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(time.Second)
		xtest.SpinWaitCondition(t, func() bool {
			return p.Stats().Open == 1
		})
		xtest.SpinWaitCondition(t, func() bool {
			return Backend(e).Alive() == 1
		})

		stats, ok := p.Statistics()
		require.True(t, ok)
		require.Equal(t, uint64(1), stats.Evicted)
	})
	t.Run("Disabled", func(t *testing.T) {
		e := fixenv.New(t)
		ctx := sf.Context(e)
		clock := FakeClock(e)
		p := newPool(t, e,
			config.WithIdleTimeout(0),
			config.WithPingInterval(-1),
			config.WithClock(clock),
			config.WithProcedure(fixup.Remote(remoteProcedure)),
		)

		s, err := p.Acquire(ctx)
		require.NoError(t, err)
		require.NoError(t, p.Release(ctx, s))

		clock.Advance(24 * time.Hour)
		s2, err := p.Acquire(ctx)
		require.NoError(t, err)
		require.Equal(t, s.ID(), s2.ID())
		require.NoError(t, p.Release(ctx, s2))
	})
}
