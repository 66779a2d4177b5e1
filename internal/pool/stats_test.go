package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rekby/fixenv"
	"github.com/rekby/fixenv/sf"
	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/ydb-go-tagpool/internal/pool/config"
	"github.com/ydb-platform/ydb-go-tagpool/tag"
)

func TestStatistics(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		e := fixenv.New(t)
		p := newPool(t, e)

		_, ok := p.Statistics()
		require.False(t, ok)
	})
	t.Run("Counters", func(t *testing.T) {
		e := fixenv.New(t)
		ctx := sf.Context(e)
		clock := FakeClock(e)
		rec := Recorder(e)
		p := newPool(t, e,
			config.WithMax(1),
			config.WithStatistics(true),
			config.WithClock(clock),
			config.WithProcedure(rec.Sync()),
		)

		s, err := p.Acquire(ctx, WithTag("L=FR"))
		require.NoError(t, err)

		waited := acquireAsync(ctx, p, WithTag("L=FR"))
		waitQueueLen(t, p, 1)
		clock.Advance(3 * time.Second)
		require.NoError(t, p.Release(ctx, s))
		r := <-waited
		require.NoError(t, r.err)

		rec.SetHook(func(ctx context.Context, requested, actual tag.Tag) error {
			return errors.New("fixup failed")
		})
		require.NoError(t, p.Release(ctx, r.s))
		_, err = p.Acquire(ctx, WithTag("L=DE"), WithMatchAnyTag(true))
		require.Error(t, err)

		stats, ok := p.Statistics()
		require.True(t, ok)
		require.Equal(t, StatusOpen, stats.Status)
		require.Equal(t, 3*time.Second, stats.UpTime)
		require.Equal(t, uint64(3), stats.Requests)
		require.Equal(t, uint64(1), stats.Enqueued)
		require.Equal(t, uint64(1), stats.Dequeued)
		require.Equal(t, uint64(1), stats.Failed)
		require.Equal(t, uint64(2), stats.ReconcileCalls)
		require.Equal(t, uint64(1), stats.ReconcileFailures)
		require.Equal(t, uint64(1), stats.Dropped)
		require.Equal(t, 1, stats.MaxQueueLength)
		require.Equal(t, 3*time.Second, stats.TimeInQueueMax)
		require.Equal(t, 3*time.Second, stats.TimeInQueueMin)
		require.Equal(t, 3*time.Second, stats.TimeInQueueAvg)
		require.Equal(t, 1, stats.Max)
		require.Equal(t, config.DefaultQueueMax, stats.QueueMax)

		p.ResetStatistics()
		stats, ok = p.Statistics()
		require.True(t, ok)
		require.Zero(t, stats.Requests)
		require.Zero(t, stats.UpTime)
		require.Zero(t, stats.TimeInQueueAvg)
	})
	t.Run("EnabledByReconfigure", func(t *testing.T) {
		e := fixenv.New(t)
		ctx := sf.Context(e)
		p := newPool(t, e)

		s, err := p.Acquire(ctx)
		require.NoError(t, err)
		require.NoError(t, p.Release(ctx, s))

		require.NoError(t, p.Reconfigure(ctx, config.WithStatistics(true)))
		stats, ok := p.Statistics()
		require.True(t, ok)
		require.Zero(t, stats.Requests)
		require.Equal(t, 1, stats.Idle)
	})
}
