package config

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/ydb-go-tagpool/fixup"
	"github.com/ydb-platform/ydb-go-tagpool/internal/xerrors"
	"github.com/ydb-platform/ydb-go-tagpool/trace"
)

func TestDefaults(t *testing.T) {
	c := New()
	require.Equal(t, DefaultMin, c.Min())
	require.Equal(t, DefaultMax, c.Max())
	require.Equal(t, DefaultIncrement, c.Increment())
	require.Equal(t, DefaultIdleTimeout, c.IdleTimeout())
	require.Zero(t, c.IdleSweepInterval())
	require.Equal(t, DefaultPingInterval, c.PingInterval())
	require.Equal(t, DefaultQueueTimeout, c.QueueTimeout())
	require.Equal(t, DefaultQueueMax, c.QueueMax())
	require.Equal(t, DefaultCreateTimeout, c.CreateTimeout())
	require.Equal(t, DefaultCloseTimeout, c.CloseTimeout())
	require.Nil(t, c.Procedure())
	require.False(t, c.MatchAnyTag())
	require.NotNil(t, c.Trace())
	require.NotNil(t, c.Clock())
	require.NoError(t, c.Validate())
}

func TestOptions(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := fixup.Remote("fixup_proc")
	c := New(
		WithMin(1),
		WithMax(10),
		WithIncrement(2),
		WithIdleTimeout(-time.Second),
		WithIdleSweepInterval(time.Second),
		WithPingInterval(-1),
		WithPingTimeout(0),
		WithQueueTimeout(-time.Second),
		WithQueueMax(-1),
		WithCreateTimeout(-1),
		WithCloseTimeout(0),
		WithProcedure(p),
		WithMatchAnyTag(true),
		WithStatistics(true),
		WithClock(clock),
		nil,
	)
	require.Equal(t, 1, c.Min())
	require.Equal(t, 10, c.Max())
	require.Equal(t, 2, c.Increment())
	require.Zero(t, c.IdleTimeout())
	require.Equal(t, time.Second, c.IdleSweepInterval())
	require.Equal(t, time.Duration(-1), c.PingInterval())
	require.Equal(t, DefaultPingTimeout, c.PingTimeout())
	require.Zero(t, c.QueueTimeout())
	require.Equal(t, -1, c.QueueMax())
	require.Zero(t, c.CreateTimeout())
	require.Equal(t, DefaultCloseTimeout, c.CloseTimeout())
	require.Equal(t, p, c.Procedure())
	require.True(t, c.MatchAnyTag())
	require.True(t, c.Statistics())
	require.Equal(t, clock, c.Clock())
}

func TestWithTrace(t *testing.T) {
	var calls int
	c := New(
		WithTrace(&trace.Pool{OnChange: func(trace.PoolChangeInfo) { calls++ }}),
		WithTrace(&trace.Pool{OnChange: func(trace.PoolChangeInfo) { calls++ }}),
	)
	trace.PoolOnChange(c.Trace(), trace.PoolChangeInfo{})
	require.Equal(t, 2, calls)
}

func TestWith(t *testing.T) {
	c := New(WithMax(2))
	cc := c.With(WithMax(5), WithMin(3))
	require.Equal(t, 2, c.Max())
	require.Equal(t, 0, c.Min())
	require.Equal(t, 5, cc.Max())
	require.Equal(t, 3, cc.Min())
}

func TestValidate(t *testing.T) {
	for _, tt := range []struct {
		name     string
		opts     []Option
		argument string
	}{
		{name: "zero max", opts: []Option{WithMax(0)}, argument: "max"},
		{name: "negative min", opts: []Option{WithMin(-1)}, argument: "min"},
		{name: "min over max", opts: []Option{WithMin(5), WithMax(4)}, argument: "min"},
		{name: "zero increment", opts: []Option{WithIncrement(0)}, argument: "increment"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.opts...).Validate()
			require.Error(t, err)
			var validationErr *xerrors.ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, tt.argument, validationErr.Argument)
		})
	}
}
