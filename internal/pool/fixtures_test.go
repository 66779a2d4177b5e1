package pool

import (
	"context"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rekby/fixenv"
	"github.com/rekby/fixenv/sf"
	"github.com/stretchr/testify/require"

	"github.com/ydb-platform/ydb-go-tagpool/fixup"
	"github.com/ydb-platform/ydb-go-tagpool/internal/pool/config"
	"github.com/ydb-platform/ydb-go-tagpool/tag"
	"github.com/ydb-platform/ydb-go-tagpool/testutil"
)

const remoteProcedure = "fixup_remote"

func Backend(e fixenv.Env) *testutil.Backend {
	f := func() (*fixenv.GenericResult[*testutil.Backend], error) {
		return fixenv.NewGenericResult(testutil.NewBackend(
			testutil.WithHandler(remoteProcedure, testutil.ApplyTag),
		)), nil
	}

	return fixenv.CacheResult(e, f)
}

func FakeClock(e fixenv.Env) *clockwork.FakeClock {
	f := func() (*fixenv.GenericResult[*clockwork.FakeClock], error) {
		return fixenv.NewGenericResult(clockwork.NewFakeClock()), nil
	}

	return fixenv.CacheResult(e, f)
}

func Recorder(e fixenv.Env) *fixupRecorder {
	f := func() (*fixenv.GenericResult[*fixupRecorder], error) {
		return fixenv.NewGenericResult(&fixupRecorder{}), nil
	}

	return fixenv.CacheResult(e, f)
}

// newPool opens pool over the fake backend and force closes it on cleanup
func newPool(t testing.TB, e fixenv.Env, opts ...config.Option) *Pool {
	t.Helper()

	p, err := New(sf.Context(e), Backend(e).Factory(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = p.Close(ctx)
	})

	return p
}

type fixupCall struct {
	id        string
	requested tag.Tag
	actual    tag.Tag
}

// fixupRecorder is a reconciliation procedure which records its calls
type fixupRecorder struct {
	mu    sync.Mutex
	calls []fixupCall
	hook  func(ctx context.Context, requested, actual tag.Tag) error
}

func (r *fixupRecorder) invoke(ctx context.Context, target fixup.Target, requested, actual tag.Tag) error {
	r.mu.Lock()
	r.calls = append(r.calls, fixupCall{id: target.ID(), requested: requested, actual: actual})
	hook := r.hook
	r.mu.Unlock()

	if hook != nil {
		return hook(ctx, requested, actual)
	}

	return nil
}

func (r *fixupRecorder) Sync() fixup.Procedure {
	return fixup.Sync("recorder", r.invoke)
}

func (r *fixupRecorder) Async() fixup.Procedure {
	return fixup.Async("recorder", func(ctx context.Context, target fixup.Target, requested, actual tag.Tag,
		done func(error),
	) {
		go func() {
			done(r.invoke(ctx, target, requested, actual))
		}()
	})
}

func (r *fixupRecorder) SetHook(hook func(ctx context.Context, requested, actual tag.Tag) error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hook = hook
}

func (r *fixupRecorder) Calls() []fixupCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]fixupCall(nil), r.calls...)
}
