package log

import (
	"context"
	"time"

	"github.com/ydb-platform/ydb-go-tagpool/internal/xerrors"
	"github.com/ydb-platform/ydb-go-tagpool/trace"
)

// Pool makes trace.Pool with logging events from details
func Pool(l Logger, d trace.Detailer, opts ...Option) (t trace.Pool) {
	return internalPool(wrapLogger(l, opts...), d)
}

//nolint:funlen
func internalPool(l *wrapper, d trace.Detailer) (t trace.Pool) {
	t.OnNew = func(info trace.PoolNewStartInfo) func(trace.PoolNewDoneInfo) {
		if d.Details()&trace.PoolLifeCycleEvents == 0 {
			return nil
		}
		ctx := with(*info.Context, INFO, "ydb", "tagpool", "new")
		l.Log(WithLevel(ctx, TRACE), "start")
		start := time.Now()

		return func(info trace.PoolNewDoneInfo) {
			if info.Error == nil {
				l.Log(ctx, "done",
					latencyField(start),
					Int("min", info.Min),
					Int("max", info.Max),
				)
			} else {
				l.Log(WithLevel(ctx, ERROR), "failed",
					latencyField(start),
					Error(info.Error),
					Int("min", info.Min),
					Int("max", info.Max),
					versionField(),
				)
			}
		}
	}
	t.OnClose = func(info trace.PoolCloseStartInfo) func(trace.PoolCloseDoneInfo) {
		if d.Details()&trace.PoolLifeCycleEvents == 0 {
			return nil
		}
		ctx := with(*info.Context, INFO, "ydb", "tagpool", "close")
		l.Log(WithLevel(ctx, TRACE), "start")
		start := time.Now()

		return func(info trace.PoolCloseDoneInfo) {
			if info.Error == nil {
				l.Log(ctx, "done",
					latencyField(start),
					Int("dropped", info.Dropped),
				)
			} else {
				l.Log(WithLevel(ctx, ERROR), "failed",
					latencyField(start),
					Int("dropped", info.Dropped),
					Error(info.Error),
					versionField(),
				)
			}
		}
	}
	t.OnReconfigure = func(info trace.PoolReconfigureInfo) {
		if d.Details()&trace.PoolLifeCycleEvents == 0 {
			return
		}
		l.Log(with(context.Background(), INFO, "ydb", "tagpool", "reconfigure"), "",
			Int("min", info.Min),
			Int("max", info.Max),
			Int("increment", info.Increment),
		)
	}
	t.OnAcquire = func(info trace.PoolAcquireStartInfo) func(trace.PoolAcquireDoneInfo) {
		if d.Details()&trace.PoolAPIEvents == 0 {
			return nil
		}
		ctx := with(*info.Context, TRACE, "ydb", "tagpool", "acquire")
		requested := info.Tag
		l.Log(ctx, "start",
			appendFieldByCondition(info.HasTag,
				String("tag", requested),
				Bool("matchAnyTag", info.MatchAnyTag),
			)...,
		)
		start := time.Now()

		return func(info trace.PoolAcquireDoneInfo) {
			if info.Error == nil {
				l.Log(ctx, "done",
					latencyField(start),
					String("id", info.ID),
					String("tag", info.Tag),
					Int("attempts", info.Attempts),
				)
			} else {
				lvl := WARN
				if xerrors.IsContextError(info.Error) || xerrors.IsValidation(info.Error) {
					lvl = DEBUG
				}
				l.Log(WithLevel(ctx, lvl), "failed",
					latencyField(start),
					String("requested", requested),
					Int("attempts", info.Attempts),
					Error(info.Error),
					versionField(),
				)
			}
		}
	}
	t.OnRelease = func(info trace.PoolReleaseStartInfo) func(trace.PoolReleaseDoneInfo) {
		if d.Details()&trace.PoolAPIEvents == 0 {
			return nil
		}
		ctx := with(*info.Context, TRACE, "ydb", "tagpool", "release")
		id := info.ID
		l.Log(ctx, "start",
			String("id", id),
			String("tag", info.Tag),
			Bool("drop", info.Drop),
		)
		start := time.Now()

		return func(info trace.PoolReleaseDoneInfo) {
			if info.Error == nil {
				l.Log(ctx, "done",
					latencyField(start),
					String("id", id),
				)
			} else {
				l.Log(WithLevel(ctx, WARN), "failed",
					latencyField(start),
					String("id", id),
					Error(info.Error),
					versionField(),
				)
			}
		}
	}
	t.OnWait = func(info trace.PoolWaitStartInfo) func(trace.PoolWaitDoneInfo) {
		if d.Details()&trace.PoolWaitEvents == 0 {
			return nil
		}
		ctx := with(*info.Context, TRACE, "ydb", "tagpool", "wait")
		position := info.Position
		l.Log(ctx, "start",
			Int("position", position),
		)

		return func(info trace.PoolWaitDoneInfo) {
			if info.Error == nil {
				l.Log(ctx, "done",
					Duration("waited", info.Waited),
				)
			} else {
				l.Log(WithLevel(ctx, WARN), "failed",
					Int("position", position),
					Duration("waited", info.Waited),
					Error(info.Error),
				)
			}
		}
	}
	t.OnSessionNew = func(info trace.PoolSessionNewStartInfo) func(trace.PoolSessionNewDoneInfo) {
		if d.Details()&trace.PoolSessionLifeCycleEvents == 0 {
			return nil
		}
		ctx := with(*info.Context, DEBUG, "ydb", "tagpool", "session", "new")
		l.Log(WithLevel(ctx, TRACE), "start")
		start := time.Now()

		return func(info trace.PoolSessionNewDoneInfo) {
			if info.Error == nil {
				l.Log(ctx, "done",
					latencyField(start),
					String("id", info.ID),
				)
			} else {
				l.Log(WithLevel(ctx, ERROR), "failed",
					latencyField(start),
					Error(info.Error),
					versionField(),
				)
			}
		}
	}
	t.OnSessionDrop = func(info trace.PoolSessionDropInfo) {
		if d.Details()&trace.PoolSessionLifeCycleEvents == 0 {
			return
		}
		l.Log(with(context.Background(), DEBUG, "ydb", "tagpool", "session", "drop"), "",
			String("id", info.ID),
			String("tag", info.Tag),
			String("reason", info.Reason),
		)
	}
	t.OnReconcile = func(info trace.PoolReconcileStartInfo) func(trace.PoolReconcileDoneInfo) {
		if d.Details()&trace.PoolReconcileEvents == 0 {
			return nil
		}
		ctx := with(*info.Context, DEBUG, "ydb", "tagpool", "reconcile")
		id := info.ID
		procedure := info.Procedure
		l.Log(WithLevel(ctx, TRACE), "start",
			String("id", id),
			String("procedure", procedure),
			String("kind", info.Kind),
			String("requested", info.Requested),
			String("actual", info.Actual),
			Bool("new", info.IsNew),
		)
		start := time.Now()

		return func(info trace.PoolReconcileDoneInfo) {
			if info.Error == nil {
				l.Log(ctx, "done",
					latencyField(start),
					String("id", id),
					String("tag", info.Tag),
				)
			} else {
				l.Log(WithLevel(ctx, ERROR), "failed",
					latencyField(start),
					String("id", id),
					String("procedure", procedure),
					Error(info.Error),
					versionField(),
				)
			}
		}
	}
	t.OnPing = func(info trace.PoolPingStartInfo) func(trace.PoolPingDoneInfo) {
		if d.Details()&trace.PoolLivenessEvents == 0 {
			return nil
		}
		ctx := with(*info.Context, TRACE, "ydb", "tagpool", "ping")
		id := info.ID
		l.Log(ctx, "start",
			String("id", id),
			Duration("idle", info.Idle),
		)
		start := time.Now()

		return func(info trace.PoolPingDoneInfo) {
			if info.Error == nil {
				l.Log(ctx, "done",
					latencyField(start),
					String("id", id),
				)
			} else {
				l.Log(WithLevel(ctx, WARN), "failed",
					latencyField(start),
					String("id", id),
					Error(info.Error),
				)
			}
		}
	}
	t.OnChange = func(info trace.PoolChangeInfo) {
		if d.Details()&trace.PoolStateEvents == 0 {
			return
		}
		l.Log(with(context.Background(), TRACE, "ydb", "tagpool", "change"), "",
			Int("max", info.Max),
			Int("open", info.Open),
			Int("inUse", info.InUse),
			Int("idle", info.Idle),
			Int("wait", info.Wait),
			Int("createInProgress", info.CreateInProgress),
		)
	}

	return t
}
