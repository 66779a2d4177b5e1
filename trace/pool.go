package trace

import (
	"context"
	"time"

	"github.com/ydb-platform/ydb-go-tagpool/internal/stack"
)

type (
	// Pool specified trace of tagged session pool activity.
	Pool struct {
		OnNew         func(PoolNewStartInfo) func(PoolNewDoneInfo)
		OnClose       func(PoolCloseStartInfo) func(PoolCloseDoneInfo)
		OnReconfigure func(PoolReconfigureInfo)

		OnAcquire func(PoolAcquireStartInfo) func(PoolAcquireDoneInfo)
		OnRelease func(PoolReleaseStartInfo) func(PoolReleaseDoneInfo)
		OnWait    func(PoolWaitStartInfo) func(PoolWaitDoneInfo)

		OnSessionNew func(PoolSessionNewStartInfo) func(PoolSessionNewDoneInfo)
		OnReconcile  func(PoolReconcileStartInfo) func(PoolReconcileDoneInfo)
		OnPing       func(PoolPingStartInfo) func(PoolPingDoneInfo)

		// OnSessionDrop is called under the pool lock and must not call the pool
		OnSessionDrop func(PoolSessionDropInfo)

		OnChange func(PoolChangeInfo)
	}
)

type (
	PoolNewStartInfo struct {
		// Context make available context in trace callback function.
		// Pointer to context provide replacement of context in trace callback function.
		// Warning: concurrent access to pointer on client side must be excluded.
		// Safe replacement of context are provided only inside callback function
		Context *context.Context
		Call    stack.Caller
	}
	PoolNewDoneInfo struct {
		Min   int
		Max   int
		Error error
	}
	PoolCloseStartInfo struct {
		Context *context.Context
		Call    stack.Caller
	}
	PoolCloseDoneInfo struct {
		Dropped int
		Error   error
	}
	PoolReconfigureInfo struct {
		Min       int
		Max       int
		Increment int
	}
	PoolAcquireStartInfo struct {
		Context *context.Context
		Call    stack.Caller

		Tag         string
		HasTag      bool
		MatchAnyTag bool
	}
	PoolAcquireDoneInfo struct {
		ID       string
		Tag      string
		Attempts int
		Error    error
	}
	PoolReleaseStartInfo struct {
		Context *context.Context
		Call    stack.Caller

		ID   string
		Tag  string
		Drop bool
	}
	PoolReleaseDoneInfo struct {
		Error error
	}
	PoolWaitStartInfo struct {
		Context *context.Context
		Call    stack.Caller

		Position int
	}
	PoolWaitDoneInfo struct {
		Waited time.Duration
		Error  error
	}
	PoolSessionNewStartInfo struct {
		Context *context.Context
		Call    stack.Caller
	}
	PoolSessionNewDoneInfo struct {
		ID    string
		Error error
	}
	PoolSessionDropInfo struct {
		ID     string
		Tag    string
		Reason string
	}
	PoolReconcileStartInfo struct {
		Context *context.Context
		Call    stack.Caller

		ID        string
		Procedure string
		Kind      string
		Requested string
		Actual    string
		IsNew     bool
	}
	PoolReconcileDoneInfo struct {
		Tag   string
		Error error
	}
	PoolPingStartInfo struct {
		Context *context.Context
		Call    stack.Caller

		ID   string
		Idle time.Duration
	}
	PoolPingDoneInfo struct {
		Error error
	}
	PoolChangeInfo struct {
		Max              int
		Open             int
		InUse            int
		Idle             int
		Wait             int
		CreateInProgress int
	}
)
