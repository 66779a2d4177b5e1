package xcontext

import (
	"context"
	"time"
)

type valueOnlyContext struct{ context.Context }

func (valueOnlyContext) Deadline() (time.Time, bool) { return time.Time{}, false }

func (valueOnlyContext) Done() <-chan struct{} { return nil }

func (valueOnlyContext) Err() error { return nil }

// ValueOnly keeps values of ctx and drops its deadline and cancellation
func ValueOnly(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}

// WithTimeout is a context.WithTimeout over ValueOnly(ctx) when d > 0.
// Non-positive d means no timeout
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ValueOnly(ctx), d)
	}

	return context.WithCancel(ValueOnly(ctx))
}
