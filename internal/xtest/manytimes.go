package xtest

import (
	"sync"
	"testing"
	"time"
)

type TestFunc func(t testing.TB)

type manyTimesOptions struct {
	stopAfter time.Duration
}

type manyTimesOption func(o *manyTimesOptions)

func StopAfter(d time.Duration) manyTimesOption {
	return func(o *manyTimesOptions) {
		o.stopAfter = d
	}
}

// TestManyTimes runs test at least once and repeats it until the time limit expires
func TestManyTimes(t testing.TB, test TestFunc, opts ...manyTimesOption) {
	t.Helper()

	options := manyTimesOptions{
		stopAfter: time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	start := time.Now()
	for {
		runTest(t, test)

		if t.Failed() || time.Since(start) > options.stopAfter {
			return
		}
	}
}

func runTest(t testing.TB, test TestFunc) {
	t.Helper()

	tw := &testWrapper{
		TB: t,
	}

	defer tw.doCleanup()

	test(tw)
}

type testWrapper struct {
	testing.TB

	m       sync.Mutex
	cleanup []func()
}

func (tw *testWrapper) Cleanup(f func()) {
	tw.Helper()

	tw.m.Lock()
	defer tw.m.Unlock()

	tw.cleanup = append(tw.cleanup, f)
}

func (tw *testWrapper) doCleanup() {
	tw.Helper()

	for len(tw.cleanup) > 0 {
		last := tw.cleanup[len(tw.cleanup)-1]
		tw.cleanup = tw.cleanup[:len(tw.cleanup)-1]

		last()
	}
}
