package xtest

import (
	"testing"
	"time"
)

// WaitChannelClosed fails the test if ch is not closed within the common timeout
func WaitChannelClosed(t testing.TB, ch <-chan struct{}) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(commonWaitTimeout):
		t.Fatal("failed to wait channel closed")
	}
}

// SpinWaitCondition polls cond until it returns true or the common timeout expires
func SpinWaitCondition(t testing.TB, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(commonWaitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within timeout")
		}
		time.Sleep(time.Millisecond)
	}
}
