// Package testutil provides shared helpers for tests that drive live
// subscriptions: deadline-bounded receives and termination waits.
package testutil

import (
	"testing"
	"time"

	"github.com/yeray-yas/ChatApp-sub003/internal/stream"
)

// Timeout bounds every blocking wait in tests. Generous enough for CI,
// short enough that a deadlock fails the suite quickly.
const Timeout = 2 * time.Second

// Recv returns the next emission or fails the test if the stream closes
// or stays silent past the deadline.
func Recv[T any](t *testing.T, sub *stream.Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		if !ok {
			t.Fatalf("stream closed while waiting for emission (err=%v)", sub.Err())
		}
		return v
	case <-time.After(Timeout):
		t.Fatalf("timed out waiting for emission")
	}
	var zero T
	return zero
}

// WaitClosed drains the stream until it terminates and returns its
// terminal error.
func WaitClosed[T any](t *testing.T, sub *stream.Subscription[T]) error {
	t.Helper()
	for {
		select {
		case _, ok := <-sub.C():
			if !ok {
				return sub.Err()
			}
		case <-time.After(Timeout):
			t.Fatalf("timed out waiting for stream termination")
		}
	}
}

// ExpectNoEmission asserts the stream stays silent for the given window.
// Used to prove suppression: a stale result or a skipped update must not
// surface as a frame.
func ExpectNoEmission[T any](t *testing.T, sub *stream.Subscription[T], window time.Duration) {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		if ok {
			t.Fatalf("unexpected emission: %v", v)
		}
		t.Fatalf("stream closed while expecting silence (err=%v)", sub.Err())
	case <-time.After(window):
	}
}
