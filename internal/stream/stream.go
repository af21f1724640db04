// Package stream provides the cold, cancellable value stream used to model
// live backend listeners: explicit subscribe/unsubscribe, strictly ordered
// emissions, and a single terminal error observed after the channel closes.
package stream

import (
	"context"
	"sync"
)

// Subscription is the consumer half of one active stream. Values arrive on
// C until it closes; after that Err reports how the stream ended (nil for a
// clean close). Cancel releases the producer and is safe to call any number
// of times, from any goroutine.
type Subscription[T any] struct {
	ch   chan T
	done chan struct{}

	doneOnce  sync.Once
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// Emitter is the producer half. Emit and Close must be called from the
// producer goroutine only; calling them concurrently with each other is a
// bug, exactly as with a bare channel.
type Emitter[T any] struct {
	sub *Subscription[T]
}

// Producer feeds one subscription. It runs on its own goroutine with a
// context that is cancelled when the subscriber cancels or the parent
// context ends. Returning closes the stream cleanly unless Close was
// already called.
type Producer[T any] func(ctx context.Context, e *Emitter[T])

// Go subscribes to a producer: it starts fn on a new goroutine and returns
// the live subscription. Each call is an independent subscription with its
// own producer instance (cold semantics).
func Go[T any](ctx context.Context, fn Producer[T]) *Subscription[T] {
	sub := &Subscription[T]{
		ch:   make(chan T),
		done: make(chan struct{}),
	}
	e := &Emitter[T]{sub: sub}

	pctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-sub.done:
		case <-pctx.Done():
			sub.Cancel()
		}
		cancel()
	}()
	go func() {
		defer e.Close(nil)
		fn(pctx, e)
	}()
	return sub
}

// C returns the emission channel. It closes when the stream terminates.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Err reports the terminal error. It is meaningful once C is closed; nil
// means the stream ended cleanly.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel tears the subscription down: the producer's context is cancelled
// and any in-flight Emit returns false. Idempotent.
func (s *Subscription[T]) Cancel() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// Emit delivers one value in order. It returns false once the subscription
// is cancelled or closed, without blocking.
func (e *Emitter[T]) Emit(v T) bool {
	select {
	case <-e.sub.done:
		return false
	default:
	}
	select {
	case e.sub.ch <- v:
		return true
	case <-e.sub.done:
		return false
	}
}

// Close terminates the stream with err as its terminal state. The first
// call wins; later calls (including the implicit clean close when the
// producer returns) are no-ops.
func (e *Emitter[T]) Close(err error) {
	e.sub.closeOnce.Do(func() {
		e.sub.mu.Lock()
		e.sub.err = err
		e.sub.mu.Unlock()
		e.sub.Cancel()
		close(e.sub.ch)
	})
}
