package geoclient

import (
	"context"
	"sync"

	"github.com/OpenZilia/parsemap-test-harness/framework/helpers"
)

// Pending is the eventual result of an operation. It completes exactly once, with either a
// value or an error.
type Pending[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

// Go starts an operation on its own goroutine and returns immediately.
func Go[T any](ctx context.Context, op func(context.Context) (T, error)) *Pending[T] {
	p := newPending[T]()
	go func() {
		value, err := op(ctx)
		p.complete(value, err)
	}()
	return p
}

// GoAck is Go for operations that only acknowledge success.
func GoAck(ctx context.Context, op func(context.Context) error) *Pending[struct{}] {
	return Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
}

// Resolved returns a Pending that has already completed.
func Resolved[T any](value T, err error) *Pending[T] {
	p := newPending[T]()
	p.complete(value, err)
	return p
}

func newPending[T any]() *Pending[T] {
	return &Pending[T]{done: make(chan struct{})}
}

func (p *Pending[T]) complete(value T, err error) {
	p.once.Do(func() {
		p.value, p.err = value, err
		close(p.done)
	})
}

// Done is closed when the operation has completed.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Await waits for the operation to complete. If ctx is done first, it returns ctx.Err() and
// the operation keeps running in the background.
func (p *Pending[T]) Await(ctx context.Context) (T, error) {
	if _, err := helpers.ReceiveWithContext(ctx, p.done); err != nil {
		var empty T
		return empty, err
	}
	return p.value, p.err
}
