package helpers

import (
	"context"
	"time"
)

// TryReceive waits up to timeout for a value from ch. ok is false on timeout.
func TryReceive[V any](ch <-chan V, timeout time.Duration) (value V, ok bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value = <-ch:
		return value, true
	case <-timer.C:
		return value, false
	}
}

// ReceiveWithContext waits for a value from ch until ctx is done, in which case it returns
// ctx.Err().
func ReceiveWithContext[V any](ctx context.Context, ch <-chan V) (value V, err error) {
	select {
	case value = <-ch:
		return value, nil
	case <-ctx.Done():
		return value, ctx.Err()
	}
}

// RequireValueWithMessage returns the next value from ch, or fails the test with the given
// message and stops it if none arrives within timeout.
func RequireValueWithMessage[V any](
	t TestContext,
	ch <-chan V,
	timeout time.Duration,
	msgFormat string,
	msgArgs ...interface{},
) V {
	t.Helper()
	value, ok := TryReceive(ch, timeout)
	if !ok {
		t.Errorf(msgFormat, msgArgs...)
		t.FailNow()
	}
	return value
}

// RequireNoMoreValuesWithMessage fails the test with the given message and stops it if ch
// yields a value within timeout.
func RequireNoMoreValuesWithMessage[V any](
	t TestContext,
	ch <-chan V,
	timeout time.Duration,
	msgFormat string,
	msgArgs ...interface{},
) {
	t.Helper()
	if value, ok := TryReceive(ch, timeout); ok {
		t.Errorf(msgFormat+" (received %v)", append(msgArgs, value)...)
		t.FailNow()
	}
}
