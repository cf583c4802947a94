package helpers

import (
	"time"
)

// AssertEventually checks condition right away and then every interval until it returns true,
// failing the test with the given message if that has not happened within timeout. Unlike
// assert.Eventually the condition runs on the calling goroutine, so it may call FailNow.
func AssertEventually(
	t TestContext,
	condition func() bool,
	timeout time.Duration,
	interval time.Duration,
	failureMsgFormat string,
	failureMsgArgs ...interface{},
) bool {
	t.Helper()
	if condition() {
		return true
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.Now().Add(timeout)
	for range ticker.C {
		if condition() {
			return true
		}
		if !time.Now().Before(deadline) {
			break
		}
	}
	t.Errorf(failureMsgFormat, failureMsgArgs...)
	return false
}

// RequireEventually is AssertEventually followed by FailNow on failure.
func RequireEventually(
	t TestContext,
	condition func() bool,
	timeout time.Duration,
	interval time.Duration,
	failureMsgFormat string,
	failureMsgArgs ...interface{},
) {
	t.Helper()
	if !AssertEventually(t, condition, timeout, interval, failureMsgFormat, failureMsgArgs...) {
		t.FailNow()
	}
}
