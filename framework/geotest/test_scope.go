package geotest

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/framework"
)

// TestConfiguration holds the settings of one test run.
type TestConfiguration struct {
	// Filter, if set, decides which tests run. Tests it rejects are reported as skipped.
	Filter Filter

	// TestLogger receives the progress of the run. Nil discards it.
	TestLogger TestLogger

	// Context is made available to every test through T.Context. The run does not interpret it.
	Context interface{}

	// Timeout, if nonzero, bounds the context returned by T.OperationContext.
	Timeout time.Duration
}

type environment struct {
	config  TestConfiguration
	results *Results
}

// T is the scope of one test, playing the part of testing.T for tests that run against a
// service instead of inside "go test". Its Errorf, FailNow and Helper methods make it usable
// with testify's assert and require packages.
type T struct {
	env     *environment
	id      TestID
	opCtx   context.Context
	helpers map[string]struct{}

	debugLogger framework.CapturingLogger
	cleanups    []func()
	errors      []error

	failed      bool
	nonCritical string
	skipped     bool
	skipReason  string
}

// Run runs action as the root scope of a test run and returns the results of every test in it.
func Run(config TestConfiguration, action func(*T)) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	root := &T{env: &environment{config: config, results: &Results{}}}
	root.run(action)
	return *root.env.results
}

// run executes action. FailNow and Skip end it early by panicking with the scope itself; any
// other panic is a failure.
func (t *T) run(action func(*T)) (result TestResult) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil && !t.skipped {
			t.recordPanic(r)
		}
		for i := len(t.cleanups) - 1; i >= 0; i-- {
			t.cleanups[i]()
		}
		if t.skipped {
			return
		}
		result = TestResult{
			TestID:   t.id,
			Errors:   t.errors,
			Failed:   t.failed,
			Duration: time.Since(started),
		}
		results := t.env.results
		switch {
		case t.failed && t.nonCritical != "":
			result.NonCritical = true
			result.Explanation = t.nonCritical
			results.NonCriticalFailures = append(results.NonCriticalFailures, result)
		case t.failed:
			results.Failures = append(results.Failures, result)
		}
		results.Tests = append(results.Tests, result)
	}()

	action(t)
	return result
}

func (t *T) recordPanic(r interface{}) {
	t.failed = true
	var err error
	if _, stopped := r.(*T); !stopped {
		err = fmt.Errorf("unexpected panic in test: %+v\n%s", r, debug.Stack())
	} else if len(t.errors) == 0 {
		err = errors.New("test failed with no failure message")
	}
	if err != nil {
		t.errors = append(t.errors, err)
		t.env.config.TestLogger.TestError(t.id, err)
	}
}

// ID returns the path of names from the root scope to this one.
func (t *T) ID() TestID {
	return t.id
}

// Run runs action as a subtest named name, unless the configured Filter excludes it. Like
// testing.T.Run, it returns only after the subtest has finished.
func (t *T) Run(name string, action func(*T)) {
	id := t.id.Plus(name)
	logger := t.env.config.TestLogger
	logger.TestStarted(id)
	if filter := t.env.config.Filter; filter != nil && !filter.Match(id) {
		logger.TestSkipped(id, "excluded by filter parameters")
		return
	}

	sub := &T{id: id, env: t.env}
	t.debugLogger.AddChildLogger(&sub.debugLogger)
	result := sub.run(action)
	t.debugLogger.RemoveChildLogger(&sub.debugLogger)

	if sub.skipped {
		logger.TestSkipped(id, sub.skipReason)
		return
	}
	logger.TestFinished(id, result, sub.debugLogger.Output())
}

// NonCritical makes a failure of this test non-critical: it is reported, with the given
// explanation, but does not make the run fail.
func (t *T) NonCritical(explanation string) {
	t.nonCritical = explanation
}

// Errorf marks the test as failed and records the message along with where it happened. The
// test keeps running.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := withStacktrace(fmt.Errorf(format, args...), captureStacktrace(false, t.helpers))
	t.errors = append(t.errors, err)
	t.env.config.TestLogger.TestError(t.id, err)
}

// FailNow marks the test as failed and stops it. Deferred cleanups still run.
func (t *T) FailNow() {
	t.failed = true
	panic(t)
}

// Failed reports whether the test has failed so far.
func (t *T) Failed() bool {
	return t.failed
}

// Skip stops the test and reports it as skipped rather than passed or failed.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

// SkipWithReason is Skip with an explanation for the report.
func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Debug adds a formatted line to the test's debug output.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns the Logger behind Debug, for code that takes a framework.Logger.
//
// A subtest's debug output begins with whatever its parent had logged so far. While the subtest
// runs, anything logged to the parent goes to the subtest instead, so that output from a
// fixture the parent created, such as a list shared by several subtests, appears with the
// subtest that caused it.
func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}

// Defer registers cleanup to run when the test exits, however it exits. Cleanups run in reverse
// order of registration. Unlike a defer statement, Defer works from inside helper functions.
func (t *T) Defer(cleanup func()) {
	t.cleanups = append(t.cleanups, cleanup)
}

// Context returns TestConfiguration.Context.
func (t *T) Context() interface{} {
	return t.env.config.Context
}

// OperationContext returns the context for the blocking calls of this test. It is created on
// first use, is bounded by TestConfiguration.Timeout if that is set, and is canceled when the
// test exits. All calls within one test share it; each subtest gets its own.
func (t *T) OperationContext() context.Context {
	if t.opCtx == nil {
		var cancel context.CancelFunc
		if t.env.config.Timeout > 0 {
			t.opCtx, cancel = context.WithTimeout(context.Background(), t.env.config.Timeout)
		} else {
			t.opCtx, cancel = context.WithCancel(context.Background())
		}
		t.Defer(cancel)
	}
	return t.opCtx
}

// WithContext returns a copy of the scope whose subtests see context from T.Context. Results
// and logging are shared with the original.
func (t *T) WithContext(context interface{}) *T {
	env := &environment{config: t.env.config, results: t.env.results}
	env.config.Context = context
	copied := *t
	copied.env = env
	return &copied
}

// Helper marks the calling function as a helper, leaving it out of failure stacktraces like
// testing.T.Helper does.
func (t *T) Helper() {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return
	}
	if t.helpers == nil {
		t.helpers = make(map[string]struct{})
	}
	t.helpers[f.Name()] = struct{}{}
}
