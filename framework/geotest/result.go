package geotest

import (
	"fmt"
	"strings"
	"time"
)

// Results is everything a run reported. Tests lists every test that ran, in the order they
// finished, so subtests come before their parents.
type Results struct {
	Tests               []TestResult
	Failures            []TestResult
	NonCriticalFailures []TestResult
}

// OK reports whether the run passed, non-critical failures aside.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// TestResult is the outcome of one test.
type TestResult struct {
	TestID      TestID
	Errors      []error
	Failed      bool
	NonCritical bool
	// Explanation is the argument of T.NonCritical, for a non-critical failure.
	Explanation string
	// Duration covers subtests and deferred cleanups.
	Duration time.Duration
}

// TestID is the path of test names from the top of a run; the root scope's is empty.
type TestID []string

func (t TestID) String() string {
	return strings.Join(t, "/")
}

// Plus returns the ID of a subtest. It never modifies t.
func (t TestID) Plus(name string) TestID {
	return append(t[:len(t):len(t)], name)
}

// TestFailure is an error of a specific test, printed as "[id]: error".
type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}
