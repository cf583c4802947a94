package geotest

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/OpenZilia/parsemap-test-harness/framework"
)

var consoleTestErrorColor = color.New(color.FgYellow)              //nolint:gochecknoglobals
var consoleTestFailedColor = color.New(color.FgRed)                //nolint:gochecknoglobals
var consoleTestNonCriticalColor = color.New(color.FgMagenta)       //nolint:gochecknoglobals
var consoleTestSkippedColor = color.New(color.Faint, color.FgBlue) //nolint:gochecknoglobals
var consoleDebugOutputColor = color.New(color.Faint)               //nolint:gochecknoglobals
var allTestsPassedColor = color.New(color.FgGreen)                 //nolint:gochecknoglobals

// TestLogger receives the progress of a test run. Calls for one test arrive in order:
// TestStarted, any number of TestError, then either TestFinished or TestSkipped.
type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)
	TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput)
	TestSkipped(id TestID, reason string)
	EndLog(results Results) error
}

type nullTestLogger struct{}

func (n nullTestLogger) TestStarted(TestID)                                        {}
func (n nullTestLogger) TestError(TestID, error)                                   {}
func (n nullTestLogger) TestFinished(TestID, TestResult, framework.CapturedOutput) {}
func (n nullTestLogger) TestSkipped(TestID, string)                                {}
func (n nullTestLogger) EndLog(Results) error                                      { return nil }

// ConsoleTestLogger prints each test as it runs, in color when the output is a terminal.
type ConsoleTestLogger struct {
	// Out receives the log. Nil means standard output.
	Out io.Writer

	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool

	// SlowTestThreshold, if nonzero, makes passing tests that took longer than this show their
	// duration.
	SlowTestThreshold time.Duration
}

func (c ConsoleTestLogger) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c ConsoleTestLogger) TestStarted(id TestID) {
	_, _ = fmt.Fprintf(c.out(), "[%s]\n", id)
}

func (c ConsoleTestLogger) TestError(_ TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		_, _ = consoleTestErrorColor.Fprintf(c.out(), "  %s\n", line)
	}
	if es, ok := err.(ErrorWithStacktrace); ok {
		for _, s := range es.Stacktrace {
			_, _ = consoleTestErrorColor.Fprintf(c.out(), "    at %s\n", s)
		}
	}
}

func (c ConsoleTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	w := c.out()
	switch {
	case result.Failed && result.NonCritical:
		_, _ = consoleTestNonCriticalColor.Fprintf(w, "  FAILED (non-critical): %s\n", id)
		_, _ = consoleTestNonCriticalColor.Fprintf(w, "    %s\n", result.Explanation)
	case result.Failed:
		_, _ = consoleTestFailedColor.Fprintf(w, "  FAILED: %s (%s)\n", id, result.Duration.Round(time.Millisecond))
	case c.SlowTestThreshold > 0 && result.Duration > c.SlowTestThreshold:
		_, _ = consoleTestSkippedColor.Fprintf(w, "  slow: %s took %s\n", id, result.Duration.Round(time.Millisecond))
	}
	if len(debugOutput) > 0 &&
		((result.Failed && c.DebugOutputOnFailure) || (!result.Failed && c.DebugOutputOnSuccess)) {
		_, _ = consoleDebugOutputColor.Fprintln(w, debugOutput.ToString("    DEBUG "))
	}
}

func (c ConsoleTestLogger) TestSkipped(id TestID, reason string) {
	if reason == "" {
		_, _ = consoleTestSkippedColor.Fprintf(c.out(), "  SKIPPED: %s\n", id)
	} else {
		_, _ = consoleTestSkippedColor.Fprintf(c.out(), "  SKIPPED: %s (%s)\n", id, reason)
	}
}

func (c ConsoleTestLogger) EndLog(results Results) error {
	PrintResults(c.out(), results)
	return nil
}

// MultiTestLogger forwards every event to each of its loggers in order.
type MultiTestLogger struct {
	Loggers []TestLogger
}

func (m *MultiTestLogger) TestStarted(id TestID) {
	for _, l := range m.Loggers {
		l.TestStarted(id)
	}
}

func (m *MultiTestLogger) TestError(id TestID, err error) {
	for _, l := range m.Loggers {
		l.TestError(id, err)
	}
}

func (m *MultiTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	for _, l := range m.Loggers {
		l.TestFinished(id, result, debugOutput)
	}
}

func (m *MultiTestLogger) TestSkipped(id TestID, reason string) {
	for _, l := range m.Loggers {
		l.TestSkipped(id, reason)
	}
}

// EndLog ends every logger, even after one of them fails, and returns the first error.
func (m *MultiTestLogger) EndLog(results Results) error {
	var firstErr error
	for _, l := range m.Loggers {
		if err := l.EndLog(results); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PrintResults writes the summary of a run: non-critical failures with their explanations,
// then either the failed tests with the first line of their first error or a success line.
func PrintResults(out io.Writer, results Results) {
	if len(results.NonCriticalFailures) > 0 {
		_, _ = consoleTestNonCriticalColor.Fprintf(out, "NON-CRITICAL FAILURES (%d):\n", len(results.NonCriticalFailures))
		for _, f := range results.NonCriticalFailures {
			_, _ = consoleTestNonCriticalColor.Fprintf(out, "  * %s (%s)\n", f.TestID, f.Explanation)
		}
	}
	if results.OK() {
		_, _ = allTestsPassedColor.Fprintf(out, "All %d tests passed\n", len(results.Tests))
		return
	}
	_, _ = consoleTestFailedColor.Fprintf(out, "FAILED TESTS (%d):\n", len(results.Failures))
	for _, f := range results.Failures {
		if len(f.Errors) == 0 {
			_, _ = consoleTestFailedColor.Fprintf(out, "  * %s\n", f.TestID)
			continue
		}
		firstLine := strings.SplitN(f.Errors[0].Error(), "\n", 2)[0]
		_, _ = consoleTestFailedColor.Fprintf(out, "  * %s\n",
			TestFailure{ID: f.TestID, Err: fmt.Errorf("%s", firstLine)})
	}
}
