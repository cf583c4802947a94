package geotest

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func withoutColor(t *testing.T) {
	previous := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = previous })
}

func TestConsoleTestLoggerReportsFailures(t *testing.T) {
	withoutColor(t)
	var out bytes.Buffer
	logger := ConsoleTestLogger{Out: &out, DebugOutputOnFailure: true}

	results := Run(TestConfiguration{TestLogger: logger}, func(gt *T) {
		gt.Run("chains", func(gt1 *T) {
			gt1.Debug("created list %s", "abc")
			gt1.Errorf("step %q failed", "create point")
		})
		gt.Run("skipped", func(gt1 *T) { gt1.SkipWithReason("no journal") })
	})
	assert.NoError(t, logger.EndLog(results))

	text := out.String()
	assert.Contains(t, text, "[chains]\n")
	assert.Contains(t, text, `  step "create point" failed`)
	assert.Contains(t, text, "  FAILED: chains (")
	assert.Contains(t, text, "DEBUG [")
	assert.Contains(t, text, "created list abc")
	assert.Contains(t, text, "  SKIPPED: skipped (no journal)")
	assert.Contains(t, text, "FAILED TESTS (1):\n  * [chains]: step \"create point\" failed")
}

func TestConsoleTestLoggerHidesDebugOutputOfPassingTests(t *testing.T) {
	withoutColor(t)
	var out bytes.Buffer
	logger := ConsoleTestLogger{Out: &out, DebugOutputOnFailure: true}

	results := Run(TestConfiguration{TestLogger: logger}, func(gt *T) {
		gt.Run("quiet", func(gt1 *T) { gt1.Debug("not shown") })
	})
	assert.NoError(t, logger.EndLog(results))

	assert.NotContains(t, out.String(), "not shown")
	assert.Contains(t, out.String(), "All 2 tests passed")
}

func TestConsoleTestLoggerShowsSlowTests(t *testing.T) {
	withoutColor(t)
	var out bytes.Buffer
	logger := ConsoleTestLogger{Out: &out, SlowTestThreshold: time.Second}

	logger.TestFinished(TestID{"fast"}, TestResult{Duration: time.Millisecond}, nil)
	logger.TestFinished(TestID{"fan-out", "add to list"}, TestResult{Duration: time.Second * 3}, nil)

	assert.NotContains(t, out.String(), "fast")
	assert.Contains(t, out.String(), "slow: fan-out/add to list took 3s")
}

func TestMultiTestLoggerEndsEveryLogger(t *testing.T) {
	withoutColor(t)
	var out bytes.Buffer
	failing := failingEndLogger{}
	logger := &MultiTestLogger{Loggers: []TestLogger{failing, ConsoleTestLogger{Out: &out}}}

	err := logger.EndLog(Results{})
	assert.EqualError(t, err, "disk full")
	assert.Contains(t, out.String(), "All 0 tests passed")
}

type failingEndLogger struct{ nullTestLogger }

func (failingEndLogger) EndLog(Results) error { return errors.New("disk full") }

