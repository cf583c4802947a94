package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenZilia/parsemap-test-harness/framework/geotest"
	"github.com/OpenZilia/parsemap-test-harness/framework/helpers"
	"github.com/OpenZilia/parsemap-test-harness/geotests"
	"github.com/OpenZilia/parsemap-test-harness/journal"
)

type runParams struct {
	filters        geotest.RegexFilters
	skipFile       string
	recordFailures string
	jUnitFile      string
	debug          bool
	debugAll       bool
	testTimeout    time.Duration
	fanOutCount    int
	seed           int64
}

func newRunCommand(v *viper.Viper) *cobra.Command {
	var params runParams
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the contract test suite against the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results, err := runSuite(cmd, v, params)
			if err != nil {
				return err
			}
			if !results.OK() {
				return errTestsFailed
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.Var(&params.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	flags.Var(&params.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	flags.StringVar(&params.skipFile, "skip-file", "", "file listing the IDs of tests not to run, one per line")
	flags.StringVar(&params.recordFailures, "record-failures", "", "write the IDs of failed tests to this file")
	flags.StringVar(&params.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	flags.BoolVar(&params.debug, "debug", false, "enable debug logging for failed tests")
	flags.BoolVar(&params.debugAll, "debug-all", false, "enable debug logging for all tests")
	flags.DurationVar(&params.testTimeout, "test-timeout", time.Minute, "bound on the operations of each test")
	flags.IntVar(&params.fanOutCount, "fanout-count", 20, "number of sequences in the fan-out test")
	flags.Int64Var(&params.seed, "seed", 0, "seed for random point contents (default: current time)")
	return cmd
}

func runSuite(cmd *cobra.Command, v *viper.Viper, params runParams) (geotest.Results, error) {
	var none geotest.Results
	out := cmd.OutOrStdout()
	helpers.MustFprintf(out, "%s v%s\n", commandName, strings.TrimSpace(versionString))

	if params.skipFile != "" {
		if err := loadSuppressions(&params.filters, params.skipFile); err != nil {
			return none, err
		}
	}

	h, err := newHarness(v, out)
	if err != nil {
		return none, err
	}
	defer h.Close() //nolint:errcheck

	j, err := openJournal(cmd.Context(), v)
	if err != nil {
		return none, err
	}
	var recorder *journal.Recorder
	if j != nil {
		defer j.Close() //nolint:errcheck
		recorder = journal.NewRecorder(cmd.Context(), j, debugLogger())
		h.SetRecorder(recorder)
	}

	seed := params.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var testLogger geotest.TestLogger
	var jUnitLogger *geotest.JUnitTestLogger
	consoleLogger := geotest.ConsoleTestLogger{
		Out:                  out,
		SlowTestThreshold:    params.testTimeout / 2,
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	if params.jUnitFile == "" {
		testLogger = consoleLogger
	} else {
		info := h.ServiceInfo()
		target := info.BaseURL
		if info.Server != "" {
			target += " (" + info.Server + ")"
		}
		jUnitLogger = geotest.NewJUnitTestLogger(params.jUnitFile, target, params.filters)
		jUnitLogger.AddProperty("tests.seed", strconv.FormatInt(seed, 10))
		testLogger = &geotest.MultiTestLogger{Loggers: []geotest.TestLogger{consoleLogger, jUnitLogger}}
	}

	helpers.MustFprintln(out)
	params.filters.Describe(out)

	results := geotests.RunGeoTestSuite(h, params.filters, testLogger, geotests.SuiteOptions{
		OperationTimeout: params.testTimeout,
		Seed:             seed,
		FanOutCount:      params.fanOutCount,
	})

	helpers.MustFprintln(out)
	if err := testLogger.EndLog(results); err != nil {
		return none, fmt.Errorf("error writing log: %w", err)
	}
	if jUnitLogger != nil {
		helpers.MustFprintf(out, "JUnit report written to %s\n", jUnitLogger.FilePath())
	}

	if !results.OK() {
		helpers.MustFprintf(out, "\nTo run the failed tests again:\n  %s\n", rerunCommand(h.ServiceInfo().BaseURL, results.Failures))
	}
	if recorder != nil {
		if n := recorder.Failures(); n > 0 {
			slog.Warn("some created points could not be journaled", "count", n, "error", recorder.Err())
		}
		helpers.MustFprintf(out, "\nPoints left behind by this run can be deleted with:\n  %s\n", sweepCommand(j.DSN(), recorder.RunID()))
	}

	if params.recordFailures != "" {
		f, err := os.Create(params.recordFailures)
		if err != nil {
			return none, fmt.Errorf("cannot create suppression file: %w", err)
		}
		for _, test := range results.Failures {
			fmt.Fprintln(f, test.TestID)
		}
		_ = f.Close()
	}

	return results, nil
}
