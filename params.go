package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/framework/geotest"
	"github.com/OpenZilia/parsemap-test-harness/framework/harness"
	"github.com/OpenZilia/parsemap-test-harness/journal"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

const (
	envPrefix         = "PARSEMAP"
	defaultConfigName = "harness"

	keyURL           = "url"
	keyAppKey        = "app-key"
	keyTimeout       = "timeout"
	keyStatusTimeout = "status-timeout"
	keyJournal       = "journal"
	keyLogFile       = "log-file"
	keyLogLevel      = "log-level"

	defaultRequestTimeout     = time.Second * 10
	defaultStatusQueryTimeout = time.Second * 10
)

func bindCommonFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.String(keyURL, servicedef.DefaultBaseURL, "base URL of the service")
	flags.String(keyAppKey, servicedef.DefaultAppKey, "app key sent with every request")
	flags.Duration(keyTimeout, defaultRequestTimeout, "timeout of each request")
	flags.Duration(keyStatusTimeout, defaultStatusQueryTimeout, "how long to wait for the service to answer at startup")
	flags.String(keyJournal, "", "where to record created points (memory:, redis://, consul://, dynamodb://)")
	flags.String(keyLogFile, "", "also log to this file, rotated")
	flags.String(keyLogLevel, "info", "log level: debug, info, warn or error")
	_ = v.BindPFlags(flags)
}

// loadConfig reads the config file and the environment. A missing default config file is not
// an error, but a missing file named with --config is.
func loadConfig(v *viper.Viper, configFile string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func harnessConfig(v *viper.Viper) harness.Config {
	return harness.Config{
		BaseURL:            v.GetString(keyURL),
		AppKey:             v.GetString(keyAppKey),
		RequestTimeout:     v.GetDuration(keyTimeout),
		StatusQueryTimeout: v.GetDuration(keyStatusTimeout),
	}
}

// debugLogger sends harness-level operation logs to the process logger.
func debugLogger() framework.Logger {
	return framework.SlogLogger(slog.Default(), slog.LevelDebug)
}

func newHarness(v *viper.Viper, startupOutput io.Writer) (*harness.TestHarness, error) {
	return harness.NewTestHarness(harnessConfig(v), debugLogger(), startupOutput)
}

// openJournal opens the configured journal, or returns nil if there is none.
func openJournal(ctx context.Context, v *viper.Viper) (journal.Journal, error) {
	dsn := v.GetString(keyJournal)
	if dsn == "" {
		return nil, nil
	}
	j, err := journal.Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := journal.Prepare(ctx, j); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

func loadSuppressions(filters *geotest.RegexFilters, skipFile string) error {
	file, err := os.Open(skipFile)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %w", err)
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// each line names one test exactly, as written by --record-failures
		if err := filters.MustNotMatch.Set(exactPattern(strings.Split(line, "/"))); err != nil {
			return fmt.Errorf("cannot parse suppression: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %w", err)
	}
	return nil
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// exactPattern is a --run pattern that selects exactly one test.
func exactPattern(id geotest.TestID) string {
	parts := make([]string, 0, len(id))
	for _, name := range id {
		parts = append(parts, "^"+regexp.QuoteMeta(name)+"$")
	}
	return strings.Join(parts, "/")
}

// rerunCommand is a command line that runs only the given tests again against the same service.
func rerunCommand(url string, failures []geotest.TestResult) string {
	var b commandBuilder
	b.add(commandName, "run", "--"+keyURL, url)
	for _, f := range failures {
		if len(f.TestID) != 0 {
			b.add("--run", exactPattern(f.TestID))
		}
	}
	return b.String()
}

func sweepCommand(dsn, runID string) string {
	var b commandBuilder
	b.add(commandName, "sweep", "--"+keyJournal, dsn, "--run-id", runID)
	return b.String()
}
