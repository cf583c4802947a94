package main

import (
	"context"
	_ "embed" // this is required in order for go:embed to work
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/framework/helpers"
)

const commandName = "parsemap-test-harness"

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

// errTestsFailed makes the process exit with a nonzero status without printing anything more.
var errTestsFailed = errors.New("some tests failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand(viper.New()).ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errTestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	var (
		configFile string
		closeLog   func() error
	)
	cmd := &cobra.Command{
		Use:           commandName,
		Short:         "Contract and stress tests for the parsemap geo service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(v, configFile); err != nil {
				return err
			}
			var err error
			closeLog, err = framework.SetupLogging(framework.LoggingConfig{
				Level:    v.GetString(keyLogLevel),
				FilePath: v.GetString(keyLogFile),
				Console:  cmd.ErrOrStderr(),
			})
			return err
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if closeLog != nil {
				return closeLog()
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: "+defaultConfigName+".yaml in the working directory)")
	bindCommonFlags(v, cmd.PersistentFlags())

	cmd.AddCommand(
		newRunCommand(v),
		newStressCommand(v),
		newSweepCommand(v),
		newVersionCommand(),
	)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			helpers.MustFprintf(cmd.OutOrStdout(), "%s v%s\n", commandName, strings.TrimSpace(versionString))
		},
	}
}
