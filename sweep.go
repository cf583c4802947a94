package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/framework/helpers"
	"github.com/OpenZilia/parsemap-test-harness/journal"
)

func newSweepCommand(v *viper.Viper) *cobra.Command {
	var (
		runID       string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete the points recorded in the journal",
		Long: `Delete the points recorded in the journal by earlier runs. Points the service no longer
has are forgotten; points that cannot be deleted stay in the journal for the next sweep.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			j, err := openJournal(ctx, v)
			if err != nil {
				return err
			}
			if j == nil {
				return errors.New("sweep needs a journal, set --" + keyJournal)
			}
			defer j.Close() //nolint:errcheck
			if _, ok := j.(*journal.Memory); ok {
				slog.Warn("an in-memory journal is always empty when the run starts")
			}

			h, err := newHarness(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer h.Close() //nolint:errcheck

			result, err := journal.Sweep(ctx, j, h.Operations(debugLogger()), runID, concurrency,
				framework.SlogLogger(nil, slog.LevelWarn))
			helpers.MustFprintf(cmd.OutOrStdout(), "Deleted %d points, %d were already gone, %d could not be deleted\n",
				result.Deleted, result.Missing, result.Failed)
			if err != nil {
				return err
			}
			if result.Failed > 0 {
				return fmt.Errorf("%d points could not be deleted, they remain in %s", result.Failed, j.DSN())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "only delete the points of this run (default: all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 10, "maximum deletions in flight")
	return cmd
}
