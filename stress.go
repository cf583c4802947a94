package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenZilia/parsemap-test-harness/data"
	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/framework/helpers"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/journal"
	"github.com/OpenZilia/parsemap-test-harness/metrics"
	"github.com/OpenZilia/parsemap-test-harness/scenario"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

const (
	keyStressCount       = "stress.count"
	keyStressList        = "stress.list"
	keyStressConcurrency = "stress.concurrency"
	keyStressOnError     = "stress.on-error"
	keyStressRegion      = "stress.region"
	keyStressMetricsAddr = "stress.metrics-addr"
	keyStressSeed        = "stress.seed"

	variantAddToList = "add-to-list"
	variantSpread    = "spread"
)

type stressParams struct {
	count       int
	list        string
	concurrency int
	onError     scenario.ErrorPolicy
	region      *scenario.Region
	metricsAddr string
	seed        int64
}

func newStressCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Fire many independent create-and-attach sequences at the service",
	}
	flags := cmd.PersistentFlags()
	bindFlag := func(key, name string) {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
	flags.Int("count", 0, "number of sequences (default: from the fixtures)")
	bindFlag(keyStressCount, "count")
	flags.String("list", "", "list name to create (add-to-list) or existing list id (spread)")
	bindFlag(keyStressList, "list")
	flags.Int("concurrency", 0, "maximum sequences in flight (default: no limit)")
	bindFlag(keyStressConcurrency, "concurrency")
	flags.String("on-error", scenario.IgnoreErrors.String(), "what to do when a sequence fails: ignore or abort")
	bindFlag(keyStressOnError, "on-error")
	flags.String("region", "", `region of the points as "latitude,longitude,delta" (add-to-list only)`)
	bindFlag(keyStressRegion, "region")
	flags.String("metrics-addr", "", "serve Prometheus metrics at this address during the run")
	bindFlag(keyStressMetricsAddr, "metrics-addr")
	flags.Int64("seed", 0, "seed for random point contents (default: current time)")
	bindFlag(keyStressSeed, "seed")

	for _, variant := range []struct{ name, short string }{
		{variantAddToList, "Create one list, then create points near its region, set their metadata and attach them"},
		{variantSpread, "Create points anywhere on the globe and attach them to an existing list"},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   variant.name,
			Short: variant.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runStress(cmd, v, variant.name)
			},
		})
	}
	return cmd
}

func parseErrorPolicy(s string) (scenario.ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", scenario.IgnoreErrors.String():
		return scenario.IgnoreErrors, nil
	case scenario.AbortOnError.String():
		return scenario.AbortOnError, nil
	default:
		return scenario.IgnoreErrors, fmt.Errorf("unknown error policy %q, must be %q or %q",
			s, scenario.IgnoreErrors, scenario.AbortOnError)
	}
}

// parseRegion parses "latitude,longitude,delta". An empty string means no region.
func parseRegion(s string) (*scenario.Region, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("region %q must be latitude,longitude,delta", s)
	}
	var values [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", s, err)
		}
		values[i] = f
	}
	region := scenario.Region{Latitude: values[0], Longitude: values[1], Delta: values[2]}
	if err := (servicedef.PointParams{Latitude: region.Latitude, Longitude: region.Longitude}).Validate(); err != nil {
		return nil, fmt.Errorf("region center: %w", err)
	}
	return &region, nil
}

func readStressParams(v *viper.Viper) (stressParams, error) {
	params := stressParams{
		count:       v.GetInt(keyStressCount),
		list:        v.GetString(keyStressList),
		concurrency: v.GetInt(keyStressConcurrency),
		metricsAddr: v.GetString(keyStressMetricsAddr),
		seed:        v.GetInt64(keyStressSeed),
	}
	var err error
	if params.onError, err = parseErrorPolicy(v.GetString(keyStressOnError)); err != nil {
		return params, err
	}
	if params.region, err = parseRegion(v.GetString(keyStressRegion)); err != nil {
		return params, err
	}
	if params.count < 0 || params.concurrency < 0 {
		return params, fmt.Errorf("count and concurrency must not be negative")
	}
	if params.seed == 0 {
		params.seed = time.Now().UnixNano()
	}
	return params, nil
}

// stressFanOut builds the fan-out of a variant from the fixtures and the parameters. For
// add-to-list, the container list is created first.
func stressFanOut(
	ctx context.Context,
	ops geoclient.Operations,
	fixtures data.Fixtures,
	variant string,
	params stressParams,
) (scenario.FanOut, error) {
	rng := rand.New(rand.NewSource(params.seed)) //nolint:gosec
	fan := scenario.FanOut{
		Count:            params.count,
		ConcurrencyLimit: params.concurrency,
		OnError:          params.onError,
	}
	switch variant {
	case variantAddToList:
		if fan.Count == 0 {
			fan.Count = fixtures.AddToList.Count
		}
		region := fixtures.AddToList.Region
		if params.region != nil {
			region = *params.region
		}
		list, err := scenario.CreateContainer(ctx, ops, fixtures.ListParams(params.list))
		if err != nil {
			return fan, fmt.Errorf("cannot create the list: %w", err)
		}
		slog.Info("created list", "list", list)
		fan.Container = list
		fan.Generate = scenario.BoundingBox(rand.New(rand.NewSource(rng.Int63())), //nolint:gosec
			fixtures.PointParams(region.Latitude, region.Longitude), region)
		fan.Meta = fixtures.PointMetaGenerator(rand.New(rand.NewSource(rng.Int63()))) //nolint:gosec
	case variantSpread:
		if fan.Count == 0 {
			fan.Count = fixtures.Spread.Count
		}
		list := params.list
		if list == "" {
			list = fixtures.Spread.List
		}
		fan.Container = servicedef.EntityRef(list)
		fan.Generate = scenario.Globe(rng, fixtures.PointParams(0, 0))
	default:
		return fan, fmt.Errorf("unknown stress variant %q", variant)
	}
	return fan, nil
}

func runStress(cmd *cobra.Command, v *viper.Viper, variant string) error {
	ctx := cmd.Context()
	params, err := readStressParams(v)
	if err != nil {
		return err
	}
	fixtures, err := data.LoadFixtures()
	if err != nil {
		return err
	}

	h, err := newHarness(v, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer h.Close() //nolint:errcheck
	ops := h.Operations(debugLogger())

	fan, err := stressFanOut(ctx, ops, fixtures, variant, params)
	if err != nil {
		return err
	}

	observer := metrics.NewObserver(prometheus.Labels{"variant": variant})
	observers := []scenario.Observer{observer}
	j, err := openJournal(ctx, v)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close() //nolint:errcheck
		recorder := journal.NewRecorder(ctx, j, framework.SlogLogger(nil, slog.LevelWarn))
		observers = append(observers, recorder)
		defer func() {
			helpers.MustFprintf(cmd.OutOrStdout(), "Points created by this run can be deleted with:\n  %s\n",
				sweepCommand(j.DSN(), recorder.RunID()))
		}()
	}
	fan.Observer = scenario.Observers(observers...)
	fan.Logger = framework.SlogLogger(nil, slog.LevelWarn)

	if params.metricsAddr != "" {
		go func() {
			if err := observer.Serve(ctx, params.metricsAddr, framework.SlogLogger(nil, slog.LevelInfo)); err != nil {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}

	slog.Info("starting stress run", "variant", variant, "count", fan.Count, "list", fan.Container,
		"concurrency", fan.ConcurrencyLimit, "on-error", fan.OnError, "seed", params.seed)
	dispatch := fan.Dispatch(ctx, ops)
	slog.Info("sequences dispatched", "dispatched", dispatch.Dispatched())
	summary := dispatch.Wait()
	slog.Info("stress run finished",
		"succeeded", summary.Succeeded, "failed", summary.Failed, "canceled", summary.Canceled,
		"duration", summary.Duration)

	if summary.Failed > 0 && params.onError == scenario.AbortOnError {
		return fmt.Errorf("stress run aborted: %w", summary.FirstError)
	}
	return ctx.Err()
}

