package geotests

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/data"
	"github.com/OpenZilia/parsemap-test-harness/framework/geotest"
	"github.com/OpenZilia/parsemap-test-harness/framework/harness"
)

// SuiteOptions are the settings of one suite run that do not come from the harness.
type SuiteOptions struct {
	// OperationTimeout bounds the operations of each test. Zero means no limit.
	OperationTimeout time.Duration
	// Seed for the random contents of generated points. Zero means the current time.
	Seed int64
	// FanOutCount is the number of sequences of the fan-out test. Zero means 20.
	FanOutCount int
}

// RunGeoTestSuite runs every test against the service managed by the harness.
func RunGeoTestSuite(
	harness *harness.TestHarness,
	filter geotest.Filter,
	testLogger geotest.TestLogger,
	options SuiteOptions,
) geotest.Results {
	fixtures, err := data.LoadFixtures()
	if err != nil {
		return geotest.Results{
			Failures: []geotest.TestResult{{Errors: []error{fmt.Errorf("cannot load fixtures: %w", err)}}},
		}
	}
	if options.Seed == 0 {
		options.Seed = time.Now().UnixNano()
	}
	if options.FanOutCount <= 0 {
		options.FanOutCount = 20
	}

	config := geotest.TestConfiguration{
		Filter:     filter,
		TestLogger: testLogger,
		Timeout:    options.OperationTimeout,
		Context: GeoTestContext{
			harness:  harness,
			fixtures: fixtures,
			rng:      rand.New(rand.NewSource(options.Seed)), //nolint:gosec
			options:  options,
		},
	}

	return geotest.Run(config, func(t *geotest.T) {
		t.Debug("random seed: %d", options.Seed)
		t.Run("access", doAccessTests)
		t.Run("chains", doChainTests)
		t.Run("metadata", doMetadataTests)
		t.Run("coordinates", doCoordinateTests)
		t.Run("query", doQueryTests)
		t.Run("fan-out", doFanOutTests)
	})
}
