package geotests

import (
	"math/rand"

	"github.com/OpenZilia/parsemap-test-harness/data"
	"github.com/OpenZilia/parsemap-test-harness/framework/geotest"
	"github.com/OpenZilia/parsemap-test-harness/framework/harness"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
)

type GeoTestContext struct {
	harness  *harness.TestHarness
	fixtures data.Fixtures
	rng      *rand.Rand
	options  SuiteOptions
}

func requireContext(t *geotest.T) GeoTestContext {
	if c, ok := t.Context().(GeoTestContext); ok {
		return c
	}
	panic("GeoTestContext was not included in the global test configuration!" +
		" This is a basic mistake in the initialization logic.")
}

// operations returns the service client for the current test, logging to the test's output.
func operations(t *geotest.T) geoclient.Operations {
	return requireContext(t).harness.Operations(t.DebugLogger())
}
