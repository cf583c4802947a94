package geotests

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/framework/geotest"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/scenario"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/stretchr/testify/require"
)

// runChain runs a chain with the test's operation context and turns the report into test
// failures. Cleanup errors only go to the debug output.
func runChain(t *geotest.T, chain scenario.Chain) scenario.Report {
	t.Helper()
	report := chain.Run(t.OperationContext(), operations(t), framework.LoggerWithPrefix(t.DebugLogger(), "["+chain.Name+"] "))
	for _, e := range report.CleanupErrors {
		t.Debug("cleanup failed: %s", e)
	}
	if report.Failure != nil {
		t.Errorf("%s", report.Failure)
	}
	for _, m := range report.Mismatches {
		t.Errorf("%s", m)
	}
	if !report.OK() {
		t.FailNow()
	}
	return report
}

// requireStatus asserts that err is a RequestError with the given HTTP status.
func requireStatus(t *geotest.T, err error, status int) *geoclient.RequestError {
	t.Helper()
	require.Error(t, err)
	var re *geoclient.RequestError
	require.True(t, errors.As(err, &re), "expected a request error, got %T: %s", err, err)
	require.Equal(t, status, re.Status, "unexpected status for %s: %s", re.Operation, re.Message)
	return re
}

// createList creates a list with the fixture contents. Lists cannot be deleted, so there is no
// cleanup.
func createList(t *geotest.T) servicedef.EntityRef {
	t.Helper()
	c := requireContext(t)
	list, err := scenario.CreateContainer(t.OperationContext(), operations(t), c.fixtures.ListParams(""))
	require.NoError(t, err)
	return list
}

// deleteLater deletes points when the test scope exits, ignoring failures.
func deleteLater(t *geotest.T, ops geoclient.Operations, points ...servicedef.EntityRef) {
	t.Defer(func() {
		for _, p := range points {
			if err := ops.DeletePoint(context.Background(), p); err != nil {
				t.Debug("could not delete point %s: %s", p, err)
			}
		}
	})
}

// pointCollector is a fan-out observer that remembers every created point.
type pointCollector struct {
	lock   sync.Mutex
	points []servicedef.EntityRef
}

func (c *pointCollector) OperationFinished(string, time.Duration, error) {}

func (c *pointCollector) SequenceFinished(error) {}

func (c *pointCollector) PointCreated(point servicedef.EntityRef) {
	c.lock.Lock()
	c.points = append(c.points, point)
	c.lock.Unlock()
}

func (c *pointCollector) Points() []servicedef.EntityRef {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]servicedef.EntityRef(nil), c.points...)
}
