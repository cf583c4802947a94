package geotests

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenZilia/parsemap-test-harness/framework/geotest"
	"github.com/OpenZilia/parsemap-test-harness/framework/harness"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/mockgeo"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

func runSuite(t *testing.T, store *mockgeo.Store, filter geotest.Filter) geotest.Results {
	var results geotest.Results
	service := mockgeo.NewService(store, servicedef.DefaultAppKey, nil)
	httphelpers.WithServer(service, func(server *httptest.Server) {
		h, err := harness.NewTestHarness(harness.Config{BaseURL: server.URL, StatusQueryTimeout: time.Second}, nil, nil)
		require.NoError(t, err)
		defer h.Close() //nolint:errcheck
		results = RunGeoTestSuite(h, filter, nil, SuiteOptions{OperationTimeout: 10 * time.Second, Seed: 1})
	})
	return results
}

func describeFailures(results geotest.Results) string {
	var lines []string
	for _, f := range results.Failures {
		for _, e := range f.Errors {
			lines = append(lines, f.TestID.String()+": "+e.Error())
		}
	}
	return strings.Join(lines, "\n")
}

func TestSuitePassesAgainstFakeService(t *testing.T) {
	store := mockgeo.NewStore()
	results := runSuite(t, store, nil)

	require.True(t, results.OK(), describeFailures(results))
	assert.NotEmpty(t, results.Tests)
	assert.Equal(t, 0, store.PointCount(), "every created point should have been deleted")
}

func TestSuiteReportsServiceFailure(t *testing.T) {
	store := mockgeo.NewStore()
	store.FailNext(geoclient.OpCreatePoint, http.StatusInternalServerError, "database is down")
	filter := geotest.FilterFunc(func(id geotest.TestID) bool {
		return len(id) < 1 || id[0] == "chains"
	})

	results := runSuite(t, store, filter)

	require.False(t, results.OK())
	require.Len(t, results.Failures, 1)
	failure := results.Failures[0]
	assert.Equal(t, geotest.TestID{"chains", "list points end to end"}, failure.TestID)
	assert.Contains(t, describeFailures(results), "database is down")
}

func TestSuiteReportsMismatch(t *testing.T) {
	store := mockgeo.NewStore(mockgeo.WithMerge(mockgeo.ReplaceMerge))
	filter := geotest.FilterFunc(func(id geotest.TestID) bool {
		return len(id) < 2 || (id[0] == "metadata" && id[1] == "merge combines keys")
	})

	results := runSuite(t, store, filter)

	require.Len(t, results.Failures, 1)
	assert.Contains(t, describeFailures(results), "$[0].metas[0].content")
}
