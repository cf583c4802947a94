package geotests

import (
	"net/http"

	"github.com/OpenZilia/parsemap-test-harness/framework/geotest"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doAccessTests(t *geotest.T) {
	t.Run("wrong app key is rejected", doWrongAppKeyTest)
}

func doWrongAppKeyTest(t *geotest.T) {
	c := requireContext(t)
	client, err := geoclient.NewHTTPClient(c.harness.ServiceInfo().BaseURL, geoclient.WithAppKey("wrong key"))
	require.NoError(t, err)
	t.Defer(func() { _ = client.Close() })
	ops := geoclient.Logging(client, t.DebugLogger())

	_, err = ops.CreateList(t.OperationContext(), c.fixtures.ListParams(""))
	re := requireStatus(t, err, http.StatusUnauthorized)
	assert.Equal(t, servicedef.MissingAppKeyMessage, re.Message)

	_, err = ops.CreatePoint(t.OperationContext(), fixturePoint(t))
	requireStatus(t, err, http.StatusUnauthorized)
}
