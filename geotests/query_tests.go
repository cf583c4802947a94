package geotests

import (
	"net/http"
	"strings"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/framework/geotest"
	m "github.com/OpenZilia/parsemap-test-harness/framework/matchers"
	"github.com/OpenZilia/parsemap-test-harness/framework/helpers"
	"github.com/OpenZilia/parsemap-test-harness/scenario"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doQueryTests(t *geotest.T) {
	t.Run("limit is capped", doQueryLimitCapTest)
	t.Run("geohash is required", doQueryMissingGeohashTest)
	t.Run("geohash too long is rejected before sending", doQueryLongGeohashTest)
	t.Run("paging by creation date", doQueryPagingTest)
	t.Run("unknown list has no points", doQueryUnknownListTest)
}

func doQueryLimitCapTest(t *geotest.T) {
	ops := operations(t)
	list := createList(t)
	point := fixturePoint(t)
	collector := &pointCollector{}

	summary := scenario.FanOut{
		Count:            servicedef.MaxQueryLimit + 1,
		Container:        list,
		Generate:         func(int) servicedef.PointParams { return point },
		ConcurrencyLimit: 10,
		OnError:          scenario.AbortOnError,
		Observer:         collector,
	}.Dispatch(t.OperationContext(), ops).Wait()
	deleteLater(t, ops, collector.Points()...)
	require.NoError(t, summary.FirstError)

	query := pointQuery(t)
	query.Limit = ldvalue.NewOptionalInt(servicedef.MaxQueryLimit * 10)
	var views []servicedef.PointView
	// attachments may take a moment to become visible to queries
	helpers.RequireEventually(t, func() bool {
		var err error
		views, err = ops.QueryListPoints(t.OperationContext(), list, query)
		return err == nil && len(views) >= servicedef.MaxQueryLimit
	}, time.Second*5, time.Millisecond*100, "query never returned %d points", servicedef.MaxQueryLimit)
	assert.Len(t, views, servicedef.MaxQueryLimit)
	m.AssertThat(t, views, m.EveryItem(m.AllOf(
		isOneOfPoints(collector.Points()),
		isPointAt(point.Latitude, point.Longitude),
	)))

	query.Limit = ldvalue.NewOptionalInt(5)
	views, err := ops.QueryListPoints(t.OperationContext(), list, query)
	require.NoError(t, err)
	assert.Len(t, views, 5)
}

func doQueryMissingGeohashTest(t *geotest.T) {
	list := createList(t)
	_, err := operations(t).QueryListPoints(t.OperationContext(), list, servicedef.PointsQuery{})
	requireStatus(t, err, http.StatusBadRequest)
}

func doQueryLongGeohashTest(t *geotest.T) {
	list := createList(t)
	_, err := operations(t).QueryListPoints(t.OperationContext(), list, servicedef.PointsQuery{
		Geohash: strings.Repeat("u", servicedef.MaxGeohashLength+1),
	})
	requireStatus(t, err, 0)
}

func doQueryPagingTest(t *geotest.T) {
	ops := operations(t)
	list := createList(t)
	point := fixturePoint(t)

	var created []servicedef.EntityRef
	for i := 0; i < 2; i++ {
		p, err := ops.CreatePoint(t.OperationContext(), point)
		require.NoError(t, err)
		deleteLater(t, ops, p)
		require.NoError(t, ops.AttachPointToList(t.OperationContext(), list, p))
		created = append(created, p)
		time.Sleep(time.Millisecond * 10)
	}

	views, err := ops.QueryListPoints(t.OperationContext(), list, pointQuery(t))
	require.NoError(t, err)
	m.RequireThat(t, views, arePoints(created...))
	var firstDate time.Time
	for _, v := range views {
		if v.Identifier == created[0].String() {
			firstDate, err = time.Parse(time.RFC3339Nano, v.DateCreated)
			require.NoError(t, err)
		}
	}
	require.False(t, firstDate.IsZero(), "first point was not returned")

	query := pointQuery(t)
	query.LastPointDate = firstDate
	views, err = ops.QueryListPoints(t.OperationContext(), list, query)
	require.NoError(t, err)
	m.AssertThat(t, views, arePoints(created[1]))
}

func doQueryUnknownListTest(t *geotest.T) {
	views, err := operations(t).QueryListPoints(t.OperationContext(), "000000000000000000000000", pointQuery(t))
	if err != nil {
		requireStatus(t, err, 404)
		return
	}
	assert.Len(t, views, 0)
}
