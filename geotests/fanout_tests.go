package geotests

import (
	"context"
	"math/rand"

	"github.com/OpenZilia/parsemap-test-harness/framework/geotest"
	m "github.com/OpenZilia/parsemap-test-harness/framework/matchers"
	"github.com/OpenZilia/parsemap-test-harness/scenario"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doFanOutTests(t *geotest.T) {
	t.Run("add to list", doFanOutAddToListTest)
	t.Run("zero count issues nothing", doFanOutZeroCountTest)
}

func doFanOutAddToListTest(t *geotest.T) {
	c := requireContext(t)
	ops := operations(t)
	list := createList(t)
	collector := &pointCollector{}
	region := c.fixtures.AddToList.Region
	pointRng := rand.New(rand.NewSource(c.rng.Int63())) //nolint:gosec
	metaRng := rand.New(rand.NewSource(c.rng.Int63()))  //nolint:gosec

	dispatch := scenario.FanOut{
		Count:     c.options.FanOutCount,
		Container: list,
		Generate:  scenario.BoundingBox(pointRng, c.fixtures.PointParams(region.Latitude, region.Longitude), region),
		Meta:      c.fixtures.PointMetaGenerator(metaRng),
		Observer:  collector,
		Logger:    t.DebugLogger(),
	}.Dispatch(t.OperationContext(), ops)
	assert.Equal(t, c.options.FanOutCount, dispatch.Dispatched())

	summary := dispatch.Wait()
	deleteLater(t, ops, collector.Points()...)
	t.Debug("fan-out of %d sequences finished in %s", summary.Dispatched, summary.Duration)
	require.NoError(t, summary.FirstError)
	assert.Equal(t, c.options.FanOutCount, summary.Succeeded)
	assert.Len(t, collector.Points(), c.options.FanOutCount)

	views, err := ops.QueryListPoints(t.OperationContext(), list, pointQuery(t))
	require.NoError(t, err)
	m.AssertThat(t, views, m.EveryItem(m.AllOf(
		isOneOfPoints(collector.Points()),
		isPointWithin(region),
	)))
}

func doFanOutZeroCountTest(t *geotest.T) {
	collector := &pointCollector{}
	summary := scenario.FanOut{
		Count:    0,
		Generate: func(int) servicedef.PointParams { return servicedef.PointParams{} },
		Observer: collector,
	}.Dispatch(context.Background(), operations(t)).Wait()
	assert.Equal(t, scenario.Summary{Duration: summary.Duration}, summary)
	assert.Len(t, collector.Points(), 0)
}
