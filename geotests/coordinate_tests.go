package geotests

import (
	"github.com/OpenZilia/parsemap-test-harness/data"
	"github.com/OpenZilia/parsemap-test-harness/framework/geotest"
	"github.com/OpenZilia/parsemap-test-harness/scenario"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doCoordinateTests(t *geotest.T) {
	t.Run("boundaries are accepted", doCoordinateBoundaryTests)
	t.Run("out of range is rejected before sending", doCoordinateOutOfRangeTests)
}

func doCoordinateBoundaryTests(t *geotest.T) {
	points, err := data.LoadBoundaryPoints()
	require.NoError(t, err)

	for _, p := range points {
		t.Run(p.Name, func(t *geotest.T) {
			c := requireContext(t)
			runChain(t, scenario.Chain{
				Name: "boundary " + p.Name,
				Steps: []scenario.Step{
					scenario.CreateList(listRef, func(*scenario.State) servicedef.ListParams {
						return c.fixtures.ListParams("")
					}),
					scenario.CreatePoint(pointRef, func(*scenario.State) servicedef.PointParams {
						return c.fixtures.PointParams(p.Latitude, p.Longitude)
					}),
					scenario.AttachPointToList(listRef, pointRef),
				},
			})
		})
	}
}

func doCoordinateOutOfRangeTests(t *geotest.T) {
	for _, coords := range [][2]float64{
		{servicedef.MaxLatitude + 0.5, 0},
		{servicedef.MinLatitude - 0.5, 0},
		{0, servicedef.MaxLongitude + 0.5},
		{0, servicedef.MinLongitude - 0.5},
	} {
		params := requireContext(t).fixtures.PointParams(coords[0], coords[1])
		assert.Error(t, params.Validate())

		_, err := operations(t).CreatePoint(t.OperationContext(), params)
		re := requireStatus(t, err, 0)
		assert.NotEmpty(t, re.Message)
	}
}
