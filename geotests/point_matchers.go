package geotests

import (
	m "github.com/OpenZilia/parsemap-test-harness/framework/matchers"
	"github.com/OpenZilia/parsemap-test-harness/scenario"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

// coordinateTolerance allows for a service that stores coordinates as single-precision floats.
const coordinateTolerance = 1e-5

func pointProperty(name string, get func(servicedef.PointView) interface{}) m.MatcherTransform {
	return m.Transform(name, func(value interface{}) interface{} {
		return get(value.(servicedef.PointView))
	}).EnsureInputValueType(servicedef.PointView{}).WithInputValueDescription(describePointView)
}

func describePointView(value interface{}) string {
	view, ok := value.(servicedef.PointView)
	if !ok {
		return m.DefaultDescription(value)
	}
	if view.Raw.IsDefined() {
		return view.Raw.JSONString()
	}
	return m.JSONDescription(view)
}

func pointIdentifier() m.MatcherTransform {
	return pointProperty("identifier", func(v servicedef.PointView) interface{} { return v.Identifier })
}

func pointLatitude() m.MatcherTransform {
	return pointProperty("latitude", func(v servicedef.PointView) interface{} { return v.Latitude })
}

func pointLongitude() m.MatcherTransform {
	return pointProperty("longitude", func(v servicedef.PointView) interface{} { return v.Longitude })
}

func isPoint(point servicedef.EntityRef) m.Matcher {
	return pointIdentifier().Should(m.Equal(point.String()))
}

// isOneOfPoints passes a point view whose identifier is any of points.
func isOneOfPoints(points []servicedef.EntityRef) m.Matcher {
	each := make([]m.Matcher, 0, len(points))
	for _, p := range points {
		each = append(each, isPoint(p))
	}
	return m.AnyOf(each...)
}

func isPointAt(latitude, longitude float64) m.Matcher {
	return m.AllOf(
		pointLatitude().Should(m.Near(latitude, coordinateTolerance)),
		pointLongitude().Should(m.Near(longitude, coordinateTolerance)),
	)
}

func isPointWithin(region scenario.Region) m.Matcher {
	return m.AllOf(
		pointLatitude().Should(m.Near(region.Latitude, region.Delta+coordinateTolerance)),
		pointLongitude().Should(m.Near(region.Longitude, region.Delta+coordinateTolerance)),
	)
}

// arePoints passes a query result holding exactly the given points, in any order.
func arePoints(points ...servicedef.EntityRef) m.Matcher {
	each := make([]m.Matcher, 0, len(points))
	for _, p := range points {
		each = append(each, isPoint(p))
	}
	return m.ItemsInAnyOrder(each...)
}
