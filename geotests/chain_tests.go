package geotests

import (
	"github.com/OpenZilia/parsemap-test-harness/framework/geotest"
	"github.com/OpenZilia/parsemap-test-harness/framework/matchers"
	"github.com/OpenZilia/parsemap-test-harness/scenario"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

const (
	listRef      scenario.Ref = "list"
	pointRef     scenario.Ref = "point"
	pointMetaRef scenario.Ref = "pointMeta"
	listMetaRef  scenario.Ref = "listMeta"
)

func doChainTests(t *geotest.T) {
	t.Run("list points end to end", doListPointsEndToEndTest)
	t.Run("point in two lists", doPointInTwoListsTest)
	t.Run("deleted point is not returned", doDeletedPointTest)
}

// pointQuery is the query that finds points created at the fixture region center.
func pointQuery(t *geotest.T) servicedef.PointsQuery {
	c := requireContext(t)
	return servicedef.PointsQuery{
		Geohash: c.fixtures.Query.Geohash,
		Limit:   ldvalue.NewOptionalInt(c.fixtures.Query.Limit),
	}
}

func fixturePoint(t *geotest.T) servicedef.PointParams {
	c := requireContext(t)
	region := c.fixtures.AddToList.Region
	return c.fixtures.PointParams(region.Latitude, region.Longitude)
}

// expectedPoint is the shape of a point created from fixturePoint, carrying the given metadata.
func expectedPoint(s *scenario.State, params servicedef.PointParams, metas ...interface{}) interface{} {
	if metas == nil {
		metas = []interface{}{}
	}
	return matchers.ObjectIncluding(map[string]interface{}{
		"identifier":  s.Get(pointRef).String(),
		"latitude":    params.Latitude,
		"longitude":   params.Longitude,
		"provider":    params.Provider,
		"provider_id": params.ProviderID,
		"metas":       metas,
	})
}

func doListPointsEndToEndTest(t *geotest.T) {
	c := requireContext(t)
	point := fixturePoint(t)
	pointMeta := c.fixtures.PointMeta
	content := c.fixtures.PointMetaContent(c.rng)

	runChain(t, scenario.Chain{
		Name: "list points end to end",
		Steps: []scenario.Step{
			scenario.CreateList(listRef, func(*scenario.State) servicedef.ListParams {
				return c.fixtures.ListParams("")
			}),
			scenario.CreatePoint(pointRef, func(*scenario.State) servicedef.PointParams { return point }),
			scenario.AttachPointToList(listRef, pointRef),
			scenario.SetPointMeta(pointMetaRef, func(s *scenario.State) servicedef.PointMetaParams {
				return servicedef.PointMetaParams{
					Point: s.Get(pointRef), List: s.Get(listRef),
					UID: pointMeta.UID, Action: pointMeta.Action, Content: content,
				}
			}),
			scenario.SetListMeta(listMetaRef, func(s *scenario.State) servicedef.ListMetaParams {
				return c.fixtures.ListMetaParams(s.Get(listRef))
			}),
			scenario.QueryListPoints(listRef, pointQuery(t)).Expect(func(s *scenario.State) interface{} {
				return []interface{}{expectedPoint(s, point, s.ExpectedMeta(pointMetaRef))}
			}),
		},
		Teardown: []scenario.Step{scenario.DeletePoint(pointRef)},
	})
}

func doPointInTwoListsTest(t *geotest.T) {
	c := requireContext(t)
	point := fixturePoint(t)
	const otherListRef scenario.Ref = "otherList"
	const otherMetaRef scenario.Ref = "otherMeta"

	metaIn := func(as, list scenario.Ref, key string) scenario.Step {
		return scenario.SetPointMeta(as, func(s *scenario.State) servicedef.PointMetaParams {
			return servicedef.PointMetaParams{
				Point: s.Get(pointRef), List: s.Get(list), UID: c.fixtures.PointMeta.UID,
				Action: servicedef.MetaMerge, Content: ldvalue.ObjectBuild().SetString(key, string(list)).Build(),
			}
		})
	}

	runChain(t, scenario.Chain{
		Name: "point in two lists",
		Steps: []scenario.Step{
			scenario.CreateList(listRef, func(*scenario.State) servicedef.ListParams {
				return c.fixtures.ListParams("")
			}),
			scenario.CreateList(otherListRef, func(*scenario.State) servicedef.ListParams {
				return c.fixtures.ListParams("Other list")
			}),
			scenario.CreatePoint(pointRef, func(*scenario.State) servicedef.PointParams { return point }),
			scenario.AttachPointToList(listRef, pointRef),
			scenario.AttachPointToList(otherListRef, pointRef),
			metaIn(pointMetaRef, listRef, "first"),
			metaIn(otherMetaRef, otherListRef, "second"),
			scenario.QueryListPoints(listRef, pointQuery(t)).Expect(func(s *scenario.State) interface{} {
				return []interface{}{expectedPoint(s, point, s.ExpectedMeta(pointMetaRef))}
			}),
			scenario.QueryListPoints(otherListRef, pointQuery(t)).Expect(func(s *scenario.State) interface{} {
				return []interface{}{expectedPoint(s, point, s.ExpectedMeta(otherMetaRef))}
			}).Named("query points of other list"),
		},
	})
}

func doDeletedPointTest(t *geotest.T) {
	c := requireContext(t)
	point := fixturePoint(t)

	runChain(t, scenario.Chain{
		Name: "deleted point",
		Steps: []scenario.Step{
			scenario.CreateList(listRef, func(*scenario.State) servicedef.ListParams {
				return c.fixtures.ListParams("")
			}),
			scenario.CreatePoint(pointRef, func(*scenario.State) servicedef.PointParams { return point }),
			scenario.AttachPointToList(listRef, pointRef),
			scenario.DeletePoint(pointRef),
			scenario.QueryListPoints(listRef, pointQuery(t)).Expect(func(*scenario.State) interface{} {
				return []interface{}{}
			}),
		},
	})
}
