package geotests

import (
	"errors"
	"fmt"

	"github.com/OpenZilia/parsemap-test-harness/data"
	"github.com/OpenZilia/parsemap-test-harness/framework/geotest"
	"github.com/OpenZilia/parsemap-test-harness/framework/matchers"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/scenario"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doMetadataTests(t *geotest.T) {
	t.Run("merge combines keys", doMetaMergeTest)
	t.Run("display replaces content", doMetaDisplayTest)
	t.Run("content values", doMetaContentValuesTests)
	t.Run("list metadata", doListMetaTest)
	t.Run("unknown point is rejected", doMetaUnknownPointTest)
}

// metaChain creates a list and an attached point, applies the writes, and queries the list
// expecting the point with the metadata resolved by expectRef.
func metaChain(t *geotest.T, name string, writes []scenario.Step, expectRef scenario.Ref) scenario.Chain {
	c := requireContext(t)
	point := fixturePoint(t)
	steps := []scenario.Step{
		scenario.CreateList(listRef, func(*scenario.State) servicedef.ListParams {
			return c.fixtures.ListParams("")
		}),
		scenario.CreatePoint(pointRef, func(*scenario.State) servicedef.PointParams { return point }),
		scenario.AttachPointToList(listRef, pointRef),
	}
	steps = append(steps, writes...)
	steps = append(steps, scenario.QueryListPoints(listRef, pointQuery(t)).Expect(func(s *scenario.State) interface{} {
		return []interface{}{expectedPoint(s, point, s.ExpectedMeta(expectRef))}
	}))
	return scenario.Chain{Name: name, Steps: steps}
}

func writeMeta(as scenario.Ref, uid string, action servicedef.MetaAction, content ldvalue.Value) scenario.Step {
	return scenario.SetPointMeta(as, func(s *scenario.State) servicedef.PointMetaParams {
		return servicedef.PointMetaParams{
			Point: s.Get(pointRef), List: s.Get(listRef), UID: uid, Action: action, Content: content,
		}
	})
}

func doMetaMergeTest(t *geotest.T) {
	meta := requireContext(t).fixtures.PointMeta
	content := meta.Content.AsValueMap()
	var first, second []string
	for i, k := range content.Keys(nil) {
		if i%2 == 0 {
			first = append(first, k)
		} else {
			second = append(second, k)
		}
	}
	subset := func(keys []string) ldvalue.Value {
		b := ldvalue.ObjectBuild()
		for _, k := range keys {
			b.Set(k, content.Get(k))
		}
		return b.Build()
	}

	report := runChain(t, metaChain(t, "merge", []scenario.Step{
		writeMeta("first", meta.UID, servicedef.MetaMerge, subset(first)),
		writeMeta("second", meta.UID, servicedef.MetaMerge, subset(second)),
	}, "second"))
	assert.NotEmpty(t, report.Completed)
}

func doMetaDisplayTest(t *geotest.T) {
	runChain(t, metaChain(t, "display", []scenario.Step{
		writeMeta("first", "display uid", servicedef.MetaDisplay,
			ldvalue.ObjectBuild().SetString("testKey", "testValue").Build()),
		writeMeta("second", "display uid", servicedef.MetaDisplay,
			ldvalue.ObjectBuild().SetString("testKey2", "testValue2").Build()),
	}, "second"))
}

func doMetaContentValuesTests(t *geotest.T) {
	for _, value := range data.MetaContentValues() {
		t.Run(fmt.Sprintf("%s %s", value.Type(), value.JSONString()), func(t *geotest.T) {
			runChain(t, metaChain(t, "content value", []scenario.Step{
				writeMeta(pointMetaRef, "value", servicedef.MetaDisplay, value),
			}, pointMetaRef))
		})
	}
}

func doListMetaTest(t *geotest.T) {
	c := requireContext(t)
	ops := operations(t)
	list := createList(t)

	params := c.fixtures.ListMetaParams(list)
	meta, err := ops.SetListMeta(t.OperationContext(), params)
	require.NoError(t, err)
	assert.True(t, meta.IsDefined())

	again, err := ops.SetListMeta(t.OperationContext(), params)
	require.NoError(t, err)
	assert.True(t, again.IsDefined())

	points, err := ops.QueryListPoints(t.OperationContext(), list, pointQuery(t))
	require.NoError(t, err)
	matchers.RequireThat(t, servicedef.RawPointViews(points), matchers.JSONShape([]interface{}{}))
}

func doMetaUnknownPointTest(t *geotest.T) {
	list := createList(t)
	_, err := operations(t).SetPointMeta(t.OperationContext(), servicedef.PointMetaParams{
		Point: "000000000000000000000000", List: list, UID: "infos", Action: servicedef.MetaMerge,
		Content: ldvalue.ObjectBuild().SetInt("price", 1).Build(),
	})
	var re *geoclient.RequestError
	require.True(t, errors.As(err, &re), "expected a request error, got %T", err)
	assert.GreaterOrEqual(t, re.Status, 400)
	assert.Less(t, re.Status, 500)
}
