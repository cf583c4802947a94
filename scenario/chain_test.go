package scenario

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/framework/matchers"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/mockgeo"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

const (
	listRef  Ref = "list"
	pointRef Ref = "point"
	metaRef  Ref = "pointMeta"
)

var (
	testLatitude  = 48.48266193
	testLongitude = 2.409832523
)

func literalChain() Chain {
	return Chain{
		Name: "list points end to end",
		Steps: []Step{
			CreateList(listRef, func(*State) servicedef.ListParams {
				return servicedef.ListParams{Name: "Test list"}
			}),
			CreatePoint(pointRef, func(*State) servicedef.PointParams {
				return servicedef.PointParams{
					Latitude: testLatitude, Longitude: testLongitude, Provider: "test", ProviderID: "testproviderid42",
				}
			}),
			AttachPointToList(listRef, pointRef),
			SetPointMeta(metaRef, func(s *State) servicedef.PointMetaParams {
				return servicedef.PointMetaParams{
					Point: s.Get(pointRef), List: s.Get(listRef), UID: "infos", Action: servicedef.MetaMerge,
					Content: ldvalue.ObjectBuild().SetInt("price", 500000).Build(),
				}
			}),
			QueryListPoints(listRef, servicedef.PointsQuery{Geohash: "5", Limit: ldvalue.NewOptionalInt(50)}).
				Expect(func(s *State) interface{} {
					return []interface{}{
						matchers.ObjectIncluding(map[string]interface{}{
							"identifier": s.Get(pointRef).String(),
							"latitude":   testLatitude,
							"longitude":  testLongitude,
							"metas":      []interface{}{s.ExpectedMeta(metaRef)},
						}),
					}
				}),
		},
		Teardown: []Step{DeletePoint(pointRef)},
	}
}

func TestLiteralChainSucceeds(t *testing.T) {
	store := mockgeo.NewStore()
	logger := &framework.CapturingLogger{}

	report := literalChain().Run(ctx, mockgeo.NewClient(store), logger)

	assert.True(t, report.OK(), report.String())
	assert.Len(t, report.Completed, 6)
	assert.Len(t, report.CleanupErrors, 0)
	assert.Equal(t, 0, store.PointCount())
	assert.Contains(t, report.String(), "passed")
	assert.NotEmpty(t, logger.Output())
}

func TestRequestErrorStopsChainAndRunsTeardown(t *testing.T) {
	store := mockgeo.NewStore()
	store.FailNext(geoclient.OpAttachPointToList, http.StatusInternalServerError, "broken")

	report := literalChain().Run(ctx, mockgeo.NewClient(store), nil)

	require.NotNil(t, report.Failure)
	assert.Equal(t, geoclient.OpAttachPointToList, report.Failure.Operation)
	var re *geoclient.RequestError
	require.True(t, errors.As(report.Failure, &re))
	assert.Equal(t, http.StatusInternalServerError, re.Status)
	assert.Equal(t, 0, store.Calls(geoclient.OpSetPointMeta))
	assert.Equal(t, 0, store.Calls(geoclient.OpQueryListPoints))
	assert.Equal(t, 0, store.PointCount(), "teardown should delete the point")
	assert.False(t, report.OK())
	assert.Contains(t, report.String(), geoclient.OpAttachPointToList)
}

func TestFailureBeforePointExistsSkipsTeardown(t *testing.T) {
	store := mockgeo.NewStore()
	store.FailNext(geoclient.OpCreatePoint, http.StatusBadRequest, "nope")

	report := literalChain().Run(ctx, mockgeo.NewClient(store), nil)

	require.NotNil(t, report.Failure)
	assert.Equal(t, geoclient.OpCreatePoint, report.Failure.Operation)
	assert.Equal(t, 0, store.Calls(geoclient.OpDeletePoint))
	assert.Len(t, report.CleanupErrors, 0)
}

func TestMismatchIsReportedAndTeardownStillRuns(t *testing.T) {
	store := mockgeo.NewStore()
	chain := literalChain()
	chain.Steps[4] = chain.Steps[4].Expect(func(s *State) interface{} {
		return []interface{}{}
	})

	report := chain.Run(ctx, mockgeo.NewClient(store), nil)

	assert.Nil(t, report.Failure)
	require.Len(t, report.Mismatches, 1)
	m := report.Mismatches[0]
	assert.Equal(t, geoclient.OpQueryListPoints, m.Operation)
	assert.Equal(t, "$", m.Mismatch.Path)
	assert.Equal(t, "array of length 1", m.Mismatch.Actual)
	assert.False(t, report.OK())
	assert.Equal(t, 0, store.PointCount())
}

func TestCleanupErrorDoesNotFailReport(t *testing.T) {
	store := mockgeo.NewStore()
	store.FailNext(geoclient.OpDeletePoint, http.StatusServiceUnavailable, "later")

	report := literalChain().Run(ctx, mockgeo.NewClient(store), nil)

	assert.True(t, report.OK(), report.String())
	require.Len(t, report.CleanupErrors, 1)
	assert.Equal(t, geoclient.OpDeletePoint, report.CleanupErrors[0].Operation)
	assert.Equal(t, 1, store.PointCount())
}

func TestUnresolvedReferenceStopsChainBeforeInvoking(t *testing.T) {
	store := mockgeo.NewStore()
	chain := Chain{
		Name:  "bad",
		Steps: []Step{AttachPointToList("nolist", "nopoint")},
	}
	report := chain.Run(ctx, mockgeo.NewClient(store), nil)

	require.NotNil(t, report.Failure)
	var ure *UnresolvedReferenceError
	require.True(t, errors.As(report.Failure, &ure))
	assert.Equal(t, []Ref{"nolist", "nopoint"}, ure.Refs)
	assert.Equal(t, 0, store.Calls(geoclient.OpAttachPointToList))
}

func TestDefaultTeardownDeletesCreatedPoints(t *testing.T) {
	store := mockgeo.NewStore()
	chain := Chain{
		Name: "two points",
		Steps: []Step{
			CreatePoint("a", func(*State) servicedef.PointParams { return servicedef.PointParams{} }),
			CreatePoint("b", func(*State) servicedef.PointParams { return servicedef.PointParams{} }),
			DeletePoint("a"),
		},
	}
	report := chain.Run(ctx, mockgeo.NewClient(store), nil)

	assert.True(t, report.OK(), report.String())
	assert.Equal(t, 0, store.PointCount())
	assert.Equal(t, 2, store.Calls(geoclient.OpDeletePoint))
}

func TestStepTimeout(t *testing.T) {
	client := mockgeo.NewClient(mockgeo.NewStore())
	client.Hold = make(chan struct{})
	chain := Chain{
		Name:        "slow",
		Steps:       []Step{CreateList("l", func(*State) servicedef.ListParams { return servicedef.ListParams{Name: "x"} })},
		StepTimeout: 20 * time.Millisecond,
	}
	report := chain.Run(ctx, client, nil)

	require.NotNil(t, report.Failure)
	assert.ErrorIs(t, report.Failure, context.DeadlineExceeded)
}

func TestCanceledContextStopsChainButNotTeardown(t *testing.T) {
	store := mockgeo.NewStore()
	canceledCtx, cancel := context.WithCancel(ctx)
	steps := literalChain().Steps
	chain := Chain{
		Name: "canceled",
		Steps: []Step{
			steps[0],
			steps[1],
			NewStep("cancel", "cancel",
				func(*State) struct{} { return struct{}{} },
				func(context.Context, geoclient.Operations, struct{}) (struct{}, error) {
					return struct{}{}, nil
				},
				func(*State, struct{}, struct{}) ldvalue.Value {
					cancel()
					return ldvalue.Null()
				},
			),
			steps[2],
		},
		Teardown: []Step{DeletePoint(pointRef)},
	}
	report := chain.Run(canceledCtx, mockgeo.NewClient(store), nil)

	require.NotNil(t, report.Failure)
	assert.ErrorIs(t, report.Failure, context.Canceled)
	assert.Equal(t, geoclient.OpAttachPointToList, report.Failure.Operation)
	assert.Equal(t, 0, store.PointCount())
}

func TestMergedMetadataExpectation(t *testing.T) {
	store := mockgeo.NewStore()
	write := func(as Ref, content string) Step {
		return SetPointMeta(as, func(s *State) servicedef.PointMetaParams {
			return servicedef.PointMetaParams{
				Point: s.Get(pointRef), List: s.Get(listRef), UID: "infos", Action: servicedef.MetaMerge,
				Content: ldvalue.Parse([]byte(content)),
			}
		})
	}
	steps := literalChain().Steps
	chain := Chain{
		Name: "merge",
		Steps: []Step{
			steps[0], steps[1], steps[2],
			write("first", `{"price":500000,"testKey":"testValue"}`),
			write("second", `{"testKey2":"testValue2"}`),
			QueryListPoints(listRef, servicedef.PointsQuery{Geohash: "5"}).Expect(func(s *State) interface{} {
				assert.JSONEq(t, `{"price":500000,"testKey":"testValue","testKey2":"testValue2"}`,
					s.MetaContent(s.Get(pointRef), s.Get(listRef), "infos").JSONString())
				return []interface{}{
					matchers.ObjectIncluding(map[string]interface{}{
						"metas": []interface{}{s.ExpectedMeta("second")},
					}),
				}
			}),
		},
	}
	report := chain.Run(ctx, mockgeo.NewClient(store), nil)
	assert.True(t, report.OK(), report.String())
}

func TestMergeModelMustMatchService(t *testing.T) {
	store := mockgeo.NewStore(mockgeo.WithMerge(mockgeo.ReplaceMerge))
	steps := literalChain().Steps
	second := SetPointMeta("again", func(s *State) servicedef.PointMetaParams {
		return servicedef.PointMetaParams{
			Point: s.Get(pointRef), List: s.Get(listRef), UID: "infos", Action: servicedef.MetaMerge,
			Content: ldvalue.ObjectBuild().SetString("testKey", "testValue").Build(),
		}
	})
	chain := Chain{
		Name:     "replace",
		Steps:    []Step{steps[0], steps[1], steps[2], steps[3], second, steps[4]},
		Teardown: []Step{DeletePoint(pointRef)},
	}

	report := chain.Run(ctx, mockgeo.NewClient(store), nil)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "$[0].metas[0].content.price", report.Mismatches[0].Mismatch.Path)

	chain.Merge = LastWriteWins
	report = chain.Run(ctx, mockgeo.NewClient(store), nil)
	assert.True(t, report.OK(), report.String())
}

func TestStateResults(t *testing.T) {
	var seen ldvalue.Value
	chain := Chain{
		Name: "results",
		Steps: []Step{
			CreateList(listRef, func(*State) servicedef.ListParams { return servicedef.ListParams{Name: "x"} }),
			NewStep("inspect", "inspect",
				func(s *State) ldvalue.Value { return s.Result("create list list") },
				func(_ context.Context, _ geoclient.Operations, v ldvalue.Value) (ldvalue.Value, error) { return v, nil },
				func(_ *State, _ ldvalue.Value, v ldvalue.Value) ldvalue.Value {
					seen = v
					return v
				},
			),
		},
	}
	report := chain.Run(ctx, mockgeo.NewClient(mockgeo.NewStore()), nil)
	require.True(t, report.OK(), report.String())
	assert.Equal(t, ldvalue.StringType, seen.GetByKey("identifier").Type())
}
