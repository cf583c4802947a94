package mockgeo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/framework/matchers"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAppKey = "test-key"

var ctx = context.Background()

func withHTTPClient(t *testing.T, store *Store, action func(*geoclient.HTTPClient), options ...geoclient.HTTPClientOption) {
	service := NewService(store, testAppKey, nil)
	httphelpers.WithServer(service, func(server *httptest.Server) {
		client, err := geoclient.NewHTTPClient(server.URL,
			append([]geoclient.HTTPClientOption{geoclient.WithAppKey(testAppKey)}, options...)...)
		require.NoError(t, err)
		defer client.Close() //nolint:errcheck
		action(client)
	})
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var re *geoclient.RequestError
	require.True(t, errors.As(err, &re), "expected a RequestError, got %v", err)
	return re.Status
}

func TestServiceRejectsWrongAppKey(t *testing.T) {
	withHTTPClient(t, NewStore(), func(c *geoclient.HTTPClient) {
		_, err := c.CreateList(ctx, servicedef.ListParams{Name: "x"})
		var re *geoclient.RequestError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, http.StatusUnauthorized, re.Status)
		assert.Equal(t, servicedef.MissingAppKeyMessage, re.Message)
	}, geoclient.WithAppKey("wrong"))
}

func TestServiceEndToEnd(t *testing.T) {
	store := NewStore()
	withHTTPClient(t, store, func(c *geoclient.HTTPClient) {
		list, err := c.CreateList(ctx, servicedef.ListParams{Name: "Test list"})
		require.NoError(t, err)
		point, err := c.CreatePoint(ctx, servicedef.PointParams{
			Latitude:   48.48266193,
			Longitude:  2.409832523,
			Provider:   "test",
			ProviderID: "testproviderid42",
		})
		require.NoError(t, err)
		require.NoError(t, c.AttachPointToList(ctx, list, point))

		meta, err := c.SetPointMeta(ctx, servicedef.PointMetaParams{
			Point: point, List: list, UID: "infos", Action: servicedef.MetaMerge,
			Content: ldvalue.ObjectBuild().SetInt("price", 500000).Build(),
		})
		require.NoError(t, err)
		_, err = c.SetListMeta(ctx, servicedef.ListMetaParams{
			List: list, UID: "testuid list", Action: servicedef.MetaDisplay,
			Content: ldvalue.ObjectBuild().SetString("testKey", "testValue list").Build(),
		})
		require.NoError(t, err)

		views, err := c.QueryListPoints(ctx, list, servicedef.PointsQuery{
			Geohash: "5", Limit: ldvalue.NewOptionalInt(50),
		})
		require.NoError(t, err)
		expected := []interface{}{
			matchers.ObjectIncluding(map[string]interface{}{
				"identifier":  point.String(),
				"latitude":    48.48266193,
				"longitude":   2.409832523,
				"provider":    "test",
				"provider_id": "testproviderid42",
				"metas": []interface{}{
					map[string]interface{}{
						"identifier": meta.String(),
						"uid":        "infos",
						"action":     "merge",
						"content":    map[string]interface{}{"price": 500000},
						"list":       list.String(),
					},
				},
			}),
		}
		ok, mismatch := matchers.MatchShape(matchers.ShapeOf(expected), servicedef.RawPointViews(views))
		assert.True(t, ok, "%s", mismatch)

		require.NoError(t, c.DeletePoint(ctx, point))
		assert.False(t, store.HasPoint(point))
		assert.Equal(t, http.StatusNotFound, statusOf(t, c.DeletePoint(ctx, point)))
	})
}

func TestServiceMergesMetadataWrites(t *testing.T) {
	store := NewStore()
	withHTTPClient(t, store, func(c *geoclient.HTTPClient) {
		list, _ := c.CreateList(ctx, servicedef.ListParams{Name: "l"})
		point, _ := c.CreatePoint(ctx, servicedef.PointParams{})
		require.NoError(t, c.AttachPointToList(ctx, list, point))

		for _, content := range []string{`{"price":500000,"testKey":"a"}`, `{"testKey":"b","testKey2":"c"}`} {
			_, err := c.SetPointMeta(ctx, servicedef.PointMetaParams{
				Point: point, List: list, UID: "infos", Action: servicedef.MetaMerge,
				Content: ldvalue.Parse([]byte(content)),
			})
			require.NoError(t, err)
		}

		views, err := c.QueryListPoints(ctx, list, servicedef.PointsQuery{Geohash: "5"})
		require.NoError(t, err)
		require.Len(t, views, 1)
		require.Len(t, views[0].Metas, 1)
		assert.JSONEq(t, `{"price":500000,"testKey":"b","testKey2":"c"}`, views[0].Metas[0].Content)

		_, err = c.SetPointMeta(ctx, servicedef.PointMetaParams{
			Point: point, List: list, UID: "infos", Action: servicedef.MetaDisplay,
			Content: ldvalue.ObjectBuild().SetBool("replaced", true).Build(),
		})
		require.NoError(t, err)
		views, _ = c.QueryListPoints(ctx, list, servicedef.PointsQuery{Geohash: "5"})
		assert.JSONEq(t, `{"replaced":true}`, views[0].Metas[0].Content)
		assert.Equal(t, "display", views[0].Metas[0].Action)
	})
}

func TestServiceQueryLimitAndValidation(t *testing.T) {
	store := NewStore()
	withHTTPClient(t, store, func(c *geoclient.HTTPClient) {
		list, _ := c.CreateList(ctx, servicedef.ListParams{Name: "l"})
		for i := 0; i < servicedef.MaxQueryLimit+5; i++ {
			p, err := c.CreatePoint(ctx, servicedef.PointParams{Latitude: float64(i) / 10})
			require.NoError(t, err)
			require.NoError(t, c.AttachPointToList(ctx, list, p))
		}

		views, err := c.QueryListPoints(ctx, list, servicedef.PointsQuery{
			Geohash: "u", Limit: ldvalue.NewOptionalInt(1000),
		})
		require.NoError(t, err)
		assert.Len(t, views, servicedef.MaxQueryLimit)

		views, err = c.QueryListPoints(ctx, list, servicedef.PointsQuery{Geohash: "u", Limit: ldvalue.NewOptionalInt(3)})
		require.NoError(t, err)
		assert.Len(t, views, 3)

		views, err = c.QueryListPoints(ctx, "unknown", servicedef.PointsQuery{Geohash: "u"})
		require.NoError(t, err)
		assert.Len(t, views, 0)

		_, err = c.QueryListPoints(ctx, list, servicedef.PointsQuery{})
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	})
}

func TestServiceLastPointDatePaging(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store := NewStore(WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))
	withHTTPClient(t, store, func(c *geoclient.HTTPClient) {
		list, _ := c.CreateList(ctx, servicedef.ListParams{Name: "l"})
		for i := 0; i < 3; i++ {
			p, _ := c.CreatePoint(ctx, servicedef.PointParams{})
			require.NoError(t, c.AttachPointToList(ctx, list, p))
		}
		views, err := c.QueryListPoints(ctx, list, servicedef.PointsQuery{
			Geohash: "u", LastPointDate: base.Add(time.Second),
		})
		require.NoError(t, err)
		assert.Len(t, views, 2)
	})
}

func TestServiceReportsMissingEntities(t *testing.T) {
	withHTTPClient(t, NewStore(), func(c *geoclient.HTTPClient) {
		list, _ := c.CreateList(ctx, servicedef.ListParams{Name: "l"})
		assert.Equal(t, http.StatusNotFound, statusOf(t, c.AttachPointToList(ctx, list, "nope")))
		assert.Equal(t, http.StatusNotFound, statusOf(t, c.AttachPointToList(ctx, "nope", "nope")))

		_, err := c.SetPointMeta(ctx, servicedef.PointMetaParams{
			Point: "nope", UID: "infos", Action: servicedef.MetaMerge, Content: ldvalue.String("x"),
		})
		assert.Equal(t, http.StatusNotFound, statusOf(t, err))

		_, err = c.CreateList(ctx, servicedef.ListParams{})
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	})
}

func TestServiceFailNext(t *testing.T) {
	store := NewStore()
	store.FailNext(geoclient.OpCreatePoint, http.StatusServiceUnavailable, "try later")
	withHTTPClient(t, store, func(c *geoclient.HTTPClient) {
		_, err := c.CreatePoint(ctx, servicedef.PointParams{})
		var re *geoclient.RequestError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, http.StatusServiceUnavailable, re.Status)
		assert.Equal(t, "try later", re.Message)

		_, err = c.CreatePoint(ctx, servicedef.PointParams{})
		assert.NoError(t, err)
		assert.Equal(t, 2, store.Calls(geoclient.OpCreatePoint))
		assert.Equal(t, 1, store.PointCount())
	})
}

func TestServiceRejectsMalformedBody(t *testing.T) {
	service := NewService(NewStore(), "", nil)
	httphelpers.WithServer(service, func(server *httptest.Server) {
		resp, err := http.Post(server.URL+"/v2/point/", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
