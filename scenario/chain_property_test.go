package scenario

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/framework/matchers"
	"github.com/OpenZilia/parsemap-test-harness/geoclient"
	"github.com/OpenZilia/parsemap-test-harness/mockgeo"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// sequenceRecorder wraps Operations to record the order of calls and how many overlap.
type sequenceRecorder struct {
	geoclient.Operations
	delay     func() time.Duration
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	lock      sync.Mutex
	calls     []string
}

func (r *sequenceRecorder) around(op string, f func() error) error {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		m := r.maxFlight.Load()
		if n <= m || r.maxFlight.CompareAndSwap(m, n) {
			break
		}
	}
	r.lock.Lock()
	r.calls = append(r.calls, op)
	r.lock.Unlock()
	time.Sleep(r.delay())
	return f()
}

func (r *sequenceRecorder) CreateList(ctx context.Context, p servicedef.ListParams) (ref servicedef.EntityRef, err error) {
	err = r.around(geoclient.OpCreateList, func() error {
		ref, err = r.Operations.CreateList(ctx, p)
		return err
	})
	return
}

func (r *sequenceRecorder) CreatePoint(ctx context.Context, p servicedef.PointParams) (ref servicedef.EntityRef, err error) {
	err = r.around(geoclient.OpCreatePoint, func() error {
		ref, err = r.Operations.CreatePoint(ctx, p)
		return err
	})
	return
}

func (r *sequenceRecorder) AttachPointToList(ctx context.Context, list, point servicedef.EntityRef) error {
	return r.around(geoclient.OpAttachPointToList, func() error {
		return r.Operations.AttachPointToList(ctx, list, point)
	})
}

func (r *sequenceRecorder) QueryListPoints(
	ctx context.Context,
	list servicedef.EntityRef,
	q servicedef.PointsQuery,
) (views []servicedef.PointView, err error) {
	err = r.around(geoclient.OpQueryListPoints, func() error {
		views, err = r.Operations.QueryListPoints(ctx, list, q)
		return err
	})
	return
}

func (r *sequenceRecorder) DeletePoint(ctx context.Context, point servicedef.EntityRef) error {
	return r.around(geoclient.OpDeletePoint, func() error {
		return r.Operations.DeletePoint(ctx, point)
	})
}

func TestChainRunsStepsOneAtATimeInOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, 6).Draw(t, "points")
		delays := rapid.SliceOfN(rapid.IntRange(0, 500), 4, 4).Draw(t, "delaysMicros")

		var i atomic.Int32
		recorder := &sequenceRecorder{
			Operations: mockgeo.NewClient(mockgeo.NewStore()),
			delay: func() time.Duration {
				return time.Duration(delays[int(i.Add(1))%len(delays)]) * time.Microsecond
			},
		}

		steps := []Step{CreateList(listRef, func(*State) servicedef.ListParams {
			return servicedef.ListParams{Name: "ordered"}
		})}
		expected := []string{geoclient.OpCreateList}
		var identifiers []Ref
		for n := 0; n < count; n++ {
			ref := Ref(fmt.Sprintf("point%d", n))
			identifiers = append(identifiers, ref)
			steps = append(steps,
				CreatePoint(ref, func(*State) servicedef.PointParams {
					return servicedef.PointParams{Latitude: float64(n), Longitude: float64(-n)}
				}),
				AttachPointToList(listRef, ref),
			)
			expected = append(expected, geoclient.OpCreatePoint, geoclient.OpAttachPointToList)
		}
		steps = append(steps, QueryListPoints(listRef, servicedef.PointsQuery{Geohash: "u"}).
			Expect(func(s *State) interface{} {
				var views []interface{}
				for _, ref := range identifiers {
					views = append(views, matchers.ObjectIncluding(map[string]interface{}{
						"identifier": s.Get(ref).String(),
					}))
				}
				return views
			}))
		expected = append(expected, geoclient.OpQueryListPoints)
		for range identifiers {
			expected = append(expected, geoclient.OpDeletePoint)
		}

		report := Chain{Name: "ordering", Steps: steps}.Run(ctx, recorder, nil)

		require.True(t, report.OK(), report.String())
		assert.Equal(t, expected, recorder.calls)
		assert.Equal(t, int32(1), recorder.maxFlight.Load())
	})
}
