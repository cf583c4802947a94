package scenario

import (
	"math"
	"math/rand"
	"sync"

	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

// Region is a box of half-width Delta degrees around a center.
type Region struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Delta     float64 `json:"delta"`
}

// lockedRand makes a *rand.Rand usable from the concurrent calls of a fan-out.
type lockedRand struct {
	rng  *rand.Rand
	lock sync.Mutex
}

func (r *lockedRand) uniform(low, high float64) float64 {
	r.lock.Lock()
	defer r.lock.Unlock()
	return low + r.rng.Float64()*(high-low)
}

// Globe returns a generator of points spread uniformly in latitude and longitude over the
// whole globe. All other fields are copied from template.
func Globe(rng *rand.Rand, template servicedef.PointParams) func(int) servicedef.PointParams {
	r := &lockedRand{rng: rng}
	return func(int) servicedef.PointParams {
		p := template
		p.Latitude = r.uniform(servicedef.MinLatitude, servicedef.MaxLatitude)
		p.Longitude = r.uniform(servicedef.MinLongitude, servicedef.MaxLongitude)
		return p
	}
}

// BoundingBox returns a generator of points within a region, clamped to valid coordinates.
// All other fields are copied from template.
func BoundingBox(rng *rand.Rand, template servicedef.PointParams, region Region) func(int) servicedef.PointParams {
	r := &lockedRand{rng: rng}
	delta := math.Abs(region.Delta)
	return func(int) servicedef.PointParams {
		p := template
		p.Latitude = clamp(r.uniform(region.Latitude-delta, region.Latitude+delta),
			servicedef.MinLatitude, servicedef.MaxLatitude)
		p.Longitude = clamp(r.uniform(region.Longitude-delta, region.Longitude+delta),
			servicedef.MinLongitude, servicedef.MaxLongitude)
		return p
	}
}

func clamp(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}
