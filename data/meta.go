package data

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/OpenZilia/parsemap-test-harness/scenario"
)

// PointMetaContent builds the content of one point metadata write: the fixture's fixed keys, one
// image picked at random, and a random street number.
func (f Fixtures) PointMetaContent(rng *rand.Rand) ldvalue.Value {
	b := ldvalue.ObjectBuild()
	for k, v := range f.PointMeta.Content.AsValueMap().AsMap() {
		b.Set(k, v)
	}
	if n := len(f.PointMeta.ImageURLs); n > 0 {
		image := ldvalue.ObjectBuild().
			Set("original", ldvalue.ObjectBuild().
				SetString("url", f.PointMeta.ImageURLs[rng.Intn(n)]).
				SetString("name", f.PointMeta.ImageName).
				SetString("__type", "File").
				Build()).
			Build()
		b.Set("images", ldvalue.ArrayOf(image))
	}
	if f.PointMeta.AddressFormat != "" {
		b.SetString("address", fmt.Sprintf(f.PointMeta.AddressFormat, rng.Intn(100)))
	}
	return b.Build()
}

// PointMetaGenerator returns a fan-out metadata function writing the fixture's point metadata
// with randomized content on every point. It is safe for concurrent use.
func (f Fixtures) PointMetaGenerator(rng *rand.Rand) func(int) *scenario.MetaSpec {
	var lock sync.Mutex
	return func(int) *scenario.MetaSpec {
		lock.Lock()
		content := f.PointMetaContent(rng)
		lock.Unlock()
		return &scenario.MetaSpec{UID: f.PointMeta.UID, Action: f.PointMeta.Action, Content: content}
	}
}
