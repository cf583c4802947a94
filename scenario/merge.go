package scenario

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// MergeModel computes the content a service is expected to hold after a "merge" write, from
// the content it held before and the written content. It must match whatever the service
// under test does.
type MergeModel func(existing, incoming ldvalue.Value) ldvalue.Value

// UnionOfKeys is the default MergeModel. If both values are objects, the result has the keys of
// both, and a key present in both takes the incoming value. Otherwise the incoming value wins.
func UnionOfKeys(existing, incoming ldvalue.Value) ldvalue.Value {
	if existing.Type() != ldvalue.ObjectType || incoming.Type() != ldvalue.ObjectType {
		return incoming
	}
	b := ldvalue.ObjectBuildWithCapacity(existing.Count() + incoming.Count())
	for k, v := range existing.AsValueMap().AsMap() {
		b.Set(k, v)
	}
	for k, v := range incoming.AsValueMap().AsMap() {
		b.Set(k, v)
	}
	return b.Build()
}

// LastWriteWins is a MergeModel for a service that treats "merge" like "display".
func LastWriteWins(_, incoming ldvalue.Value) ldvalue.Value {
	return incoming
}
