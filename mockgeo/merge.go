package mockgeo

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// MergeFunc combines the stored content of a metadata record with the content of a new write
// that uses the "merge" action. Both are JSON documents encoded as strings.
type MergeFunc func(existing, incoming string) string

// UnionMerge returns the union of the top-level properties of both objects. A property present
// in both takes its value from incoming. If either document is not an object, incoming wins.
func UnionMerge(existing, incoming string) string {
	old, updates := gjson.Parse(existing), gjson.Parse(incoming)
	if !old.IsObject() || !updates.IsObject() {
		return incoming
	}
	result := old.Raw
	ok := true
	updates.ForEach(func(key, value gjson.Result) bool {
		var err error
		result, err = sjson.SetRaw(result, gjson.Escape(key.String()), value.Raw)
		ok = err == nil
		return ok
	})
	if !ok {
		return incoming
	}
	return result
}

// ReplaceMerge ignores the existing content.
func ReplaceMerge(_, incoming string) string {
	return incoming
}
