package helpers

import (
	"encoding/json"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/maps"
)

// AsJSONValue marshals value and returns the result as an ldvalue.Value. A value that cannot be
// marshaled becomes null.
func AsJSONValue(value interface{}) ldvalue.Value {
	data, err := json.Marshal(value)
	if err != nil {
		return ldvalue.Null()
	}
	return ldvalue.Parse(data)
}

// CanonicalizedJSONString renders value with the properties of every object in alphabetical
// order, so that two equal values always print the same way.
func CanonicalizedJSONString(value ldvalue.Value) string {
	var b strings.Builder
	writeCanonical(&b, value)
	return b.String()
}

func writeCanonical(b *strings.Builder, value ldvalue.Value) {
	switch value.Type() {
	case ldvalue.ArrayType:
		b.WriteByte('[')
		for i, item := range value.AsValueArray().AsSlice() {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	case ldvalue.ObjectType:
		fields := value.AsValueMap().AsMap()
		b.WriteByte('{')
		for i, k := range Sorted(maps.Keys(fields)) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(ldvalue.String(k).JSONString())
			b.WriteByte(':')
			writeCanonical(b, fields[k])
		}
		b.WriteByte('}')
	default:
		b.WriteString(value.JSONString())
	}
}
