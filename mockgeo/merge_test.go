package mockgeo

import (
	"testing"

	"github.com/OpenZilia/parsemap-test-harness/framework/helpers"

	"github.com/stretchr/testify/assert"
)

func TestUnionMerge(t *testing.T) {
	for _, tc := range []struct{ name, existing, incoming, expected string }{
		{"disjoint keys", `{"a":1}`, `{"b":2}`, `{"a":1,"b":2}`},
		{"incoming wins", `{"a":1,"b":1}`, `{"b":2}`, `{"a":1,"b":2}`},
		{"nested values are replaced", `{"a":{"x":1}}`, `{"a":{"y":2}}`, `{"a":{"y":2}}`},
		{"keys needing escapes", `{"a.b":1}`, `{"c*d":2,"a.b":3}`, `{"a.b":3,"c*d":2}`},
		{"existing not an object", `[1]`, `{"a":1}`, `{"a":1}`},
		{"incoming not an object", `{"a":1}`, `"x"`, `"x"`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			helpers.AssertJSONEqual(t, tc.expected, UnionMerge(tc.existing, tc.incoming))
		})
	}
}

func TestReplaceMerge(t *testing.T) {
	assert.Equal(t, `{"b":2}`, ReplaceMerge(`{"a":1}`, `{"b":2}`))
}
