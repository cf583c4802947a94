package matchers

import (
	"fmt"
	"math"
	"reflect"
)

// Equal passes values that are reflect.DeepEqual to expectedValue.
func Equal(expectedValue interface{}) Matcher {
	return New(
		func(value interface{}) bool {
			return reflect.DeepEqual(value, expectedValue)
		},
		func(_ interface{}, describe DescribeValueFunc) string {
			return "equal to " + describe(expectedValue)
		},
	)
}

// Near passes float64 values within tolerance of expectedValue. Coordinates use it, since a
// service may store them with less precision than it was given.
func Near(expectedValue, tolerance float64) Matcher {
	return New(
		func(value interface{}) bool {
			return math.Abs(value.(float64)-expectedValue) <= tolerance
		},
		func(interface{}, DescribeValueFunc) string {
			return fmt.Sprintf("within %g of %g", tolerance, expectedValue)
		},
	).EnsureType(float64(0))
}
