package matchers

import (
	"fmt"
	"testing"
)

type point struct {
	Name     string
	Latitude float64
}

func latitude() MatcherTransform {
	return Transform("latitude", func(value interface{}) interface{} { return value.(point).Latitude })
}

func TestTransform(t *testing.T) {
	m := latitude().Should(Near(48.86, 0.01))
	assertPasses(t, point{"louvre", 48.861}, m)
	assertFails(t, point{"lyon", 45.76}, m, "expected: latitude within 0.01 of 48.86\nactual value was: {Name:lyon Latitude:45.76}")
}

func TestTransformEnsureInputValueType(t *testing.T) {
	m := latitude().EnsureInputValueType(point{}).Should(Near(48.86, 0.01))
	assertFails(t, 48.86, m, "expected: value of type matchers.point, was float64\nactual value was: 48.86")
}

func TestTransformInputValueDescription(t *testing.T) {
	m := latitude().
		WithInputValueDescription(func(v interface{}) string { return v.(point).Name }).
		Should(Near(48.86, 0.01))
	assertFails(t, point{"lyon", 45.76}, m, "expected: latitude within 0.01 of 48.86\nactual value was: lyon")
}

func TestTransformOutputValueDescription(t *testing.T) {
	name := Transform("name", func(value interface{}) interface{} { return value.(point).Name }).
		WithOutputValueDescription(func(v interface{}) string { return fmt.Sprintf("%q", v) })
	assertFails(t, point{"lyon", 45.76}, name.Should(Equal("louvre")),
		"expected: name equal to \"louvre\"\nactual value was: {Name:lyon Latitude:45.76}")
}

func TestUnnamedTransform(t *testing.T) {
	m := Transform("", nil).Should(Equal(1))
	assertPasses(t, 1, m)
	assertFails(t, 2, m, "expected: [unnamed transform] equal to 1\nactual value was: 2")
}
