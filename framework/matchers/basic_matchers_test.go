package matchers

import "testing"

func TestEqual(t *testing.T) {
	assertPasses(t, 3, Equal(3))
	assertFails(t, 4, Equal(3), "expected: equal to 3\nactual value was: 4")

	assertPasses(t, map[string]interface{}{"a": []int{1, 2}},
		Equal(map[string]interface{}{"a": []int{1, 2}}))
}

func TestNear(t *testing.T) {
	assertPasses(t, 48.863787, Near(48.8638, 0.0001))
	assertPasses(t, -90.0, Near(-90, 0))
	assertFails(t, 48.9, Near(48.8638, 0.0001), "expected: within 0.0001 of 48.8638\nactual value was: 48.9")
	assertFails(t, "48.9", Near(48.8638, 0.0001), "expected: value of type float64, was string\nactual value was: 48.9")
}
