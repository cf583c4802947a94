package matchers

import "testing"

func TestItemsInAnyOrder(t *testing.T) {
	slice := []string{"y", "z", "x"}

	assertPasses(t, slice, ItemsInAnyOrder(Equal("y"), Equal("z"), Equal("x")))
	assertPasses(t, slice, ItemsInAnyOrder(Equal("x"), Equal("y"), Equal("z")))

	assertFails(t, slice, ItemsInAnyOrder(Equal("x"), Equal("y")),
		"expected: should have 2 item(s) (had 3)\nactual value was: [y z x]")

	assertFails(t, slice, ItemsInAnyOrder(Equal("x"), Equal("a"), Equal("z")),
		"expected: contains in any order: (equal to x), (equal to a), (equal to z)"+
			"\nactual value was: [y z x]")

	assertFails(t, "x", ItemsInAnyOrder(Equal("x")), "expected: a slice\nactual value was: x")
}

func TestItemsInAnyOrderPairsEachItemOnce(t *testing.T) {
	slice := []string{"y", "z", "x"}
	assertFails(t, slice, ItemsInAnyOrder(Equal("x"), Equal("y"), Equal("x")),
		"expected: contains in any order: (equal to x), (equal to y), (equal to x)"+
			"\nactual value was: [y z x]")

	// the first matcher accepts both items, so it has to give up "a" to the second one
	either := AnyOf(Equal("a"), Equal("b"))
	assertPasses(t, []string{"a", "b"}, ItemsInAnyOrder(either, Equal("a")))
}

func TestSliceIncludes(t *testing.T) {
	assertPasses(t, []int{1, 2, 3}, SliceIncludes(Equal(2)))
	assertFails(t, []int{1, 3}, SliceIncludes(Equal(2)), "expected: some item equal to 2\nactual value was: [1 3]")
	assertFails(t, []int{}, SliceIncludes(Equal(2)), "expected: a non-empty slice\nactual value was: []")
	assertPasses(t, []int{1, 3}, Not(SliceIncludes(Equal(2))))
}

func TestEveryItem(t *testing.T) {
	assertPasses(t, []int{2, 2}, EveryItem(Equal(2)))
	assertPasses(t, []int{}, EveryItem(Equal(2)))
	assertFails(t, []int{2, 3}, EveryItem(Equal(2)),
		"expected: every item equal to 2, but item 1 was 3\nactual value was: [2 3]")
	assertFails(t, 2, EveryItem(Equal(2)), "expected: a slice\nactual value was: 2")
}
