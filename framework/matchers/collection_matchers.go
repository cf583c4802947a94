package matchers

import (
	"fmt"
	"reflect"
)

func sliceItems(value interface{}) ([]interface{}, bool) {
	v := reflect.ValueOf(value)
	if !v.IsValid() || v.Kind() != reflect.Slice {
		return nil, false
	}
	items := make([]interface{}, v.Len())
	for i := range items {
		items[i] = v.Index(i).Interface()
	}
	return items, true
}

// ItemsInAnyOrder passes a slice with exactly one item for each of the matchers, in any order.
// Each item can satisfy only one matcher, so two equal matchers need two equal items.
//
//	matchers.ItemsInAnyOrder(matchers.Equal("b"), matchers.Equal("a")).Test([]string{"a", "b"}) // passes
func ItemsInAnyOrder(matchers ...Matcher) Matcher {
	return New(
		func(value interface{}) bool {
			items, ok := sliceItems(value)
			return ok && len(items) == len(matchers) && assignItems(matchers, items)
		},
		func(value interface{}, _ DescribeValueFunc) string {
			items, ok := sliceItems(value)
			if !ok {
				return "a slice"
			}
			if len(items) != len(matchers) {
				return fmt.Sprintf("should have %d item(s) (had %d)", len(matchers), len(items))
			}
			return "contains in any order: " + describeMatchersList(matchers, value, ", ")
		},
	)
}

// assignItems reports whether every matcher can be paired with a distinct item that it
// accepts. It grows the pairing one matcher at a time, moving earlier matchers to other items
// when that frees the item a later matcher needs.
func assignItems(matchers []Matcher, items []interface{}) bool {
	owner := make([]int, len(items))
	for i := range owner {
		owner[i] = -1
	}
	var claim func(mi int, visited []bool) bool
	claim = func(mi int, visited []bool) bool {
		for ii, item := range items {
			if visited[ii] || !matchers[mi].test(item) {
				continue
			}
			visited[ii] = true
			if owner[ii] < 0 || claim(owner[ii], visited) {
				owner[ii] = mi
				return true
			}
		}
		return false
	}
	for mi := range matchers {
		if !claim(mi, make([]bool, len(items))) {
			return false
		}
	}
	return true
}

// SliceIncludes passes a slice with at least one item that passes matcher.
func SliceIncludes(matcher Matcher) Matcher {
	return New(
		func(value interface{}) bool {
			items, ok := sliceItems(value)
			if !ok {
				return false
			}
			for _, item := range items {
				if matcher.test(item) {
					return true
				}
			}
			return false
		},
		func(value interface{}, _ DescribeValueFunc) string {
			items, ok := sliceItems(value)
			if !ok {
				return "a slice"
			}
			if len(items) == 0 {
				return "a non-empty slice"
			}
			// every item failed, so any one of them shows what was expected
			return "some item " + matcher.describeFailure(items[0], matcher.describeValue)
		},
	)
}

// EveryItem passes a slice whose items all pass matcher. An empty slice passes.
func EveryItem(matcher Matcher) Matcher {
	return New(
		func(value interface{}) bool {
			items, ok := sliceItems(value)
			if !ok {
				return false
			}
			for _, item := range items {
				if !matcher.test(item) {
					return false
				}
			}
			return true
		},
		func(value interface{}, _ DescribeValueFunc) string {
			items, ok := sliceItems(value)
			if !ok {
				return "a slice"
			}
			for i, item := range items {
				if !matcher.test(item) {
					return fmt.Sprintf("every item %s, but item %d was %s",
						matcher.describeFailure(item, matcher.describeValue), i, matcher.describeValue(item))
				}
			}
			return "every item to pass"
		},
	)
}
