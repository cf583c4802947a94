package matchers

import (
	"strings"
)

// Not inverts a Matcher. Its failure reads "not (...)".
func Not(matcher Matcher) Matcher {
	return New(
		func(value interface{}) bool {
			return !matcher.test(value)
		},
		func(value interface{}, _ DescribeValueFunc) string {
			return "not (" + matcher.describeFailure(value, matcher.describeValue) + ")"
		},
	).WithValueDescription(matcher.describeValue)
}

// AllOf passes values that pass every one of the matchers. The failure message lists only the
// ones that failed.
func AllOf(matchers ...Matcher) Matcher {
	return New(
		func(value interface{}) bool {
			return len(failing(matchers, value)) == 0
		},
		func(value interface{}, _ DescribeValueFunc) string {
			return describeMatchersList(failing(matchers, value), value, " and ")
		},
	).WithValueDescription(firstValueDescription(matchers))
}

// AnyOf passes values that pass at least one of the matchers.
func AnyOf(matchers ...Matcher) Matcher {
	return New(
		func(value interface{}) bool {
			return len(failing(matchers, value)) < len(matchers)
		},
		func(value interface{}, _ DescribeValueFunc) string {
			return describeMatchersList(matchers, value, " or ")
		},
	).WithValueDescription(firstValueDescription(matchers))
}

func failing(matchers []Matcher, value interface{}) []Matcher {
	var ret []Matcher
	for _, m := range matchers {
		if !m.test(value) {
			ret = append(ret, m)
		}
	}
	return ret
}

func firstValueDescription(matchers []Matcher) DescribeValueFunc {
	if len(matchers) == 0 {
		return nil
	}
	return matchers[0].describeValue
}

func describeMatchersList(matchers []Matcher, value interface{}, separator string) string {
	if len(matchers) == 1 {
		return matchers[0].describeFailure(value, matchers[0].describeValue)
	}
	parts := make([]string, 0, len(matchers))
	for _, m := range matchers {
		parts = append(parts, "("+m.describeFailure(value, m.describeValue)+")")
	}
	return strings.Join(parts, separator)
}
