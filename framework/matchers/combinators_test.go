package matchers

import (
	"strings"
	"testing"
)

func contains(part string) Matcher {
	return New(
		func(value interface{}) bool { return strings.Contains(value.(string), part) },
		func(interface{}, DescribeValueFunc) string { return "contains " + part },
	)
}

func TestNot(t *testing.T) {
	m := Not(contains("draft"))
	assertPasses(t, "published list", m)
	assertFails(t, "draft list", m, "expected: not (contains draft)\nactual value was: draft list")
}

func TestAllOf(t *testing.T) {
	m := AllOf(contains("Paris"), contains("75001"))
	assertPasses(t, "Paris 75001", m)
	assertFails(t, "Paris 75002", m, "expected: contains 75001\nactual value was: Paris 75002")
	assertFails(t, "Lyon", m, "expected: (contains Paris) and (contains 75001)\nactual value was: Lyon")
	assertPasses(t, "anything", AllOf())
}

func TestAnyOf(t *testing.T) {
	m := AnyOf(contains("Paris"), contains("Lyon"))
	assertPasses(t, "Paris", m)
	assertPasses(t, "Lyon", m)
	assertFails(t, "Nice", m, "expected: (contains Paris) or (contains Lyon)\nactual value was: Nice")
	assertFails(t, "Nice", AnyOf(contains("Paris")), "expected: contains Paris\nactual value was: Nice")
}

func TestCombinatorsUseFirstValueDescription(t *testing.T) {
	quoted := contains("Paris").WithValueDescription(func(v interface{}) string { return `"` + v.(string) + `"` })
	assertFails(t, "Nice", AllOf(quoted, contains("75001")),
		"expected: (contains Paris) and (contains 75001)\nactual value was: \"Nice\"")
}
