// Package matchers contains the two ways the harness compares what the service returned with
// what a test expected.
//
// Matcher is a composable predicate over any Go value that explains itself when it fails. It is
// built once, combined with Not, AllOf, AnyOf, Transform or the collection matchers, and then
// applied with AssertThat or RequireThat.
//
// Shape is a structural description of a JSON document. MatchShape walks the expected shape and
// the actual document together and reports the path of the first difference.
package matchers

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFunc reports whether a value passes a Matcher.
type TestFunc func(value interface{}) bool

// DescribeFailureFunc explains what a Matcher expected, for a value that failed it. The text
// reads as the completion of "expected: ", for instance "equal to 3". The actual value is
// always printed after it, so the explanation only needs to mention it when that narrows the
// failure down. describe renders values the way the Matcher was configured to.
type DescribeFailureFunc func(value interface{}, describe DescribeValueFunc) string

// DescribeValueFunc renders a value in a failure message.
type DescribeValueFunc func(value interface{}) string

// Matcher is an expectation about a value. The zero value accepts everything.
type Matcher struct {
	check   TestFunc
	explain DescribeFailureFunc
	render  DescribeValueFunc
}

// New creates a Matcher from a test and an explanation.
func New(test TestFunc, describeFailure DescribeFailureFunc) Matcher {
	return Matcher{check: test, explain: describeFailure}
}

// Test applies the Matcher. On failure the second result is the full failure message,
// naming both the expectation and the actual value.
func (m Matcher) Test(value interface{}) (pass bool, failDescription string) {
	if m.test(value) {
		return true, ""
	}
	return false, fmt.Sprintf("expected: %s\nactual value was: %s",
		m.describeFailure(value, m.describeValue), m.describeValue(value))
}

func (m Matcher) test(value interface{}) bool {
	return m.check == nil || m.check(value)
}

func (m Matcher) describeFailure(value interface{}, describe DescribeValueFunc) string {
	if m.explain == nil {
		return "no test description given"
	}
	return m.explain(value, describe)
}

func (m Matcher) describeValue(value interface{}) string {
	if m.render == nil {
		return DefaultDescription(value)
	}
	return m.render(value)
}

// Assert records a failure through assert.Fail if the value does not pass.
func (m Matcher) Assert(t assert.TestingT, value interface{}) bool {
	pass, desc := m.Test(value)
	if !pass {
		assert.Fail(t, desc)
	}
	return pass
}

// Require is like Assert, but stops the test on failure.
func (m Matcher) Require(t require.TestingT, value interface{}) bool {
	pass, desc := m.Test(value)
	if !pass {
		require.Fail(t, desc)
	}
	return pass
}

// AssertThat is matcher.Assert(t, value), reading in the order people usually say it.
func AssertThat(t assert.TestingT, value interface{}, matcher Matcher) bool {
	markHelper(t)
	return matcher.Assert(t, value)
}

// RequireThat is matcher.Require(t, value).
func RequireThat(t require.TestingT, value interface{}, matcher Matcher) {
	markHelper(t)
	matcher.Require(t, value)
}

func markHelper(t interface{}) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
}

// EnsureType makes the Matcher fail, instead of panicking, on a value whose type differs from
// the type of valueOfType. The test function can then type-assert freely. A nil valueOfType
// changes nothing.
func (m Matcher) EnsureType(valueOfType interface{}) Matcher {
	wrongType := func(value interface{}) bool {
		return valueOfType != nil && reflect.TypeOf(value) != reflect.TypeOf(valueOfType)
	}
	return New(
		func(value interface{}) bool {
			return !wrongType(value) && m.test(value)
		},
		func(value interface{}, _ DescribeValueFunc) string {
			if wrongType(value) {
				return fmt.Sprintf("value of type %T, was %T", valueOfType, value)
			}
			return m.describeFailure(value, m.describeValue)
		},
	).WithValueDescription(m.render)
}

// WithValueDescription changes how values are rendered in failure messages. See
// DefaultDescription and JSONDescription.
func (m Matcher) WithValueDescription(describeValue DescribeValueFunc) Matcher {
	m.render = describeValue
	return m
}

// DefaultDescription uses the value's String method if it has one, or else the %+v format.
func DefaultDescription(value interface{}) string {
	if s, ok := value.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%+v", value)
}

// JSONDescription renders a value as JSON, which is how the service would show it.
func JSONDescription(value interface{}) string {
	data, _ := json.Marshal(value)
	return string(data)
}
