package helpers

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// AssertJSONEqual fails the test unless the two JSON documents are equal, ignoring whitespace
// and property order. Both documents are printed in canonical form on failure, which makes the
// difference easy to spot. Use matchers.MatchShape when the expected document has placeholders
// for values that the service generates.
func AssertJSONEqual(t TestContext, expectedJSON, actualJSON string) bool {
	t.Helper()
	expected, actual := ldvalue.Parse([]byte(expectedJSON)), ldvalue.Parse([]byte(actualJSON))
	if expectedJSON != "null" && expected.IsNull() {
		t.Errorf("expected value is not valid JSON: %s", expectedJSON)
		return false
	}
	if actualJSON != "null" && actual.IsNull() {
		t.Errorf("actual value is not valid JSON: %s", actualJSON)
		return false
	}
	if expected.Equal(actual) {
		return true
	}
	t.Errorf("JSON documents differ\nexpected: %s\nactual:   %s",
		CanonicalizedJSONString(expected), CanonicalizedJSONString(actual))
	return false
}
