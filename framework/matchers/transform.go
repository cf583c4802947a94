package matchers

// MatcherTransform derives a value from the one being tested, such as a field of a struct, so
// that ordinary Matchers can be applied to the derived value:
//
//	latitude := matchers.Transform("latitude",
//	    func(value interface{}) interface{} { return value.(servicedef.PointView).Latitude })
//	matchers.AssertThat(t, view, latitude.Should(matchers.Near(48.86, 0.0001)))
//
// A failure names the derived value and still prints the whole original value, for instance
//
//	expected: latitude within 0.0001 of 48.86
//	actual value was: {Identifier:... Latitude:2.34 ...}
type MatcherTransform struct {
	name          string
	derive        func(interface{}) interface{}
	inputType     interface{}
	renderInput   DescribeValueFunc
	renderDerived DescribeValueFunc
}

// Transform creates a MatcherTransform. name describes the derived value and prefixes the
// description of any Matcher given to Should.
func Transform(
	name string,
	getValue func(interface{}) interface{},
) MatcherTransform {
	return MatcherTransform{name: name, derive: getValue}
}

// EnsureInputValueType is Matcher.EnsureType for the original value, so that getValue can
// type-assert without checking.
func (mt MatcherTransform) EnsureInputValueType(valueOfType interface{}) MatcherTransform {
	mt.inputType = valueOfType
	return mt
}

// WithInputValueDescription sets how the original value is rendered in failure messages.
func (mt MatcherTransform) WithInputValueDescription(desc DescribeValueFunc) MatcherTransform {
	mt.renderInput = desc
	return mt
}

// WithOutputValueDescription sets how the derived value is rendered in failure messages.
func (mt MatcherTransform) WithOutputValueDescription(desc DescribeValueFunc) MatcherTransform {
	mt.renderDerived = desc
	return mt
}

// Should returns a Matcher that derives the value and applies matcher to it.
func (mt MatcherTransform) Should(matcher Matcher) Matcher {
	derive := mt.derive
	if derive == nil {
		derive = func(value interface{}) interface{} { return value }
	}
	name := mt.name
	if name == "" {
		name = "[unnamed transform]"
	}
	return New(
		func(value interface{}) bool {
			return matcher.test(derive(value))
		},
		func(value interface{}, describe DescribeValueFunc) string {
			if mt.renderDerived != nil {
				describe = mt.renderDerived
			}
			return name + " " + matcher.describeFailure(derive(value), describe)
		},
	).EnsureType(mt.inputType).WithValueDescription(mt.renderInput)
}
