package data

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// MetaContentValues returns metadata contents that cover every JSON type and the special values
// a service might mishandle, such as empty strings and zero, so that "" and 0 are not treated
// the same as "undefined/null".
func MetaContentValues() []ldvalue.Value {
	return []ldvalue.Value{
		ldvalue.Null(),
		ldvalue.Bool(false),
		ldvalue.Bool(true),
		ldvalue.Int(0),
		ldvalue.Int(500000),
		ldvalue.Float64(-1000.5),
		ldvalue.String(""),
		ldvalue.String("has \"escaped\" characters"),
		ldvalue.ArrayOf(),
		ldvalue.ArrayOf(ldvalue.String("a"), ldvalue.String("b")),
		ldvalue.ObjectBuild().Build(),
		ldvalue.ObjectBuild().Set("testKey", ldvalue.String("testValue")).Build(),
		ldvalue.ObjectBuild().Set("nested", ldvalue.ObjectBuild().Set("a", ldvalue.ArrayOf(ldvalue.Int(1))).Build()).Build(),
	}
}
