package matchers

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type shapeKind int

const (
	shapeLiteral shapeKind = iota
	shapeAnyString
	shapeAnyNumber
	shapeAnyValue
	shapeObject
	shapeArray
	shapeEmbeddedJSON
)

// Shape is an expected JSON structure. It can contain literal values, which must be matched
// exactly, and type placeholders such as AnyString, which match any value of that type.
//
// Objects are strict by default: the actual object must have exactly the same set of keys.
// Use ObjectIncluding to allow additional keys. Arrays are ordered and must have the same
// length.
//
// When the expected value is an object or array and the actual value is a string containing
// JSON, the string is decoded before comparison. This is how the target service returns
// metadata content. A literal string that itself holds a JSON object or array is compared the
// same way against such a string, so spacing and key order do not matter.
type Shape struct {
	kind    shapeKind
	literal ldvalue.Value
	fields  map[string]Shape
	partial bool
	items   []Shape
	inner   *Shape
}

// Mismatch describes the first difference found by MatchShape.
type Mismatch struct {
	// Path is a JSONPath-like location such as "$.metas[0].content.price".
	Path     string
	Expected string
	Actual   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("at %s: expected %s, got %s", m.Path, m.Expected, m.Actual)
}

const absent = "<absent>"

// AnyString matches any JSON string.
func AnyString() Shape { return Shape{kind: shapeAnyString} }

// AnyNumber matches any JSON number.
func AnyNumber() Shape { return Shape{kind: shapeAnyNumber} }

// AnyValue matches any JSON value including null, but not an absent property.
func AnyValue() Shape { return Shape{kind: shapeAnyValue} }

// ObjectIncluding matches an object that has at least the given properties. Any other
// properties of the actual object are ignored.
func ObjectIncluding(fields map[string]interface{}) Shape {
	s := objectShape(fields)
	s.partial = true
	return s
}

// EmbeddedJSON matches a JSON string whose decoded content matches the given shape.
func EmbeddedJSON(content interface{}) Shape {
	inner := ShapeOf(content)
	return Shape{kind: shapeEmbeddedJSON, inner: &inner}
}

// ShapeOf converts a value into a Shape. It accepts Shape itself, ldvalue.Value, maps with
// string keys, slices, and anything that can be marshaled to JSON. Maps and slices may
// contain nested Shapes such as AnyString().
func ShapeOf(value interface{}) Shape {
	switch v := value.(type) {
	case Shape:
		return v
	case *Shape:
		if v == nil {
			return Shape{kind: shapeLiteral, literal: ldvalue.Null()}
		}
		return *v
	case ldvalue.Value:
		return shapeOfValue(v)
	case map[string]interface{}:
		return objectShape(v)
	case map[string]Shape:
		fields := make(map[string]Shape, len(v))
		for k, f := range v {
			fields[k] = f
		}
		return Shape{kind: shapeObject, fields: fields}
	case []interface{}:
		items := make([]Shape, 0, len(v))
		for _, item := range v {
			items = append(items, ShapeOf(item))
		}
		return Shape{kind: shapeArray, items: items}
	case []Shape:
		return Shape{kind: shapeArray, items: append([]Shape(nil), v...)}
	case nil:
		return Shape{kind: shapeLiteral, literal: ldvalue.Null()}
	default:
		return shapeOfValue(ldvalue.FromJSONMarshal(v))
	}
}

func objectShape(fields map[string]interface{}) Shape {
	s := Shape{kind: shapeObject, fields: make(map[string]Shape, len(fields))}
	for k, v := range fields {
		s.fields[k] = ShapeOf(v)
	}
	return s
}

func shapeOfValue(v ldvalue.Value) Shape {
	switch v.Type() {
	case ldvalue.ObjectType:
		s := Shape{kind: shapeObject, fields: make(map[string]Shape, v.Count())}
		for k, fv := range v.AsValueMap().AsMap() {
			s.fields[k] = shapeOfValue(fv)
		}
		return s
	case ldvalue.ArrayType:
		s := Shape{kind: shapeArray, items: make([]Shape, 0, v.Count())}
		for i := 0; i < v.Count(); i++ {
			s.items = append(s.items, shapeOfValue(v.GetByIndex(i)))
		}
		return s
	default:
		return Shape{kind: shapeLiteral, literal: v}
	}
}

// String renders the shape as JSON-like text, with placeholders in angle brackets.
func (s Shape) String() string {
	switch s.kind {
	case shapeAnyString:
		return "<any string>"
	case shapeAnyNumber:
		return "<any number>"
	case shapeAnyValue:
		return "<any value>"
	case shapeEmbeddedJSON:
		return "<JSON string " + s.inner.String() + ">"
	case shapeArray:
		parts := make([]string, 0, len(s.items))
		for _, item := range s.items {
			parts = append(parts, item.String())
		}
		return "[" + strings.Join(parts, ",") + "]"
	case shapeObject:
		keys := maps.Keys(s.fields)
		slices.Sort(keys)
		parts := make([]string, 0, len(keys)+1)
		for _, k := range keys {
			parts = append(parts, jsonKey(k)+":"+s.fields[k].String())
		}
		if s.partial {
			parts = append(parts, "...")
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return s.literal.JSONString()
	}
}

// MatchShape compares an actual JSON value against an expected shape. It returns true if they
// match; otherwise it returns false and a description of the first difference, in a
// deterministic order (object keys are visited alphabetically).
func MatchShape(expected Shape, actual ldvalue.Value) (bool, Mismatch) {
	m := matchAt("$", expected, actual, true)
	if m == nil {
		return true, Mismatch{}
	}
	return false, *m
}

func matchAt(path string, expected Shape, actual ldvalue.Value, present bool) *Mismatch {
	if !present {
		return &Mismatch{Path: path, Expected: expected.String(), Actual: absent}
	}
	fail := func() *Mismatch {
		return &Mismatch{Path: path, Expected: expected.String(), Actual: actual.JSONString()}
	}
	switch expected.kind {
	case shapeAnyValue:
		return nil
	case shapeAnyString:
		if actual.Type() != ldvalue.StringType {
			return fail()
		}
		return nil
	case shapeAnyNumber:
		if actual.Type() != ldvalue.NumberType {
			return fail()
		}
		return nil
	case shapeEmbeddedJSON:
		decoded, ok := decodeEmbedded(actual)
		if !ok {
			return fail()
		}
		return matchAt(path, *expected.inner, decoded, true)
	case shapeObject:
		if decoded, ok := decodeEmbedded(actual); ok {
			actual = decoded
		}
		if actual.Type() != ldvalue.ObjectType {
			return fail()
		}
		actualFields := actual.AsValueMap().AsMap()
		keys := maps.Keys(expected.fields)
		slices.Sort(keys)
		for _, k := range keys {
			fv, found := actualFields[k]
			if m := matchAt(childPath(path, k), expected.fields[k], fv, found); m != nil {
				return m
			}
		}
		if !expected.partial {
			extra := maps.Keys(actualFields)
			slices.Sort(extra)
			for _, k := range extra {
				if _, wanted := expected.fields[k]; !wanted {
					return &Mismatch{Path: childPath(path, k), Expected: absent, Actual: actualFields[k].JSONString()}
				}
			}
		}
		return nil
	case shapeArray:
		if decoded, ok := decodeEmbedded(actual); ok {
			actual = decoded
		}
		if actual.Type() != ldvalue.ArrayType {
			return fail()
		}
		n := len(expected.items)
		if actual.Count() < n {
			n = actual.Count()
		}
		for i := 0; i < n; i++ {
			if m := matchAt(fmt.Sprintf("%s[%d]", path, i), expected.items[i], actual.GetByIndex(i), true); m != nil {
				return m
			}
		}
		if actual.Count() != len(expected.items) {
			return &Mismatch{
				Path:     path,
				Expected: fmt.Sprintf("array of length %d", len(expected.items)),
				Actual:   fmt.Sprintf("array of length %d", actual.Count()),
			}
		}
		return nil
	default:
		if actual.Equal(expected.literal) {
			return nil
		}
		if decodedExpected, ok := decodeEmbedded(expected.literal); ok {
			if decodedActual, ok := decodeEmbedded(actual); ok {
				return matchAt(path, shapeOfValue(decodedExpected), decodedActual, true)
			}
		}
		return fail()
	}
}

// decodeEmbedded decodes a string value that contains a JSON object or array.
func decodeEmbedded(v ldvalue.Value) (ldvalue.Value, bool) {
	if v.Type() != ldvalue.StringType {
		return v, false
	}
	s := strings.TrimSpace(v.StringValue())
	if s == "" || (s[0] != '{' && s[0] != '[') || !json.Valid([]byte(s)) {
		return v, false
	}
	return ldvalue.Parse([]byte(s)), true
}

var simpleKeyRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func childPath(path, key string) string {
	if simpleKeyRegex.MatchString(key) {
		return path + "." + key
	}
	return path + "[" + jsonKey(key) + "]"
}

func jsonKey(key string) string {
	data, _ := json.Marshal(key)
	return string(data)
}

// JSONShape is a Matcher that applies MatchShape. The input value can be an ldvalue.Value,
// raw JSON bytes, or anything that can be marshaled to JSON.
func JSONShape(expected interface{}) Matcher {
	shape := ShapeOf(expected)
	return New(
		func(value interface{}) bool {
			ok, _ := MatchShape(shape, toJSONValue(value))
			return ok
		},
		func(value interface{}, desc DescribeValueFunc) string {
			_, m := MatchShape(shape, toJSONValue(value))
			return fmt.Sprintf("JSON matching %s (mismatch %s)", shape, m)
		},
	).WithValueDescription(func(value interface{}) string { return toJSONValue(value).JSONString() })
}

func toJSONValue(value interface{}) ldvalue.Value {
	switch v := value.(type) {
	case ldvalue.Value:
		return v
	case json.RawMessage:
		return ldvalue.Parse(v)
	case []byte:
		return ldvalue.Parse(v)
	default:
		return ldvalue.FromJSONMarshal(v)
	}
}
