package data

import (
	"fmt"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// A data file may begin with "constants", a map of names to values, and "parameters", which is
// either a list of maps or a list of lists of maps. Every <NAME> in the file is replaced with the
// matching value; a placeholder that is a whole JSON string, "<NAME>", takes the value's JSON
// type. A list of maps produces one copy of the file per map. A list of lists produces one copy
// per combination, taking one map from each list, with the first list varying fastest.
type substitutionHeader struct {
	Constants  map[string]ldvalue.Value `json:"constants"`
	Parameters []ldvalue.Value          `json:"parameters"`
}

func expandSubstitutions(fileData []byte) ([]SourceInfo, error) {
	var header substitutionHeader
	if err := ParseJSONOrYAML(fileData, &header); err != nil {
		return nil, err
	}
	if len(header.Constants) == 0 && len(header.Parameters) == 0 {
		return []SourceInfo{{Data: fileData}}, nil
	}
	combinations, err := parameterCombinations(header.Parameters)
	if err != nil {
		return nil, err
	}
	withConstants := substitute(fileData, header.Constants)
	if len(combinations) == 0 {
		return []SourceInfo{{Data: withConstants}}, nil
	}
	sources := make([]SourceInfo, 0, len(combinations))
	for _, params := range combinations {
		// constants may appear inside parameter values, so they are applied again afterward
		expanded := substitute(substitute(withConstants, params), header.Constants)
		sources = append(sources, SourceInfo{Data: expanded, Params: params})
	}
	return sources, nil
}

func parameterCombinations(parameters []ldvalue.Value) ([]map[string]ldvalue.Value, error) {
	if len(parameters) == 0 {
		return nil, nil
	}
	var dimensions [][]map[string]ldvalue.Value
	switch parameters[0].Type() {
	case ldvalue.ObjectType:
		dimensions = [][]map[string]ldvalue.Value{nil}
		for i, p := range parameters {
			if p.Type() != ldvalue.ObjectType {
				return nil, fmt.Errorf("parameters[%d] is not an object", i)
			}
			dimensions[0] = append(dimensions[0], p.AsValueMap().AsMap())
		}
	case ldvalue.ArrayType:
		for i, p := range parameters {
			var choices []map[string]ldvalue.Value
			for j, choice := range p.AsValueArray().AsSlice() {
				if choice.Type() != ldvalue.ObjectType {
					return nil, fmt.Errorf("parameters[%d][%d] is not an object", i, j)
				}
				choices = append(choices, choice.AsValueMap().AsMap())
			}
			if len(choices) == 0 {
				return nil, fmt.Errorf("parameters[%d] is empty", i)
			}
			dimensions = append(dimensions, choices)
		}
	default:
		return nil, fmt.Errorf("parameters must be a list of objects or a list of lists, not %s", parameters[0].Type())
	}

	total := 1
	for _, d := range dimensions {
		total *= len(d)
	}
	combinations := make([]map[string]ldvalue.Value, 0, total)
	for n := 0; n < total; n++ {
		merged := make(map[string]ldvalue.Value)
		rest := n
		for _, d := range dimensions {
			for k, v := range d[rest%len(d)] {
				merged[k] = v
			}
			rest /= len(d)
		}
		combinations = append(combinations, merged)
	}
	return combinations, nil
}

func substitute(fileData []byte, values map[string]ldvalue.Value) []byte {
	if len(values) == 0 {
		return fileData
	}
	// JSON encoders may have escaped the angle brackets
	text := strings.NewReplacer(`\u003c`, "<", `\u003e`, ">").Replace(string(fileData))
	pairs := make([]string, 0, len(values)*4)
	for name, value := range values {
		asJSON := value.JSONString()
		inline := asJSON
		if value.IsString() {
			inline = value.StringValue()
		}
		pairs = append(pairs, `"<`+name+`>"`, asJSON, "<"+name+">", inline)
	}
	return []byte(strings.NewReplacer(pairs...).Replace(text))
}
