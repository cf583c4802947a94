package data

import (
	"encoding/json"
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// ParseJSONOrYAML decodes data into target through encoding/json. Data that is not valid JSON
// is read as YAML and converted to JSON first, so json field tags apply to both formats and
// YAML features such as anchors and merge keys are available in data files.
func ParseJSONOrYAML(data []byte, target interface{}) error {
	if json.Valid(data) {
		return json.Unmarshal(data, target)
	}
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	converted, err := yamlToJSONCompatible(doc)
	if err != nil {
		return err
	}
	asJSON, err := json.Marshal(converted)
	if err != nil {
		return err
	}
	return json.Unmarshal(asJSON, target)
}

// yamlToJSONCompatible replaces the map[interface{}]interface{} values that YAML produces for
// maps with non-string keys, failing if a key really is not a string.
func yamlToJSONCompatible(node interface{}) (interface{}, error) {
	var err error
	switch n := node.(type) {
	case map[string]interface{}:
		for k, v := range n {
			if n[k], err = yamlToJSONCompatible(v); err != nil {
				return nil, err
			}
		}
		return n, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(n))
		for k, v := range n {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("map key %v is a %T; data files may only use string keys", k, k)
			}
			if out[key], err = yamlToJSONCompatible(v); err != nil {
				return nil, err
			}
		}
		return out, nil
	case []interface{}:
		for i, v := range n {
			if n[i], err = yamlToJSONCompatible(v); err != nil {
				return nil, err
			}
		}
		return n, nil
	default:
		return node, nil
	}
}
