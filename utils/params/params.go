package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"strconv"

	yaml "gopkg.in/yaml.v2"

	"github.com/zbxtools/zbxcall/modules/call/types"
)

// Parse decodes a JSON or YAML object.
// JSON numbers are kept verbatim as json.Number.
func Parse(data []byte) (map[string]interface{}, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return map[string]interface{}{}, nil
	}

	if data[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		m := map[string]interface{}{}
		if err := dec.Decode(&m); err == nil {
			return m, nil
		}
	}

	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("params are neither JSON nor YAML: %v", err)
	}
	if raw == nil {
		return map[string]interface{}{}, nil
	}
	m, ok := Normalize(raw).(map[string]interface{})
	if !ok {
		return nil, errors.New("params must be a mapping")
	}
	return m, nil
}

// ReadFile parses the params file at path
func ReadFile(path string) (map[string]interface{}, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ReadArgs reads a module args file handed over by the orchestration tool:
// an object with method, params and _ansible_check_mode or check_mode
func ReadArgs(path string) (types.CallRequest, error) {
	req := types.CallRequest{}
	args, err := ReadFile(path)
	if err != nil {
		return req, err
	}

	method, ok := args["method"].(string)
	if !ok {
		return req, fmt.Errorf("%s: method is required", path)
	}
	req.Method = method

	switch p := args["params"].(type) {
	case nil:
	case map[string]interface{}:
		req.Params = p
	default:
		return req, fmt.Errorf("%s: params must be a mapping", path)
	}

	for _, k := range []string{"_ansible_check_mode", "check_mode"} {
		if v, ok := args[k]; ok {
			b, err := toBool(v)
			if err != nil {
				return req, fmt.Errorf("%s: %s: %v", path, k, err)
			}
			req.CheckMode = req.CheckMode || b
		}
	}
	return req, nil
}

// Normalize turns the map[interface{}]interface{} values yaml.v2 produces
// into map[string]interface{} so the result can be encoded as JSON
func Normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[fmt.Sprintf("%v", k)] = Normalize(e)
		}
		return m
	case map[string]interface{}:
		for k, e := range t {
			t[k] = Normalize(e)
		}
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = Normalize(e)
		}
		return t
	default:
		return v
	}
}

func toBool(v interface{}) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(t)
	case json.Number:
		i, err := t.Int64()
		return i != 0, err
	case int:
		return t != 0, nil
	default:
		return false, fmt.Errorf("not a boolean: %v", v)
	}
}
