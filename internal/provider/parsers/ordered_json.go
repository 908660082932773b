package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dataframe-gateway/internal/provider"
)

// orderedObject is a JSON object that remembers key order
type orderedObject struct {
	keys   []string
	values map[string]interface{}
}

func newOrderedObject() *orderedObject {
	return &orderedObject{values: make(map[string]interface{})}
}

func (o *orderedObject) set(key string, value interface{}) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// MarshalJSON writes the object with its original key order
func (o *orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeOrderedJSON decodes a single JSON document, keeping object key order
// and numbers as json.Number
func decodeOrderedJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	value, err := decodeValue(dec, tok)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}

	return value, nil
}

func decodeValue(dec *json.Decoder, tok json.Token) (interface{}, error) {
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := newOrderedObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyTok)
			}
			valTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			val, err := decodeValue(dec, valTok)
			if err != nil {
				return nil, err
			}
			obj.set(key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := make([]interface{}, 0)
		for dec.More() {
			elemTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			elem, err := decodeValue(dec, elemTok)
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}

// resolveArray locates the array at path. An exact key match at the top
// level wins over splitting the path on dots; numeric segments index arrays.
func resolveArray(root interface{}, path string) ([]interface{}, error) {
	current := root

	if path != "" {
		if obj, ok := root.(*orderedObject); ok {
			if v, exists := obj.values[path]; exists {
				current = v
				goto located
			}
		}

		for _, part := range strings.Split(path, ".") {
			switch node := current.(type) {
			case *orderedObject:
				v, exists := node.values[part]
				if !exists {
					return nil, &provider.PathNotFoundError{Path: path, Reason: fmt.Sprintf("key %q not found", part)}
				}
				current = v
			case []interface{}:
				idx, err := strconv.Atoi(part)
				if err != nil || idx < 0 || idx >= len(node) {
					return nil, &provider.PathNotFoundError{Path: path, Reason: fmt.Sprintf("invalid array index %q", part)}
				}
				current = node[idx]
			default:
				return nil, &provider.PathNotFoundError{Path: path, Reason: fmt.Sprintf("cannot descend into %s at %q", describeJSON(node), part)}
			}
		}
	}

located:
	arr, ok := current.([]interface{})
	if !ok {
		return nil, &provider.PathNotFoundError{Path: path, Reason: fmt.Sprintf("resolves to %s, not an array", describeJSON(current))}
	}
	return arr, nil
}

// lookupNested follows a dotted path through nested objects
func lookupNested(obj *orderedObject, path string) (interface{}, bool) {
	if !strings.Contains(path, ".") {
		return nil, false
	}

	var current interface{} = obj
	for _, part := range strings.Split(path, ".") {
		node, ok := current.(*orderedObject)
		if !ok {
			return nil, false
		}
		v, exists := node.values[part]
		if !exists {
			return nil, false
		}
		current = v
	}
	return current, true
}

func describeJSON(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case *orderedObject:
		return "an object"
	case []interface{}:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
