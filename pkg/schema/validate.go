package schema

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"
)

// Validate checks raw, a value produced by decoding JSON into an interface{},
// against s and returns every violation found. A nil result means raw conforms.
//
// Objects report all of their failing fields. Arrays stop at the first element
// that fails and report that element only.
func Validate(s *Schema, raw any) []Violation {
	return validate(s, raw, "", true)
}

func validate(s *Schema, raw any, path string, present bool) []Violation {
	if !present {
		if s.optional {
			return nil
		}
		return []Violation{{Path: path, Expected: s.Expected(), Received: "missing"}}
	}
	if raw == nil {
		if s.IsNullable() {
			return nil
		}
		return []Violation{{Path: path, Expected: s.Expected(), Received: "null"}}
	}

	switch s.kind {
	case KindNumber:
		f, ok := toFloat(raw)
		if !ok {
			return mismatch(s, raw, path)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return []Violation{{Path: path, Expected: s.Expected(), Received: "non-finite number"}}
		}
	case KindInteger:
		if !isInteger(raw) {
			return mismatch(s, raw, path)
		}
	case KindString:
		if _, ok := raw.(string); !ok {
			return mismatch(s, raw, path)
		}
	case KindBool:
		if _, ok := raw.(bool); !ok {
			return mismatch(s, raw, path)
		}
	case KindEnum:
		str, ok := raw.(string)
		if !ok {
			return mismatch(s, raw, path)
		}
		for _, e := range s.enum {
			if e == str {
				return nil
			}
		}
		return []Violation{{Path: path, Expected: s.Expected(), Received: strconv.Quote(str)}}
	case KindArray:
		arr, ok := raw.([]any)
		if !ok {
			return mismatch(s, raw, path)
		}
		for i, el := range arr {
			if vs := validate(s.elem, el, indexPath(path, i), true); len(vs) > 0 {
				return vs
			}
		}
	case KindMap:
		obj, ok := raw.(map[string]any)
		if !ok {
			return mismatch(s, raw, path)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []Violation
		for _, k := range keys {
			out = append(out, validate(s.elem, obj[k], fieldPath(path, k), true)...)
		}
		return out
	case KindObject:
		obj, ok := raw.(map[string]any)
		if !ok {
			return mismatch(s, raw, path)
		}
		var out []Violation
		for _, f := range s.fields {
			v, present := obj[f.Name]
			out = append(out, validate(f.Schema, v, fieldPath(path, f.Name), present)...)
		}
		return out
	}
	return nil
}

func mismatch(s *Schema, raw any, path string) []Violation {
	return []Violation{{Path: path, Expected: s.Expected(), Received: receivedKind(raw)}}
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			// Out-of-range literals parse to ±Inf with a range error.
			if errors.Is(err, strconv.ErrRange) {
				return f, true
			}
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

func isInteger(raw any) bool {
	switch n := raw.(type) {
	case json.Number:
		_, err := n.Int64()
		return err == nil
	case float64:
		return !math.IsInf(n, 0) && !math.IsNaN(n) && n == math.Trunc(n)
	case int, int32, int64:
		return true
	default:
		return false
	}
}

func receivedKind(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int32, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

func fieldPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func indexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}
