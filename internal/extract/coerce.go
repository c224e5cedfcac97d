package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// number coerces a loosely typed JSON value to float64.
// Strings such as "45%" or " 8.5 " are accepted.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "%"))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// numberAt returns the first numeric value found under any of keys
func numberAt(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := number(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

// present returns the first non-null value under any of keys
func present(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// text returns the first non-empty scalar under any of keys, rendered as a string
func text(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// objects returns the elements of an array value that are JSON objects
func objects(m map[string]any, keys ...string) []map[string]any {
	for _, k := range keys {
		arr, ok := m[k].([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(arr))
		for _, el := range arr {
			if obj, ok := el.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	}
	return nil
}

func object(m map[string]any, keys ...string) (map[string]any, bool) {
	for _, k := range keys {
		if obj, ok := m[k].(map[string]any); ok {
			return obj, true
		}
	}
	return nil, false
}

func describe(v any) string {
	if v == nil {
		return "missing"
	}
	return fmt.Sprintf("not a number (%T %v)", v, v)
}
