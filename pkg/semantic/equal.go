/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: equal.go
Description: Output comparison tolerant to the numeric representations produced
by YAML and JSON decoding.
*/

package semantic

import (
	"reflect"
)

// Equal compares an evaluation result with an expected output
func Equal(a, b any) bool {
	return reflect.DeepEqual(Normalize(a), Normalize(b))
}

// Normalize maps integral numbers to int and typed slices to []any, recursively
func Normalize(v any) any {
	switch x := v.(type) {
	case int:
		return x
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint64:
		return int(x)
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case []int:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	default:
		return v
	}
}

func normalizeFloat(f float64) any {
	if f == float64(int(f)) {
		return int(f)
	}
	return f
}
