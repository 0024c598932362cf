package util

import (
	"reflect"
)

// DeepValEqual compares two values the way a template engine needs to:
// numeric types are normalized before comparison, containers are compared
// by value (not by pointer), and funcs fall back to code-pointer identity.
func DeepValEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if IsNumericType(a) && IsNumericType(b) {
		return CompareAsFloat64(a, b)
	}
	typeA := reflect.TypeOf(a)
	typeB := reflect.TypeOf(b)
	if typeA != typeB {
		return false
	}
	if typeA.Comparable() {
		return a == b
	}
	valA := reflect.ValueOf(a)
	valB := reflect.ValueOf(b)
	if valA.Kind() == reflect.Func {
		return valA.Pointer() == valB.Pointer()
	}
	return reflect.DeepEqual(a, b)
}

// IsNumericType reports whether val is one of the built-in numeric types.
func IsNumericType(val any) bool {
	switch val.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// CompareAsFloat64 reports whether two numeric values are equal after
// normalizing both to float64.
func CompareAsFloat64(a, b any) bool {
	valA, okA := ToFloat64(a)
	valB, okB := ToFloat64(b)
	return okA && okB && valA == valB
}

// ToFloat64 converts any built-in numeric value to float64. The second
// return is false for non-numeric values.
func ToFloat64(val any) (float64, bool) {
	if val == nil {
		return 0, false
	}
	switch v := val.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func ToInt(val any) (int, bool) {
	f, ok := ToFloat64(val)
	if !ok {
		return 0, false
	}
	return int(f), true
}
