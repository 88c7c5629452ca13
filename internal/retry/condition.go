package retry

import (
	"fmt"
	"reflect"
	"strings"
)

// Condition describes a declarative check against a map-shaped result, e.g.
// {"status_code": {"eq": 200}}. The outer key names the result field, the
// inner key the operator.
type Condition map[string]map[string]any

// Supported operators.
const (
	OpEq          = "eq"
	OpNe          = "ne"
	OpGt          = "gt"
	OpGte         = "gte"
	OpLt          = "lt"
	OpLte         = "lte"
	OpIn          = "in"
	OpNotIn       = "not_in"
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpNotEmpty    = "not_empty"
)

// Matches reports whether every operator clause in the condition holds for
// the result. Results that are not maps only match empty conditions.
func (c Condition) Matches(result any) bool {
	if len(c) == 0 {
		return true
	}
	m, ok := result.(map[string]any)
	if !ok {
		return false
	}
	for field, clauses := range c {
		value, present := m[field]
		for op, want := range clauses {
			if op == OpNotEmpty {
				if !present || isEmpty(value) {
					return false
				}
				continue
			}
			if !present || !evalOperator(op, value, want) {
				return false
			}
		}
	}
	return true
}

// Until adapts the condition into a DoValue predicate.
func (c Condition) Until() func(any) bool {
	return func(v any) bool { return c.Matches(v) }
}

func evalOperator(op string, value, want any) bool {
	switch op {
	case OpEq:
		return looseEqual(value, want)
	case OpNe:
		return !looseEqual(value, want)
	case OpGt, OpGte, OpLt, OpLte:
		a, aok := toFloat(value)
		b, bok := toFloat(want)
		if !aok || !bok {
			return false
		}
		switch op {
		case OpGt:
			return a > b
		case OpGte:
			return a >= b
		case OpLt:
			return a < b
		default:
			return a <= b
		}
	case OpIn:
		return inSlice(value, want)
	case OpNotIn:
		return !inSlice(value, want)
	case OpContains:
		return containsValue(value, want)
	case OpNotContains:
		return !containsValue(value, want)
	default:
		return false
	}
}

// looseEqual compares across numeric types so a JSON float64 equals an int
// expectation.
func looseEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func inSlice(value, set any) bool {
	rv := reflect.ValueOf(set)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if looseEqual(value, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

func containsValue(haystack, needle any) bool {
	switch h := haystack.(type) {
	case string:
		return strings.Contains(h, fmt.Sprintf("%v", needle))
	case map[string]any:
		key, ok := needle.(string)
		if !ok {
			return false
		}
		_, present := h[key]
		return present
	default:
		return inSlice(needle, haystack)
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
