// Package check provides assertion helpers with descriptive failure
// messages. Every helper returns nil on success and an error naming the
// expectation and the observed value on failure, so callers can feed the
// result straight into a test failure or a scenario report.
package check

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldExists fails unless the map carries the given key.
func FieldExists(m map[string]any, field string) error {
	if _, ok := m[field]; !ok {
		return fmt.Errorf("expected field %q to exist, available fields: %v", field, mapKeys(m))
	}
	return nil
}

// FieldAbsent fails if the map carries the given key.
func FieldAbsent(m map[string]any, field string) error {
	if v, ok := m[field]; ok {
		return fmt.Errorf("expected field %q to be absent, found value %v", field, v)
	}
	return nil
}

// FieldValue fails unless m[field] equals want (numeric types compare
// loosely so JSON float64 matches int expectations).
func FieldValue(m map[string]any, field string, want any) error {
	v, ok := m[field]
	if !ok {
		return fmt.Errorf("expected field %q to exist, available fields: %v", field, mapKeys(m))
	}
	if !looseEqual(v, want) {
		return fmt.Errorf("field %q: expected %v, got %v", field, want, v)
	}
	return nil
}

// Structure fails unless every required field is present.
func Structure(m map[string]any, required ...string) error {
	var missing []string
	for _, field := range required {
		if _, ok := m[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields %v, available fields: %v", missing, mapKeys(m))
	}
	return nil
}

// Equal fails unless got equals want.
func Equal(got, want any) error {
	if !looseEqual(got, want) {
		return fmt.Errorf("expected %v, got %v", want, got)
	}
	return nil
}

// NotEqual fails if got equals unwanted.
func NotEqual(got, unwanted any) error {
	if looseEqual(got, unwanted) {
		return fmt.Errorf("expected value different from %v", unwanted)
	}
	return nil
}

// NotNil fails when v is nil.
func NotNil(v any) error {
	if v == nil {
		return fmt.Errorf("expected non-nil value")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan:
		if rv.IsNil() {
			return fmt.Errorf("expected non-nil value")
		}
	}
	return nil
}

// NotEmpty fails when a string, slice or map has no elements.
func NotEmpty(v any) error {
	if err := NotNil(v); err != nil {
		return fmt.Errorf("expected non-empty value, got nil")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		if rv.Len() == 0 {
			return fmt.Errorf("expected non-empty %s", rv.Kind())
		}
	}
	return nil
}

// Length fails unless the value has exactly want elements.
func Length(v any, want int) error {
	n, err := lengthOf(v)
	if err != nil {
		return err
	}
	if n != want {
		return fmt.Errorf("expected length %d, got %d", want, n)
	}
	return nil
}

// LengthGreater fails unless the value has more than min elements.
func LengthGreater(v any, min int) error {
	n, err := lengthOf(v)
	if err != nil {
		return err
	}
	if n <= min {
		return fmt.Errorf("expected length greater than %d, got %d", min, n)
	}
	return nil
}

// Greater fails unless got > bound. Both must be numeric.
func Greater(got, bound any) error {
	return compare(got, bound, ">", func(a, b float64) bool { return a > b })
}

// GreaterOrEqual fails unless got >= bound.
func GreaterOrEqual(got, bound any) error {
	return compare(got, bound, ">=", func(a, b float64) bool { return a >= b })
}

// Less fails unless got < bound.
func Less(got, bound any) error {
	return compare(got, bound, "<", func(a, b float64) bool { return a < b })
}

// LessOrEqual fails unless got <= bound.
func LessOrEqual(got, bound any) error {
	return compare(got, bound, "<=", func(a, b float64) bool { return a <= b })
}

// InRange fails unless min <= got <= max.
func InRange(got, min, max any) error {
	g, ok := toFloat(got)
	if !ok {
		return fmt.Errorf("expected numeric value, got %T", got)
	}
	lo, _ := toFloat(min)
	hi, _ := toFloat(max)
	if g < lo || g > hi {
		return fmt.Errorf("expected value in range [%v, %v], got %v", min, max, got)
	}
	return nil
}

// StringLengthBetween fails unless len(s) is within [min, max].
func StringLengthBetween(s string, min, max int) error {
	if len(s) < min || len(s) > max {
		return fmt.Errorf("expected string length between %d and %d, got %d (%q)", min, max, len(s), s)
	}
	return nil
}

// Contains fails unless the container holds the needle: substring for
// strings, element for slices, key for maps.
func Contains(container, needle any) error {
	if containsValue(container, needle) {
		return nil
	}
	return fmt.Errorf("expected %v to contain %v", container, needle)
}

// NotContains fails if the container holds the needle.
func NotContains(container, needle any) error {
	if containsValue(container, needle) {
		return fmt.Errorf("expected %v to not contain %v", container, needle)
	}
	return nil
}

// IsType fails unless v has the same dynamic type as the sample.
func IsType(v, sample any) error {
	got := reflect.TypeOf(v)
	want := reflect.TypeOf(sample)
	if got != want {
		return fmt.Errorf("expected type %v, got %v (%v)", want, got, v)
	}
	return nil
}

// True fails unless v is the boolean true.
func True(v any) error {
	if b, ok := v.(bool); ok && b {
		return nil
	}
	return fmt.Errorf("expected true, got %v", v)
}

// False fails unless v is the boolean false.
func False(v any) error {
	if b, ok := v.(bool); ok && !b {
		return nil
	}
	return fmt.Errorf("expected false, got %v", v)
}

func compare(got, bound any, opName string, op func(a, b float64) bool) error {
	a, aok := toFloat(got)
	b, bok := toFloat(bound)
	if !aok || !bok {
		return fmt.Errorf("expected numeric values for %s comparison, got %T and %T", opName, got, bound)
	}
	if !op(a, b) {
		return fmt.Errorf("expected %v %s %v", got, opName, bound)
	}
	return nil
}

func lengthOf(v any) (int, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), nil
	default:
		return 0, fmt.Errorf("value of type %T has no length", v)
	}
}

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

func containsValue(container, needle any) bool {
	switch c := container.(type) {
	case string:
		return strings.Contains(c, fmt.Sprintf("%v", needle))
	case map[string]any:
		key, ok := needle.(string)
		if !ok {
			return false
		}
		_, present := c[key]
		return present
	default:
		rv := reflect.ValueOf(container)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if looseEqual(rv.Index(i).Interface(), needle) {
				return true
			}
		}
		return false
	}
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
