package runner

import (
	"fmt"
	"regexp"
	"strings"
)

var varPattern = regexp.MustCompile(`\$\{([a-zA-Z0-9_]+)(?:\.([a-zA-Z0-9_.]+))?\}`)

// scenarioVars holds values stored by earlier steps so later steps can
// reference them with ${name} or ${name.field} placeholders.
type scenarioVars struct {
	values map[string]any
}

func newScenarioVars() *scenarioVars {
	return &scenarioVars{values: make(map[string]any)}
}

// Store saves a step result under name.
func (v *scenarioVars) Store(name string, value any) {
	v.values[name] = value
}

// Lookup resolves a dotted reference like "create_user.id" into the stored
// value, descending through nested JSON objects.
func (v *scenarioVars) Lookup(name, path string) (any, bool) {
	value, ok := v.values[name]
	if !ok {
		return nil, false
	}
	if path == "" {
		return value, true
	}
	for _, part := range strings.Split(path, ".") {
		m, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return value, true
}

// ResolveString substitutes every placeholder in s. Unknown references
// produce an error so a typo fails the step instead of sending the raw
// placeholder to the service.
func (v *scenarioVars) ResolveString(s string) (string, error) {
	var resolveErr error
	out := varPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := varPattern.FindStringSubmatch(match)
		value, ok := v.Lookup(groups[1], groups[2])
		if !ok {
			resolveErr = fmt.Errorf("unknown variable reference %s", match)
			return match
		}
		return formatVar(value)
	})
	return out, resolveErr
}

// ResolveValue substitutes placeholders in string values, recursing into
// maps and slices. A string that is exactly one placeholder resolves to
// the stored value itself, preserving its type.
func (v *scenarioVars) ResolveValue(value any) (any, error) {
	switch tv := value.(type) {
	case string:
		if groups := varPattern.FindStringSubmatch(tv); groups != nil && groups[0] == tv {
			resolved, ok := v.Lookup(groups[1], groups[2])
			if !ok {
				return nil, fmt.Errorf("unknown variable reference %s", tv)
			}
			return resolved, nil
		}
		return v.ResolveString(tv)
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, item := range tv {
			resolved, err := v.ResolveValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			resolved, err := v.ResolveValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return value, nil
	}
}

// ResolveMap substitutes placeholders in every value of m.
func (v *scenarioVars) ResolveMap(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	out, err := v.ResolveValue(m)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

// formatVar renders a stored value for string interpolation. JSON numbers
// arrive as float64; integral ones print without a decimal point.
func formatVar(value any) string {
	if f, ok := value.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", value)
}
