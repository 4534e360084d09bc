// Package placeholder implements textual interpolation of {{key}} and
// {{a.b.c}} tokens against a merged data map.
//
// Unresolvable tokens are left unchanged rather than replaced with an empty
// string, which keeps substitution idempotent: applying Substitute to its own
// output is a no-op.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Substitute replaces {{ key }} tokens in text with values from data. Keys
// are whitespace-trimmed; a key containing '.' is treated as a dotted path
// through nested maps. A missing key, a missing path segment, or a traversal
// through a non-map value leaves the original token literal in place.
func Substitute(text string, data map[string]interface{}) string {
	if data == nil || !strings.Contains(text, "{{") {
		return text
	}

	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		key := strings.TrimSpace(tokenPattern.FindStringSubmatch(token)[1])
		if key == "" {
			return token
		}

		if strings.Contains(key, ".") {
			value, ok := lookupPath(data, strings.Split(key, "."))
			if !ok {
				return token
			}
			return format(value)
		}

		value, ok := data[key]
		if !ok {
			return token
		}

		return format(value)
	})
}

// lookupPath walks nested maps segment by segment.
func lookupPath(data map[string]interface{}, segments []string) (interface{}, bool) {
	var current interface{} = data
	for _, segment := range segments {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// asMap normalizes the map shapes produced by the YAML and JSON decoders.
func asMap(value interface{}) (map[string]interface{}, bool) {
	switch m := value.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		converted := make(map[string]interface{}, len(m))
		for k, v := range m {
			converted[fmt.Sprintf("%v", k)] = v
		}
		return converted, true
	default:
		return nil, false
	}
}

func format(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode to float64; render integral values without a
		// trailing ".0" so {{count}} reads as "5", not "5.0".
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
