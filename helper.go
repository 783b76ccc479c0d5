// File: lixenwraith/layered/helper.go
package layered

import (
	"sort"
	"strconv"
	"strings"
)

// PathSeparator splits nested keys ("server.port").
const PathSeparator = "."

// isPath reports whether key addresses a nested value: a segment slice, or
// a string containing the path separator.
func isPath(key any) bool {
	switch k := key.(type) {
	case []string:
		return true
	case string:
		return strings.Contains(k, PathSeparator)
	}
	return false
}

// splitPath converts a key into path segments.
func splitPath(key any) []string {
	switch k := key.(type) {
	case []string:
		return k
	case string:
		return strings.Split(k, PathSeparator)
	}
	return nil
}

// lookupPath walks segments through nested maps and slices. Slice elements
// are addressed by decimal index segments.
func lookupPath(container any, segments []string) (any, bool) {
	if len(segments) == 0 {
		return nil, false
	}
	current := container
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = value
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// flattenMap converts a nested map[string]any to a flat map[string]any with dot-notation paths.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)

	for key, value := range nested {
		path := key
		if prefix != "" {
			path = prefix + PathSeparator + key
		}

		if nestedMap, isMap := value.(map[string]any); isMap && len(nestedMap) > 0 {
			for subPath, subValue := range flattenMap(nestedMap, path) {
				flat[subPath] = subValue
			}
		} else {
			flat[path] = value
		}
	}

	return flat
}

// setNestedValue sets a value in a nested map using a dot-notation path.
// It creates intermediate maps if they don't exist.
// If a segment exists but is not a map, it will be overwritten by a new map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, PathSeparator)
	current := nested

	for _, segment := range segments[:len(segments)-1] {
		next, isMap := current[segment].(map[string]any)
		if !isMap {
			next = make(map[string]any)
			current[segment] = next
		}
		current = next
	}

	current[segments[len(segments)-1]] = value
}

// isValidKeySegment checks if a single path segment is a valid TOML bare key:
// ASCII letters, digits, underscores and dashes.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// deepCopy detaches composite values read from sources.
func deepCopy(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = deepCopy(e)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
