// FILE: lixenwraith/layered/options.go
package layered

import (
	"reflect"
)

// Switch is a tri-state flag: unset flags are inferred from other fields.
type Switch int8

const (
	SwitchAuto Switch = iota
	SwitchOn
	SwitchOff
)

func (s Switch) String() string {
	switch s {
	case SwitchOn:
		return "on"
	case SwitchOff:
		return "off"
	default:
		return "auto"
	}
}

func switchOf(b bool) Switch {
	if b {
		return SwitchOn
	}
	return SwitchOff
}

// ReadOptions controls a single Get or Find.
type ReadOptions struct {
	// Path forces nested (on) or flat (off) lookup. Auto treats []string keys
	// and keys containing PathSeparator as paths.
	Path Switch

	// Default is returned when no source provides the key. nil means no
	// default. A Lazy default is evaluated when IsLazy is on.
	Default any

	// ReadOnly returns deep copies of map and slice results.
	ReadOnly bool

	// AllowNull makes a stored nil count as a value instead of a miss.
	AllowNull bool

	// IsLazy evaluates Lazy values and defaults. Auto turns on when LazyThis
	// is a non-primitive value or LazyArgs is set.
	IsLazy   Switch
	LazyThis any
	LazyArgs []any
}

// normalize infers IsLazy. It is pure and idempotent, so options can be
// reused across calls without being processed twice.
func normalize(o ReadOptions) ReadOptions {
	if o.IsLazy == SwitchAuto && (isNonPrimitive(o.LazyThis) || o.LazyArgs != nil) {
		o.IsLazy = SwitchOn
	}
	if o.LazyArgs != nil {
		o.LazyArgs = append(o.LazyArgs[:0:0], o.LazyArgs...)
	}
	return o
}

func isNonPrimitive(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Struct, reflect.Array, reflect.Func, reflect.Chan, reflect.Interface:
		return true
	case reflect.Pointer, reflect.UnsafePointer:
		return !rv.IsNil()
	}
	return false
}

// Option map keys accepted by OptionsFromMap, and their aliases.
var optionAliases = map[string]string{
	"null": "allowNull",
	"lazy": "isLazy",
}

// OptionsFromMap builds ReadOptions from a loosely typed map, e.g. one read
// from a file. Canonical keys are path, default, readOnly, allowNull, isLazy,
// lazyThis and lazyArgs. The aliases null and lazy fill allowNull and isLazy
// when the canonical key is absent. Values of the wrong type are ignored.
func OptionsFromMap(m map[string]any) ReadOptions {
	expanded := make(map[string]any, len(m))
	for k, v := range m {
		expanded[k] = v
	}
	for alias, canonical := range optionAliases {
		v, ok := m[alias]
		if !ok {
			continue
		}
		if _, set := m[canonical]; !set {
			expanded[canonical] = v
		}
		delete(expanded, alias)
	}

	var o ReadOptions
	if b, ok := expanded["path"].(bool); ok {
		o.Path = switchOf(b)
	}
	o.Default = expanded["default"]
	if b, ok := expanded["readOnly"].(bool); ok {
		o.ReadOnly = b
	}
	if b, ok := expanded["allowNull"].(bool); ok {
		o.AllowNull = b
	}
	if b, ok := expanded["isLazy"].(bool); ok {
		o.IsLazy = switchOf(b)
	}
	o.LazyThis = expanded["lazyThis"]
	o.LazyArgs = toAnySlice(expanded["lazyArgs"])
	return normalize(o)
}

func toAnySlice(v any) []any {
	if v == nil {
		return nil
	}
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
