// FILE: lixenwraith/layered/get.go
package layered

import (
	"errors"
	"fmt"
	"strings"
)

// Get reads key from the merged view. key is a string or a []string of path
// segments; see ReadOptions.Path for how the lookup strategy is chosen.
//
// A value found in a source is returned as stored, functions included. A
// missing key yields the default, evaluated first when it is Lazy and IsLazy
// is on, or ErrNotFound without one. A failing lazy default is reported with
// ErrLazyEval: in fatal mode the error is returned, otherwise the read
// behaves as if there were no default.
func (r *Resolver) Get(key any, opts ...ReadOptions) (any, error) {
	var o ReadOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return r.get(key, normalize(o))
}

// Find returns the first of paths that resolves to a value, in order, so the
// first listed path has the highest priority. Default and ReadOnly apply to
// the whole search, not to each path: when no path resolves the default is
// evaluated, and without one ErrNotFound is returned.
func (r *Resolver) Find(opts ReadOptions, paths ...any) (any, error) {
	o := normalize(opts)
	def := o.Default
	o.Default = nil
	o.ReadOnly = false

	for _, path := range paths {
		value, err := r.get(path, o)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	o.Default = def
	return r.resolveDefault(o)
}

func (r *Resolver) get(key any, o ReadOptions) (any, error) {
	usePath := o.Path == SwitchOn || (o.Path == SwitchAuto && isPath(key))

	var raw any
	var found bool
	if usePath {
		raw, found = lookupPath(r.merged, splitPath(key))
	} else {
		raw, found = r.merged[flatKey(key)]
	}

	if found && raw == nil && !o.AllowNull {
		found = false
	}
	if !found {
		return r.resolveDefault(o)
	}

	if o.ReadOnly {
		return deepCopy(raw), nil
	}
	return raw, nil
}

// resolveDefault handles a read with no raw value present.
func (r *Resolver) resolveDefault(o ReadOptions) (any, error) {
	if o.Default == nil {
		return nil, ErrNotFound
	}
	value, ok, err := r.evaluate(o.Default, o)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if o.ReadOnly {
		value = deepCopy(value)
	}
	return value, nil
}

// evaluate resolves a default when it is Lazy and lazy evaluation is on. ok
// is false when evaluation failed and the failure was only logged.
func (r *Resolver) evaluate(v any, o ReadOptions) (value any, ok bool, err error) {
	if o.IsLazy != SwitchOn {
		return v, true, nil
	}
	lazy, isLazy := asLazy(v)
	if !isLazy {
		return v, true, nil
	}

	value, evalErr := lazy.Resolve(LazyContext{
		This: o.LazyThis,
		Args: o.LazyArgs,
		View: r.merged,
	})
	if evalErr != nil {
		if err := r.reporter.Report(ErrLazyEval, "lazy value evaluation failed", map[string]any{
			"error": evalErr.Error(),
		}); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return value, true, nil
}

func flatKey(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case []string:
		return strings.Join(k, PathSeparator)
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprint(k)
	}
}
