// FILE: lixenwraith/layered/cursor.go
package layered

import (
	"fmt"
	"log/slog"
	"math"
	"reflect"
)

// Insertion position encoding.
//
//	-1   append to the end (default)
//	 0   prepend
//	>0   absolute index from the start, appending when past the end
//	<-1  offset from the end: -2 inserts immediately before the last source
const (
	PositionAppend  = -1
	PositionPrepend = 0
)

// insertAt places item in list according to the position encoding.
func insertAt(list []Source, item Source, pos int) []Source {
	n := len(list)
	var idx int
	switch {
	case pos == PositionAppend:
		idx = n
	case pos == PositionPrepend:
		idx = 0
	case pos > 0:
		idx = min(pos, n)
	default:
		idx = max(n+pos+1, 0)
	}

	list = append(list, nil)
	copy(list[idx+1:], list[idx:])
	list[idx] = item
	return list
}

// SetPosition sets the sticky insertion position used by Add.
func (r *Resolver) SetPosition(pos int) {
	r.position = pos
}

// SetPositionValue is SetPosition for dynamically typed input, e.g. a value
// decoded from a file. Any Go number is accepted, floats are truncated toward
// zero. Anything else is reported with ErrInvalidPosition and the position is
// left unchanged.
func (r *Resolver) SetPositionValue(v any) error {
	pos, ok := toPosition(v)
	if !ok {
		return r.reporter.Report(ErrInvalidPosition, "invalid pos value", map[string]any{
			"value": fmt.Sprintf("%v", v),
			"type":  fmt.Sprintf("%T", v),
		})
	}
	r.position = pos
	return nil
}

// Position returns the sticky insertion position.
func (r *Resolver) Position() int {
	return r.position
}

func toPosition(v any) (int, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt {
			return 0, false
		}
		return int(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(math.Trunc(f)), true
	}
	return 0, false
}

// Anchor selects the object string items passed to Add are resolved against.
// It is one of AnchorSnapshot, AnchorReset, AnchorIndex or AnchorSource.
type Anchor interface {
	isAnchor()
}

// AnchorSnapshot pins the anchor to the merged view as it is now.
type AnchorSnapshot struct{}

// AnchorReset unsets the anchor. The next string item passed to Add pins it
// to the merged view of that moment.
type AnchorReset struct{}

// AnchorIndex selects an existing source by index, negative counting from
// the end.
type AnchorIndex int

// AnchorSource uses the given map as the anchor.
type AnchorSource struct {
	Source Source
}

func (AnchorSnapshot) isAnchor() {}
func (AnchorReset) isAnchor()    {}
func (AnchorIndex) isAnchor()    {}
func (AnchorSource) isAnchor()   {}

// SetAnchor changes the lookup anchor. An out of range AnchorIndex, a nil
// AnchorSource map and a nil Anchor are reported with ErrInvalidAnchor and
// leave the anchor unchanged.
func (r *Resolver) SetAnchor(a Anchor) error {
	switch a := a.(type) {
	case AnchorSnapshot:
		r.anchor, r.anchorSet = r.merged, true
	case AnchorReset:
		r.anchor, r.anchorSet = nil, false
	case AnchorIndex:
		idx := int(a)
		if idx < 0 {
			idx += len(r.sources)
		}
		if idx < 0 || idx >= len(r.sources) {
			return r.reporter.Report(ErrInvalidAnchor, "invalid source offset", map[string]any{
				"offset":  int(a),
				"sources": len(r.sources),
			})
		}
		r.anchor, r.anchorSet = r.sources[idx], true
	case AnchorSource:
		if a.Source == nil {
			return r.reporter.Report(ErrInvalidAnchor, "invalid source", map[string]any{"type": "nil map"})
		}
		r.anchor, r.anchorSet = a.Source, true
	default:
		return r.reporter.Report(ErrInvalidAnchor, "invalid source", map[string]any{
			"type": fmt.Sprintf("%T", a),
		})
	}
	r.logger.Debug("lookup anchor changed", slog.String("anchor", fmt.Sprintf("%T", a)))
	return nil
}

// SetAnchorValue is SetAnchor for dynamically typed input: true pins the
// merged view, false resets, a number selects a source by index and a
// map[string]any is used directly. Anything else is reported with
// ErrInvalidAnchor.
func (r *Resolver) SetAnchorValue(v any) error {
	switch v := v.(type) {
	case bool:
		if v {
			return r.SetAnchor(AnchorSnapshot{})
		}
		return r.SetAnchor(AnchorReset{})
	case map[string]any:
		return r.SetAnchor(AnchorSource{Source: v})
	}
	if idx, ok := toPosition(v); ok {
		return r.SetAnchor(AnchorIndex(idx))
	}
	return r.reporter.Report(ErrInvalidAnchor, "invalid source", map[string]any{
		"type": fmt.Sprintf("%T", v),
	})
}

// Anchor returns the current lookup anchor and whether one is set.
func (r *Resolver) Anchor() (Source, bool) {
	return r.anchor, r.anchorSet
}

// lookupAnchor returns the anchor, pinning it to the merged view when unset.
func (r *Resolver) lookupAnchor() Source {
	if !r.anchorSet {
		r.anchor, r.anchorSet = r.merged, true
	}
	return r.anchor
}
