// FILE: lixenwraith/layered/resolver.go
package layered

import (
	"fmt"
	"log/slog"
	"maps"
	"reflect"
)

// Source is a plain key/value mapping contributing option values. Sources are
// owned by the caller: a Resolver keeps references and never copies or
// mutates them.
type Source = map[string]any

// Resolver merges an ordered list of sources into one view. Later sources
// override earlier ones on top-level key collision.
//
// A Resolver has a single logical owner and is not safe for concurrent use.
type Resolver struct {
	sources []Source
	merged  map[string]any

	position  int
	anchor    Source
	anchorSet bool

	reporter *Reporter
	logger   *slog.Logger
	tagName  string

	initial []Source
}

// Option configures a Resolver at construction.
type Option func(*Resolver)

// WithLogger sets the logger used for reports and debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFatal starts the resolver in fatal mode.
func WithFatal(fatal bool) Option {
	return func(r *Resolver) {
		r.reporter.SetFatal(fatal)
	}
}

// WithStrict starts the resolver in strict mode.
func WithStrict(strict bool) Option {
	return func(r *Resolver) {
		r.reporter.SetStrict(strict)
	}
}

// WithTagName sets the struct tag used by Scan. Default "toml".
func WithTagName(tag string) Option {
	return func(r *Resolver) {
		r.tagName = tag
	}
}

// WithPosition sets the initial insertion position.
func WithPosition(pos int) Option {
	return func(r *Resolver) {
		r.position = pos
	}
}

// WithSources adds initial sources through the regular Add path, after all
// other options are applied.
func WithSources(sources ...Source) Option {
	return func(r *Resolver) {
		r.initial = append(r.initial, sources...)
	}
}

// New creates a Resolver with an empty source list, insertion position -1
// (append) and an unset lookup anchor.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		merged:   make(map[string]any),
		position: PositionAppend,
		logger:   slog.Default(),
	}
	r.reporter = NewReporter(nil)
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.reporter.logger = r.logger

	if len(r.initial) > 0 {
		items := make([]any, len(r.initial))
		for i, s := range r.initial {
			items[i] = s
		}
		r.initial = nil
		if err := r.Add(items...); err != nil {
			r.logger.Error("initial sources rejected", slog.Any("error", err))
		}
	}
	return r
}

// Add inserts items into the source list at the current insertion position
// and recompiles the merged view.
//
// nil items are skipped. A string item names a nested property (dot paths
// allowed) of the lookup anchor; the anchor is pinned to the current merged
// view when unset. A missing property is reported with ErrPropertyNotFound in
// strict mode and skipped otherwise. A map[string]any is inserted as is. Any
// other value is reported with ErrInvalidSource.
//
// In fatal mode the first report aborts the remaining items and is returned.
// The view is recompiled in every case.
func (r *Resolver) Add(items ...any) error {
	return r.add(r.position, items)
}

// AddAt is Add with an explicit insertion position for this call only. The
// sticky position set with SetPosition is left untouched.
func (r *Resolver) AddAt(position int, items ...any) error {
	return r.add(position, items)
}

func (r *Resolver) add(position int, items []any) error {
	defer r.Compile()

	for _, item := range items {
		if err := r.addItem(position, item); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) addItem(position int, item any) error {
	if item == nil {
		return nil
	}

	if name, ok := item.(string); ok {
		value, found := lookupPath(r.lookupAnchor(), splitPath(name))
		if !found || value == nil {
			if r.reporter.Strict() {
				return r.reporter.Report(ErrPropertyNotFound, "property not found", map[string]any{
					"property": name,
				})
			}
			r.logger.Debug("nested source skipped", slog.String("property", name))
			return nil
		}
		item = value
	}

	source, ok := item.(map[string]any)
	if !ok {
		return r.reporter.Report(ErrInvalidSource, "invalid source value", map[string]any{
			"type": fmt.Sprintf("%T", item),
		})
	}
	if source == nil {
		return nil
	}

	r.sources = insertAt(r.sources, source, position)
	r.logger.Debug("source added",
		slog.Int("position", position),
		slog.Int("sources", len(r.sources)),
	)
	return nil
}

// Remove drops the first occurrence of each given source, matched by map
// identity, and recompiles the merged view. Absent sources are ignored.
func (r *Resolver) Remove(sources ...Source) {
	for _, target := range sources {
		for i, s := range r.sources {
			if sameSource(s, target) {
				r.sources = append(r.sources[:i:i], r.sources[i+1:]...)
				break
			}
		}
	}
	r.Compile()
}

// Clear empties the source list. The merged view becomes empty.
func (r *Resolver) Clear() {
	r.sources = nil
	r.Compile()
}

// Compile rebuilds the merged view by overlaying every source in list order
// onto an empty map. Nested maps are replaced wholesale, never deep merged.
//
// Mutating operations call Compile themselves. Call it directly after
// changing a source map in place to make the change visible.
func (r *Resolver) Compile() {
	merged := make(map[string]any)
	for _, s := range r.sources {
		maps.Copy(merged, s)
	}
	r.merged = merged
}

// View returns a shallow copy of the merged view.
func (r *Resolver) View() map[string]any {
	return maps.Clone(r.merged)
}

// Sources returns the source list in precedence order, lowest first. The
// slice is a copy; the maps are the caller's originals.
func (r *Resolver) Sources() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Len returns the number of sources.
func (r *Resolver) Len() int {
	return len(r.sources)
}

// Origin returns the index of the source that supplies the top-level key in
// the merged view.
func (r *Resolver) Origin(key string) (int, bool) {
	for i := len(r.sources) - 1; i >= 0; i-- {
		if _, ok := r.sources[i][key]; ok {
			return i, true
		}
	}
	return -1, false
}

// Reporter returns the error policy of the resolver.
func (r *Resolver) Reporter() *Reporter {
	return r.reporter
}

// SetFatal switches between returning and logging reported problems.
func (r *Resolver) SetFatal(fatal bool) {
	r.reporter.SetFatal(fatal)
}

// SetStrict toggles reporting of missing nested properties in Add.
func (r *Resolver) SetStrict(strict bool) {
	r.reporter.SetStrict(strict)
}

// SetStrictValue is SetStrict for dynamically typed input.
func (r *Resolver) SetStrictValue(v any) error {
	return r.reporter.SetStrictValue(v)
}

func sameSource(a, b Source) bool {
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}
