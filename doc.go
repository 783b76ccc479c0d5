// File: lixenwraith/layered/doc.go

// Package layered resolves option values from an ordered list of overlapping
// sources: defaults, user config, environment overrides, runtime overrides.
// Callers state precedence once, by position, instead of reimplementing it at
// every read.
//
// Features:
//   - Ordered source list, later sources win on top-level key collision
//   - Sticky insertion position (-1 append, 0 prepend, n index, -n from end)
//   - Sub-sources added by name from a nested property of a lookup anchor
//   - Flat and dot-path reads, multi-key fallback with Find
//   - Lazy defaults (functions or expr-lang expressions) evaluated on demand
//   - Strict and fatal error policies, non-fatal problems logged via slog
//   - Source loaders for TOML, YAML, JSON, environment and command line
//   - Struct decoding of the merged view with mapstructure
//
// Quick Start:
//
//	r := layered.New(layered.WithSources(
//	    layered.Source{"host": "localhost", "port": 8080},
//	))
//	_ = r.Add(layered.Source{"port": 9090})
//
//	port, _ := r.Int64("port") // 9090
//	host, _ := r.Find(layered.ReadOptions{Default: "0.0.0.0"}, "bind", "host")
//
// Merging is shallow: a nested map in a later source replaces the whole map
// of an earlier one. Builder is the exception: it merges its layers leaf by
// leaf before adding them, so an override of server.port keeps server.host.
//
// Sources are held by reference. After changing a source map in place, call
// Compile (or any mutating method) to refresh the merged view.
//
// A Resolver is meant for a single owner and does no locking.
package layered
