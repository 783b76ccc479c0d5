// File: lixenwraith/layered/convenience.go
package layered

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
)

// Quick builds a Resolver from struct defaults, environment variables with
// envPrefix, an optional file and os.Args, with standard precedence:
// CLI > Env > File > Default.
func Quick(defaults any, envPrefix, configFile string) (*Resolver, error) {
	return NewBuilder().
		WithDefaults(defaults).
		WithEnvPrefix(envPrefix).
		WithFile(configFile).
		WithArgs(os.Args[1:]).
		Build()
}

// MustQuick is like Quick but panics on error
func MustQuick(defaults any, envPrefix, configFile string) *Resolver {
	r, err := Quick(defaults, envPrefix, configFile)
	if err != nil && (r == nil || !errors.Is(err, ErrConfigNotFound)) {
		panic(fmt.Sprintf("layered initialization failed: %v", err))
	}
	return r
}

// GenerateFlags creates flag.FlagSet entries for every leaf path of the
// merged view, typed after the current value.
func (r *Resolver) GenerateFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("layered", flag.ContinueOnError)
	flat := flattenMap(r.merged, "")

	for _, path := range r.Paths() {
		usage := fmt.Sprintf("Config: %s", path)
		switch v := flat[path].(type) {
		case bool:
			fs.Bool(path, v, usage)
		case int64:
			fs.Int64(path, v, usage)
		case int:
			fs.Int(path, v, usage)
		case float64:
			fs.Float64(path, v, usage)
		case string:
			fs.String(path, v, usage)
		default:
			fs.String(path, fmt.Sprintf("%v", v), usage)
		}
	}

	return fs
}

// FlagSource collects the flags that were set on a parsed FlagSet into a
// nested Source, ready to be added above the other layers.
func FlagSource(fs *flag.FlagSet) Source {
	result := make(Source)
	fs.Visit(func(f *flag.Flag) {
		setNestedValue(result, f.Name, parseValue(f.Value.String()))
	})
	return result
}

// Validate checks that every required path resolves to a value.
func (r *Resolver) Validate(required ...string) error {
	var missing []string
	for _, path := range required {
		if _, err := r.Get(path, ReadOptions{Path: SwitchOn}); err != nil {
			missing = append(missing, path)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Debug returns a formatted string showing the source list, the cursor
// state and each top-level key with the index of the source supplying it.
func (r *Resolver) Debug() string {
	var b strings.Builder
	b.WriteString("Resolver Debug Info:\n")
	fmt.Fprintf(&b, "Sources: %d\n", len(r.sources))
	fmt.Fprintf(&b, "Position: %d\n", r.position)
	fmt.Fprintf(&b, "Anchor set: %t\n", r.anchorSet)
	fmt.Fprintf(&b, "Fatal: %t Strict: %t\n", r.reporter.Fatal(), r.reporter.Strict())
	b.WriteString("Current values:\n")

	for _, key := range sortedKeys(r.merged) {
		origin, _ := r.Origin(key)
		fmt.Fprintf(&b, "  %s = %v (source %d)\n", key, r.merged[key], origin)
	}

	return b.String()
}
