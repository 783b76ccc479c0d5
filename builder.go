// File: lixenwraith/layered/builder.go
package layered

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Layer names a kind of source assembled by Builder.
type Layer string

const (
	// LayerDefault holds the defaults given to WithDefaults
	LayerDefault Layer = "default"
	// LayerFile holds values loaded from the configuration file
	LayerFile Layer = "file"
	// LayerEnv holds values loaded from environment variables
	LayerEnv Layer = "env"
	// LayerCLI holds values parsed from command-line arguments
	LayerCLI Layer = "cli"
)

// DefaultLayers is the standard precedence, highest first.
func DefaultLayers() []Layer {
	return []Layer{LayerCLI, LayerEnv, LayerFile, LayerDefault}
}

// ValidatorFunc defines the signature for a function that can validate a Resolver.
// It receives the fully assembled resolver and should return an error if validation fails.
type ValidatorFunc func(r *Resolver) error

// Builder provides a fluent interface for assembling a Resolver from
// defaults, a file, the environment and command-line arguments.
type Builder struct {
	opts         []Option
	defaults     any
	tagName      string
	file         string
	args         []string
	envPrefix    string
	envTransform EnvTransformFunc
	envWhitelist []string
	layers       []Layer
	err          error
	validators   []ValidatorFunc
}

// NewBuilder creates a new builder reading os.Args[1:] with DefaultLayers
// precedence.
func NewBuilder() *Builder {
	return &Builder{
		args:   os.Args[1:],
		layers: DefaultLayers(),
	}
}

// WithDefaults sets the defaults, a struct (see StructSource) or a map.
func (b *Builder) WithDefaults(defaults any) *Builder {
	b.defaults = defaults
	return b
}

// WithTagName sets the struct tag used for defaults and Scan.
func (b *Builder) WithTagName(tag string) *Builder {
	b.tagName = tag
	b.opts = append(b.opts, WithTagName(tag))
	return b
}

// WithFile sets the configuration file path
func (b *Builder) WithFile(path string) *Builder {
	b.file = path
	return b
}

// WithArgs sets the command-line arguments
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithEnvPrefix sets the environment variable prefix
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.envPrefix = prefix
	return b
}

// WithEnvTransform sets a custom environment variable transformer
func (b *Builder) WithEnvTransform(fn EnvTransformFunc) *Builder {
	b.envTransform = fn
	return b
}

// WithEnvWhitelist limits which paths are checked for env vars
func (b *Builder) WithEnvWhitelist(paths ...string) *Builder {
	b.envWhitelist = append(b.envWhitelist, paths...)
	return b
}

// WithLayers sets the precedence order, highest first. Layers left out are
// not loaded.
func (b *Builder) WithLayers(layers ...Layer) *Builder {
	for _, l := range layers {
		switch l {
		case LayerDefault, LayerFile, LayerEnv, LayerCLI:
		default:
			b.err = fmt.Errorf("unknown layer %q", l)
			return b
		}
	}
	b.layers = layers
	return b
}

// WithLogger sets the resolver logger.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.opts = append(b.opts, WithLogger(logger))
	return b
}

// WithFatal starts the resolver in fatal mode.
func (b *Builder) WithFatal(fatal bool) *Builder {
	b.opts = append(b.opts, WithFatal(fatal))
	return b
}

// WithStrict starts the resolver in strict mode.
func (b *Builder) WithStrict(strict bool) *Builder {
	b.opts = append(b.opts, WithStrict(strict))
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build loads every layer and merges them leaf by leaf, lowest precedence
// first, into a single source added to a new Resolver. A higher layer
// overrides individual paths ("server.port") without dropping sibling values
// from the layers below it.
//
// A missing file is not fatal: the resolver is returned together with an
// error matching ErrConfigNotFound. Command-line and environment problems are
// joined into the returned error the same way.
func (b *Builder) Build() (*Resolver, error) {
	if b.err != nil {
		return nil, b.err
	}

	loaded := make(map[Layer]Source, len(b.layers))
	var loadErrors []error

	if b.defaults != nil {
		defaults, err := StructSource(b.defaults, b.tagName)
		if err != nil {
			return nil, fmt.Errorf("failed to load defaults: %w", err)
		}
		loaded[LayerDefault] = defaults
	}

	if b.file != "" && b.hasLayer(LayerFile) {
		fileSource, err := LoadFile(b.file)
		switch {
		case err == nil:
			loaded[LayerFile] = fileSource
		case errors.Is(err, ErrConfigNotFound):
			loadErrors = append(loadErrors, err)
		default:
			return nil, err
		}
	}

	if b.hasLayer(LayerEnv) {
		envSource, err := EnvSource(b.envPrefix, b.envTransform, b.envPaths(loaded))
		if err != nil {
			loadErrors = append(loadErrors, err)
		} else {
			loaded[LayerEnv] = envSource
		}
	}

	if len(b.args) > 0 && b.hasLayer(LayerCLI) {
		cliSource, err := ArgsSource(b.args)
		if err != nil {
			loadErrors = append(loadErrors, err)
		} else {
			loaded[LayerCLI] = cliSource
		}
	}

	combined := make(Source)
	for i := len(b.layers) - 1; i >= 0; i-- {
		if source, ok := loaded[b.layers[i]]; ok {
			mergeLayer(combined, source)
		}
	}

	r := New(b.opts...)
	if len(combined) > 0 {
		if err := r.AddAt(PositionAppend, combined); err != nil {
			return nil, fmt.Errorf("failed to add combined layers: %w", err)
		}
	}

	for _, validator := range b.validators {
		if err := validator(r); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return r, errors.Join(loadErrors...)
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Resolver {
	r, err := b.Build()
	if err != nil {
		// The application can proceed with defaults/env vars when the file is missing.
		if r == nil || !errors.Is(err, ErrConfigNotFound) {
			panic(fmt.Sprintf("layered build failed: %v", err))
		}
	}
	return r
}

// BuildAndScan builds and decodes the merged view into target.
func (b *Builder) BuildAndScan(target any) error {
	r, err := b.Build()
	if r == nil {
		return err
	}
	if scanErr := r.Scan("", target); scanErr != nil {
		return fmt.Errorf("failed to scan final config into target: %w", scanErr)
	}
	return err
}

// mergeLayer writes every leaf path of src into dst, replacing leaves that
// are already present. Values are copied so dst never aliases src.
func mergeLayer(dst, src Source) {
	for path, value := range flattenMap(src, "") {
		setNestedValue(dst, path, deepCopy(value))
	}
}

func (b *Builder) hasLayer(l Layer) bool {
	for _, layer := range b.layers {
		if layer == l {
			return true
		}
	}
	return false
}

// envPaths lists the leaf paths checked against the environment: the
// whitelist when set, otherwise every path known from defaults and file.
func (b *Builder) envPaths(loaded map[Layer]Source) []string {
	if len(b.envWhitelist) > 0 {
		return b.envWhitelist
	}
	seen := make(map[string]struct{})
	var paths []string
	for _, l := range []Layer{LayerDefault, LayerFile} {
		for path := range flattenMap(loaded[l], "") {
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			paths = append(paths, path)
		}
	}
	return paths
}
