// FILE: lixenwraith/layered/loader.go
package layered

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// MaxValueSize caps a single environment or command-line value.
const MaxValueSize = 1 << 20

// ErrValueSize is returned when a value exceeds MaxValueSize.
var ErrValueSize = errors.New("value exceeds maximum size")

// EnvTransformFunc converts a dot path to an environment variable name
type EnvTransformFunc func(path string) string

// LoadFile reads a TOML, JSON or YAML file into a Source. The format comes
// from the extension and falls back to content detection. A missing file
// returns ErrConfigNotFound.
func LoadFile(path string) (Source, error) {
	fileData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	format := detectFileFormat(path)
	if format == "" {
		format = detectFormatFromContent(fileData)
	}

	source, err := ParseSource(format, fileData)
	if err != nil {
		return nil, fmt.Errorf("config file '%s': %w", path, err)
	}
	return source, nil
}

// ParseSource decodes data in the named format ("toml", "json" or "yaml").
func ParseSource(format string, data []byte) (Source, error) {
	source := make(Source)
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &source); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber() // Preserve number precision
		if err := decoder.Decode(&source); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &source); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to determine config format %q", format)
	}
	return source, nil
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing
func detectFormatFromContent(data []byte) string {
	// JSON first, it is the strictest
	var jsonTest map[string]any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return "json"
	}

	// TOML before YAML: most "key = value" files are also valid YAML scalars
	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return "toml"
	}

	var yamlTest map[string]any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return "yaml"
	}

	return ""
}

// ArgsSource parses command-line arguments into a Source. Accepted forms are
// "--key.sub value", "--key.sub=value" and a bare "--flag" meaning "true".
// Non-flag arguments and a lone "--" are skipped.
func ArgsSource(args []string) (Source, error) {
	result := make(Source)
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			i++
			continue
		}

		argContent := strings.TrimPrefix(arg, "--")
		if argContent == "" {
			i++
			continue
		}

		var keyPath, valueStr string
		if key, value, ok := strings.Cut(argContent, "="); ok {
			keyPath, valueStr = key, value
			i++
		} else {
			keyPath = argContent
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				valueStr = "true"
				i++
			} else {
				valueStr = args[i+1]
				i += 2
			}
		}

		if keyPath == "" {
			continue
		}
		if len(valueStr) > MaxValueSize {
			return nil, fmt.Errorf("%w: argument %q", ErrValueSize, keyPath)
		}

		for _, segment := range strings.Split(keyPath, PathSeparator) {
			if !isValidKeySegment(segment) {
				return nil, fmt.Errorf("%w: invalid key segment %q in path %q", ErrCLIParse, segment, keyPath)
			}
		}

		setNestedValue(result, keyPath, parseValue(valueStr))
	}

	return result, nil
}

// EnvSource looks up an environment variable for each dot path and collects
// the ones present into a nested Source. A nil transform uppercases the path,
// replaces dots with underscores and prepends prefix.
func EnvSource(prefix string, transform EnvTransformFunc, paths []string) (Source, error) {
	if transform == nil {
		transform = defaultEnvTransform(prefix)
	}

	result := make(Source)
	for _, path := range paths {
		value, exists := os.LookupEnv(transform(path))
		if !exists {
			continue
		}
		if len(value) > MaxValueSize {
			return nil, fmt.Errorf("%w: env %s", ErrValueSize, transform(path))
		}
		setNestedValue(result, path, parseValue(value))
	}
	return result, nil
}

// EnvSource is the package EnvSource over every leaf path of the merged view.
func (r *Resolver) EnvSource(prefix string, transform EnvTransformFunc) (Source, error) {
	return EnvSource(prefix, transform, r.Paths())
}

// Paths returns the sorted leaf paths of the merged view.
func (r *Resolver) Paths() []string {
	flat := flattenMap(r.merged, "")
	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// defaultEnvTransform creates the default environment variable transformer
func defaultEnvTransform(prefix string) EnvTransformFunc {
	return func(path string) string {
		env := strings.ReplaceAll(path, PathSeparator, "_")
		env = strings.ReplaceAll(env, "-", "_")
		return prefix + strings.ToUpper(env)
	}
}

// parseValue attempts to parse a string into appropriate types
// Only basic parse, complex parsing is deferred to mapstructure's decode hooks
func parseValue(s string) any {
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}

	// Remove quotes if present
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}

	return s
}

// StructSource converts a struct (or pointer to one) holding defaults into a
// nested Source keyed by the tagName struct tag ("toml" when empty). Fields
// tagged "-", unexported fields and nil struct pointers are skipped.
func StructSource(v any, tagName string) (Source, error) {
	if tagName == "" {
		tagName = DefaultTagName
	}
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("StructSource requires a non-nil struct pointer or value")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("StructSource requires a struct or struct pointer, got %T", v)
	}
	return structFields(rv, tagName), nil
}

// structFields walks exported fields recursively, nesting sub-structs.
func structFields(v reflect.Value, tagName string) Source {
	t := v.Type()
	out := make(Source, v.NumField())

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get(tagName)
		if tag == "-" {
			continue
		}
		key := field.Name
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			key = name
		}

		switch {
		case fieldValue.Kind() == reflect.Struct && !isLeafStruct(fieldValue.Type()):
			out[key] = structFields(fieldValue, tagName)
		case fieldValue.Kind() == reflect.Ptr && fieldValue.Type().Elem().Kind() == reflect.Struct &&
			!isLeafStruct(fieldValue.Type().Elem()):
			if fieldValue.IsNil() {
				continue
			}
			out[key] = structFields(fieldValue.Elem(), tagName)
		default:
			out[key] = fieldValue.Interface()
		}
	}
	return out
}

// isLeafStruct marks struct types that are values rather than sections.
func isLeafStruct(t reflect.Type) bool {
	switch t.PkgPath() + "." + t.Name() {
	case "time.Time", "net/url.URL", "net.IPNet":
		return true
	}
	return false
}
